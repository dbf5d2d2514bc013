package calculator

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"

	"rodfem/model"
)

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadCfg(t *testing.T) {
	file, err := ini.Load([]byte(`
[rod]
element_count = 8
length = 2.5

[material]
heat_transfer_coefficient = 50

[boundary]
heat_source_density = -20
left_type = convection

[solver]
method = lu
pivot_check = true
workers = 3

[output]
format = json
precision = 4
`))
	require.NoError(t, err)

	cfg, err := loadCfg(file)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.ElementCount)
	assert.Equal(t, 2.5, cfg.Length)
	assert.Equal(t, 50.0, cfg.K)
	assert.Equal(t, -20.0, cfg.HeatSourceDensity)
	assert.Equal(t, BoundaryConvection, cfg.LeftType)
	assert.Equal(t, MethodLU, cfg.Method)
	assert.True(t, cfg.PivotCheck)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, 4, cfg.Precision)

	// 未配置的项取默认值
	d := DefaultConfig()
	assert.Equal(t, d.Area, cfg.Area)
	assert.Equal(t, d.EnvTemperature, cfg.EnvTemperature)
	assert.Equal(t, d.ConvectionCoefficient, cfg.ConvectionCoefficient)
	assert.Equal(t, d.RightType, cfg.RightType)
	assert.Equal(t, d.Addr, cfg.Addr)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "missing.ini"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("[rod]\nelement_count = 3\n"), 0o644))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ElementCount)
}

func TestLoadConfig_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		key     string
	}{
		{"decimal comma", "[boundary]\nheat_source_density = 150,0\n", "boundary.heat_source_density"},
		{"trailing garbage", "[material]\nheat_transfer_coefficient = -75x\n", "material.heat_transfer_coefficient"},
		{"letter in integer", "[rod]\nelement_count = 1O\n", "rod.element_count"},
		{"float element count", "[rod]\nelement_count = 2.5\n", "rod.element_count"},
		{"bad bool", "[solver]\npivot_check = maybe\n", "solver.pivot_check"},
		{"empty value", "[solver]\nworkers =\n", "solver.workers"},
		{"bad limit", "[server]\nmax_elements = lots\n", "server.max_elements"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.ini")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("[rod]\nelement_count = 9\n[solver]\nworkers = 2\n"), 0o644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--workers=4"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.ElementCount)
	assert.Equal(t, 4, cfg.Workers)

	require.NoError(t, os.WriteFile(path, []byte("[boundary]\nheat_source_density = 1\n"), 0o644))
	_, err = Load(path, fs)
	require.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestConfig_CheckLimits(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.CheckLimits())

	cfg.ElementCount = cfg.MaxElements + 1
	require.ErrorIs(t, cfg.CheckLimits(), model.ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Workers = cfg.MaxWorkers + 1
	require.ErrorIs(t, cfg.CheckLimits(), model.ErrInvalidConfig)

	// 0 表示不限制
	cfg.MaxWorkers = 0
	cfg.MaxElements = 0
	cfg.ElementCount = 1 << 20
	require.NoError(t, cfg.CheckLimits())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"zero elements", func(c *Config) { c.ElementCount = 0 }},
		{"zero length", func(c *Config) { c.Length = 0 }},
		{"negative area", func(c *Config) { c.Area = -1 }},
		{"zero k", func(c *Config) { c.K = 0 }},
		{"zero heat source", func(c *Config) { c.HeatSourceDensity = 0 }},
		{"positive heat source", func(c *Config) { c.HeatSourceDensity = 150 }},
		{"infinite environment temperature", func(c *Config) { c.EnvTemperature = math.Inf(1) }},
		{"negative infinite convection", func(c *Config) { c.ConvectionCoefficient = math.Inf(-1) }},
		{"nan convection", func(c *Config) { c.ConvectionCoefficient = math.NaN() }},
		{"negative server limit", func(c *Config) { c.MaxElements = -1 }},
		{"unknown left boundary", func(c *Config) { c.LeftType = "dirichlet" }},
		{"unknown right boundary", func(c *Config) { c.RightType = "" }},
		{"unknown method", func(c *Config) { c.Method = "cg" }},
		{"negative tolerance", func(c *Config) { c.PivotTolerance = -1 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"precision too large", func(c *Config) { c.Precision = 20 }},
		{"unknown format", func(c *Config) { c.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrInvalidConfig)
		})
	}
}

func TestApplyFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--element-count=12", "--method=lu", "-o", "table", "--pivot-check"}))

	cfg := DefaultConfig()
	cfg.Length = 9 // 来自配置文件，未被命令行覆盖
	require.NoError(t, ApplyFlags(&cfg, fs))

	assert.Equal(t, 12, cfg.ElementCount)
	assert.Equal(t, MethodLU, cfg.Method)
	assert.Equal(t, FormatTable, cfg.Format)
	assert.True(t, cfg.PivotCheck)
	assert.Equal(t, 9.0, cfg.Length)
	assert.Equal(t, DefaultConfig().K, cfg.K)
}

func TestBoundaryCatalog(t *testing.T) {
	cfg := DefaultConfig()
	catalog := BoundaryCatalog(cfg)
	assert.Equal(t, model.Flow{Q: -150}, catalog[model.LeftBoundary])
	assert.Equal(t, model.Convection{Alpha: 10, EnvTemperature: 40}, catalog[model.RightBoundary])

	cfg.LeftType, cfg.RightType = BoundaryConvection, BoundaryFlow
	catalog = BoundaryCatalog(cfg)
	assert.Equal(t, model.KindConvection, model.KindOf(catalog[0]))
	assert.Equal(t, model.KindFlow, model.KindOf(catalog[1]))
}
