package calculator

import (
	"fmt"
	"math"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/ini.v1"

	"rodfem/model"
)

const (
	DefaultConfigPath = "conf/config.ini"

	MethodGaussJordan = "gauss-jordan"
	MethodLU          = "lu"

	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"

	BoundaryFlow       = "flow"
	BoundaryConvection = "convection"
)

// Config 计算配置，启动时构建一次，之后只读
type Config struct {
	// 杆
	ElementCount int     `json:"element_count"`
	Length       float64 `json:"length"`
	Area         float64 `json:"cross_section_area"`

	// 材料
	K float64 `json:"heat_transfer_coefficient"`

	// 边界
	EnvTemperature        float64 `json:"environment_temperature"`
	HeatSourceDensity     float64 `json:"heat_source_density"`
	ConvectionCoefficient float64 `json:"convection_coefficient"`
	LeftType              string  `json:"left_type"`
	RightType             string  `json:"right_type"`

	// 求解器
	Method         string  `json:"method"`
	PivotCheck     bool    `json:"pivot_check"`
	PivotTolerance float64 `json:"pivot_tolerance"`
	Workers        int     `json:"workers"`

	// 输出
	Precision int    `json:"precision"`
	Format    string `json:"format"`

	// 服务端
	Addr        string `json:"addr"`
	MaxElements int    `json:"-"`
	MaxWorkers  int    `json:"-"`
}

// DefaultConfig 默认值与原始程序的编译期常量一致
func DefaultConfig() Config {
	return Config{
		ElementCount:          50,
		Length:                5.0,
		Area:                  1.0,
		K:                     75.0,
		EnvTemperature:        40.0,
		HeatSourceDensity:     -150,
		ConvectionCoefficient: 10.0,
		LeftType:              BoundaryFlow,
		RightType:             BoundaryConvection,
		Method:                MethodGaussJordan,
		PivotTolerance:        1e-12,
		Workers:               1,
		Precision:             2,
		Format:                FormatText,
		Addr:                  ":9000",
		MaxElements:           2000,
		MaxWorkers:            64,
	}
}

// LoadConfig 读取 ini 配置文件，文件不存在时使用默认值。
// 未配置的项取默认值，配置了但无法解析的项返回 ErrInvalidConfig
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.WithField("path", path).Warn("配置文件不存在，使用默认配置")
		return DefaultConfig(), nil
	}
	file, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg, err := loadCfg(file)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Load 配置文件 + 命令行覆盖 + 校验，启动和热加载走同一条路径
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if fs != nil {
		if err := ApplyFlags(&cfg, fs); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

// keyReader 记录第一个解析错误
type keyReader struct {
	err error
}

func (r *keyReader) key(s *ini.Section, name string) *ini.Key {
	if r.err != nil || !s.HasKey(name) {
		return nil
	}
	return s.Key(name)
}

func (r *keyReader) fail(s *ini.Section, k *ini.Key, err error) {
	r.err = invalid("%s.%s = %q: %v", s.Name(), k.Name(), k.String(), err)
}

func (r *keyReader) Int(s *ini.Section, name string, def int) int {
	k := r.key(s, name)
	if k == nil {
		return def
	}
	v, err := k.Int()
	if err != nil {
		r.fail(s, k, err)
		return def
	}
	return v
}

func (r *keyReader) Float64(s *ini.Section, name string, def float64) float64 {
	k := r.key(s, name)
	if k == nil {
		return def
	}
	v, err := k.Float64()
	if err != nil {
		r.fail(s, k, err)
		return def
	}
	return v
}

func (r *keyReader) Bool(s *ini.Section, name string, def bool) bool {
	k := r.key(s, name)
	if k == nil {
		return def
	}
	v, err := k.Bool()
	if err != nil {
		r.fail(s, k, err)
		return def
	}
	return v
}

func (r *keyReader) String(s *ini.Section, name string, def string) string {
	if r.err != nil {
		return def
	}
	return s.Key(name).MustString(def)
}

func loadCfg(file *ini.File) (Config, error) {
	d := DefaultConfig()
	rod := file.Section("rod")
	material := file.Section("material")
	boundary := file.Section("boundary")
	solver := file.Section("solver")
	output := file.Section("output")
	server := file.Section("server")

	var r keyReader
	cfg := Config{
		ElementCount: r.Int(rod, "element_count", d.ElementCount),
		Length:       r.Float64(rod, "length", d.Length),
		Area:         r.Float64(rod, "cross_section_area", d.Area),

		K: r.Float64(material, "heat_transfer_coefficient", d.K),

		EnvTemperature:        r.Float64(boundary, "environment_temperature", d.EnvTemperature),
		HeatSourceDensity:     r.Float64(boundary, "heat_source_density", d.HeatSourceDensity),
		ConvectionCoefficient: r.Float64(boundary, "convection_coefficient", d.ConvectionCoefficient),
		LeftType:              r.String(boundary, "left_type", d.LeftType),
		RightType:             r.String(boundary, "right_type", d.RightType),

		Method:         r.String(solver, "method", d.Method),
		PivotCheck:     r.Bool(solver, "pivot_check", d.PivotCheck),
		PivotTolerance: r.Float64(solver, "pivot_tolerance", d.PivotTolerance),
		Workers:        r.Int(solver, "workers", d.Workers),

		Precision: r.Int(output, "precision", d.Precision),
		Format:    r.String(output, "format", d.Format),

		Addr:        r.String(server, "addr", d.Addr),
		MaxElements: r.Int(server, "max_elements", d.MaxElements),
		MaxWorkers:  r.Int(server, "max_workers", d.MaxWorkers),
	}
	if r.err != nil {
		return Config{}, r.err
	}
	return cfg, nil
}

// Validate 配置错误在任何数值计算之前返回
func (c Config) Validate() error {
	switch {
	case c.ElementCount < 1:
		return invalid("element count must be at least 1, got %d", c.ElementCount)
	case !positive(c.Length):
		return invalid("rod length must be positive, got %g", c.Length)
	case !positive(c.Area):
		return invalid("cross-section area must be positive, got %g", c.Area)
	case !positive(c.K):
		return invalid("heat transfer coefficient must be positive, got %g", c.K)
	case !(c.HeatSourceDensity < 0):
		return invalid("heat source density must be negative, got %g", c.HeatSourceDensity)
	case !finite(c.EnvTemperature) || !finite(c.ConvectionCoefficient):
		return invalid("boundary coefficients must be finite numbers")
	}
	for _, t := range []string{c.LeftType, c.RightType} {
		if t != BoundaryFlow && t != BoundaryConvection {
			return invalid("unknown boundary type %q", t)
		}
	}
	if c.Method != MethodGaussJordan && c.Method != MethodLU {
		return invalid("unknown solver method %q", c.Method)
	}
	if c.PivotTolerance < 0 || math.IsNaN(c.PivotTolerance) {
		return invalid("pivot tolerance must not be negative, got %g", c.PivotTolerance)
	}
	if c.Workers < 1 {
		return invalid("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxElements < 0 || c.MaxWorkers < 0 {
		return invalid("server limits must not be negative")
	}
	if c.Precision < 0 || c.Precision > 12 {
		return invalid("precision must be between 0 and 12, got %d", c.Precision)
	}
	switch c.Format {
	case FormatText, FormatTable, FormatJSON:
	default:
		return invalid("unknown output format %q", c.Format)
	}
	return nil
}

func (c Config) Material() Material {
	return Material{K: c.K, Area: c.Area}
}

// CheckLimits 服务端的规模上限，客户端 env 消息无法修改
func (c Config) CheckLimits() error {
	if c.MaxElements > 0 && c.ElementCount > c.MaxElements {
		return invalid("element count %d exceeds server limit %d", c.ElementCount, c.MaxElements)
	}
	if c.MaxWorkers > 0 && c.Workers > c.MaxWorkers {
		return invalid("workers %d exceeds server limit %d", c.Workers, c.MaxWorkers)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), model.ErrInvalidConfig)
}

// BindFlags 注册命令行参数，默认值取自 DefaultConfig
func BindFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.Int("element-count", d.ElementCount, "number of rod elements")
	fs.Float64("length", d.Length, "rod length")
	fs.Float64("area", d.Area, "cross-section area")
	fs.Float64("k", d.K, "material heat transfer coefficient")
	fs.Float64("env-temperature", d.EnvTemperature, "ambient temperature of the convection boundary")
	fs.Float64("heat-source-density", d.HeatSourceDensity, "heat flux density of the flow boundary (must be negative)")
	fs.Float64("convection-coefficient", d.ConvectionCoefficient, "film coefficient of the convection boundary")
	fs.String("left", d.LeftType, "left end boundary type (flow|convection)")
	fs.String("right", d.RightType, "right end boundary type (flow|convection)")
	fs.String("method", d.Method, "solver method (gauss-jordan|lu)")
	fs.Bool("pivot-check", d.PivotCheck, "report near-zero pivots as a singular system")
	fs.Float64("pivot-tolerance", d.PivotTolerance, "pivot magnitude treated as zero when --pivot-check is set")
	fs.Int("workers", d.Workers, "goroutines used for row reduction")
	fs.Int("precision", d.Precision, "decimal places in the output")
	fs.StringP("output", "o", d.Format, "output format (text|table|json)")
	fs.String("addr", d.Addr, "listen address of the push server")
	fs.Int("max-elements", d.MaxElements, "largest element count the push server accepts (0 = unlimited)")
	fs.Int("max-workers", d.MaxWorkers, "largest worker count the push server accepts (0 = unlimited)")
}

// ApplyFlags 只覆盖用户显式设置过的参数
func ApplyFlags(c *Config, fs *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil || fs.Lookup(name) == nil || !fs.Changed(name) {
			return
		}
		err = apply()
	}
	set("element-count", func() (e error) { c.ElementCount, e = fs.GetInt("element-count"); return })
	set("length", func() (e error) { c.Length, e = fs.GetFloat64("length"); return })
	set("area", func() (e error) { c.Area, e = fs.GetFloat64("area"); return })
	set("k", func() (e error) { c.K, e = fs.GetFloat64("k"); return })
	set("env-temperature", func() (e error) { c.EnvTemperature, e = fs.GetFloat64("env-temperature"); return })
	set("heat-source-density", func() (e error) { c.HeatSourceDensity, e = fs.GetFloat64("heat-source-density"); return })
	set("convection-coefficient", func() (e error) { c.ConvectionCoefficient, e = fs.GetFloat64("convection-coefficient"); return })
	set("left", func() (e error) { c.LeftType, e = fs.GetString("left"); return })
	set("right", func() (e error) { c.RightType, e = fs.GetString("right"); return })
	set("method", func() (e error) { c.Method, e = fs.GetString("method"); return })
	set("pivot-check", func() (e error) { c.PivotCheck, e = fs.GetBool("pivot-check"); return })
	set("pivot-tolerance", func() (e error) { c.PivotTolerance, e = fs.GetFloat64("pivot-tolerance"); return })
	set("workers", func() (e error) { c.Workers, e = fs.GetInt("workers"); return })
	set("precision", func() (e error) { c.Precision, e = fs.GetInt("precision"); return })
	set("output", func() (e error) { c.Format, e = fs.GetString("output"); return })
	set("addr", func() (e error) { c.Addr, e = fs.GetString("addr"); return })
	set("max-elements", func() (e error) { c.MaxElements, e = fs.GetInt("max-elements"); return })
	set("max-workers", func() (e error) { c.MaxWorkers, e = fs.GetInt("max-workers"); return })
	return err
}
