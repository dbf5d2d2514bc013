package calculator

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"rodfem/model"
)

// calculator 的接口定义
type Calculator interface {
	// 配置
	Config() Config

	// 网格和边界表
	Problem() model.Problem

	// 组装、求逆、求解，每次调用互不影响
	Solve() (*Result, error)
}

// RodCalculator 一维杆稳态温度场
type RodCalculator struct {
	cfg     Config
	problem model.Problem
}

// NewCalculator 校验配置并构建网格，配置错误在这里返回
func NewCalculator(cfg Config) (*RodCalculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	problem, err := NewProblem(cfg)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"ElementCount":          cfg.ElementCount,
		"Length":                cfg.Length,
		"Area":                  cfg.Area,
		"K":                     cfg.K,
		"HeatSourceDensity":     cfg.HeatSourceDensity,
		"ConvectionCoefficient": cfg.ConvectionCoefficient,
		"EnvTemperature":        cfg.EnvTemperature,
	}).Info("设置计算参数")
	return &RodCalculator{cfg: cfg, problem: problem}, nil
}

func (c *RodCalculator) Config() Config {
	return c.cfg
}

func (c *RodCalculator) Problem() model.Problem {
	return c.problem
}

func (c *RodCalculator) Solve() (*Result, error) {
	start := time.Now()
	sys, err := Assemble(c.problem, c.cfg.Material())
	if err != nil {
		return nil, err
	}
	assembled := time.Since(start)

	inv, err := c.invert(sys)
	if err != nil {
		return nil, err
	}
	temps, err := Multiply(inv, sys.Load)
	if err != nil {
		return nil, err
	}

	res := newResult(c.cfg, c.problem, sys, inv, temps)
	fields := log.Fields{
		"nodes":    c.problem.NodeCount(),
		"method":   c.cfg.Method,
		"workers":  c.cfg.Workers,
		"assemble": assembled,
		"cost":     time.Since(start),
	}
	if !res.Finite {
		log.WithFields(fields).Warn("温度场计算完成，结果含非有限值")
	} else {
		log.WithFields(fields).Info("温度场计算完成")
	}
	return res, nil
}

func (c *RodCalculator) invert(sys *System) (*mat.Dense, error) {
	switch c.cfg.Method {
	case MethodLU:
		return InvertLU(sys.Matrix)
	case MethodGaussJordan:
		opts := []Option{WithWorkers(c.cfg.Workers)}
		if c.cfg.PivotCheck {
			opts = append(opts, WithPivotCheck(c.cfg.PivotTolerance))
		}
		return Invert(sys.Matrix, opts...)
	}
	return nil, fmt.Errorf("unknown solver method %q: %w", c.cfg.Method, model.ErrInvalidConfig)
}

var _ Calculator = (*RodCalculator)(nil)
