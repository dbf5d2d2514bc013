package calculator

import (
	"encoding/json"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"rodfem/mesh"
	"rodfem/model"
)

// Result 一次求解的全部输出，写入后只读
type Result struct {
	ElementCount int        `json:"element_count"`
	Method       string     `json:"method"`
	Positions    []float64  `json:"positions"`
	Temperatures []float64  `json:"-"`
	Finite       bool       `json:"finite"`
	System       *System    `json:"-"`
	Inverse      *mat.Dense `json:"-"`
}

func newResult(cfg Config, p model.Problem, sys *System, inv *mat.Dense, temps []float64) *Result {
	return &Result{
		ElementCount: p.ElementCount(),
		Method:       cfg.Method,
		Positions:    mesh.Positions(p),
		Temperatures: temps,
		Finite:       IsFinite(temps),
		System:       sys,
		Inverse:      inv,
	}
}

// Temperature 非有限值序列化为字符串，避免 encoding/json 报错
type Temperature float64

func (t Temperature) MarshalJSON() ([]byte, error) {
	f := float64(t)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Inf"`), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// TemperatureData 推送给前端的数据
type TemperatureData struct {
	Config       Config        `json:"config"`
	ElementCount int           `json:"element_count"`
	Method       string        `json:"method"`
	Finite       bool          `json:"finite"`
	Positions    []float64     `json:"positions"`
	Temperatures []Temperature `json:"temperatures"`
}

func (r *Result) BuildData(cfg Config) *TemperatureData {
	temps := make([]Temperature, len(r.Temperatures))
	for i, t := range r.Temperatures {
		temps[i] = Temperature(t)
	}
	return &TemperatureData{
		Config:       cfg,
		ElementCount: r.ElementCount,
		Method:       r.Method,
		Finite:       r.Finite,
		Positions:    r.Positions,
		Temperatures: temps,
	}
}

func (d *TemperatureData) Marshal() ([]byte, error) {
	return json.Marshal(d)
}
