package model

import "fmt"

type BoundaryKind int

const (
	KindNone BoundaryKind = iota
	KindFlow
	KindConvection
)

func (k BoundaryKind) String() string {
	switch k {
	case KindFlow:
		return "flow"
	case KindConvection:
		return "convection"
	default:
		return "none"
	}
}

// Boundary 边界条件，只有 Flow 和 Convection 两种实现。
// nil 表示没有边界条件。
type Boundary interface {
	Kind() BoundaryKind
	boundary()
}

// Flow 给定热流密度 q，q < 0 表示热量流入杆
type Flow struct {
	Q float64 `json:"q"`
}

func (Flow) Kind() BoundaryKind { return KindFlow }
func (Flow) boundary()          {}

func (f Flow) String() string {
	return fmt.Sprintf("flow(q=%g)", f.Q)
}

// Convection 对流换热，Alpha 为换热系数，EnvTemperature 为环境温度
type Convection struct {
	Alpha          float64 `json:"alpha"`
	EnvTemperature float64 `json:"env_temperature"`
}

func (Convection) Kind() BoundaryKind { return KindConvection }
func (Convection) boundary()          {}

func (c Convection) String() string {
	return fmt.Sprintf("convection(alpha=%g, env=%g)", c.Alpha, c.EnvTemperature)
}

// KindOf 对 nil 也安全
func KindOf(b Boundary) BoundaryKind {
	if b == nil {
		return KindNone
	}
	return b.Kind()
}
