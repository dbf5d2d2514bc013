package calculator

import (
	log "github.com/sirupsen/logrus"

	"rodfem/mesh"
	"rodfem/model"
)

// 初始化计算参数
// 1. 按杆长和单元数划分网格
// 2. 由配置生成两端的边界条件表

// Material 材料导热系数 k 和截面积 A
type Material struct {
	K    float64
	Area float64
}

// BoundaryCatalog 左端为 0，右端为 1
func BoundaryCatalog(cfg Config) [model.BoundaryCount]model.Boundary {
	var catalog [model.BoundaryCount]model.Boundary
	catalog[model.LeftBoundary] = boundaryOf(cfg.LeftType, cfg)
	catalog[model.RightBoundary] = boundaryOf(cfg.RightType, cfg)
	return catalog
}

func boundaryOf(kind string, cfg Config) model.Boundary {
	switch kind {
	case BoundaryFlow:
		return model.Flow{Q: cfg.HeatSourceDensity}
	case BoundaryConvection:
		return model.Convection{Alpha: cfg.ConvectionCoefficient, EnvTemperature: cfg.EnvTemperature}
	}
	return nil
}

// NewProblem 根据配置构建网格和边界表
func NewProblem(cfg Config) (model.Problem, error) {
	p, err := mesh.Build(cfg.Length, cfg.ElementCount)
	if err != nil {
		return model.Problem{}, err
	}
	p = p.WithBoundaries(BoundaryCatalog(cfg))
	log.WithFields(log.Fields{
		"left":  p.Boundaries[model.LeftBoundary],
		"right": p.Boundaries[model.RightBoundary],
	}).Debug("设置边界条件")
	return p, nil
}
