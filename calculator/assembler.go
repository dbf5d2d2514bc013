package calculator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"rodfem/model"
)

// System 全局导热矩阵 M 和载荷向量 P，尺寸为节点数，分配后不再改变
type System struct {
	Matrix *mat.Dense
	Load   *mat.VecDense
}

func NewSystem(nodeCount int) *System {
	return &System{
		Matrix: mat.NewDense(nodeCount, nodeCount, nil),
		Load:   mat.NewVecDense(nodeCount, nil),
	}
}

func (s *System) Size() int {
	return s.Load.Len()
}

// 单元刚度散布到全局矩阵
func (s *System) addToGlobal(p1, p2 int, c float64) {
	s.Matrix.Set(p1, p1, s.Matrix.At(p1, p1)+c)
	s.Matrix.Set(p2, p2, s.Matrix.At(p2, p2)+c)
	s.Matrix.Set(p2, p1, s.Matrix.At(p2, p1)-c)
	s.Matrix.Set(p1, p2, s.Matrix.At(p1, p2)-c)
}

// Assemble 组装全局方程组，并在遍历单元时处理边界节点。
// 每个边界节点在一次组装中只处理一次。
func Assemble(p model.Problem, m Material) (*System, error) {
	return assemble(p, m, true)
}

// AssembleConductance 只做单元组装，不注入边界条件
func AssembleConductance(p model.Problem, m Material) (*System, error) {
	return assemble(p, m, false)
}

func assemble(p model.Problem, m Material, withBoundaries bool) (*System, error) {
	if p.NodeCount() < 2 || p.NodeCount() != p.ElementCount()+1 {
		return nil, fmt.Errorf("%d nodes for %d elements: %w", p.NodeCount(), p.ElementCount(), model.ErrInvalidConfig)
	}
	if !positive(m.K) || !positive(m.Area) {
		return nil, fmt.Errorf("material k=%g area=%g must be positive: %w", m.K, m.Area, model.ErrInvalidConfig)
	}

	s := NewSystem(p.NodeCount())
	processed := make([]bool, p.NodeCount())
	for i, e := range p.Elements {
		n1, n2 := p.Nodes[e.Node1], p.Nodes[e.Node2]
		dist := n1.Distance(n2)
		if !(dist > 0) {
			return nil, fmt.Errorf("element %d (%d, %d): %w", i, e.Node1, e.Node2, model.ErrZeroDistance)
		}
		c := m.K * m.Area / dist

		if withBoundaries {
			for _, node := range [2]int{e.Node1, e.Node2} {
				if processed[node] || !p.Nodes[node].HasBoundary() {
					continue
				}
				processed[node] = true
				ApplyBoundary(s, node, p.BoundaryOf(node), m.Area)
			}
		}

		s.addToGlobal(e.Node1, e.Node2, c)
	}
	return s, nil
}
