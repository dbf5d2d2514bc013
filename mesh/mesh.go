package mesh

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"rodfem/model"
)

// 网格划分
// 杆长 L 等分为 N 个单元，N+1 个节点，节点 i 的坐标为 i * L / N
// 左端节点挂边界 0，右端节点挂边界 1

// Build 生成节点和单元，边界表需要调用方通过 Problem.WithBoundaries 挂上
func Build(length float64, elementCount int) (model.Problem, error) {
	if elementCount < 1 {
		return model.Problem{}, fmt.Errorf("element count %d must be at least 1: %w", elementCount, model.ErrInvalidConfig)
	}
	if !(length > 0) {
		return model.Problem{}, fmt.Errorf("rod length %g must be positive: %w", length, model.ErrInvalidConfig)
	}

	nodeCount := elementCount + 1
	step := length / float64(elementCount)

	nodes := make([]model.Node, nodeCount)
	for i := range nodes {
		nodes[i] = model.Node{X: float64(i) * step, Boundary: model.NoBoundary}
	}
	nodes[0].Boundary = model.LeftBoundary
	nodes[nodeCount-1].Boundary = model.RightBoundary

	elements := make([]model.Element, elementCount)
	for i := range elements {
		elements[i] = model.Element{Node1: i, Node2: i + 1}
	}

	log.WithFields(log.Fields{
		"length":   length,
		"elements": elementCount,
		"nodes":    nodeCount,
		"step":     step,
	}).Debug("网格划分完成")

	return model.Problem{Nodes: nodes, Elements: elements}, nil
}

// Positions 节点坐标
func Positions(p model.Problem) []float64 {
	xs := make([]float64, p.NodeCount())
	for i, n := range p.Nodes {
		xs[i] = n.X
	}
	return xs
}
