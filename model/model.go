package model

import "math"

// 网格节点
type Node struct {
	X        float64 `json:"x"`        // 杆上坐标
	Boundary int     `json:"boundary"` // 边界索引，NoBoundary 表示内部节点
}

func (n Node) HasBoundary() bool {
	return n.Boundary >= 0 && n.Boundary < BoundaryCount
}

// Distance 两节点之间的距离
func (n Node) Distance(o Node) float64 {
	return math.Abs(n.X - o.X)
}

// 线性单元，连接相邻两个节点
type Element struct {
	Node1 int `json:"node1"`
	Node2 int `json:"node2"`
}

// Problem 由网格和边界表组成，构建后不再修改
type Problem struct {
	Nodes      []Node
	Elements   []Element
	Boundaries [BoundaryCount]Boundary
}

func (p Problem) NodeCount() int {
	return len(p.Nodes)
}

func (p Problem) ElementCount() int {
	return len(p.Elements)
}

// BoundaryOf 返回节点对应的边界条件，内部节点返回 nil
func (p Problem) BoundaryOf(node int) Boundary {
	n := p.Nodes[node]
	if !n.HasBoundary() {
		return nil
	}
	return p.Boundaries[n.Boundary]
}

// WithBoundaries 返回挂上边界表的副本
func (p Problem) WithBoundaries(catalog [BoundaryCount]Boundary) Problem {
	p.Boundaries = catalog
	return p
}

// 前后端通信消息结构
type Msg struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}
