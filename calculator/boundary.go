package calculator

import "rodfem/model"

// ApplyBoundary 把边界条件写入节点对应的对角元和载荷。
// 热流边界只改载荷，q < 0（热量流入）得到正载荷；
// 对流边界在对角元上加 alpha*A，载荷加 T_env*alpha*A。
func ApplyBoundary(s *System, node int, b model.Boundary, area float64) {
	switch b := b.(type) {
	case nil:
	case model.Flow:
		d := b.Q * area
		s.Load.SetVec(node, s.Load.AtVec(node)-d)
	case model.Convection:
		d := b.Alpha * area
		s.Load.SetVec(node, s.Load.AtVec(node)+b.EnvTemperature*d)
		s.Matrix.Set(node, node, s.Matrix.At(node, node)+d)
	}
}
