package model

import "errors"

// 可以用 errors.Is 判断的错误
var (
	// 配置错误，在计算开始前返回
	ErrInvalidConfig = errors.New("rodfem: invalid configuration")

	// 单元两端节点重合
	ErrZeroDistance = errors.New("rodfem: zero distance between element nodes")

	// 诊断模式下主元为零或接近零
	ErrSingularSystem = errors.New("rodfem: singular system")

	// 矩阵、向量尺寸不匹配
	ErrDimensionMismatch = errors.New("rodfem: dimension mismatch")
)
