package model

// 全局常量
// 杆两端各一个边界，左端为 0，右端为 1

const (
	BoundaryCount = 2
	NoBoundary    = -1

	LeftBoundary  = 0
	RightBoundary = 1
)
