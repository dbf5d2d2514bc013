package calculator

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"rodfem/model"
)

type solveOptions struct {
	pivotCheck     bool
	pivotTolerance float64
	workers        int
}

type Option func(o *solveOptions)

// WithPivotCheck 诊断模式：|pivot| <= tol 时返回 ErrSingularSystem，
// 不再继续消元产生 Inf/NaN
func WithPivotCheck(tol float64) Option {
	return func(o *solveOptions) {
		o.pivotCheck = true
		o.pivotTolerance = tol
	}
}

// WithWorkers 每个主元步内并行消元，主元顺序不变
func WithWorkers(n int) Option {
	return func(o *solveOptions) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// Invert Gauss-Jordan 求逆，不选主元、不换行。
// 默认模式下零主元会让 Inf/NaN 传播到结果中，不报错。
func Invert(m mat.Matrix, opts ...Option) (*mat.Dense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("invert %dx%d: %w", r, c, model.ErrDimensionMismatch)
	}
	o := solveOptions{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	n := r
	// 每个 worker 至少分到一行
	o.workers = min(o.workers, n)
	self := mat.DenseCopyOf(m)
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}

	var e *executor
	if o.workers > 1 && n > 1 {
		e = newExecutor(o.workers)
		defer e.close()
	}

	for k := 0; k < n; k++ {
		rowK, outK := self.RawRowView(k), out.RawRowView(k)
		pivot := rowK[k]
		if o.pivotCheck && !(math.Abs(pivot) > o.pivotTolerance) {
			return nil, fmt.Errorf("pivot %d is %g: %w", k, pivot, model.ErrSingularSystem)
		}
		for j := 0; j < n; j++ {
			rowK[j] /= pivot
			outK[j] /= pivot
		}

		if e != nil {
			e.dispatchTask(n, func(start, end int) {
				eliminate(self, out, k, start, end)
			})
		} else {
			eliminate(self, out, k, 0, n)
		}
	}
	return out, nil
}

// 用第 k 行消去 [start, end) 行的第 k 列
func eliminate(self, out *mat.Dense, k, start, end int) {
	rowK, outK := self.RawRowView(k), out.RawRowView(k)
	for i := start; i < end; i++ {
		if i == k {
			continue
		}
		row, outRow := self.RawRowView(i), out.RawRowView(i)
		factor := row[k]
		for j := range row {
			row[j] -= rowK[j] * factor
			outRow[j] -= outK[j] * factor
		}
	}
}

// Multiply T[i] = sum_k inv[i][k] * P[k]，按 k 递增累加
func Multiply(inv mat.Matrix, load mat.Vector) ([]float64, error) {
	r, c := inv.Dims()
	if c != load.Len() {
		return nil, fmt.Errorf("multiply %dx%d by %d: %w", r, c, load.Len(), model.ErrDimensionMismatch)
	}
	res := make([]float64, r)
	for i := 0; i < r; i++ {
		var sum float64
		for k := 0; k < c; k++ {
			sum += inv.At(i, k) * load.AtVec(k)
		}
		res[i] = sum
	}
	return res, nil
}

// InvertLU 带部分选主元的 LU 求逆，只在 method = lu 时使用
func InvertLU(m mat.Matrix) (*mat.Dense, error) {
	var inv mat.Dense
	err := inv.Inverse(m)
	if err == nil {
		return &inv, nil
	}
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
		log.WithField("condition", float64(cond)).Warn("矩阵条件数过大")
		return &inv, nil
	}
	return nil, fmt.Errorf("lu inverse: %v: %w", err, model.ErrSingularSystem)
}

// IsFinite 结果中是否含 Inf/NaN
func IsFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
