package calculator

import (
	"fmt"
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"rodfem/model"
)

func assembled(t testing.TB, n int) *System {
	cfg := DefaultConfig()
	cfg.ElementCount = n
	p, err := NewProblem(cfg)
	require.NoError(t, err)
	sys, err := Assemble(p, cfg.Material())
	require.NoError(t, err)
	return sys
}

func identity(n int) *mat.Dense {
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}

func TestInvert_ProductIsIdentity(t *testing.T) {
	for _, n := range []int{1, 4, 30} {
		sys := assembled(t, n)
		inv, err := Invert(sys.Matrix)
		require.NoError(t, err)

		var prod mat.Dense
		prod.Mul(sys.Matrix, inv)
		assert.True(t, mat.EqualApprox(identity(n+1), &prod, 1e-9), "n=%d\n%v", n, mat.Formatted(&prod))
	}
}

func TestInvert_Known(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{15, -15, -15, 25})
	inv, err := Invert(m)
	require.NoError(t, err)
	want := mat.NewDense(2, 2, []float64{25.0 / 150, 15.0 / 150, 15.0 / 150, 15.0 / 150})
	assert.True(t, mat.EqualApprox(want, inv, 1e-12))

	// 输入不被修改
	assert.Equal(t, 15.0, m.At(0, 0))
	assert.Equal(t, 25.0, m.At(1, 1))
}

func TestInvert_ZeroPivotPropagates(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	inv, err := Invert(m)
	require.NoError(t, err)

	temps, err := Multiply(inv, mat.NewVecDense(2, []float64{1, 1}))
	require.NoError(t, err)
	assert.False(t, IsFinite(temps))
}

func TestInvert_PivotCheck(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		tol  float64
	}{
		{"zero pivot", []float64{0, 1, 1, 0}, 0},
		{"tiny pivot", []float64{1e-20, 1, 1, 1}, 1e-12},
		{"zero second pivot", []float64{1, 1, 1, 1}, 1e-12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Invert(mat.NewDense(2, 2, tt.data), WithPivotCheck(tt.tol))
			require.ErrorIs(t, err, model.ErrSingularSystem)
		})
	}

	// 不开诊断模式时不报错
	_, err := Invert(mat.NewDense(2, 2, []float64{1e-20, 1, 1, 1}))
	require.NoError(t, err)

	// 正常矩阵在诊断模式下结果不变
	sys := assembled(t, 10)
	plain, err := Invert(sys.Matrix)
	require.NoError(t, err)
	checked, err := Invert(sys.Matrix, WithPivotCheck(1e-12))
	require.NoError(t, err)
	assert.True(t, mat.Equal(plain, checked))
}

func TestInvert_NotSquare(t *testing.T) {
	_, err := Invert(mat.NewDense(2, 3, nil))
	require.ErrorIs(t, err, model.ErrDimensionMismatch)
}

func TestInvert_ParallelMatchesSerial(t *testing.T) {
	sys := assembled(t, 63)
	serial, err := Invert(sys.Matrix)
	require.NoError(t, err)
	for _, workers := range []int{2, 3, 8, 100} {
		parallel, err := Invert(sys.Matrix, WithWorkers(workers))
		require.NoError(t, err)
		assert.True(t, mat.Equal(serial, parallel), "workers=%d", workers)
	}
}

func TestInvertLU(t *testing.T) {
	sys := assembled(t, 25)
	gj, err := Invert(sys.Matrix)
	require.NoError(t, err)
	lu, err := InvertLU(sys.Matrix)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(gj, lu, 1e-9))

	// 换行后可以处理零主元
	swapped, err := InvertLU(mat.NewDense(2, 2, []float64{0, 1, 1, 0}))
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(mat.NewDense(2, 2, []float64{0, 1, 1, 0}), swapped, 1e-15))

	_, err = InvertLU(mat.NewDense(2, 2, []float64{1, 1, 1, 1}))
	require.ErrorIs(t, err, model.ErrSingularSystem)
}

func TestMultiply(t *testing.T) {
	inv := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	res, err := Multiply(inv, mat.NewVecDense(3, []float64{1, 0, -1}))
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, -2}, res)

	_, err = Multiply(inv, mat.NewVecDense(2, nil))
	require.ErrorIs(t, err, model.ErrDimensionMismatch)
}

func TestMultiply_MatchesGonum(t *testing.T) {
	sys := assembled(t, 12)
	inv, err := Invert(sys.Matrix)
	require.NoError(t, err)
	res, err := Multiply(inv, sys.Load)
	require.NoError(t, err)

	var want mat.VecDense
	want.MulVec(inv, sys.Load)
	assert.True(t, floats.EqualApprox(want.RawVector().Data, res, 1e-9))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite([]float64{1, 2}))
	assert.False(t, IsFinite([]float64{1, math.NaN()}))
	assert.False(t, IsFinite([]float64{math.Inf(-1)}))
}

func TestInvert_MoreWorkersThanRows(t *testing.T) {
	sys := assembled(t, 3)
	serial, err := Invert(sys.Matrix)
	require.NoError(t, err)

	before := runtime.NumGoroutine()
	parallel, err := Invert(sys.Matrix, WithWorkers(1<<20))
	require.NoError(t, err)
	assert.True(t, mat.Equal(serial, parallel))
	// worker 数不超过行数，结束后全部退出
	assert.LessOrEqual(t, runtime.NumGoroutine(), before+sys.Size())
}

func BenchmarkInvert(b *testing.B) {
	sys := assembled(b, 300)
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = Invert(sys.Matrix, WithWorkers(workers))
			}
		})
	}
}
