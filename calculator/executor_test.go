package calculator

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutor_DispatchCoversEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 7} {
		e := newExecutor(workers)
		for _, total := range []int{1, 2, 5, 64, 101} {
			hits := make([]int32, total)
			e.dispatchTask(total, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				assert.Equal(t, int32(1), h, "workers=%d total=%d index=%d", workers, total, i)
			}
		}
		e.close()
	}
}

func TestExecutor_DispatchWaitsForCompletion(t *testing.T) {
	e := newExecutor(4)
	defer e.close()
	var done int32
	for step := 0; step < 50; step++ {
		e.dispatchTask(8, func(start, end int) {
			atomic.AddInt32(&done, int32(end-start))
		})
		assert.Equal(t, int32(8*(step+1)), atomic.LoadInt32(&done))
	}
}
