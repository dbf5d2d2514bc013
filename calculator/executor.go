package calculator

import (
	"sync"
	"time"
)

// 消元任务分配
// 同一个主元步内，除主元行外的各行相互独立，按行区间切分给 worker；
// 所有区间完成后才进入下一个主元步
type executor struct {
	workers      int
	dispatchChan chan task
	doneSoFar    chan struct{}
	wg           sync.WaitGroup
}

type task struct {
	start int
	end   int
	f     func(start, end int)
}

func newExecutor(workers int) *executor {
	e := &executor{
		workers:      workers,
		dispatchChan: make(chan task, workers),
		doneSoFar:    make(chan struct{}, workers),
	}
	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.run()
	}
	return e
}

func (e *executor) run() {
	defer e.wg.Done()
	for t := range e.dispatchChan {
		t.f(t.start, t.end)
		e.doneSoFar <- struct{}{}
	}
}

// dispatchTask 把 [0, total) 分给 worker，阻塞到全部完成
func (e *executor) dispatchTask(total int, f func(start, end int)) time.Duration {
	start := time.Now()
	taskLen, remainder := total/e.workers, total%e.workers

	tasks := 0
	begin := 0
	for w := 0; w < e.workers; w++ {
		size := taskLen
		if w < remainder {
			size++
		}
		if size == 0 {
			continue
		}
		e.dispatchChan <- task{start: begin, end: begin + size, f: f}
		begin += size
		tasks++
	}

	for i := 0; i < tasks; i++ {
		<-e.doneSoFar
	}
	return time.Since(start)
}

func (e *executor) close() {
	close(e.dispatchChan)
	e.wg.Wait()
}
