package scanner

import (
	"context"
	"sync"
	"time"

	"strategy-scanner/internal/logger"
)

// workerPool fans scan tasks out to a bounded set of goroutines. With a
// single worker execution degenerates to sequential iteration, which is the
// safe default.
type workerPool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

func newWorkerPool(workers int) *workerPool {
	if workers < 1 {
		workers = 1
	}
	p := &workerPool{tasks: make(chan func())}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

func (p *workerPool) submit(task func()) {
	p.tasks <- task
}

// shutdown stops accepting tasks and waits for in-flight ones to drain,
// bounded by the timeout. A failure to terminate is logged, not thrown.
func (p *workerPool) shutdown(ctx context.Context, timeout time.Duration) {
	close(p.tasks)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logger.Error(ctx, "Worker pool did not drain within timeout", "timeout", timeout)
	}
}
