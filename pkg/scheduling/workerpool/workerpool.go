package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
)

// Submit adds a task to the pool for execution with context.Background().
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext adds a task to the pool. The context is handed to the
// task's Execute method; it does not bound the time spent in the queue.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return fmt.Errorf("cannot submit task: %w", sserrors.ErrClosed)
	}

	p.queue = append(p.queue, queued{task: task, ctx: ctx})
	p.totalSubmitted.Add(1)
	p.cond.Signal()
	return nil
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.shutdown = true
		p.cond.Broadcast()
		p.mu.Unlock()

		go func() {
			p.workerWg.Wait()
			close(p.done)
		}()
	})

	return p.done
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *workerPool) ActiveWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// TotalSubmitted returns the total number of tasks submitted.
func (p *workerPool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of tasks completed.
func (p *workerPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// next blocks until a task is available. It returns false once the pool is
// shut down and the queue has drained.
func (p *workerPool) next() (queued, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.shutdown {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return queued{}, false
	}

	item := p.queue[0]
	p.queue[0] = queued{}
	p.queue = p.queue[1:]
	p.active++
	return item, true
}

// run is the main loop for a worker.
func (p *workerPool) run(id int) {
	defer p.workerWg.Done()

	for {
		item, ok := p.next()
		if !ok {
			return
		}

		p.execute(id, item)

		p.mu.Lock()
		p.active--
		p.mu.Unlock()
	}
}

// execute runs a single task, recovering panics.
func (p *workerPool) execute(id int, item queued) {
	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(id, item.task)
	}

	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			if p.config.PanicHandler != nil {
				p.config.PanicHandler(item.task, r)
			}
			err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
		}

		p.totalCompleted.Add(1)

		if p.config.OnTaskComplete != nil {
			p.config.OnTaskComplete(id, Result{
				Task:     item.task,
				Error:    err,
				Duration: time.Since(start),
				WorkerID: id,
			})
		}
	}()

	err = item.task.Execute(item.ctx)
}
