package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result represents the result of a task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error returned by the task, or the recovered panic
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool is a fixed set of workers draining an unbounded FIFO queue.
// Submit never blocks. With a single worker, tasks run strictly in
// submission order.
type Pool interface {
	// Submit appends a task to the queue.
	// Returns an error if the pool is shut down.
	Submit(task Task) error

	// SubmitWithContext appends a task whose Execute receives ctx.
	SubmitWithContext(ctx context.Context, task Task) error

	// Shutdown stops accepting tasks. Queued tasks are still run.
	// Returns a channel that closes once every worker has exited.
	Shutdown() <-chan struct{}

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the number of queued tasks waiting for a worker.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks accepted by the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks that finished executing.
	TotalCompleted() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// PanicHandler is called when a task panics. The panic is always
	// recovered and reported in the task's Result.
	PanicHandler func(task Task, recovered interface{})

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int, task Task)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)
}

type queued struct {
	task Task
	ctx  context.Context
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []queued
	shutdown bool
	active   int
	done     chan struct{}

	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64

	workerWg     sync.WaitGroup
	shutdownOnce sync.Once
}

// New creates a new worker pool with the specified number of workers.
func New(workerCount int) Pool {
	return NewWithConfig(Config{WorkerCount: workerCount})
}

// NewWithConfig creates a new worker pool with the specified configuration.
func NewWithConfig(config Config) Pool {
	if config.WorkerCount <= 0 {
		panic("worker count must be positive")
	}

	pool := &workerPool{
		config: config,
		done:   make(chan struct{}),
	}
	pool.cond = sync.NewCond(&pool.mu)

	for i := 0; i < config.WorkerCount; i++ {
		pool.workerWg.Add(1)
		go pool.run(i)
	}

	return pool
}
