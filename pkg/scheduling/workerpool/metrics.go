package workerpool

import (
	"context"

	"github.com/SimplexDevelopment/SimplexSS/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus gauges.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a worker pool whose size, activity and queue depth
// are exported under the given name. A nil registry returns the bare pool.
func NewWithMetrics(config Config, name string, registry *metrics.Registry) Pool {
	if registry == nil {
		return NewWithConfig(config)
	}

	mp := &MetricsPool{name: name, registry: registry}

	onComplete := config.OnTaskComplete
	config.OnTaskComplete = func(workerID int, result Result) {
		if onComplete != nil {
			onComplete(workerID, result)
		}
		mp.updateMetrics()
	}
	onStart := config.OnTaskStart
	config.OnTaskStart = func(workerID int, task Task) {
		if onStart != nil {
			onStart(workerID, task)
		}
		mp.updateMetrics()
	}

	mp.pool = NewWithConfig(config)
	mp.updateMetrics()
	return mp
}

// updateMetrics updates the current state metrics.
func (mp *MetricsPool) updateMetrics() {
	mp.registry.WorkerPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	mp.registry.WorkerPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	mp.registry.WorkerPoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit adds a task to the pool for execution.
func (mp *MetricsPool) Submit(task Task) error {
	return mp.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext adds a task to the pool for execution.
func (mp *MetricsPool) SubmitWithContext(ctx context.Context, task Task) error {
	err := mp.pool.SubmitWithContext(ctx, task)
	mp.updateMetrics()
	return err
}

// Shutdown initiates graceful shutdown of the pool.
func (mp *MetricsPool) Shutdown() <-chan struct{} {
	return mp.pool.Shutdown()
}

// Size returns the current number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	return mp.pool.QueueSize()
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	return mp.pool.ActiveWorkers()
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}
