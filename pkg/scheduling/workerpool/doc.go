/*
Package workerpool provides the worker pools that back the sequential and
parallel pool schedulers.

A pool runs a fixed number of worker goroutines that drain an unbounded FIFO
queue. Submit never blocks, so a firing timer can always hand off its task.
With one worker, tasks execute strictly in the order they were submitted.

Basic usage:

	pool := workerpool.New(4)
	defer func() { <-pool.Shutdown() }()

	err := pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
		return nil
	}))

Task outcomes are reported through the OnTaskComplete hook rather than a
results channel:

	pool := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 1,
		OnTaskComplete: func(workerID int, r workerpool.Result) {
			if r.Error != nil {
				log.Printf("task failed: %v", r.Error)
			}
		},
	})

Panics are recovered, passed to PanicHandler if one is configured, and
reported as the task's error.

Shutdown stops intake and lets workers finish the queued tasks. The returned
channel closes once every worker has exited.
*/
package workerpool
