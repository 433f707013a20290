/*
Package scheduler adapts the three pool concurrency strategies to one
scheduling contract, PoolScheduler.

A Strategy is a tagged variant chosen when a pool is created:

	scheduler.Sequential()      // one worker, strict FIFO, unbounded queue
	scheduler.Parallel(4)       // bounded worker pool, no cross-task ordering
	scheduler.HostThread(host)  // the host's cooperative tick thread

New dispatches on the strategy once and returns the matching adapter:

	s, err := scheduler.New(scheduler.Parallel(4),
		scheduler.WithMetrics(reg, "world"),
		scheduler.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { <-s.Shutdown() }()

	d, err := s.ScheduleRepeating(tick, 0, 20) // now, then every second
	...
	d.Dispose()

Delays and periods are always host ticks (see package host). The sequential
and parallel adapters run a ticker loop that converts them to wall-clock
deadlines and hands due tasks to a workerpool.Pool. Repeating tasks run at a
fixed rate and never overlap themselves. The host-thread adapter passes ticks
straight through to host.Scheduler and rejects non-positive periods with
errors.ErrPoolConfiguration.

Scheduling on an adapter after Shutdown fails with errors.ErrClosed.
*/
package scheduler
