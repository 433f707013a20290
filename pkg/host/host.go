// Package host describes the tick-based execution capability that a host
// process exposes, and the tick arithmetic shared by every scheduler.
package host

// Task is the host-native handle of a submitted task.
type Task interface {
	// Cancel stops future runs of the task. Calling it more than once is harmless.
	Cancel()

	// IsCancelled reports whether Cancel has been called.
	IsCancelled() bool
}

// Scheduler is the host's tick scheduler. Every task runs on the host's single
// cooperative thread; delays and periods are expressed in ticks.
type Scheduler interface {
	// RunNow runs task on the next tick.
	RunNow(task func()) Task

	// RunAfter runs task once, delay ticks from now.
	RunAfter(task func(), delay int64) Task

	// RunEvery runs task delay ticks from now and every period ticks after that.
	// period must be positive.
	RunEvery(task func(), delay, period int64) Task
}
