/*
Package async provides the completion primitives used throughout the scheduling
system: single-value futures, value-less completions and optional results.

Operations return a Future; failures travel through the same channel as
results. Run moves work onto its own goroutine, Call runs it in place:

	c := async.Run(func() error {
		return refreshCache()
	})

	c.OnComplete(func(_ struct{}, err error) {
		// runs once refreshCache returns
	})

	// A caller on a synchronous path may block on the handle.
	if err := c.Err(ctx); err != nil {
		return err
	}

Futures compose without blocking:

	stopped := async.Always(svc.Start(ctx), func() *async.Completion {
		return svc.Stop(ctx)
	})

Panics inside Go, Run and Call are converted into errors carrying the stack trace.
*/
package async
