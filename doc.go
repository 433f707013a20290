/*
Package simplexss is a service scheduling subsystem for tick-driven host
processes such as game servers.

Services are named units of background work with a start/stop lifecycle.
They are grouped into pools; each pool binds to one concurrency strategy for
its lifetime:

  - sequential: one dedicated worker, strict FIFO
  - parallel: a small bounded worker pool
  - host-thread: the host's own cooperative tick thread

Delays and periods are always expressed in host ticks (20 per second).

Packages:
  - pkg/service: the Service contract and the Executable base implementation
  - pkg/scheduling/pool: pools and the manager that registers them
  - pkg/scheduling/scheduler: the per-strategy PoolScheduler adapters
  - pkg/scheduling/workerpool: worker pools behind the in-process strategies
  - pkg/host: the host tick capability; pkg/host/tickloop is a reference loop
  - pkg/disposable: the uniform cancellation handle
  - pkg/async, pkg/streaming/stream: futures and lazy streams
  - pkg/journal: an activation journal backed by memory or Redis
  - pkg/metrics: Prometheus instrumentation
  - pkg/config: YAML process configuration

Example usage:

	loop := tickloop.New(tickloop.Config{})
	loop.Start()
	defer loop.Stop()

	sys, err := simplexss.New(loop)
	if err != nil {
		return err
	}

	autosave, _ := service.New("autosave",
		service.WithEvery("@every 5m"),
		service.WithStart(save))

	_, err = sys.ServiceManager().CreatePool("world", scheduler.Sequential(), autosave).Await(ctx)
	if err != nil {
		return err
	}

	d, err := sys.Queue(ctx, autosave).Await(ctx)
	...
	d.Dispose() // cancels the timer; call ForceStop to stop the service

At process exit, Shutdown disposes every outstanding schedule and stops every
registered service once.
*/
package simplexss
