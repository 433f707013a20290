// Package pool implements service pools and the manager that registers them.
//
// A Pool groups services under one scheduler.Strategy. Queueing a service
// arms a timer on the pool's adapter and returns a disposable.Disposable for
// it; each firing calls the service's Start where the strategy runs work:
// inside the host's Tick, or on one of the adapter's workers, which stays
// busy until the activation completes.
// Disposing the handle cancels the timer only. Stopping a service is always
// an explicit Stop call.
//
// The Manager owns every pool and routes all membership changes, so a
// service belongs to at most one pool at a time:
//
//	m := pool.NewManager(pool.ManagerConfig{Metrics: reg})
//	p, err := m.CreatePool("world", scheduler.Parallel(4), autosave, cleanup).Await(ctx)
//	if err != nil {
//		return err
//	}
//	handles, err := p.QueueAllServices(ctx).ToSlice(ctx)
//
// Services keep a non-owning service.PoolRef to their pool. Manager.Resolve
// turns a ref back into the pool.
package pool
