package simplexss

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/SimplexDevelopment/SimplexSS/pkg/async"
	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/common/validation"
	"github.com/SimplexDevelopment/SimplexSS/pkg/disposable"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host"
	"github.com/SimplexDevelopment/SimplexSS/pkg/metrics"
	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/pool"
	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/scheduler"
	"github.com/SimplexDevelopment/SimplexSS/pkg/service"
	"github.com/SimplexDevelopment/SimplexSS/pkg/streaming/stream"
)

// MainSchedulerName labels the system's own host-thread scheduler.
const MainSchedulerName = "main"

// System is the composition root: one pool manager and one host-thread
// scheduler for ad-hoc work outside any pool. Build one per process.
type System struct {
	host    host.Scheduler
	manager *pool.Manager
	main    scheduler.PoolScheduler
	log     zerolog.Logger
}

type options struct {
	logger    *zerolog.Logger
	registry  *metrics.Registry
	observers []pool.Observer
	schedOpts []scheduler.Option
}

// Option configures a System.
type Option func(*options)

// WithLogger sets the logger passed to every component.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// WithMetrics instruments every pool and adapter.
func WithMetrics(registry *metrics.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// WithObserver registers fn for every activation in every pool.
func WithObserver(fn pool.Observer) Option {
	return func(o *options) {
		if fn != nil {
			o.observers = append(o.observers, fn)
		}
	}
}

// WithSchedulerOptions passes opts to every in-process adapter.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(o *options) { o.schedOpts = append(o.schedOpts, opts...) }
}

// New creates a System bound to the host's tick scheduler.
func New(h host.Scheduler, opts ...Option) (*System, error) {
	if err := validation.ValidateNotNil("simplexss", "host", h); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := zerolog.Nop()
	if o.logger != nil {
		log = *o.logger
	}

	mainOpts := []scheduler.Option{
		scheduler.WithName(MainSchedulerName),
		scheduler.WithLogger(log),
	}
	if o.registry != nil {
		mainOpts = append(mainOpts, scheduler.WithMetrics(o.registry, MainSchedulerName))
	}
	mainSched, err := scheduler.New(scheduler.HostThread(h), mainOpts...)
	if err != nil {
		return nil, err
	}

	manager := pool.NewManager(pool.ManagerConfig{
		Logger:           &log,
		Metrics:          o.registry,
		Observers:        o.observers,
		SchedulerOptions: o.schedOpts,
	})

	return &System{
		host:    h,
		manager: manager,
		main:    mainSched,
		log:     log,
	}, nil
}

// ServiceManager returns the pool registry.
func (s *System) ServiceManager() *pool.Manager {
	return s.manager
}

// MainScheduler returns the system's host-thread scheduler for ad-hoc work.
func (s *System) MainScheduler() scheduler.PoolScheduler {
	return s.main
}

// Queue schedules svc on its associated pool. It fails with
// errors.ErrInvalidService when svc is not registered with any pool.
func (s *System) Queue(ctx context.Context, svc service.Service) *async.Future[disposable.Disposable] {
	if svc == nil {
		return async.Failed[disposable.Disposable](
			sserrors.NewValidationError("simplexss", "service", nil, "cannot be nil"))
	}

	return async.Then(s.manager.AssociatedPool(svc), func(assoc async.Optional[*pool.Pool]) *async.Future[disposable.Disposable] {
		p, ok := assoc.Get()
		if !ok {
			return async.Failed[disposable.Disposable](
				sserrors.NewServiceError(svc.Name(), "queue", sserrors.ErrInvalidService).
					WithHint("register with a pool first"))
		}
		return p.QueueService(ctx, svc)
	})
}

// QueueAll queues every member of every registered pool, in registry order.
func (s *System) QueueAll(ctx context.Context) stream.Stream[disposable.Disposable] {
	pools, err := s.manager.Pools().ToSlice(ctx)
	if err != nil {
		return stream.Fail[disposable.Disposable](err)
	}

	streams := make([]stream.Stream[disposable.Disposable], len(pools))
	for i, p := range pools {
		streams[i] = p.QueueAllServices(ctx)
	}
	return stream.Concat(streams...)
}

// RunOnce starts svc and, once Start completes whatever its outcome, stops
// it. Periodicity is ignored. Errors from both calls are joined. Both calls
// run off the caller's goroutine.
func (s *System) RunOnce(ctx context.Context, svc service.Service) *async.Completion {
	return detached(func() *async.Completion {
		return async.Always(svc.Start(ctx), func() *async.Completion {
			return svc.Stop(ctx)
		})
	})
}

// ForceStart calls svc.Start directly, bypassing pool scheduling.
func (s *System) ForceStart(ctx context.Context, svc service.Service) *async.Completion {
	return detached(func() *async.Completion { return svc.Start(ctx) })
}

// ForceStop calls svc.Stop directly.
func (s *System) ForceStop(ctx context.Context, svc service.Service) *async.Completion {
	return detached(func() *async.Completion { return svc.Stop(ctx) })
}

// detached runs fn on its own goroutine and resolves with the outcome of the
// completion fn returns.
func detached(fn func() *async.Completion) *async.Completion {
	return async.Run(func() error {
		c := fn()
		<-c.Done()
		return c.Err(context.Background())
	})
}

// ParentPool resolves svc's pool ref through the manager. It is empty when
// the ref is unset or names no registered pool.
func (s *System) ParentPool(svc service.Service) *async.Future[async.Optional[*pool.Pool]] {
	return async.Map(svc.ParentPool(), func(ref async.Optional[service.PoolRef]) async.Optional[*pool.Pool] {
		r, ok := ref.Get()
		if !ok {
			return async.None[*pool.Pool]()
		}
		if p, found := s.manager.Resolve(r); found {
			return async.Some(p)
		}
		return async.None[*pool.Pool]()
	})
}

// Shutdown disposes every outstanding schedule, stops every registered
// service exactly once and waits for those stops, then shuts down all
// adapters. The host itself is left running.
func (s *System) Shutdown(ctx context.Context) *async.Completion {
	return async.Run(func() error {
		pools, err := s.manager.Pools().ToSlice(ctx)
		if err != nil {
			return err
		}

		for _, p := range pools {
			p.DisposeOutstanding()
		}

		var (
			seen  []service.Service
			stops []*async.Completion
		)
		for _, p := range pools {
			for _, svc := range p.Members() {
				if contains(seen, svc) {
					continue
				}
				seen = append(seen, svc)
				stops = append(stops, detached(func() *async.Completion { return svc.Stop(ctx) }))
			}
		}
		s.log.Debug().Int("pools", len(pools)).Int("services", len(seen)).Msg("shutting down")

		errs := []error{
			async.WhenAll(stops...).Err(ctx),
			s.manager.Shutdown().Err(ctx),
		}
		select {
		case <-s.main.Shutdown():
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
		return errors.Join(errs...)
	})
}

func contains(list []service.Service, svc service.Service) bool {
	for _, s := range list {
		if s == svc {
			return true
		}
	}
	return false
}
