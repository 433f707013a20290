package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SimplexDevelopment/SimplexSS/pkg/async"
	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/disposable"
	"github.com/SimplexDevelopment/SimplexSS/pkg/identity"
	"github.com/SimplexDevelopment/SimplexSS/pkg/metrics"
	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/scheduler"
	"github.com/SimplexDevelopment/SimplexSS/pkg/service"
	"github.com/SimplexDevelopment/SimplexSS/pkg/streaming/stream"
)

// Activation describes one finished Start of a pooled service.
type Activation struct {
	Pool     string
	Service  string
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Observer receives every Activation of a pool. Observers run on the
// goroutine that completed the Start and must not block.
type Observer func(Activation)

// Pool is a named group of services sharing one PoolScheduler. Membership is
// only changed through the Manager.
type Pool struct {
	identity.Named

	ref       service.PoolRef
	sched     scheduler.PoolScheduler
	log       zerolog.Logger
	registry  *metrics.Registry
	observers []Observer

	mu      sync.RWMutex
	members []service.Service

	outMu       sync.Mutex
	outstanding map[*disposable.Deferred]disposable.Disposable
}

// Option configures a Pool.
type Option func(*Pool)

// WithMetrics instruments the pool.
func WithMetrics(registry *metrics.Registry) Option {
	return func(p *Pool) { p.registry = registry }
}

// WithObserver registers fn for every activation.
func WithObserver(fn Observer) Option {
	return func(p *Pool) {
		if fn != nil {
			p.observers = append(p.observers, fn)
		}
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pool) { p.log = logger }
}

// New creates a pool identified by ref that schedules through sched.
// Pools are normally created through Manager.CreatePool.
func New(ref service.PoolRef, sched scheduler.PoolScheduler, opts ...Option) *Pool {
	p := &Pool{
		Named:       identity.Named(ref.Name),
		ref:         ref,
		sched:       sched,
		log:         zerolog.Nop(),
		outstanding: make(map[*disposable.Deferred]disposable.Disposable),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With().Str("pool", ref.Name).Logger()
	return p
}

// Ref returns the pool's non-owning identity.
func (p *Pool) Ref() service.PoolRef { return p.ref }

// Scheduler returns the pool's adapter.
func (p *Pool) Scheduler() scheduler.PoolScheduler { return p.sched }

// addService adds s and points it at this pool. Members' refs only change
// under p.mu.
func (p *Pool) addService(s service.Service) error {
	p.mu.Lock()
	if err := p.conflictLocked(s); err != nil {
		p.mu.Unlock()
		return err
	}
	if p.containsLocked(s) {
		p.mu.Unlock()
		return nil
	}
	p.members = append(p.members, s)
	s.SetParentPool(p.ref)
	n := len(p.members)
	p.mu.Unlock()

	p.setMembersGauge(n)
	p.log.Debug().Str("service", s.Name()).Msg("service added")
	return nil
}

// canAdd reports the error addService would return for s, without changing
// membership.
func (p *Pool) canAdd(s service.Service) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.conflictLocked(s)
}

// conflictLocked fails when a different member already uses s's name.
func (p *Pool) conflictLocked(s service.Service) error {
	for _, m := range p.members {
		if m != s && m.Name() == s.Name() {
			return sserrors.NewServiceError(s.Name(), "add", sserrors.ErrDuplicateService).
				WithHint(fmt.Sprintf("pool %q already has a service with this name", p.Name()))
		}
	}
	return nil
}

func (p *Pool) containsLocked(s service.Service) bool {
	for _, m := range p.members {
		if m == s {
			return true
		}
	}
	return false
}

// removeService removes s and clears its pool ref. It reports whether s was
// a member.
func (p *Pool) removeService(s service.Service) bool {
	p.mu.Lock()
	idx := -1
	for i, m := range p.members {
		if m == s {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.mu.Unlock()
		return false
	}
	p.members = append(p.members[:idx], p.members[idx+1:]...)
	s.SetParentPool(service.PoolRef{})
	n := len(p.members)
	p.mu.Unlock()

	p.setMembersGauge(n)
	p.log.Debug().Str("service", s.Name()).Msg("service removed")
	return true
}

// ContainsService reports whether s is a member.
func (p *Pool) ContainsService(s service.Service) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.containsLocked(s)
}

// Members returns a snapshot of the membership set.
func (p *Pool) Members() []service.Service {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]service.Service(nil), p.members...)
}

// GetService looks up a member by name.
func (p *Pool) GetService(name string) *async.Future[async.Optional[service.Service]] {
	if s, ok := p.lookup(name); ok {
		return async.Resolved(async.Some(s))
	}
	return async.Resolved(async.None[service.Service]())
}

func (p *Pool) lookup(name string) (service.Service, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, m := range p.members {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// QueueService arms s on the pool's scheduler: a repeating timer firing at
// Delay and then every Period for periodic services, a single timer at Delay
// otherwise. Each firing calls s.Start(ctx) on the scheduler's goroutine; an
// in-process worker stays busy until the returned completion resolves. ctx
// should live as long as the schedule. Membership is not checked.
func (p *Pool) QueueService(ctx context.Context, s service.Service) *async.Future[disposable.Disposable] {
	d, err := p.queue(ctx, s)
	if err != nil {
		return async.Failed[disposable.Disposable](err)
	}
	return async.Resolved(d)
}

func (p *Pool) queue(ctx context.Context, s service.Service) (disposable.Disposable, error) {
	if err := service.Validate(s); err != nil {
		return nil, err
	}

	d := disposable.NewDeferred()
	handle := disposable.OnDispose(d, func() {
		p.untrack(d)
		if p.registry != nil {
			p.registry.Disposals.WithLabelValues(p.Name()).Inc()
		}
	})
	p.track(d, handle)

	report := func(r service.Result) { p.activated(s, r) }
	entry := service.Entrypoint(ctx, s, report)
	if p.sched.Strategy().Kind() != scheduler.KindHostThread {
		entry = service.HoldingEntrypoint(ctx, s, report)
	}

	var (
		inner disposable.Disposable
		err   error
	)
	if s.IsPeriodic() {
		inner, err = p.sched.ScheduleRepeating(entry, s.Delay(), s.Period())
	} else {
		inner, err = p.sched.ScheduleOnce(func() {
			p.untrack(d)
			entry()
		}, s.Delay())
	}
	if err != nil {
		p.untrack(d)
		return nil, sserrors.NewServiceError(s.Name(), "queue", err)
	}
	d.Attach(inner)

	if p.registry != nil {
		p.registry.ServicesQueued.WithLabelValues(p.Name()).Inc()
	}
	p.log.Debug().
		Str("service", s.Name()).
		Bool("periodic", s.IsPeriodic()).
		Int64("delay", s.Delay()).
		Int64("period", s.Period()).
		Msg("service queued")

	return handle, nil
}

// QueueAllServices queues every member of a snapshot taken now. The stream
// is lazy: each member is queued when its entry is pulled. A member that
// cannot be queued ends the stream with its error.
func (p *Pool) QueueAllServices(ctx context.Context) stream.Stream[disposable.Disposable] {
	members := p.Members()
	i := 0
	return stream.FromFunc(func(context.Context) (disposable.Disposable, bool, error) {
		if i >= len(members) {
			return nil, false, nil
		}
		s := members[i]
		i++
		d, err := p.queue(ctx, s)
		if err != nil {
			return nil, false, err
		}
		return d, true, nil
	})
}

// StopService stops the member called name and disposes d. An unknown name
// only disposes d. d may be nil.
func (p *Pool) StopService(ctx context.Context, name string, d disposable.Disposable) *async.Completion {
	if d != nil {
		d.Dispose()
	}

	member, ok := p.lookup(name)
	if !ok {
		return async.Complete()
	}

	p.log.Debug().Str("service", name).Msg("stopping service")
	return member.Stop(ctx)
}

// StopServices calls Stop on every current member without waiting for it
// and, concurrently, disposes every handle drained from disposables. The
// completion resolves once all handles are disposed.
func (p *Pool) StopServices(ctx context.Context, disposables stream.Stream[disposable.Disposable]) *async.Completion {
	for _, s := range p.Members() {
		async.Run(func() error { return s.Stop(ctx).Err(ctx) })
	}

	return async.Run(func() error {
		if disposables == nil {
			return nil
		}
		defer disposables.Close()
		return disposables.ForEach(ctx, func(d disposable.Disposable) {
			if d != nil {
				d.Dispose()
			}
		})
	})
}

// Recycle clears membership and the members' pool refs. Armed schedules are
// left alone.
func (p *Pool) Recycle() *async.Future[*Pool] {
	p.mu.Lock()
	members := p.members
	p.members = nil
	for _, s := range members {
		s.SetParentPool(service.PoolRef{})
	}
	p.mu.Unlock()

	p.setMembersGauge(0)
	p.log.Debug().Int("members", len(members)).Msg("pool recycled")
	return async.Resolved(p)
}

// Outstanding returns the number of live handles: queued and not yet
// disposed, excluding one-shots that have already fired.
func (p *Pool) Outstanding() int {
	p.outMu.Lock()
	defer p.outMu.Unlock()
	return len(p.outstanding)
}

// DisposeOutstanding disposes every live handle.
func (p *Pool) DisposeOutstanding() {
	p.outMu.Lock()
	handles := make([]disposable.Disposable, 0, len(p.outstanding))
	for _, h := range p.outstanding {
		handles = append(handles, h)
	}
	p.outMu.Unlock()

	for _, h := range handles {
		h.Dispose()
	}
}

func (p *Pool) track(d *disposable.Deferred, handle disposable.Disposable) {
	p.outMu.Lock()
	p.outstanding[d] = handle
	n := len(p.outstanding)
	p.outMu.Unlock()
	p.setOutstandingGauge(n)
}

func (p *Pool) untrack(d *disposable.Deferred) {
	p.outMu.Lock()
	delete(p.outstanding, d)
	n := len(p.outstanding)
	p.outMu.Unlock()
	p.setOutstandingGauge(n)
}

func (p *Pool) activated(s service.Service, r service.Result) {
	if p.registry != nil {
		name := p.Name()
		p.registry.Activations.WithLabelValues(name).Inc()
		p.registry.StartDuration.WithLabelValues(name).Observe(r.Duration.Seconds())
		if r.Err != nil {
			p.registry.ActivationFailures.WithLabelValues(name).Inc()
		}
	}

	if len(p.observers) == 0 {
		return
	}
	a := Activation{
		Pool:     p.Name(),
		Service:  s.Name(),
		Started:  r.Started,
		Duration: r.Duration,
		Err:      r.Err,
	}
	for _, fn := range p.observers {
		fn(a)
	}
}

func (p *Pool) setMembersGauge(n int) {
	if p.registry != nil {
		p.registry.PoolMembers.WithLabelValues(p.Name()).Set(float64(n))
	}
}

func (p *Pool) setOutstandingGauge(n int) {
	if p.registry != nil {
		p.registry.PoolOutstanding.WithLabelValues(p.Name()).Set(float64(n))
	}
}
