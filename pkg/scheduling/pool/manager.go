package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/SimplexDevelopment/SimplexSS/pkg/async"
	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/common/validation"
	"github.com/SimplexDevelopment/SimplexSS/pkg/metrics"
	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/scheduler"
	"github.com/SimplexDevelopment/SimplexSS/pkg/service"
	"github.com/SimplexDevelopment/SimplexSS/pkg/streaming/stream"
)

// ManagerConfig holds settings applied to every pool a Manager creates.
type ManagerConfig struct {
	// Logger receives debug-level lifecycle events. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// Metrics instruments pools and their adapters when set.
	Metrics *metrics.Registry

	// Observers receive every activation of every pool.
	Observers []Observer

	// SchedulerOptions are passed to scheduler.New for each pool.
	SchedulerOptions []scheduler.Option
}

// Manager is the registry of pools. A service belongs to at most one
// registered pool; its associated pool is the first pool, in registry
// order, that contains it.
type Manager struct {
	cfg ManagerConfig
	log zerolog.Logger

	mu    sync.RWMutex
	pools []*Pool

	// moveMu serializes membership changes so a service is never seen in
	// two pools.
	moveMu sync.Mutex
}

// NewManager creates an empty registry.
func NewManager(cfg ManagerConfig) *Manager {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Manager{cfg: cfg, log: log}
}

// CreatePool creates and registers a pool with the given strategy and adds
// services to it, moving any that belong to another pool.
func (m *Manager) CreatePool(name string, strategy scheduler.Strategy, services ...service.Service) *async.Future[*Pool] {
	if err := validation.ValidateNotEmpty("pool", "name", name); err != nil {
		return async.Failed[*Pool](err)
	}
	return m.createPool(service.NewPoolRef(name), strategy, services)
}

// EmptyPool creates and registers a pool without members.
func (m *Manager) EmptyPool(name string, strategy scheduler.Strategy) *async.Future[*Pool] {
	return m.CreatePool(name, strategy)
}

func (m *Manager) createPool(ref service.PoolRef, strategy scheduler.Strategy, services []service.Service) *async.Future[*Pool] {
	seen := make(map[string]struct{}, len(services))
	for _, s := range services {
		if s == nil {
			return async.Failed[*Pool](sserrors.NewValidationError("pool", "service", nil, "cannot be nil"))
		}
		if _, dup := seen[s.Name()]; dup {
			return async.Failed[*Pool](sserrors.NewServiceError(s.Name(), "create pool", sserrors.ErrDuplicateService))
		}
		seen[s.Name()] = struct{}{}
	}

	schedOpts := append([]scheduler.Option{
		scheduler.WithName(ref.Name),
		scheduler.WithLogger(m.log),
	}, m.cfg.SchedulerOptions...)
	if m.cfg.Metrics != nil {
		schedOpts = append(schedOpts, scheduler.WithMetrics(m.cfg.Metrics, ref.Name))
	}

	sched, err := scheduler.New(strategy, schedOpts...)
	if err != nil {
		return async.Failed[*Pool](sserrors.NewOperationError("pool", "create", err).WithContext(ref.Name))
	}

	opts := []Option{WithLogger(m.log), WithMetrics(m.cfg.Metrics)}
	for _, fn := range m.cfg.Observers {
		opts = append(opts, WithObserver(fn))
	}
	p := New(ref, sched, opts...)

	m.mu.Lock()
	m.pools = append(m.pools, p)
	m.mu.Unlock()

	m.log.Debug().
		Str("pool", ref.Name).
		Str("strategy", strategy.String()).
		Int("services", len(services)).
		Msg("pool created")

	if err := m.addToPool(p, services); err != nil {
		return async.Failed[*Pool](err)
	}
	return async.Resolved(p)
}

// AddToPool adds services to p. A service registered with another pool is
// moved out of it first. A service whose name is already taken in p stays
// where it was.
func (m *Manager) AddToPool(p *Pool, services ...service.Service) *async.Completion {
	if err := m.addToPool(p, services); err != nil {
		return async.Failed[struct{}](err)
	}
	return async.Complete()
}

func (m *Manager) addToPool(p *Pool, services []service.Service) error {
	if p == nil {
		return sserrors.NewValidationError("pool", "pool", nil, "cannot be nil")
	}

	m.moveMu.Lock()
	defer m.moveMu.Unlock()

	var errs []error
	for _, s := range services {
		if s == nil || p.ContainsService(s) {
			continue
		}
		if err := p.canAdd(s); err != nil {
			errs = append(errs, err)
			continue
		}
		for _, other := range m.snapshot() {
			if other != p {
				other.removeService(s)
			}
		}
		if err := p.addService(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RemoveFromPool removes services from p. Services that are not members are
// ignored.
func (m *Manager) RemoveFromPool(p *Pool, services ...service.Service) *async.Completion {
	if p == nil {
		return async.Failed[struct{}](sserrors.NewValidationError("pool", "pool", nil, "cannot be nil"))
	}

	m.moveMu.Lock()
	defer m.moveMu.Unlock()

	for _, s := range services {
		if s != nil {
			p.removeService(s)
		}
	}
	return async.Complete()
}

// Pools streams a snapshot of the registry in registration order.
func (m *Manager) Pools() stream.Stream[*Pool] {
	return stream.FromSlice(m.snapshot())
}

func (m *Manager) snapshot() []*Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Pool(nil), m.pools...)
}

// IsRegistered reports whether any registered pool contains s.
func (m *Manager) IsRegistered(s service.Service) bool {
	_, ok := m.associated(s)
	return ok
}

// AssociatedPool returns the first pool, in registry order, containing s.
func (m *Manager) AssociatedPool(s service.Service) *async.Future[async.Optional[*Pool]] {
	if p, ok := m.associated(s); ok {
		return async.Resolved(async.Some(p))
	}
	return async.Resolved(async.None[*Pool]())
}

func (m *Manager) associated(s service.Service) (*Pool, bool) {
	if s == nil {
		return nil, false
	}
	for _, p := range m.snapshot() {
		if p.ContainsService(s) {
			return p, true
		}
	}
	return nil, false
}

// Resolve returns the registered pool identified by ref.
func (m *Manager) Resolve(ref service.PoolRef) (*Pool, bool) {
	if ref.IsZero() {
		return nil, false
	}
	for _, p := range m.snapshot() {
		if p.Ref() == ref {
			return p, true
		}
	}
	return nil, false
}

// PoolByName returns the first registered pool called name.
func (m *Manager) PoolByName(name string) (*Pool, bool) {
	for _, p := range m.snapshot() {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Adopt registers a service that is not in any pool. If the service's
// parent ref names a registered pool it joins that pool; otherwise a new
// sequential pool is created for it under that ref (or a fresh default ref
// when it has none). Every adopted unparented service gets its own pool.
func (m *Manager) Adopt(s service.Service) *async.Future[*Pool] {
	if s == nil {
		return async.Failed[*Pool](sserrors.NewValidationError("pool", "service", nil, "cannot be nil"))
	}
	if p, ok := m.associated(s); ok {
		return async.Resolved(p)
	}

	return async.Then(s.ParentPool(), func(parent async.Optional[service.PoolRef]) *async.Future[*Pool] {
		ref, ok := parent.Get()
		if ok {
			if p, found := m.Resolve(ref); found {
				return async.Map(m.AddToPool(p, s), func(struct{}) *Pool { return p })
			}
		} else {
			ref = service.DefaultPoolRef()
		}
		m.log.Debug().Str("service", s.Name()).Str("pool", ref.Name).Msg("adopting service")
		return m.createPool(ref, scheduler.Sequential(), []service.Service{s})
	})
}

// Shutdown disposes every pool's outstanding handles and stops its adapter.
// Services are not stopped.
func (m *Manager) Shutdown() *async.Completion {
	pools := m.snapshot()
	return async.Run(func() error {
		for _, p := range pools {
			p.DisposeOutstanding()
			<-p.Scheduler().Shutdown()
		}
		m.log.Debug().Int("pools", len(pools)).Msg("manager shut down")
		return nil
	})
}

func (m *Manager) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("Manager(%d pools)", len(m.pools))
}
