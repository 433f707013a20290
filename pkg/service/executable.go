package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/SimplexDevelopment/SimplexSS/pkg/async"
	"github.com/SimplexDevelopment/SimplexSS/pkg/common/validation"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host"
	"github.com/SimplexDevelopment/SimplexSS/pkg/identity"
)

// Func is a lifecycle body.
type Func func(ctx context.Context) error

// Executable is the base Service implementation. Lifecycle bodies run on
// the calling goroutine, so a pool's scheduler decides where they execute.
// A panic inside one fails the completion.
type Executable struct {
	identity.Named

	delay         int64
	period        int64
	periodic      bool
	interruptible bool
	start         Func
	stop          Func

	mu     sync.RWMutex
	parent PoolRef

	cancelled atomic.Bool
}

// Option configures an Executable.
type Option func(*Executable) error

// WithStart sets the body run on every activation.
func WithStart(fn Func) Option {
	return func(e *Executable) error {
		e.start = fn
		return nil
	}
}

// WithStop sets the body run on Stop.
func WithStop(fn Func) Option {
	return func(e *Executable) error {
		e.stop = fn
		return nil
	}
}

// WithDelay sets the initial delay in ticks.
func WithDelay(ticks int64) Option {
	return func(e *Executable) error {
		if err := validation.ValidateNonNegative("service", "delay", ticks); err != nil {
			return err
		}
		e.delay = ticks
		return nil
	}
}

// WithPeriod makes the service periodic with the given period in ticks.
// Non-positive periods are accepted here and rejected when queued.
func WithPeriod(ticks int64) Option {
	return func(e *Executable) error {
		e.periodic = true
		e.period = ticks
		return nil
	}
}

// Repeating makes the service periodic with the current period
// (host.DefaultPeriod unless set).
func Repeating() Option {
	return func(e *Executable) error {
		e.periodic = true
		return nil
	}
}

// WithEvery makes the service periodic using a cron "@every <duration>"
// descriptor.
func WithEvery(expr string) Option {
	return func(e *Executable) error {
		ticks, err := host.ParseEvery(expr)
		if err != nil {
			return err
		}
		e.periodic = true
		e.period = ticks
		return nil
	}
}

// Interruptible allows Cancel to stop the service while it is running.
func Interruptible() Option {
	return func(e *Executable) error {
		e.interruptible = true
		return nil
	}
}

// InPool records ref as the service's parent pool.
func InPool(ref PoolRef) Option {
	return func(e *Executable) error {
		e.parent = ref
		return nil
	}
}

// New builds an Executable called name. Without InPool the service carries a
// default pool ref that the manager materializes on adoption.
func New(name string, opts ...Option) (*Executable, error) {
	if err := validation.ValidateNotEmpty("service", "name", name); err != nil {
		return nil, err
	}

	e := &Executable{
		Named:  identity.Named(name),
		period: host.DefaultPeriod,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("service %q: %w", name, err)
		}
	}
	if e.parent.IsZero() {
		e.parent = DefaultPoolRef()
	}

	return e, nil
}

func (e *Executable) IsPeriodic() bool { return e.periodic }

func (e *Executable) Delay() int64 { return e.delay }

func (e *Executable) Period() int64 { return e.period }

func (e *Executable) Start(ctx context.Context) *async.Completion {
	return run(ctx, e.start)
}

func (e *Executable) Stop(ctx context.Context) *async.Completion {
	return run(ctx, e.stop)
}

func run(ctx context.Context, fn Func) *async.Completion {
	if fn == nil {
		return async.Complete()
	}
	return async.Call(func() error { return fn(ctx) })
}

func (e *Executable) ParentPool() *async.Future[async.Optional[PoolRef]] {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.parent.IsZero() {
		return async.Resolved(async.None[PoolRef]())
	}
	return async.Resolved(async.Some(e.parent))
}

func (e *Executable) SetParentPool(ref PoolRef) *async.Completion {
	e.mu.Lock()
	e.parent = ref
	e.mu.Unlock()
	return async.Complete()
}

// IsInterruptible reports whether Cancel has any effect.
func (e *Executable) IsInterruptible() bool { return e.interruptible }

// Cancel stops an interruptible service and marks it cancelled. It is a
// no-op otherwise.
func (e *Executable) Cancel(ctx context.Context) *async.Completion {
	if !e.interruptible {
		return async.Complete()
	}
	e.cancelled.Store(true)
	return e.Stop(ctx)
}

func (e *Executable) IsCancelled() bool {
	return e.interruptible && e.cancelled.Load()
}

var (
	_ Service     = (*Executable)(nil)
	_ Cancellable = (*Executable)(nil)
)
