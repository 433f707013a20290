// Package service defines the lifecycle contract of a schedulable service and
// a configurable base implementation.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SimplexDevelopment/SimplexSS/pkg/async"
	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/identity"
)

// Service is a named unit of background work with a start/stop lifecycle and
// optional periodic re-firing. Delay and Period are host ticks.
type Service interface {
	identity.Identifier

	IsPeriodic() bool
	Delay() int64
	Period() int64

	// Start runs one activation on the calling goroutine. Work it hands off
	// elsewhere is reported through the returned completion, as are failures.
	Start(ctx context.Context) *async.Completion

	// Stop tears the service down. Failures surface the same way.
	Stop(ctx context.Context) *async.Completion

	// ParentPool returns the ref of the pool the service belongs to.
	ParentPool() *async.Future[async.Optional[PoolRef]]

	// SetParentPool records the owning pool. The zero ref clears it.
	SetParentPool(ref PoolRef) *async.Completion
}

// Cancellable is implemented by services that can be interrupted while running.
type Cancellable interface {
	Cancel(ctx context.Context) *async.Completion
	IsCancelled() bool
}

// PoolRef identifies a pool without holding it. Pools are resolved from a
// ref through the manager that owns them.
type PoolRef struct {
	Name  string
	Token string
}

// DefaultPoolPrefix prefixes the names of pools created for services that
// were built without one.
const DefaultPoolPrefix = "defaultPool-"

// NewPoolRef returns a ref for a new pool called name.
func NewPoolRef(name string) PoolRef {
	return PoolRef{Name: name, Token: uuid.NewString()}
}

// DefaultPoolRef returns a ref for a fresh single-service default pool.
func DefaultPoolRef() PoolRef {
	token := uuid.NewString()
	return PoolRef{Name: DefaultPoolPrefix + token[:8], Token: token}
}

// IsZero reports whether r refers to no pool.
func (r PoolRef) IsZero() bool {
	return r == PoolRef{}
}

// IsDefault reports whether r names an automatically created pool.
func (r PoolRef) IsDefault() bool {
	return strings.HasPrefix(r.Name, DefaultPoolPrefix)
}

func (r PoolRef) String() string {
	if r.IsZero() {
		return "<none>"
	}
	token := r.Token
	if len(token) > 8 {
		token = token[:8]
	}
	return r.Name + "#" + token
}

// Result describes one finished activation.
type Result struct {
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Entrypoint returns the function a host invokes for each activation of s.
// It calls Start on the calling goroutine, never calls Stop, and does not
// wait for a completion that Start leaves pending. onDone, if set, receives
// the outcome once Start completes: on the calling goroutine when Start
// finished synchronously, as Executable does.
func Entrypoint(ctx context.Context, s Service, onDone func(Result)) func() {
	return entrypoint(ctx, s, onDone, false)
}

// HoldingEntrypoint is Entrypoint for in-process workers: it also waits for
// the completion Start returns, so the worker stays busy until the
// activation has finished.
func HoldingEntrypoint(ctx context.Context, s Service, onDone func(Result)) func() {
	return entrypoint(ctx, s, onDone, true)
}

func entrypoint(ctx context.Context, s Service, onDone func(Result), hold bool) func() {
	return func() {
		started := time.Now()
		c := s.Start(ctx)
		if hold {
			<-c.Done()
		}
		if onDone == nil {
			return
		}
		c.OnComplete(func(_ struct{}, err error) {
			onDone(Result{Started: started, Duration: time.Since(started), Err: err})
		})
	}
}

// Validate checks that s can be scheduled.
func Validate(s Service) error {
	if s == nil {
		return sserrors.NewValidationError("service", "service", nil, "cannot be nil")
	}
	if s.IsPeriodic() && s.Period() <= 0 {
		return sserrors.NewServiceError(s.Name(), "validate", sserrors.ErrPoolConfiguration).
			WithHint("periodic services need a positive period")
	}
	return nil
}
