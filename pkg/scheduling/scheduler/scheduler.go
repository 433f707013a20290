package scheduler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/disposable"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host"
	"github.com/SimplexDevelopment/SimplexSS/pkg/metrics"
)

// PoolScheduler arms timers for a pool. Delays and periods are in ticks
// whatever the strategy; in-process adapters convert them with
// host.ToDuration, the host-thread adapter passes them through.
type PoolScheduler interface {
	// ScheduleOnce runs task once after delay ticks.
	ScheduleOnce(task func(), delay int64) (disposable.Disposable, error)

	// ScheduleRepeating runs task after initialDelay ticks and then every
	// period ticks. A task never overlaps itself: a firing that comes due
	// while the previous one is still running waits for it.
	ScheduleRepeating(task func(), initialDelay, period int64) (disposable.Disposable, error)

	// Strategy returns the strategy the adapter was built for.
	Strategy() Strategy

	// Shutdown cancels every armed timer and stops the adapter's workers.
	// The returned channel closes once in-flight tasks have finished.
	Shutdown() <-chan struct{}
}

type options struct {
	name         string
	registry     *metrics.Registry
	logger       zerolog.Logger
	tickInterval time.Duration
}

// Option configures a PoolScheduler.
type Option func(*options)

// WithMetrics exports scheduling counters and worker gauges under name.
func WithMetrics(registry *metrics.Registry, name string) Option {
	return func(o *options) {
		o.registry = registry
		o.name = name
	}
}

// WithName sets the label used in metrics and log lines.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTickInterval sets how often the in-process timer loop checks for due
// tasks (default: one host tick). It bounds timer precision.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.tickInterval = d
		}
	}
}

// New builds the adapter for strategy.
func New(strategy Strategy, opts ...Option) (PoolScheduler, error) {
	o := options{
		name:         strategy.String(),
		logger:       zerolog.Nop(),
		tickInterval: host.MillisPerTick * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}

	switch strategy.Kind() {
	case KindSequential, KindParallel:
		return newTimerScheduler(strategy, o), nil
	case KindHostThread:
		if strategy.Host() == nil {
			return nil, fmt.Errorf("%w: host-thread strategy requires a host scheduler", sserrors.ErrPoolConfiguration)
		}
		return newHostScheduler(strategy, o), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %v", sserrors.ErrPoolConfiguration, strategy.Kind())
	}
}

func (o *options) scheduled(strategy Strategy) {
	if o.registry != nil {
		o.registry.TasksScheduled.WithLabelValues(o.name, strategy.Kind().String()).Inc()
	}
}

func (o *options) executed(strategy Strategy) {
	if o.registry != nil {
		o.registry.TasksExecuted.WithLabelValues(o.name, strategy.Kind().String()).Inc()
	}
}

func invalidPeriod(period int64) error {
	return fmt.Errorf("%w: period must be positive, got %d ticks", sserrors.ErrPoolConfiguration, period)
}
