package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"

	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/disposable"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host"
)

// hostScheduler delegates to the host's tick scheduler. Ticks pass through
// unconverted and every task runs on the host thread.
type hostScheduler struct {
	strategy Strategy
	host     host.Scheduler
	opts     options

	armed  *disposable.Composite
	closed atomic.Bool

	stopped      chan struct{}
	shutdownOnce sync.Once
}

func newHostScheduler(strategy Strategy, o options) *hostScheduler {
	return &hostScheduler{
		strategy: strategy,
		host:     strategy.Host(),
		opts:     o,
		armed:    disposable.NewComposite(),
		stopped:  make(chan struct{}),
	}
}

func (s *hostScheduler) Strategy() Strategy {
	return s.strategy
}

func (s *hostScheduler) ScheduleOnce(task func(), delay int64) (disposable.Disposable, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}
	if s.closed.Load() {
		return nil, fmt.Errorf("cannot schedule task: %w", sserrors.ErrClosed)
	}

	d := disposable.NewDeferred()
	s.armed.Add(d)
	fn := func() {
		s.armed.Remove(d)
		s.opts.executed(s.strategy)
		task()
	}

	var t host.Task
	if delay <= 0 {
		t = s.host.RunNow(fn)
	} else {
		t = s.host.RunAfter(fn, delay)
	}
	d.Attach(disposable.FromHost(t))
	s.opts.scheduled(s.strategy)

	return s.track(d), nil
}

func (s *hostScheduler) ScheduleRepeating(task func(), initialDelay, period int64) (disposable.Disposable, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}
	if period <= 0 {
		return nil, invalidPeriod(period)
	}
	if s.closed.Load() {
		return nil, fmt.Errorf("cannot schedule task: %w", sserrors.ErrClosed)
	}

	d := disposable.NewDeferred()
	s.armed.Add(d)
	t := s.host.RunEvery(func() {
		s.opts.executed(s.strategy)
		task()
	}, initialDelay, period)
	d.Attach(disposable.FromHost(t))
	s.opts.scheduled(s.strategy)

	return s.track(d), nil
}

// track drops d from the armed set once it is disposed.
func (s *hostScheduler) track(d *disposable.Deferred) disposable.Disposable {
	return disposable.OnDispose(d, func() { s.armed.Remove(d) })
}

// Shutdown cancels every task this adapter armed on the host. The host
// itself keeps running.
func (s *hostScheduler) Shutdown() <-chan struct{} {
	s.shutdownOnce.Do(func() {
		s.closed.Store(true)
		s.armed.Dispose()
		s.opts.logger.Debug().Str("scheduler", s.opts.name).Msg("scheduler stopped")
		close(s.stopped)
	})
	return s.stopped
}
