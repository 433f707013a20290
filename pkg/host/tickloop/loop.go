// Package tickloop is a reference host: a single goroutine that advances a
// tick counter at a fixed interval and runs the tasks due on each tick.
// It implements host.Scheduler, so it can stand in for a real host process in
// commands and tests.
package tickloop

import (
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/SimplexDevelopment/SimplexSS/pkg/host"
)

// DefaultTickInterval matches host.MillisPerTick.
const DefaultTickInterval = host.MillisPerTick * time.Millisecond

// Config holds loop configuration.
type Config struct {
	// TickInterval is the wall-clock length of one tick (default: 50ms).
	TickInterval time.Duration

	// Logger receives task panics. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Loop is a tick-driven cooperative scheduler. All tasks run on the goroutine
// that advances the loop: the loop goroutine after Start, or the caller of Tick.
type Loop struct {
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	tick    int64
	seq     uint64
	pending []*task

	tickMu sync.Mutex // serializes Tick so tasks never run concurrently

	lifeMu  sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type task struct {
	fn        func()
	due       int64
	period    int64
	seq       uint64
	cancelled atomic.Bool
}

func (t *task) Cancel() { t.cancelled.Store(true) }

func (t *task) IsCancelled() bool { return t.cancelled.Load() }

// New creates a stopped loop.
func New(cfg Config) *Loop {
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	return &Loop{
		interval: interval,
		log:      log.With().Str("component", "tickloop").Logger(),
		stopCh:   make(chan struct{}),
	}
}

func (l *Loop) submit(fn func(), delay, period int64) host.Task {
	if delay < 1 {
		delay = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	t := &task{
		fn:     fn,
		due:    l.tick + delay,
		period: period,
		seq:    l.seq,
	}
	l.pending = append(l.pending, t)
	return t
}

// RunNow runs fn on the next tick.
func (l *Loop) RunNow(fn func()) host.Task {
	return l.submit(fn, 1, 0)
}

// RunAfter runs fn once, delay ticks from now. A delay below one tick means the next tick.
func (l *Loop) RunAfter(fn func(), delay int64) host.Task {
	return l.submit(fn, delay, 0)
}

// RunEvery runs fn delay ticks from now and then every period ticks.
// A non-positive period runs fn once.
func (l *Loop) RunEvery(fn func(), delay, period int64) host.Task {
	if period < 0 {
		period = 0
	}
	return l.submit(fn, delay, period)
}

// Tick advances the loop by one tick and runs every task that became due,
// ordered by due tick and then submission order.
func (l *Loop) Tick() {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	l.mu.Lock()
	l.tick++
	now := l.tick
	due := make([]*task, 0, len(l.pending))
	kept := l.pending[:0]
	for _, t := range l.pending {
		switch {
		case t.IsCancelled():
		case t.due <= now:
			due = append(due, t)
		default:
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(l.pending); i++ {
		l.pending[i] = nil
	}
	l.pending = kept
	l.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})

	for _, t := range due {
		if t.IsCancelled() {
			continue
		}
		l.run(t)

		if t.period > 0 && !t.IsCancelled() {
			l.mu.Lock()
			t.due = now + t.period
			l.pending = append(l.pending, t)
			l.mu.Unlock()
		}
	}
}

func (l *Loop) run(t *task) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Int64("tick", t.due).
				Msg("host task panicked")
		}
	}()
	t.fn()
}

// Advance runs n ticks back to back.
func (l *Loop) Advance(n int) {
	for i := 0; i < n; i++ {
		l.Tick()
	}
}

// Current returns the number of ticks run so far.
func (l *Loop) Current() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tick
}

// Pending returns the number of armed, uncancelled tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, t := range l.pending {
		if !t.IsCancelled() {
			n++
		}
	}
	return n
}

// Start begins ticking on a dedicated goroutine. Calling Start twice, or after
// Stop, is a no-op.
func (l *Loop) Start() {
	l.lifeMu.Lock()
	defer l.lifeMu.Unlock()

	if l.running || l.stopped {
		return
	}
	l.running = true
	l.wg.Add(1)
	go l.loop()
}

// Stop halts the loop and waits for the current tick to finish.
func (l *Loop) Stop() {
	l.lifeMu.Lock()
	if l.stopped {
		l.lifeMu.Unlock()
		return
	}
	l.stopped = true
	close(l.stopCh)
	l.lifeMu.Unlock()

	l.wg.Wait()
}

func (l *Loop) loop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}

var _ host.Scheduler = (*Loop)(nil)
