package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SimplexDevelopment/SimplexSS/internal/testutil"
	"github.com/SimplexDevelopment/SimplexSS/pkg/async"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host/tickloop"
	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/scheduler"
	"github.com/SimplexDevelopment/SimplexSS/pkg/service"
)

// counting is a service whose lifecycle calls are counted.
type counting struct {
	*service.Executable
	starts int32
	stops  int32
	err    error
}

func newCounting(t *testing.T, name string, opts ...service.Option) *counting {
	t.Helper()
	c := &counting{}
	opts = append(opts,
		service.WithStart(func(context.Context) error {
			atomic.AddInt32(&c.starts, 1)
			return c.err
		}),
		service.WithStop(func(context.Context) error {
			atomic.AddInt32(&c.stops, 1)
			return nil
		}),
	)
	e, err := service.New(name, opts...)
	testutil.AssertNoError(t, err)
	c.Executable = e
	return c
}

func (c *counting) Starts() int32 { return atomic.LoadInt32(&c.starts) }
func (c *counting) Stops() int32  { return atomic.LoadInt32(&c.stops) }

// ticking records the host tick of every Start. Start runs synchronously on
// the host thread.
type ticking struct {
	*service.Executable
	loop  *tickloop.Loop
	ticks []int64
}

func newTicking(t *testing.T, loop *tickloop.Loop, name string, opts ...service.Option) *ticking {
	t.Helper()
	e, err := service.New(name, opts...)
	testutil.AssertNoError(t, err)
	return &ticking{Executable: e, loop: loop}
}

func (s *ticking) Start(context.Context) *async.Completion {
	s.ticks = append(s.ticks, s.loop.Current())
	return async.Complete()
}

// overlap tracks how many bodies run at once.
type overlap struct {
	cur  int32
	peak int32
}

func (o *overlap) enter() {
	n := atomic.AddInt32(&o.cur, 1)
	for {
		peak := atomic.LoadInt32(&o.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&o.peak, peak, n) {
			return
		}
	}
}

func (o *overlap) leave() { atomic.AddInt32(&o.cur, -1) }

func (o *overlap) Current() int32 { return atomic.LoadInt32(&o.cur) }
func (o *overlap) Peak() int32    { return atomic.LoadInt32(&o.peak) }

func newManager(t *testing.T, cfg ManagerConfig) *Manager {
	t.Helper()
	cfg.SchedulerOptions = append(cfg.SchedulerOptions, scheduler.WithTickInterval(time.Millisecond))
	m := NewManager(cfg)
	t.Cleanup(func() {
		ctx, cancel := testutil.WithTimeout(t)
		defer cancel()
		testutil.AssertNoError(t, m.Shutdown().Err(ctx))
	})
	return m
}

func mustPool(t *testing.T, f *async.Future[*Pool]) *Pool {
	t.Helper()
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	p, err := f.Await(ctx)
	testutil.AssertNoError(t, err)
	return p
}
