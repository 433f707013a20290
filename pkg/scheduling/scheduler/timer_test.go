package scheduler

import (
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/SimplexDevelopment/SimplexSS/internal/testutil"
	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/metrics"
)

func newInProcess(t *testing.T, strategy Strategy, opts ...Option) PoolScheduler {
	t.Helper()
	opts = append([]Option{WithTickInterval(time.Millisecond)}, opts...)
	s, err := New(strategy, opts...)
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { testutil.WaitClosed(t, s.Shutdown()) })
	return s
}

func TestTimerScheduler_Once(t *testing.T) {
	s := newInProcess(t, Sequential())
	var executed int32

	d, err := s.ScheduleOnce(func() { atomic.AddInt32(&executed, 1) }, 0)
	testutil.AssertNoError(t, err)

	testutil.WaitForInt32(t, &executed, 1, time.Second)
	testutil.Consistently(t, func() bool {
		return atomic.LoadInt32(&executed) == 1
	}, 50*time.Millisecond, 5*time.Millisecond)

	// Firing does not dispose the handle.
	testutil.AssertEqual(t, d.IsDisposed(), false)
	d.Dispose()
	testutil.AssertEqual(t, d.IsDisposed(), true)
}

func TestTimerScheduler_DelayInTicks(t *testing.T) {
	s := newInProcess(t, Sequential())
	fired := make(chan time.Time, 1)

	start := time.Now()
	_, err := s.ScheduleOnce(func() { fired <- time.Now() }, 2)
	testutil.AssertNoError(t, err)

	select {
	case at := <-fired:
		if elapsed := at.Sub(start); elapsed < 100*time.Millisecond {
			t.Errorf("fired after %v, want at least 2 ticks (100ms)", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("task did not fire")
	}
}

func TestTimerScheduler_DisposeBeforeFire(t *testing.T) {
	s := newInProcess(t, Sequential())
	var executed int32

	d, err := s.ScheduleOnce(func() { atomic.AddInt32(&executed, 1) }, 4)
	testutil.AssertNoError(t, err)
	d.Dispose()

	testutil.Consistently(t, func() bool {
		return atomic.LoadInt32(&executed) == 0
	}, 300*time.Millisecond, 10*time.Millisecond)
}

func TestTimerScheduler_Repeating(t *testing.T) {
	s := newInProcess(t, Parallel(2))
	var executed int32

	d, err := s.ScheduleRepeating(func() { atomic.AddInt32(&executed, 1) }, 0, 1)
	testutil.AssertNoError(t, err)

	testutil.Eventually(t, func() bool {
		return atomic.LoadInt32(&executed) >= 3
	}, time.Second, 5*time.Millisecond)

	d.Dispose()
	// Let a firing already handed to a worker finish.
	time.Sleep(20 * time.Millisecond)
	stopped := atomic.LoadInt32(&executed)
	testutil.Consistently(t, func() bool {
		return atomic.LoadInt32(&executed) == stopped
	}, 150*time.Millisecond, 10*time.Millisecond)
}

func TestTimerScheduler_RepeatingNeverOverlaps(t *testing.T) {
	s := newInProcess(t, Parallel(4))
	var running, maxRunning, runs int32

	d, err := s.ScheduleRepeating(func() {
		n := atomic.AddInt32(&running, 1)
		for {
			m := atomic.LoadInt32(&maxRunning)
			if n <= m || atomic.CompareAndSwapInt32(&maxRunning, m, n) {
				break
			}
		}
		time.Sleep(120 * time.Millisecond) // longer than the 50ms period
		atomic.AddInt32(&running, -1)
		atomic.AddInt32(&runs, 1)
	}, 0, 1)
	testutil.AssertNoError(t, err)

	testutil.WaitForInt32(t, &runs, 3, 2*time.Second)
	d.Dispose()

	testutil.AssertEqual(t, atomic.LoadInt32(&maxRunning), int32(1))
}

func TestTimerScheduler_SequentialIsFIFO(t *testing.T) {
	s := newInProcess(t, Sequential())

	rec := testutil.NewRecorder()
	want := make([]string, 10)
	for i := range want {
		want[i] = strconv.Itoa(i)
		event := want[i]
		_, err := s.ScheduleOnce(func() { rec.Record(event) }, 0)
		testutil.AssertNoError(t, err)
	}

	testutil.Eventually(t, func() bool { return rec.Len() == len(want) }, time.Second, time.Millisecond)

	got := rec.Events()
	for i := range want {
		testutil.AssertEqual(t, got[i], want[i])
	}
}

func TestTimerScheduler_ParallelRunsConcurrently(t *testing.T) {
	s := newInProcess(t, Parallel(3))
	release := make(chan struct{})
	var started int32

	for i := 0; i < 3; i++ {
		_, err := s.ScheduleOnce(func() {
			atomic.AddInt32(&started, 1)
			<-release
		}, 0)
		testutil.AssertNoError(t, err)
	}

	testutil.WaitForInt32(t, &started, 3, time.Second)
	close(release)
}

func TestTimerScheduler_InvalidPeriod(t *testing.T) {
	s := newInProcess(t, Sequential())

	for _, period := range []int64{0, -1} {
		_, err := s.ScheduleRepeating(func() {}, 0, period)
		testutil.AssertErrorIs(t, err, sserrors.ErrPoolConfiguration)
	}
}

func TestTimerScheduler_PanicDoesNotKillWorker(t *testing.T) {
	s := newInProcess(t, Sequential())
	var executed int32

	_, err := s.ScheduleOnce(func() { panic("boom") }, 0)
	testutil.AssertNoError(t, err)
	_, err = s.ScheduleOnce(func() { atomic.AddInt32(&executed, 1) }, 0)
	testutil.AssertNoError(t, err)

	testutil.WaitForInt32(t, &executed, 1, time.Second)
}

func TestTimerScheduler_Shutdown(t *testing.T) {
	s, err := New(Sequential(), WithTickInterval(time.Millisecond))
	testutil.AssertNoError(t, err)

	var executed int32
	_, err = s.ScheduleRepeating(func() { atomic.AddInt32(&executed, 1) }, 2, 2)
	testutil.AssertNoError(t, err)

	testutil.WaitClosed(t, s.Shutdown())
	testutil.WaitClosed(t, s.Shutdown())

	_, err = s.ScheduleOnce(func() {}, 0)
	testutil.AssertErrorIs(t, err, sserrors.ErrClosed)
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(0))
}

func TestTimerScheduler_Metrics(t *testing.T) {
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	s := newInProcess(t, Parallel(2), WithMetrics(reg, "world"))
	var executed int32

	_, err := s.ScheduleOnce(func() { atomic.AddInt32(&executed, 1) }, 0)
	testutil.AssertNoError(t, err)
	testutil.WaitForInt32(t, &executed, 1, time.Second)

	testutil.AssertEqual(t, promtest.ToFloat64(reg.TasksScheduled.WithLabelValues("world", "parallel")), float64(1))
	testutil.AssertEqual(t, promtest.ToFloat64(reg.TasksExecuted.WithLabelValues("world", "parallel")), float64(1))
	testutil.AssertEqual(t, promtest.ToFloat64(reg.WorkerPoolSize.WithLabelValues("world")), float64(2))
}
