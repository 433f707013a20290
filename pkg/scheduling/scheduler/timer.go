package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/disposable"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host"
	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/workerpool"
)

type scheduledTask struct {
	id        uint64
	task      func()
	runAt     time.Time
	interval  time.Duration
	inflight  bool
	cancelled atomic.Bool
}

// timerScheduler backs the sequential and parallel strategies: a ticker loop
// finds due tasks and hands them to a worker pool.
type timerScheduler struct {
	strategy Strategy
	opts     options
	pool     workerpool.Pool

	mu      sync.Mutex
	nextID  uint64
	tasks   map[uint64]*scheduledTask
	closed  bool
	done    chan struct{}
	stopped chan struct{}

	loopWg       sync.WaitGroup
	shutdownOnce sync.Once
}

func newTimerScheduler(strategy Strategy, o options) *timerScheduler {
	s := &timerScheduler{
		strategy: strategy,
		opts:     o,
		tasks:    make(map[uint64]*scheduledTask),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	log := o.logger
	s.pool = workerpool.NewWithMetrics(workerpool.Config{
		WorkerCount: strategy.MaxWorkers(),
		PanicHandler: func(_ workerpool.Task, r interface{}) {
			log.Debug().Str("scheduler", o.name).Interface("panic", r).Msg("scheduled task panicked")
		},
	}, o.name, o.registry)

	s.loopWg.Add(1)
	go s.run()

	return s
}

func (s *timerScheduler) Strategy() Strategy {
	return s.strategy
}

func (s *timerScheduler) ScheduleOnce(task func(), delay int64) (disposable.Disposable, error) {
	return s.schedule(task, delay, 0)
}

func (s *timerScheduler) ScheduleRepeating(task func(), initialDelay, period int64) (disposable.Disposable, error) {
	if period <= 0 {
		return nil, invalidPeriod(period)
	}
	return s.schedule(task, initialDelay, period)
}

func (s *timerScheduler) schedule(task func(), delay, period int64) (disposable.Disposable, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("cannot schedule task: %w", sserrors.ErrClosed)
	}

	s.nextID++
	st := &scheduledTask{
		id:       s.nextID,
		task:     task,
		runAt:    time.Now().Add(host.ToDuration(delay)),
		interval: host.ToDuration(period),
	}
	s.tasks[st.id] = st
	s.opts.scheduled(s.strategy)

	return disposable.New(func() { s.cancel(st) }), nil
}

func (s *timerScheduler) cancel(st *scheduledTask) {
	st.cancelled.Store(true)

	s.mu.Lock()
	delete(s.tasks, st.id)
	s.mu.Unlock()
}

func (s *timerScheduler) Shutdown() <-chan struct{} {
	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		for id, st := range s.tasks {
			st.cancelled.Store(true)
			delete(s.tasks, id)
		}
		close(s.done)
		s.mu.Unlock()

		go func() {
			s.loopWg.Wait()
			<-s.pool.Shutdown()
			s.opts.logger.Debug().Str("scheduler", s.opts.name).Msg("scheduler stopped")
			close(s.stopped)
		}()
	})

	return s.stopped
}

func (s *timerScheduler) run() {
	defer s.loopWg.Done()

	ticker := time.NewTicker(s.opts.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.processReadyTasks(now)
		}
	}
}

type firing struct {
	st  *scheduledTask
	due time.Time
}

func (s *timerScheduler) processReadyTasks(now time.Time) {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return
	}

	ready := make([]firing, 0, len(s.tasks))
	for id, st := range s.tasks {
		if st.inflight || now.Before(st.runAt) {
			continue
		}
		ready = append(ready, firing{st: st, due: st.runAt})

		if st.interval > 0 {
			// Fixed rate: the next firing is measured from the previous due
			// time, not from now.
			st.inflight = true
			st.runAt = st.runAt.Add(st.interval)
		} else {
			delete(s.tasks, id)
		}
	}
	s.mu.Unlock()

	// Hand off in fire order so the sequential worker sees FIFO.
	sort.Slice(ready, func(i, j int) bool {
		if !ready[i].due.Equal(ready[j].due) {
			return ready[i].due.Before(ready[j].due)
		}
		return ready[i].st.id < ready[j].st.id
	})

	for _, f := range ready {
		st := f.st
		err := s.pool.Submit(workerpool.TaskFunc(func(context.Context) error {
			defer s.release(st)
			if st.cancelled.Load() {
				return nil
			}
			s.opts.executed(s.strategy)
			st.task()
			return nil
		}))
		if err != nil {
			s.release(st)
		}
	}
}

// release re-enables a repeating task after its firing has finished.
func (s *timerScheduler) release(st *scheduledTask) {
	if st.interval == 0 {
		return
	}
	s.mu.Lock()
	st.inflight = false
	s.mu.Unlock()
}
