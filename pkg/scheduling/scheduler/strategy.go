package scheduler

import (
	"fmt"

	"github.com/SimplexDevelopment/SimplexSS/pkg/common/validation"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host"
)

// MaxParallelWorkers is the upper bound on a parallel pool's worker count.
const MaxParallelWorkers = 4

// Kind identifies a concurrency strategy.
type Kind int

const (
	// KindSequential runs activations one at a time on a dedicated worker.
	KindSequential Kind = iota
	// KindParallel runs activations on a small bounded worker pool.
	KindParallel
	// KindHostThread runs activations on the host's cooperative thread.
	KindHostThread
)

var kindNames = map[Kind]string{
	KindSequential: "sequential",
	KindParallel:   "parallel",
	KindHostThread: "host-thread",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses "sequential", "parallel" or "host-thread".
func ParseKind(s string) (Kind, error) {
	if err := validation.ValidateOneOf("scheduler", "strategy", s,
		KindSequential.String(), KindParallel.String(), KindHostThread.String()); err != nil {
		return 0, err
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, nil
}

// Strategy selects the execution back-end of a pool. The zero value is
// Sequential.
type Strategy struct {
	kind       Kind
	maxWorkers int
	host       host.Scheduler
}

// Sequential returns the single-worker, strict FIFO strategy.
func Sequential() Strategy {
	return Strategy{kind: KindSequential}
}

// Parallel returns a bounded worker pool strategy. maxWorkers is clamped to
// [1, MaxParallelWorkers]; zero or less selects MaxParallelWorkers.
func Parallel(maxWorkers int) Strategy {
	if maxWorkers <= 0 || maxWorkers > MaxParallelWorkers {
		maxWorkers = MaxParallelWorkers
	}
	return Strategy{kind: KindParallel, maxWorkers: maxWorkers}
}

// HostThread returns a strategy that delegates to the host's tick scheduler.
func HostThread(h host.Scheduler) Strategy {
	return Strategy{kind: KindHostThread, host: h}
}

// Kind returns the strategy's kind.
func (s Strategy) Kind() Kind { return s.kind }

// MaxWorkers returns the number of workers an in-process strategy runs.
// It is zero for host-thread.
func (s Strategy) MaxWorkers() int {
	switch s.kind {
	case KindSequential:
		return 1
	case KindParallel:
		if s.maxWorkers == 0 {
			return MaxParallelWorkers
		}
		return s.maxWorkers
	default:
		return 0
	}
}

// Host returns the host capability of a host-thread strategy.
func (s Strategy) Host() host.Scheduler { return s.host }

func (s Strategy) String() string {
	if s.kind == KindParallel {
		return fmt.Sprintf("parallel(%d)", s.MaxWorkers())
	}
	return s.kind.String()
}
