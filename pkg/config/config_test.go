package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SimplexDevelopment/SimplexSS/internal/testutil"
	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host/tickloop"
	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/scheduler"
	"github.com/SimplexDevelopment/SimplexSS/pkg/service"
)

func TestParse_Sample(t *testing.T) {
	c, err := Parse([]byte(Sample()))
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, c.Tick(), 50*time.Millisecond)
	testutil.AssertEqual(t, c.Logging.Level, "info")
	testutil.AssertEqual(t, c.Metrics.Enabled, true)
	testutil.AssertEqual(t, c.Metrics.Addr, ":9090")
	testutil.AssertEqual(t, c.Journal.Enabled(), false)
	testutil.AssertEqual(t, len(c.Pools), 2)
	testutil.AssertEqual(t, c.Pools[0].Strategy, "host-thread")
	testutil.AssertEqual(t, len(c.Pools[0].Services), 2)
	testutil.AssertEqual(t, c.Pools[1].MaxWorkers, 2)
}

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte(`
journal:
  redis_addr: localhost:6379
metrics:
  enabled: true
pools:
  - name: bare
`))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, c.TickInterval, DefaultTickInterval)
	testutil.AssertEqual(t, c.Logging.Level, DefaultLogLevel)
	testutil.AssertEqual(t, c.Metrics.Addr, DefaultMetricsAddr)
	testutil.AssertEqual(t, c.Journal.Key, DefaultJournalKey)
	testutil.AssertEqual(t, c.Pools[0].Strategy, "sequential")
}

func TestParse_Empty(t *testing.T) {
	c, err := Parse(nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, c.TickInterval, Default().TickInterval)
	testutil.AssertEqual(t, len(c.Pools), 0)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "tick_rate: 50ms\n", "field tick_rate not found"},
		{"bad tick", "tick_interval: soon\n", "tick_interval"},
		{"zero tick", "tick_interval: 0s\n", "must be positive"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"negative max_len", "journal:\n  max_len: -1\n", "journal.max_len"},
		{"unnamed pool", "pools:\n  - strategy: parallel\n", "pools[0].name"},
		{"bad strategy", "pools:\n  - name: p\n    strategy: fifo\n", "strategy"},
		{"too many workers", "pools:\n  - name: p\n    strategy: parallel\n    max_workers: 9\n", "max_workers"},
		{"duplicate service", "pools:\n  - name: p\n    services:\n      - name: a\n      - name: a\n", "duplicate in pool"},
		{"period and every", "pools:\n  - name: p\n    services:\n      - name: a\n        period: 1s\n        every: \"@every 1m\"\n", "conflicts with every"},
		{"sub-tick period", "pools:\n  - name: p\n    services:\n      - name: a\n        period: 10ms\n", "shorter than one tick"},
		{"calendar every", "pools:\n  - name: p\n    services:\n      - name: a\n        every: \"0 * * * *\"\n", "fixed-period"},
		{"negative delay", "pools:\n  - name: p\n    services:\n      - name: a\n        delay: -1s\n", "must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			testutil.AssertError(t, err)
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	_, err := Parse([]byte("tick_interval: nope\nlogging:\n  level: loud\n"))
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, sserrors.IsValidationError(err), true)
	testutil.AssertEqual(t, strings.Contains(err.Error(), "tick_interval"), true)
	testutil.AssertEqual(t, strings.Contains(err.Error(), "logging.level"), true)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simplexss.yaml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte(Sample()), 0o600))

	c, err := Load(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, c.Pools[0].Name, "world")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	testutil.AssertError(t, err)
}

func TestStrategyFor(t *testing.T) {
	loop := tickloop.New(tickloop.Config{})

	tests := []struct {
		pool    PoolConfig
		kind    scheduler.Kind
		workers int
	}{
		{PoolConfig{Strategy: "sequential"}, scheduler.KindSequential, 1},
		{PoolConfig{Strategy: "parallel", MaxWorkers: 2}, scheduler.KindParallel, 2},
		{PoolConfig{Strategy: "parallel"}, scheduler.KindParallel, scheduler.MaxParallelWorkers},
		{PoolConfig{Strategy: "host-thread"}, scheduler.KindHostThread, 0},
	}
	for _, tt := range tests {
		t.Run(tt.pool.Strategy, func(t *testing.T) {
			s, err := tt.pool.StrategyFor(loop)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, s.Kind(), tt.kind)
			testutil.AssertEqual(t, s.MaxWorkers(), tt.workers)
		})
	}

	_, err := PoolConfig{Strategy: "fifo"}.StrategyFor(loop)
	testutil.AssertError(t, err)
}

func TestServiceOptions(t *testing.T) {
	build := func(t *testing.T, sc ServiceConfig) *service.Executable {
		t.Helper()
		opts, err := sc.Options()
		testutil.AssertNoError(t, err)
		e, err := service.New(sc.Name, opts...)
		testutil.AssertNoError(t, err)
		return e
	}

	once := build(t, ServiceConfig{Name: "once", Delay: "2s"})
	testutil.AssertEqual(t, once.Delay(), int64(40))
	testutil.AssertEqual(t, once.IsPeriodic(), false)

	tick := build(t, ServiceConfig{Name: "tick", Period: "500ms", Interruptible: true})
	testutil.AssertEqual(t, tick.IsPeriodic(), true)
	testutil.AssertEqual(t, tick.Period(), int64(10))
	testutil.AssertEqual(t, tick.IsInterruptible(), true)

	every := build(t, ServiceConfig{Name: "every", Every: "@every 1m"})
	testutil.AssertEqual(t, every.Period(), int64(1200))

	def := build(t, ServiceConfig{Name: "default", Periodic: true})
	testutil.AssertEqual(t, def.IsPeriodic(), true)
	testutil.AssertEqual(t, def.Period(), int64(24000))
}
