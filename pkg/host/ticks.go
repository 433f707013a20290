package host

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
)

const (
	// TicksPerSecond is the host's nominal tick rate.
	TicksPerSecond = 20

	// MillisPerTick converts ticks to wall-clock time for in-process schedulers.
	MillisPerTick = 1000 / TicksPerSecond

	// DefaultPeriod is the period of a periodic service that did not set one:
	// twenty minutes of ticks.
	DefaultPeriod int64 = 20 * 60 * TicksPerSecond
)

// ToDuration converts ticks to wall-clock time.
func ToDuration(ticks int64) time.Duration {
	return time.Duration(ticks) * MillisPerTick * time.Millisecond
}

// FromDuration converts wall-clock time to whole ticks, rounding down.
func FromDuration(d time.Duration) int64 {
	return int64(d / (MillisPerTick * time.Millisecond))
}

// ParseEvery converts an "@every <duration>" descriptor into a period in ticks.
// Durations follow cron semantics: whole seconds, at least one second.
// Calendar expressions such as "0 * * * *" are rejected because they have no
// fixed period.
func ParseEvery(expr string) (int64, error) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "@every ") {
		return 0, sserrors.NewValidationError("host", "every", expr, "not a fixed-period descriptor").
			WithHint(`use "@every <duration>", e.g. "@every 5m"`)
	}

	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return 0, fmt.Errorf("host: parse %q: %w", expr, err)
	}
	every, ok := schedule.(cron.ConstantDelaySchedule)
	if !ok {
		return 0, sserrors.NewValidationError("host", "every", expr, "not a fixed-period descriptor")
	}

	return FromDuration(every.Delay), nil
}
