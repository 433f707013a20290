package scheduler

import (
	"testing"

	"github.com/SimplexDevelopment/SimplexSS/internal/testutil"
	sserrors "github.com/SimplexDevelopment/SimplexSS/pkg/common/errors"
	"github.com/SimplexDevelopment/SimplexSS/pkg/host/tickloop"
)

func TestStrategy(t *testing.T) {
	loop := tickloop.New(tickloop.Config{})

	tests := []struct {
		name       string
		strategy   Strategy
		kind       Kind
		maxWorkers int
		str        string
	}{
		{"zero value", Strategy{}, KindSequential, 1, "sequential"},
		{"sequential", Sequential(), KindSequential, 1, "sequential"},
		{"parallel", Parallel(2), KindParallel, 2, "parallel(2)"},
		{"parallel default", Parallel(0), KindParallel, MaxParallelWorkers, "parallel(4)"},
		{"parallel clamped", Parallel(64), KindParallel, MaxParallelWorkers, "parallel(4)"},
		{"host thread", HostThread(loop), KindHostThread, 0, "host-thread"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, tt.strategy.Kind(), tt.kind)
			testutil.AssertEqual(t, tt.strategy.MaxWorkers(), tt.maxWorkers)
			testutil.AssertEqual(t, tt.strategy.String(), tt.str)
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"sequential", KindSequential, false},
		{"parallel", KindParallel, false},
		{"host-thread", KindHostThread, false},
		{"Parallel", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				testutil.AssertErrorIs(t, err, sserrors.ErrInvalidConfiguration)
				return
			}
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, got, tt.want)
		})
	}
}

func TestKindString(t *testing.T) {
	testutil.AssertEqual(t, Kind(42).String(), "Kind(42)")
}

func TestNewRejectsHostThreadWithoutHost(t *testing.T) {
	_, err := New(HostThread(nil))
	testutil.AssertErrorIs(t, err, sserrors.ErrPoolConfiguration)
}
