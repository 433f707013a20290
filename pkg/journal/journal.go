package journal

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/pool"
)

// Record is one journaled activation.
type Record struct {
	ID       string
	Pool     string
	Service  string
	Instance string
	Started  time.Time
	Duration time.Duration
	Err      string
}

// Failed reports whether the activation's Start returned an error.
func (r Record) Failed() bool { return r.Err != "" }

// FromActivation converts a pool activation into a Record.
func FromActivation(a pool.Activation, instance string) Record {
	r := Record{
		Pool:     a.Pool,
		Service:  a.Service,
		Instance: instance,
		Started:  a.Started,
		Duration: a.Duration,
	}
	if a.Err != nil {
		r.Err = a.Err.Error()
	}
	return r
}

// Journal is an append-only store of activation records.
type Journal interface {
	// Append stores r.
	Append(ctx context.Context, r Record) error

	// Recent returns up to n records, newest first.
	Recent(ctx context.Context, n int) ([]Record, error)

	// Sink names the backend for metrics labels.
	Sink() string

	Close() error
}

// InstanceID identifies this process in journal records.
func InstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d-%s", hostname, os.Getpid(), uuid.NewString()[:8])
}
