package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultStartBuckets spans half a millisecond to about eight seconds. Start
// bodies that run on the host thread should sit in the lowest buckets.
var DefaultStartBuckets = prometheus.ExponentialBuckets(0.0005, 4, 8)

// Config selects where and how the scheduler's metrics are registered.
type Config struct {
	// Enabled turns instrumentation on. New returns nil otherwise.
	Enabled bool

	// Registry receives the collectors. Nil means prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace prefixes every metric name. Empty means "simplexss".
	Namespace string

	// StartBuckets are the histogram buckets of start durations, in seconds.
	// Nil means DefaultStartBuckets.
	StartBuckets []float64
}

// DefaultConfig registers with the default registerer under "simplexss".
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: Namespace,
	}
}
