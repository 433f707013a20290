// Package metrics provides Prometheus instrumentation for SimplexSS components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace is the default metric namespace.
const Namespace = "simplexss"

// Registry holds all metric instances for SimplexSS components.
type Registry struct {
	// Service pool metrics
	ServicesQueued     *prometheus.CounterVec
	Activations        *prometheus.CounterVec
	ActivationFailures *prometheus.CounterVec
	Disposals          *prometheus.CounterVec
	PoolMembers        *prometheus.GaugeVec
	PoolOutstanding    *prometheus.GaugeVec
	StartDuration      *prometheus.HistogramVec

	// Pool scheduler metrics
	TasksScheduled *prometheus.CounterVec
	TasksExecuted  *prometheus.CounterVec

	// Worker pool metrics
	WorkerPoolSize   *prometheus.GaugeVec
	WorkerPoolActive *prometheus.GaugeVec
	WorkerPoolQueued *prometheus.GaugeVec

	// Activation journal metrics
	JournalEntries *prometheus.CounterVec
	JournalErrors  *prometheus.CounterVec
}

// DefaultRegistry is registered with prometheus.DefaultRegisterer.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return newRegistry(reg, Namespace, DefaultStartBuckets)
}

// New builds a registry from cfg. It returns nil when metrics are disabled,
// which every instrumented component treats as "no metrics".
func New(cfg Config) *Registry {
	if !cfg.Enabled {
		return nil
	}

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if reg == prometheus.DefaultRegisterer && (cfg.Namespace == "" || cfg.Namespace == Namespace) && cfg.StartBuckets == nil {
		return DefaultRegistry
	}

	ns := cfg.Namespace
	if ns == "" {
		ns = Namespace
	}
	buckets := cfg.StartBuckets
	if buckets == nil {
		buckets = DefaultStartBuckets
	}
	return newRegistry(reg, ns, buckets)
}

func newRegistry(reg prometheus.Registerer, ns string, startBuckets []float64) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		ServicesQueued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "services_queued_total",
				Help:      "Total number of services queued for activation",
			},
			[]string{"pool"},
		),

		Activations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "activations_total",
				Help:      "Total number of service activations",
			},
			[]string{"pool"},
		),

		ActivationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "activation_failures_total",
				Help:      "Total number of service activations whose start failed",
			},
			[]string{"pool"},
		),

		Disposals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "disposals_total",
				Help:      "Total number of schedule handles disposed",
			},
			[]string{"pool"},
		),

		PoolMembers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "members",
				Help:      "Number of services registered with the pool",
			},
			[]string{"pool"},
		),

		PoolOutstanding: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "outstanding",
				Help:      "Number of live schedule handles",
			},
			[]string{"pool"},
		),

		StartDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "start_duration_seconds",
				Help:      "Time spent in service start routines",
				Buckets:   startBuckets,
			},
			[]string{"pool"},
		),

		TasksScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "scheduler",
				Name:      "tasks_scheduled_total",
				Help:      "Total number of tasks scheduled",
			},
			[]string{"scheduler_name", "strategy"},
		),

		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "scheduler",
				Name:      "tasks_executed_total",
				Help:      "Total number of task firings handed to the executor",
			},
			[]string{"scheduler_name", "strategy"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Current worker pool size",
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "active_workers",
				Help:      "Number of active workers",
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "workerpool",
				Name:      "queued_tasks",
				Help:      "Number of queued tasks",
			},
			[]string{"pool_name"},
		),

		JournalEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "journal",
				Name:      "entries_total",
				Help:      "Total number of activation records written",
			},
			[]string{"sink"},
		),

		JournalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "journal",
				Name:      "errors_total",
				Help:      "Total number of activation records that could not be written",
			},
			[]string{"sink"},
		),
	}
}
