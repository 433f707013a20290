// Package metrics provides Prometheus instrumentation for SimplexSS components.
//
// # Overview
//
// A Registry groups the metric vectors used across the module:
//   - Service pools (queued services, activations, failed starts, disposals,
//     membership and outstanding schedule handles, start durations)
//   - Pool schedulers (tasks scheduled and fired, labelled by strategy)
//   - Worker pools backing the sequential and parallel strategies
//   - The activation journal (records written and write failures)
//
// # Quick Start
//
// Build a registry against a Prometheus registerer and hand it to the
// components that accept a metrics option:
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//	p := pool.New("world", sched, pool.WithMetrics(reg))
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// New returns nil for a disabled Config. Components accept a nil *Registry
// and skip instrumentation.
package metrics
