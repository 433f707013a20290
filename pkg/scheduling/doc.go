/*
Package scheduling groups the execution layers of the service scheduler.

  - pool: named service pools and the Manager that registers them
  - scheduler: the PoolScheduler adapters for each concurrency strategy
  - workerpool: the worker pools behind the sequential and parallel strategies

A pool owns exactly one PoolScheduler for its lifetime. Sequential and
parallel adapters run activations on a workerpool and measure delays in ticks
converted to wall-clock time; the host-thread adapter hands them to the
host's tick scheduler unchanged.
*/
package scheduling
