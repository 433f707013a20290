/*
Package stream provides finite, lazy, single-use sequences.

Pools and the service manager hand out streams instead of slices when the
elements are produced by work that should only happen on demand, for example
queueing every member of a pool:

	disposables := pool.QueueAllServices(ctx)

	// Nothing has been scheduled yet; pulling drives the work.
	handles, err := disposables.ToSlice(ctx)

Core properties:
  - Lazy: elements are computed only while a terminal operation or Next pulls them
  - Single-use: a stream can be consumed once; a second terminal operation
    returns ErrStreamClosed
  - Context-aware: every pull receives the caller's context

Intermediate operations (Filter, Map, Peek, Limit) take ownership of the
source and return a new stream. Terminal operations (ForEach, ToSlice, Count,
FindFirst, AnyMatch) drain the stream and close it.

Concat joins streams end to end, and MapTo converts element types:

	names := stream.MapTo(manager.Pools(), func(p *pool.Pool) string {
		return p.Name()
	})
*/
package stream
