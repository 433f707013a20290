package stream

import (
	"context"
)

// FromSlice creates a Stream over a copy of slice.
func FromSlice[T any](slice []T) Stream[T] {
	return New[T](&sliceSource[T]{slice: append([]T(nil), slice...)})
}

// FromFunc creates a Stream that pulls elements from next until it reports false.
func FromFunc[T any](next func(ctx context.Context) (T, bool, error)) Stream[T] {
	return New[T](funcSource[T](next))
}

// Empty creates a Stream with no elements.
func Empty[T any]() Stream[T] {
	return New[T](&sliceSource[T]{})
}

// Fail creates a Stream whose first pull returns err.
func Fail[T any](err error) Stream[T] {
	return New[T](&errSource[T]{err: err})
}

// Concat joins streams end to end. Each input is consumed lazily in order.
func Concat[T any](streams ...Stream[T]) Stream[T] {
	return New[T](&concatSource[T]{streams: streams})
}

// MapTo transforms elements into a stream of a different type.
func MapTo[From, To any](s Stream[From], mapper func(From) To) Stream[To] {
	return New[To](&mapSource[From, To]{src: &streamSource[From]{s: s}, mapper: mapper})
}

type sliceSource[T any] struct {
	slice []T
	index int
}

func (s *sliceSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.index >= len(s.slice) {
		return zero, false, nil
	}
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	v := s.slice[s.index]
	s.index++
	return v, true, nil
}

func (s *sliceSource[T]) Close() error {
	s.index = len(s.slice)
	return nil
}

type funcSource[T any] func(ctx context.Context) (T, bool, error)

func (f funcSource[T]) Next(ctx context.Context) (T, bool, error) { return f(ctx) }

func (f funcSource[T]) Close() error { return nil }

type errSource[T any] struct {
	err error
}

func (e *errSource[T]) Next(context.Context) (T, bool, error) {
	var zero T
	return zero, false, e.err
}

func (e *errSource[T]) Close() error { return nil }

// mapSource transforms elements from one type to another.
type mapSource[From, To any] struct {
	src    Source[From]
	mapper func(From) To
}

func (m *mapSource[From, To]) Next(ctx context.Context) (To, bool, error) {
	var zero To
	v, ok, err := m.src.Next(ctx)
	if err != nil || !ok {
		return zero, ok, err
	}
	return m.mapper(v), true, nil
}

func (m *mapSource[From, To]) Close() error { return m.src.Close() }

// streamSource adapts a Stream back into a Source.
type streamSource[T any] struct {
	s Stream[T]
}

func (s *streamSource[T]) Next(ctx context.Context) (T, bool, error) {
	v, ok, err := s.s.Next(ctx)
	if err == ErrStreamClosed && s.s.IsClosed() && !ok {
		// Next closes exhausted streams; a closed input simply ends.
		var zero T
		return zero, false, nil
	}
	return v, ok, err
}

func (s *streamSource[T]) Close() error { return s.s.Close() }

type concatSource[T any] struct {
	streams []Stream[T]
}

func (c *concatSource[T]) Next(ctx context.Context) (T, bool, error) {
	for len(c.streams) > 0 {
		v, ok, err := c.streams[0].Next(ctx)
		if err != nil {
			return v, false, err
		}
		if ok {
			return v, true, nil
		}
		c.streams = c.streams[1:]
	}
	var zero T
	return zero, false, nil
}

func (c *concatSource[T]) Close() error {
	var first error
	for _, s := range c.streams {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	c.streams = nil
	return first
}
