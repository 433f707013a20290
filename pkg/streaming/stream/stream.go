package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrStreamClosed is returned when a stream is consumed after it was closed or
// handed over to another stream. Streams are single-use.
var ErrStreamClosed = errors.New("stream is closed")

// Stream is a finite, lazy, non-restartable sequence of elements. Elements are
// produced only while a terminal operation or Next pulls them.
type Stream[T any] interface {
	// Filter returns a stream consisting of elements that match the given predicate.
	Filter(predicate func(T) bool) Stream[T]

	// Map returns a stream consisting of the results of applying the given function to elements.
	Map(mapper func(T) T) Stream[T]

	// Peek returns a stream that additionally performs action on each element as it is consumed.
	Peek(action func(T)) Stream[T]

	// Limit returns a stream truncated to at most maxSize elements.
	Limit(maxSize int64) Stream[T]

	// Next pulls a single element. ok is false once the stream is exhausted,
	// after which the stream is closed.
	Next(ctx context.Context) (value T, ok bool, err error)

	// ForEach performs an action for each element of the stream.
	ForEach(ctx context.Context, action func(T)) error

	// ToSlice returns a slice containing all elements.
	ToSlice(ctx context.Context) ([]T, error)

	// Count returns the count of elements.
	Count(ctx context.Context) (int64, error)

	// FindFirst returns the first element, if present.
	FindFirst(ctx context.Context) (T, bool, error)

	// AnyMatch returns whether any element matches the given predicate.
	AnyMatch(ctx context.Context, predicate func(T) bool) (bool, error)

	// Close closes the stream and releases the underlying source.
	Close() error

	// IsClosed returns true if the stream is closed.
	IsClosed() bool
}

// Source represents a data source for streams.
type Source[T any] interface {
	// Next returns the next element and true, or zero value and false if no more elements.
	Next(ctx context.Context) (T, bool, error)
	// Close closes the source and releases resources.
	Close() error
}

type stream[T any] struct {
	mu     sync.Mutex
	source Source[T]
	taken  bool
	closed bool
}

// New creates a new Stream from a Source.
func New[T any](source Source[T]) Stream[T] {
	return &stream[T]{source: source}
}

// take hands the source over to a derived stream or terminal operation.
func (s *stream[T]) take() (Source[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.taken {
		return nil, ErrStreamClosed
	}
	s.taken = true
	return s.source, nil
}

func (s *stream[T]) derive(wrap func(Source[T]) Source[T]) Stream[T] {
	src, err := s.take()
	if err != nil {
		return New[T](&errSource[T]{err: err})
	}
	return New(wrap(src))
}

func (s *stream[T]) Filter(predicate func(T) bool) Stream[T] {
	return s.derive(func(src Source[T]) Source[T] {
		return &filterSource[T]{src: src, predicate: predicate}
	})
}

func (s *stream[T]) Map(mapper func(T) T) Stream[T] {
	return s.derive(func(src Source[T]) Source[T] {
		return &mapSource[T, T]{src: src, mapper: mapper}
	})
}

func (s *stream[T]) Peek(action func(T)) Stream[T] {
	return s.derive(func(src Source[T]) Source[T] {
		return &mapSource[T, T]{src: src, mapper: func(v T) T {
			action(v)
			return v
		}}
	})
}

func (s *stream[T]) Limit(maxSize int64) Stream[T] {
	return s.derive(func(src Source[T]) Source[T] {
		return &limitSource[T]{src: src, remaining: maxSize}
	})
}

func (s *stream[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	s.mu.Lock()
	if s.closed || s.taken {
		s.mu.Unlock()
		return zero, false, ErrStreamClosed
	}
	v, ok, err := s.source.Next(ctx)
	s.mu.Unlock()

	if err != nil || !ok {
		_ = s.Close()
	}
	return v, ok, err
}

// each drives the whole stream through fn; fn returning false stops early.
func (s *stream[T]) each(ctx context.Context, fn func(T) bool) error {
	src, err := s.take()
	if err != nil {
		return err
	}
	defer s.closeSource(src)

	for {
		v, ok, err := src.Next(ctx)
		if err != nil {
			return err
		}
		if !ok || !fn(v) {
			return nil
		}
	}
}

func (s *stream[T]) ForEach(ctx context.Context, action func(T)) error {
	return s.each(ctx, func(v T) bool {
		action(v)
		return true
	})
}

func (s *stream[T]) ToSlice(ctx context.Context) ([]T, error) {
	var out []T
	err := s.each(ctx, func(v T) bool {
		out = append(out, v)
		return true
	})
	return out, err
}

func (s *stream[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.each(ctx, func(T) bool {
		n++
		return true
	})
	return n, err
}

func (s *stream[T]) FindFirst(ctx context.Context) (T, bool, error) {
	var (
		first T
		found bool
	)
	err := s.each(ctx, func(v T) bool {
		first, found = v, true
		return false
	})
	return first, found, err
}

func (s *stream[T]) AnyMatch(ctx context.Context, predicate func(T) bool) (bool, error) {
	matched := false
	err := s.each(ctx, func(v T) bool {
		matched = predicate(v)
		return !matched
	})
	return matched, err
}

func (s *stream[T]) closeSource(src Source[T]) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	_ = src.Close()
}

func (s *stream[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.taken {
		// The derived stream owns the source now.
		return nil
	}
	return s.source.Close()
}

func (s *stream[T]) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type filterSource[T any] struct {
	src       Source[T]
	predicate func(T) bool
}

func (f *filterSource[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		v, ok, err := f.src.Next(ctx)
		if err != nil || !ok {
			return v, ok, err
		}
		if f.predicate(v) {
			return v, true, nil
		}
	}
}

func (f *filterSource[T]) Close() error { return f.src.Close() }

type limitSource[T any] struct {
	src       Source[T]
	remaining int64
}

func (l *limitSource[T]) Next(ctx context.Context) (T, bool, error) {
	if l.remaining <= 0 {
		var zero T
		return zero, false, nil
	}
	v, ok, err := l.src.Next(ctx)
	if ok {
		l.remaining--
	}
	return v, ok, err
}

func (l *limitSource[T]) Close() error { return l.src.Close() }
