package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// Future is a single-value asynchronous result. It is resolved exactly once,
// either with a value or with an error; later resolutions are ignored.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// Completion is a Future that carries no value, only success or failure.
type Completion = Future[struct{}]

// NewPromise creates an unresolved Future together with the function that resolves it.
func NewPromise[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.resolve
}

// Go runs fn on a new goroutine and returns a Future for its result.
// A panic inside fn fails the Future instead of crashing the process.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, resolve := NewPromise[T]()
	go func() {
		var (
			v   T
			err error
		)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v\nStack trace:\n%s", r, debug.Stack())
			}
			resolve(v, err)
		}()
		v, err = fn()
	}()
	return f
}

// Run is Go for functions without a result value.
func Run(fn func() error) *Completion {
	return Go(func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

// Call runs fn on the calling goroutine and returns its already resolved
// Completion. A panic inside fn fails the Completion.
func Call(fn func() error) (c *Completion) {
	c, resolve := NewPromise[struct{}]()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\nStack trace:\n%s", r, debug.Stack())
		}
		resolve(struct{}{}, err)
	}()
	err = fn()
	return c
}

// Resolved returns a Future that already holds v.
func Resolved[T any](v T) *Future[T] {
	f, resolve := NewPromise[T]()
	resolve(v, nil)
	return f
}

// Failed returns a Future that already failed with err.
func Failed[T any](err error) *Future[T] {
	f, resolve := NewPromise[T]()
	var zero T
	resolve(zero, err)
	return f
}

// Complete returns a successful Completion.
func Complete() *Completion {
	return Resolved(struct{}{})
}

func (f *Future[T]) resolve(v T, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed once the Future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the Future has been resolved.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the Future resolves or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Err blocks until resolution and returns only the error.
func (f *Future[T]) Err(ctx context.Context) error {
	_, err := f.Await(ctx)
	return err
}

// OnComplete registers fn to be called with the result. If the Future is
// already resolved fn runs synchronously, otherwise on a separate goroutine.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	select {
	case <-f.done:
		fn(f.value, f.err)
	default:
		go func() {
			<-f.done
			fn(f.value, f.err)
		}()
	}
}

// Then chains a dependent Future built from a successful result.
// Failures short-circuit: next is not called and the error is passed on.
func Then[T, U any](f *Future[T], next func(T) *Future[U]) *Future[U] {
	out, resolve := NewPromise[U]()
	f.OnComplete(func(v T, err error) {
		if err != nil {
			var zero U
			resolve(zero, err)
			return
		}
		next(v).OnComplete(resolve)
	})
	return out
}

// Map transforms a successful result.
func Map[T, U any](f *Future[T], fn func(T) U) *Future[U] {
	out, resolve := NewPromise[U]()
	f.OnComplete(func(v T, err error) {
		if err != nil {
			var zero U
			resolve(zero, err)
			return
		}
		resolve(fn(v), nil)
	})
	return out
}

// Always runs next after f regardless of its outcome and resolves with both
// errors joined, first f's then next's.
func Always[T, U any](f *Future[T], next func() *Future[U]) *Future[U] {
	out, resolve := NewPromise[U]()
	f.OnComplete(func(_ T, err error) {
		next().OnComplete(func(v U, nextErr error) {
			resolve(v, joinErrors(err, nextErr))
		})
	})
	return out
}

// Ignore discards a Future's value, keeping only completion and failure.
func Ignore[T any](f *Future[T]) *Completion {
	return Map(f, func(T) struct{} { return struct{}{} })
}
