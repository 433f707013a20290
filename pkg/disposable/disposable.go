// Package disposable provides the uniform cancellation handle returned for
// every scheduled activation, whatever back-end armed it.
package disposable

import (
	"sync"
	"sync/atomic"
)

// Disposable cancels one scheduled activation. Dispose is idempotent and safe
// to call from any goroutine. Disposing only cancels the timer; it never stops
// the service that was scheduled.
type Disposable interface {
	Dispose()
	IsDisposed() bool
}

// Canceler is the host-native handle of a task armed on the host scheduler.
type Canceler interface {
	Cancel()
	IsCancelled() bool
}

type funcDisposable struct {
	disposed atomic.Bool
	cancel   func()
}

// New returns a Disposable that runs cancel the first time it is disposed.
// cancel may be nil.
func New(cancel func()) Disposable {
	return &funcDisposable{cancel: cancel}
}

func (d *funcDisposable) Dispose() {
	if d.disposed.CompareAndSwap(false, true) && d.cancel != nil {
		d.cancel()
	}
}

func (d *funcDisposable) IsDisposed() bool {
	return d.disposed.Load()
}

// Disposed returns a handle that is already disposed.
func Disposed() Disposable {
	d := &funcDisposable{}
	d.disposed.Store(true)
	return d
}

type hostDisposable struct {
	task Canceler
}

// FromHost wraps a host task handle. Its disposed state mirrors the host's
// cancelled state.
func FromHost(task Canceler) Disposable {
	return hostDisposable{task: task}
}

func (h hostDisposable) Dispose() {
	if !h.task.IsCancelled() {
		h.task.Cancel()
	}
}

func (h hostDisposable) IsDisposed() bool {
	return h.task.IsCancelled()
}

// OnDispose returns a Disposable that disposes d and then calls fn once.
func OnDispose(d Disposable, fn func()) Disposable {
	return &hooked{Disposable: d, fn: fn}
}

type hooked struct {
	Disposable
	once sync.Once
	fn   func()
}

func (h *hooked) Dispose() {
	h.Disposable.Dispose()
	h.once.Do(h.fn)
}

// Composite disposes a changing set of handles together.
type Composite struct {
	mu       sync.Mutex
	items    []Disposable
	disposed bool
}

// NewComposite creates a Composite holding items.
func NewComposite(items ...Disposable) *Composite {
	return &Composite{items: append([]Disposable(nil), items...)}
}

// Add appends d; if the composite is already disposed, d is disposed immediately.
func (c *Composite) Add(d Disposable) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		d.Dispose()
		return
	}
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Remove drops d from the composite without disposing it. It reports
// whether d was held.
func (c *Composite) Remove(d Disposable) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.items {
		if item == d {
			last := len(c.items) - 1
			c.items[i] = c.items[last]
			c.items[last] = nil
			c.items = c.items[:last]
			return true
		}
	}
	return false
}

// Len returns the number of held handles.
func (c *Composite) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Composite) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	items := c.items
	c.items = nil
	c.mu.Unlock()

	for _, d := range items {
		d.Dispose()
	}
}

func (c *Composite) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Deferred is a Disposable whose underlying handle is attached after the
// Deferred was handed out, so callers can register it before arming a timer
// that may fire immediately. Disposing before Attach disposes the handle as
// soon as it arrives.
type Deferred struct {
	mu       sync.Mutex
	inner    Disposable
	disposed bool
}

// NewDeferred returns an empty Deferred.
func NewDeferred() *Deferred {
	return &Deferred{}
}

// Attach sets the underlying handle. Only the first call has an effect.
func (d *Deferred) Attach(inner Disposable) {
	d.mu.Lock()
	if d.inner != nil {
		d.mu.Unlock()
		return
	}
	d.inner = inner
	disposed := d.disposed
	d.mu.Unlock()

	if disposed {
		inner.Dispose()
	}
}

func (d *Deferred) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	inner := d.inner
	d.mu.Unlock()

	if inner != nil {
		inner.Dispose()
	}
}

func (d *Deferred) IsDisposed() bool {
	d.mu.Lock()
	disposed, inner := d.disposed, d.inner
	d.mu.Unlock()
	return disposed || (inner != nil && inner.IsDisposed())
}
