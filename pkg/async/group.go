package async

import (
	"errors"
	"sync"
)

// WhenAll resolves once every completion has resolved. The result carries
// all failures joined in argument order; it never short-circuits.
func WhenAll(completions ...*Completion) *Completion {
	out, resolve := NewPromise[struct{}]()
	if len(completions) == 0 {
		resolve(struct{}{}, nil)
		return out
	}

	var (
		mu   sync.Mutex
		errs = make([]error, len(completions))
		wg   sync.WaitGroup
	)
	wg.Add(len(completions))
	for i, c := range completions {
		c.OnComplete(func(_ struct{}, err error) {
			mu.Lock()
			errs[i] = err
			mu.Unlock()
			wg.Done()
		})
	}
	go func() {
		wg.Wait()
		resolve(struct{}{}, errors.Join(errs...))
	}()
	return out
}

func joinErrors(a, b error) error {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return errors.Join(a, b)
}
