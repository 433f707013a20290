package async

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SimplexDevelopment/SimplexSS/internal/testutil"
)

func TestGo(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	f := Go(func() (int, error) { return 42, nil })
	v, err := f.Await(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 42)
	testutil.AssertEqual(t, f.IsDone(), true)
}

func TestGo_PanicBecomesError(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	err := Run(func() error { panic("boom") }).Err(ctx)
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "panic: boom") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestCall(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	ran := false
	c := Call(func() error {
		ran = true
		return nil
	})
	testutil.AssertEqual(t, ran, true)
	testutil.AssertEqual(t, c.IsDone(), true)
	testutil.AssertNoError(t, c.Err(ctx))

	boom := errors.New("boom")
	testutil.AssertErrorIs(t, Call(func() error { return boom }).Err(ctx), boom)

	c = Call(func() error { panic("bad") })
	testutil.AssertEqual(t, c.IsDone(), true)
	err := c.Err(ctx)
	testutil.AssertError(t, err)
	if !strings.Contains(err.Error(), "panic: bad") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestPromise_FirstResolutionWins(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	f, resolve := NewPromise[string]()
	testutil.AssertEqual(t, f.IsDone(), false)

	resolve("first", nil)
	resolve("second", errors.New("late"))

	v, err := f.Await(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, "first")
}

func TestAwait_ContextCanceled(t *testing.T) {
	f, _ := NewPromise[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)
}

func TestOnComplete(t *testing.T) {
	t.Run("already resolved runs synchronously", func(t *testing.T) {
		called := false
		Resolved(1).OnComplete(func(int, error) { called = true })
		testutil.AssertEqual(t, called, true)
	})

	t.Run("pending runs after resolution", func(t *testing.T) {
		f, resolve := NewPromise[int]()
		var got int32
		f.OnComplete(func(v int, _ error) { atomic.StoreInt32(&got, int32(v)) })

		resolve(7, nil)
		testutil.WaitForInt32(t, &got, 7, time.Second)
	})
}

func TestThen(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	f := Then(Resolved(2), func(v int) *Future[int] { return Resolved(v * 10) })
	v, err := f.Await(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, 20)

	boom := errors.New("boom")
	called := false
	failed := Then(Failed[int](boom), func(v int) *Future[int] {
		called = true
		return Resolved(v)
	})
	testutil.AssertErrorIs(t, failed.Err(ctx), boom)
	testutil.AssertEqual(t, called, false)
}

func TestMap(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	v, err := Map(Resolved(3), func(v int) string { return strings.Repeat("x", v) }).Await(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, v, "xxx")
}

func TestAlways(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	startErr := errors.New("start failed")
	var ran int32
	err := Always(Failed[struct{}](startErr), func() *Completion {
		atomic.AddInt32(&ran, 1)
		return Complete()
	}).Err(ctx)

	testutil.AssertErrorIs(t, err, startErr)
	testutil.AssertEqual(t, atomic.LoadInt32(&ran), int32(1))

	stopErr := errors.New("stop failed")
	err = Always(Failed[struct{}](startErr), func() *Completion {
		return Failed[struct{}](stopErr)
	}).Err(ctx)
	testutil.AssertErrorIs(t, err, startErr)
	testutil.AssertErrorIs(t, err, stopErr)
}

func TestWhenAll(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	testutil.AssertNoError(t, WhenAll().Err(ctx))

	boom := errors.New("boom")
	slow := Run(func() error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	err := WhenAll(Complete(), Failed[struct{}](boom), slow).Err(ctx)
	testutil.AssertErrorIs(t, err, boom)
	testutil.AssertEqual(t, slow.IsDone(), true)
}

func TestOptional(t *testing.T) {
	v, ok := Some("pool").Get()
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, v, "pool")

	none := None[string]()
	testutil.AssertEqual(t, none.IsPresent(), false)
	testutil.AssertEqual(t, none.OrElse("fallback"), "fallback")
}
