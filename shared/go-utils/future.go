package utils

import (
	"context"
	"errors"
	"time"
)

// ErrFutureTimeout is returned by Await when the result did not arrive in time.
var ErrFutureTimeout = errors.New("future_timeout")

type futureResult[T any] struct {
	val T
	err error
}

// Future is a one-shot asynchronous result. Await may be called any number
// of times; every call observes the same value.
type Future[T any] struct {
	done chan struct{}
	res  futureResult[T]
}

// Go starts fn in its own goroutine and returns a Future for its result.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		v, err := fn(ctx)
		f.res = futureResult[T]{val: v, err: err}
	}()
	return f
}

// Resolved returns a Future that is already complete.
func Resolved[T any](v T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), res: futureResult[T]{val: v, err: err}}
	close(f.done)
	return f
}

// Await blocks until the result is ready, ctx is done or timeout elapses.
// A non-positive timeout waits on ctx alone.
func (f *Future[T]) Await(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case <-f.done:
		return f.res.val, f.res.err
	case <-timer:
		return zero, ErrFutureTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Done reports whether the result is available without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
