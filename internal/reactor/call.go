package reactor

import (
	"context"

	"github.com/bnema/wayfold/internal/core"
)

// Call runs fn on the reactor through s and waits for its result.
func Call[T any](ctx context.Context, s core.Scheduler, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	var zero T

	if err := s.Submit(func() {
		v, err := fn()
		ch <- result{v, err}
	}); err != nil {
		return zero, err
	}

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
