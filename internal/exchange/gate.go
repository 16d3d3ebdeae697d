package exchange

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// Gate is the single system-wide mutual exclusion point for store mutations.
// Waiters queue in FIFO order and block without spinning.
type Gate struct {
	sem     *semaphore.Weighted
	maxWait time.Duration
}

// NewGate creates a gate. A positive maxWait bounds how long a caller may
// wait before ErrGateTimeout is returned; zero waits indefinitely.
func NewGate(maxWait time.Duration) *Gate {
	return &Gate{sem: semaphore.NewWeighted(1), maxWait: max(maxWait, 0)}
}

// Do runs fn with exclusive access. The gate is released when fn returns or
// panics. Cancellation only affects the wait, never a running fn.
func (g *Gate) Do(ctx context.Context, fn func() error) error {
	if err := g.acquire(ctx); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn()
}

// WithExclusiveAccess is Do for functions that produce a value.
func WithExclusiveAccess[T any](ctx context.Context, g *Gate, fn func() (T, error)) (T, error) {
	var out T
	err := g.Do(ctx, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

func (g *Gate) acquire(ctx context.Context) error {
	if g.maxWait <= 0 {
		return g.sem.Acquire(ctx, 1)
	}
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()
	err := g.sem.Acquire(waitCtx, 1)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrGateTimeout
	}
	return err
}
