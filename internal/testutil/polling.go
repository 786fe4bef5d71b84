// Package testutil provides polling helpers for tests that wait on work
// finishing on other goroutines (player workers, the JS loop, the main
// queue).
package testutil

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout bounds waits in tests that have no tighter budget.
const DefaultTimeout = 5 * time.Second

// Poll checks condition every interval until it is true, timeout elapses,
// or ctx is done.
func Poll(ctx context.Context, condition func() bool, timeout time.Duration, interval time.Duration) error {
	_, err := WaitForState(ctx, condition, func(ok bool) bool { return ok }, timeout, interval)
	if err != nil {
		return fmt.Errorf("condition not met: %w", err)
	}
	return nil
}

// WaitForState waits until predicate accepts what getter returns and
// yields that value.
func WaitForState[T any](ctx context.Context, getter func() T, predicate func(T) bool, timeout time.Duration, interval time.Duration) (T, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		state := getter()
		if predicate(state) {
			return state, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-deadline.C:
			var zero T
			return zero, fmt.Errorf("timeout after %v waiting for %T", timeout, zero)
		case <-ticker.C:
		}
	}
}

// WaitClosed waits for ch to be closed or to deliver a value.
func WaitClosed[T any](ch <-chan T, timeout time.Duration) error {
	select {
	case <-ch:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("channel not closed after %v", timeout)
	}
}
