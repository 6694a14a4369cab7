package util

import (
	"context"
	"errors"
)

// RetryErrWithContext calls fn up to maxTries times until it returns nil error,
// or until ctx is done. If maxTries <= 0, it defaults to 1.
// Context cancellation is never retried.
func RetryErrWithContext(ctx context.Context, maxTries int, fn func(context.Context) error) error {
	if maxTries <= 0 {
		maxTries = 1
	}

	var lastErr error
	for i := 0; i < maxTries; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// RetryWithContext calls fn up to maxTries times until it returns a result and
// nil error, or until ctx is done. If maxTries <= 0, it defaults to 1.
// Returns ctx.Err() if the context is canceled, otherwise the last error.
func RetryWithContext[T any](ctx context.Context, maxTries int, fn func(context.Context) (T, error)) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

// Retry2WithContext calls fn up to maxTries times until it returns two results
// and nil error, or until ctx is done. If maxTries <= 0, it defaults to 1.
func Retry2WithContext[A, B any](ctx context.Context, maxTries int, fn func(context.Context) (A, B, error)) (A, B, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zeroA A
	var zeroB B
	for i := 0; i < maxTries; i++ {
		if ctx.Err() != nil {
			return zeroA, zeroB, ctx.Err()
		}
		a, b, err := fn(ctx)
		if err == nil {
			return a, b, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zeroA, zeroB, err
		}
		lastErr = err
	}
	return zeroA, zeroB, lastErr
}
