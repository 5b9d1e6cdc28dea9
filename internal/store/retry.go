// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retry defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 50 * time.Millisecond
	maxDelay           = time.Second
)

// RetryConfig bounds how often a transient fault is retried.
type RetryConfig struct {
	// MaxAttempts counts the first try. Values below 1 mean 1.
	MaxAttempts int
	// BaseDelay is the first backoff interval; it doubles per retry.
	BaseDelay time.Duration
}

// Retrier re-runs store operations that fail with a transient error.
type Retrier struct {
	attempts uint64
	base     time.Duration
}

// NewRetrier creates a Retrier. Zero fields take the package defaults.
func NewRetrier(cfg RetryConfig) *Retrier {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := cfg.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	return &Retrier{attempts: uint64(attempts), base: base}
}

// NoRetry runs each operation exactly once.
func NoRetry() *Retrier {
	return NewRetrier(RetryConfig{MaxAttempts: 1})
}

// Do runs fn until it succeeds, fails with a non-transient error, the
// attempts run out, or ctx is done. The last error from fn is returned
// unchanged; a cancelled wait returns ctx.Err().
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	b := retry.NewExponential(r.base)
	b = retry.WithCappedDuration(maxDelay, b)
	b = retry.WithMaxRetries(r.attempts-1, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn(ctx)
		if IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
