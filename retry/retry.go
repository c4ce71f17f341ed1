/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package retry provides backoff policies and a helper to execute a function with retries.
// Fetching fresh evaluation values from a remote service goes through it (see Config.Policy).
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRetryable tells if an error is worth another attempt. Nil means every error is.
type IsRetryable func(error) bool

// RetryableFunc is function that does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// Policy defines backoff strategy.
type Policy interface {
	NewBackOff() backoff.BackOff
}

// DoWithRetry calls fn until it succeeds, returns an error isRetryable rejects,
// the policy gives up or ctx is done. The last error is returned.
// notify (optional) is called before every retry with the error and the delay.
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify backoff.Notify, fn RetryableFunc) error {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	return backoff.RetryNotify(func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bctx, notify)
}

// The PolicyFunc type is an adapter to allow the use of ordinary functions as retry.Policy.
type PolicyFunc func() backoff.BackOff

// NewBackOff implements retry.Policy.
func (f PolicyFunc) NewBackOff() backoff.BackOff {
	return f()
}

// NoRetryPolicy returns a policy that makes a single attempt without retries.
func NoRetryPolicy() Policy {
	return PolicyFunc(func() backoff.BackOff { return &backoff.StopBackOff{} })
}

// Config describes how fetching is retried.
type Config struct {
	// MaxRetries is the number of retries after the first attempt. Zero means a single attempt.
	MaxRetries int `mapstructure:"maxRetries" yaml:"maxRetries" json:"maxRetries"`

	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration `mapstructure:"initialInterval" yaml:"initialInterval" json:"initialInterval"`

	// MaxInterval caps the growing delay. Zero means the backoff library default.
	MaxInterval time.Duration `mapstructure:"maxInterval" yaml:"maxInterval" json:"maxInterval"`
}

// Policy returns NoRetryPolicy for zero MaxRetries and an ExponentialBackoffPolicy otherwise.
func (c Config) Policy() Policy {
	if c.MaxRetries <= 0 {
		return NoRetryPolicy()
	}
	return ExponentialBackoffPolicy(c)
}

// ExponentialBackoffPolicy retries up to MaxRetries times, multiplying the delay by 1.5
// (with 0.5 randomization) and never waiting longer than MaxInterval.
type ExponentialBackoffPolicy Config

// NewBackOff implements retry.Policy.
func (p ExponentialBackoffPolicy) NewBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	var bf backoff.BackOff = eb
	if p.MaxRetries > 0 {
		bf = backoff.WithMaxRetries(eb, uint64(p.MaxRetries))
	}
	bf.Reset()
	return bf
}
