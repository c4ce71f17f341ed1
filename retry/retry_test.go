/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary")
var errFatal = errors.New("fatal")

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name             string
		policy           Policy
		isRetryable      IsRetryable
		failures         int
		failWith         error
		expectedErr      error
		expectedAttempts int
	}{
		{
			name:             "succeeds after retries",
			policy:           ExponentialBackoffPolicy{MaxRetries: 3, InitialInterval: time.Millisecond},
			failures:         2,
			failWith:         errTemporary,
			expectedAttempts: 3,
		},
		{
			name:             "max retries exceeded",
			policy:           ExponentialBackoffPolicy{MaxRetries: 2, InitialInterval: time.Millisecond},
			failures:         10,
			failWith:         errTemporary,
			expectedErr:      errTemporary,
			expectedAttempts: 3,
		},
		{
			name:             "not retryable error",
			policy:           ExponentialBackoffPolicy{MaxRetries: 5, InitialInterval: time.Millisecond},
			isRetryable:      func(err error) bool { return !errors.Is(err, errFatal) },
			failures:         10,
			failWith:         errFatal,
			expectedErr:      errFatal,
			expectedAttempts: 1,
		},
		{
			name:             "exponential succeeds",
			policy:           ExponentialBackoffPolicy{MaxRetries: 5, InitialInterval: time.Millisecond},
			failures:         1,
			failWith:         errTemporary,
			expectedAttempts: 2,
		},
		{
			name:             "no retry",
			policy:           NoRetryPolicy(),
			failures:         1,
			failWith:         errTemporary,
			expectedErr:      errTemporary,
			expectedAttempts: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			var notified int
			err := DoWithRetry(context.Background(), tt.policy, tt.isRetryable,
				func(error, time.Duration) { notified++ },
				func(ctx context.Context) error {
					attempts++
					if attempts <= tt.failures {
						return tt.failWith
					}
					return nil
				})
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.expectedAttempts, attempts)
			if tt.expectedErr == nil {
				require.Equal(t, tt.expectedAttempts-1, notified)
			}
		})
	}
}

func TestDoWithRetryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := 0
	err := DoWithRetry(ctx, ExponentialBackoffPolicy{InitialInterval: time.Millisecond}, nil, nil, func(ctx context.Context) error {
		attempts++
		return errTemporary
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestPolicyFunc(t *testing.T) {
	p := PolicyFunc(func() backoff.BackOff { return &backoff.ZeroBackOff{} })
	require.Equal(t, time.Duration(0), p.NewBackOff().NextBackOff())
}

func TestConfigPolicy(t *testing.T) {
	require.Equal(t, backoff.Stop, Config{}.Policy().NewBackOff().NextBackOff())
	require.Equal(t, backoff.Stop, Config{MaxRetries: -1, InitialInterval: time.Second}.Policy().NewBackOff().NextBackOff())

	cfg := Config{MaxRetries: 4, InitialInterval: 10 * time.Millisecond, MaxInterval: 20 * time.Millisecond}
	require.IsType(t, ExponentialBackoffPolicy{}, cfg.Policy())
	b := cfg.Policy().NewBackOff()
	for i := 0; i < cfg.MaxRetries; i++ {
		delay := b.NextBackOff()
		require.NotEqual(t, backoff.Stop, delay)
		// Randomization factor is 0.5.
		require.LessOrEqual(t, delay, 30*time.Millisecond)
	}
	require.Equal(t, backoff.Stop, b.NextBackOff())
}
