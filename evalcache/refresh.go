/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package evalcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acronis/go-evalcache/log"
	"github.com/acronis/go-evalcache/payload"
	"github.com/acronis/go-evalcache/retry"
)

var errMalformedPayload = errors.New("malformed evaluation payload")

// Fetcher fetches the latest evaluation payload for the user from the remote service.
type Fetcher interface {
	Fetch(ctx context.Context, user User) (payload.Value, error)
}

// The FetcherFunc type is an adapter to allow the use of ordinary functions as Fetcher.
type FetcherFunc func(ctx context.Context, user User) (payload.Value, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, user User) (payload.Value, error) {
	return f(ctx, user)
}

// Refresh fetches fresh values for the user with retries according to policy, builds a ValueSet and puts it into the store.
// Nil policy means a single attempt. If fetching fails, the error is returned and the cached snapshot is left intact.
func Refresh(ctx context.Context, store *Store, user User, fetcher Fetcher, policy retry.Policy) (*ValueSet, error) {
	if policy == nil {
		policy = retry.NoRetryPolicy()
	}

	var raw payload.Value
	notify := func(err error, delay time.Duration) {
		store.logger.Warn("failed to fetch evaluation values, retrying",
			log.String("user_key", user.Key()), log.Duration("delay", delay), log.Error(err))
	}
	isRetryable := func(err error) bool { return !errors.Is(err, errMalformedPayload) }
	err := retry.DoWithRetry(ctx, policy, isRetryable, notify, func(ctx context.Context) error {
		fetched, fetchErr := fetcher.Fetch(ctx, user)
		if fetchErr != nil {
			return fetchErr
		}
		if !fetched.IsObject() {
			return fmt.Errorf("%w: payload is %s instead of object", errMalformedPayload, fetched.Kind())
		}
		raw = fetched
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch evaluation values: %w", err)
	}

	values := NewValueSet(raw)
	store.Set(user, values)
	return values, nil
}
