/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package redisstore provides a Redis-backed storage for persisted evaluation caches.
// Every storage key is kept as a single Redis string holding the JSON-encoded blob.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/acronis/go-evalcache/payload"
	"github.com/acronis/go-evalcache/storage"
)

// Store is a Redis-backed storage.Storage.
// Unlike a cache layer, it reports connection failures to the caller.
type Store struct {
	rdb       *redis.Client
	keyPrefix string
	timeout   time.Duration
}

var _ storage.Storage = (*Store)(nil)

// New creates a new Store that connects to Redis using the given configuration.
func New(cfg storage.RedisConfig) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewWithClient(rdb, cfg.KeyPrefix, cfg.Timeout), nil
}

// NewWithClient creates a new Store on top of an existing client.
// Non-positive timeout means storage.DefaultRedisTimeout.
func NewWithClient(rdb *redis.Client, keyPrefix string, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = storage.DefaultRedisTimeout
	}
	return &Store{rdb: rdb, keyPrefix: keyPrefix, timeout: timeout}
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Load implements storage.Storage.
func (s *Store) Load(key string) (payload.Value, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data, err := s.rdb.Get(ctx, s.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return payload.Value{}, false, nil
		}
		return payload.Value{}, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	blob, err := payload.ParseJSON(data)
	if err != nil {
		return payload.Value{}, false, fmt.Errorf("decode blob %q: %w", key, err)
	}
	return blob, true, nil
}

// Save implements storage.Storage. Blobs never expire.
func (s *Store) Save(key string, blob payload.Value) error {
	data, err := blob.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode blob %q: %w", key, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err = s.rdb.Set(ctx, s.keyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Remove implements storage.Storage.
func (s *Store) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.rdb.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
