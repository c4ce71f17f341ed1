/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package namehash computes hashed forms of gate/config names (SHA-256, standard base64)
// and memoizes recently hashed names in an LRU cache.
package namehash

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/acronis/go-evalcache/lrucache"
)

// DefaultMemoSize is the default number of memoized name hashes.
const DefaultMemoSize = 1024

// Hasher hashes names and keeps the most recently used results.
// It is safe for concurrent use.
type Hasher struct {
	memo *lrucache.LRUCache[string, string]
}

// New creates a new Hasher that memoizes up to maxEntries hashes.
// Memo usage is reported to metricsCollector, nil disables metrics.
func New(maxEntries int, metricsCollector lrucache.MetricsCollector) (*Hasher, error) {
	memo, err := lrucache.New[string, string](maxEntries, metricsCollector)
	if err != nil {
		return nil, err
	}
	return &Hasher{memo: memo}, nil
}

var (
	defaultHasher     *Hasher
	defaultHasherOnce sync.Once
)

// Default returns the process-wide Hasher.
func Default() *Hasher {
	defaultHasherOnce.Do(func() {
		defaultHasher, _ = New(DefaultMemoSize, nil)
	})
	return defaultHasher
}

// Hash returns base64-encoded SHA-256 digest of the name.
func (h *Hasher) Hash(name string) (string, error) {
	hash, _, err := h.memo.GetOrAdd(name, func() (string, error) { return Sum(name) })
	return hash, err
}

// Len returns the number of memoized hashes.
func (h *Hasher) Len() int {
	return h.memo.Len()
}

// Purge drops all memoized hashes.
func (h *Hasher) Purge() {
	h.memo.Purge()
}

// Sum returns base64-encoded SHA-256 digest of the name without memoization.
func Sum(name string) (string, error) {
	digest := sha256.New()
	if _, err := digest.Write([]byte(name)); err != nil {
		return "", fmt.Errorf("hash name: %w", err)
	}
	return base64.StdEncoding.EncodeToString(digest.Sum(nil)), nil
}
