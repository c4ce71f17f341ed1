/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package storage

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/acronis/go-evalcache/payload"
)

// Memory is an in-process Storage. It is mostly useful for tests and for processes without a writable disk.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]payload.Value

	loads   atomic.Int64
	saves   atomic.Int64
	removes atomic.Int64
}

var _ Storage = (*Memory)(nil)

// NewMemory creates a new empty Memory storage.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]payload.Value)}
}

// Load implements Storage.
func (m *Memory) Load(key string) (payload.Value, bool, error) {
	m.loads.Inc()
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[key]
	return blob, ok, nil
}

// Save implements Storage.
func (m *Memory) Save(key string, blob payload.Value) error {
	m.saves.Inc()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = blob
	return nil
}

// Remove implements Storage.
func (m *Memory) Remove(key string) error {
	m.removes.Inc()
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

// Close implements Storage.
func (m *Memory) Close() error {
	return nil
}

// Loads returns the number of Load calls.
func (m *Memory) Loads() int64 {
	return m.loads.Load()
}

// Saves returns the number of Save calls.
func (m *Memory) Saves() int64 {
	return m.saves.Load()
}

// Removes returns the number of Remove calls.
func (m *Memory) Removes() int64 {
	return m.removes.Load()
}
