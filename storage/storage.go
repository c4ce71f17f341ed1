/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package storage provides durable key-value storages for persisted evaluation caches.
// Each key holds a single blob (payload.Value), which is always read and written as a whole.
package storage

import (
	"github.com/acronis/go-evalcache/payload"
)

// Storage is a durable key-value storage.
type Storage interface {
	// Load returns the blob stored under the key. The boolean is false if nothing is stored.
	Load(key string) (payload.Value, bool, error)

	// Save replaces the blob stored under the key.
	Save(key string, blob payload.Value) error

	// Remove deletes the blob stored under the key. Removing a missing key is not an error.
	Remove(key string) error

	// Close releases resources held by the storage.
	Close() error
}
