/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"sort"
	"sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acronis/go-evalcache/payload"
	"github.com/acronis/go-evalcache/storage"
)

// FailingStorage wraps storage.Memory and returns configured errors instead of delegating.
// Errors may be changed at any time with the setters.
type FailingStorage struct {
	*storage.Memory

	mu        sync.Mutex
	loadErr   error
	saveErr   error
	removeErr error
}

var _ storage.Storage = (*FailingStorage)(nil)

// NewFailingStorage creates a new FailingStorage that does not fail until errors are set.
func NewFailingStorage() *FailingStorage {
	return &FailingStorage{Memory: storage.NewMemory()}
}

// FailLoad makes Load return err (nil restores normal behavior).
func (f *FailingStorage) FailLoad(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadErr = err
}

// FailSave makes Save return err (nil restores normal behavior).
func (f *FailingStorage) FailSave(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

// FailRemove makes Remove return err (nil restores normal behavior).
func (f *FailingStorage) FailRemove(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeErr = err
}

// Load implements storage.Storage.
func (f *FailingStorage) Load(key string) (payload.Value, bool, error) {
	if err := f.failure(&f.loadErr); err != nil {
		return payload.Value{}, false, err
	}
	return f.Memory.Load(key)
}

// Save implements storage.Storage.
func (f *FailingStorage) Save(key string, blob payload.Value) error {
	if err := f.failure(&f.saveErr); err != nil {
		return err
	}
	return f.Memory.Save(key, blob)
}

// Remove implements storage.Storage.
func (f *FailingStorage) Remove(key string) error {
	if err := f.failure(&f.removeErr); err != nil {
		return err
	}
	return f.Memory.Remove(key)
}

func (f *FailingStorage) failure(errPtr *error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *errPtr
}

// AssertPersistedUsers asserts that the cache blob stored under key holds snapshots of exactly the given users.
func AssertPersistedUsers(t assert.TestingT, st storage.Storage, key string, wantUserKeys ...string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	blob, found, err := st.Load(key)
	if !assert.NoError(t, err) || !assert.True(t, found, "no cache persisted under %q", key) {
		return false
	}
	if !assert.True(t, blob.IsObject(), "persisted cache is %s instead of object", blob.Kind()) {
		return false
	}
	want := append([]string{}, wantUserKeys...)
	sort.Strings(want)
	return assert.Equal(t, want, blob.Keys())
}

// RequirePersistedUsers calls AssertPersistedUsers and fails test immediately in case of error.
func RequirePersistedUsers(t require.TestingT, st storage.Storage, key string, wantUserKeys ...string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertPersistedUsers(t, st, key, wantUserKeys...) {
		return
	}
	t.FailNow()
}
