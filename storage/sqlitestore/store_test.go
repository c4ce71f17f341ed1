/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package sqlitestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-evalcache/payload"
)

const testKey = "evalcache.Store.localStorageKey"

func openTempStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evalcache.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore(t *testing.T) {
	s, _ := openTempStore(t)

	_, found, err := s.Load(testKey)
	require.NoError(t, err)
	require.False(t, found)

	blob := payload.MustParseJSON(`{"user-1": {"feature_gates": {"g": {"value": true}}}}`)
	require.NoError(t, s.Save(testKey, blob))
	got, found, err := s.Load(testKey)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, blob.Equal(got))

	updated := payload.MustParseJSON(`{"user-2": {}}`)
	require.NoError(t, s.Save(testKey, updated))
	got, found, err = s.Load(testKey)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, updated.Equal(got))

	require.NoError(t, s.Remove(testKey))
	_, found, err = s.Load(testKey)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.Remove("missing"))
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	s, path := openTempStore(t)
	blob := payload.MustParseJSON(`{"user-1": {"dynamic_configs": {"c": {"value": {"n": 1}}}}}`)
	require.NoError(t, s.Save(testKey, blob))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, found, err := reopened.Load(testKey)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, blob.Equal(got))
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("")
	require.Error(t, err)

	var nilStore *Store
	require.NoError(t, nilStore.Close())
	require.Error(t, nilStore.Save(testKey, payload.Null()))
}
