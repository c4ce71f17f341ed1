/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-evalcache/config"
	"github.com/acronis/go-evalcache/payload"
)

const testKey = "evalcache.Store.localStorageKey"

var testBlob = payload.MustParseJSON(`{
	"user-1": {"feature_gates": {"g1": {"name": "g1", "value": true, "rule_id": "r1"}}},
	"user-2": {"dynamic_configs": {"c1": {"name": "c1", "value": {"color": "red", "size": 3}}}}
}`)

// testStorageRoundTrip checks the Storage contract. It is shared by all backends in this package.
func testStorageRoundTrip(t *testing.T, st Storage) {
	t.Helper()

	_, found, err := st.Load(testKey)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, st.Save(testKey, testBlob))
	got, found, err := st.Load(testKey)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, testBlob.Equal(got))

	// Save replaces the whole blob.
	replaced := payload.Object(map[string]payload.Value{"user-3": payload.Object(nil)})
	require.NoError(t, st.Save(testKey, replaced))
	got, found, err = st.Load(testKey)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, replaced.Equal(got))

	// Other keys are independent.
	require.NoError(t, st.Save("other", payload.String("x")))
	require.NoError(t, st.Remove(testKey))
	_, found, err = st.Load(testKey)
	require.NoError(t, err)
	require.False(t, found)
	other, found, err := st.Load("other")
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, payload.String("x").Equal(other))

	require.NoError(t, st.Remove("missing"))
	require.NoError(t, st.Close())
}

func TestMemory(t *testing.T) {
	st := NewMemory()
	testStorageRoundTrip(t, st)
	require.EqualValues(t, 3, st.Saves())
	require.EqualValues(t, 5, st.Loads())
	require.EqualValues(t, 2, st.Removes())
}

func TestFile(t *testing.T) {
	for _, format := range []config.DataType{config.DataTypeJSON, config.DataTypeYAML} {
		t.Run(string(format), func(t *testing.T) {
			st, err := NewFile(filepath.Join(t.TempDir(), "prefs", "evalcache."+string(format)), format)
			require.NoError(t, err)
			testStorageRoundTrip(t, st)

			// Data survives reopening.
			require.NoError(t, st.Save(testKey, testBlob))
			reopened, err := NewFile(st.Path(), format)
			require.NoError(t, err)
			got, found, err := reopened.Load(testKey)
			require.NoError(t, err)
			require.True(t, found)
			require.True(t, testBlob.Equal(got))

			entries, err := os.ReadDir(filepath.Dir(st.Path()))
			require.NoError(t, err)
			require.Len(t, entries, 1, "temporary files must not be left behind")
		})
	}
}

func TestFileCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evalcache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"broken`), 0o600))

	st, err := NewFile(path, config.DataTypeJSON)
	require.NoError(t, err)

	_, _, err = st.Load(testKey)
	require.Error(t, err)

	// Save replaces an unreadable document.
	require.NoError(t, st.Save(testKey, testBlob))
	got, found, err := st.Load(testKey)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, testBlob.Equal(got))

	require.NoError(t, os.WriteFile(path, []byte(`[1, 2]`), 0o600))
	_, _, err = st.Load(testKey)
	require.ErrorContains(t, err, "top-level array instead of object")
}

func TestNewFileErrors(t *testing.T) {
	_, err := NewFile(" ", config.DataTypeJSON)
	require.Error(t, err)
	_, err = NewFile("prefs.toml", config.DataType("toml"))
	require.Error(t, err)
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfgData     string
		expectedCfg func() *Config
		errMsg      string
	}{
		{
			name:        "defaults",
			cfgData:     `storage: {}`,
			expectedCfg: NewDefaultConfig,
		},
		{
			name: "file",
			cfgData: `
storage:
  type: File
  file:
    path: /var/lib/app/prefs.yaml
    format: yaml
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Type = TypeFile
				cfg.File = FileConfig{Path: "/var/lib/app/prefs.yaml", Format: config.DataTypeYAML}
				return cfg
			},
		},
		{
			name: "redis",
			cfgData: `
storage:
  type: redis
  redis:
    addr: localhost:6379
    db: 2
    keyPrefix: "app:"
    timeout: 500ms
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Type = TypeRedis
				cfg.Redis = RedisConfig{Addr: "localhost:6379", DB: 2, KeyPrefix: "app:", Timeout: 500 * time.Millisecond}
				return cfg
			},
		},
		{
			name:    "unknown type",
			cfgData: `storage: {type: etcd}`,
			errMsg:  `storage.type: unknown value "etcd"`,
		},
		{
			name:    "file without path",
			cfgData: `storage: {type: file}`,
			errMsg:  `storage.file.path: cannot be empty when "file" storage is used`,
		},
		{
			name:    "sqlite without path",
			cfgData: `storage: {type: sqlite}`,
			errMsg:  `storage.sqlite.path: cannot be empty when "sqlite" storage is used`,
		},
		{
			name:    "redis without addr",
			cfgData: `storage: {type: redis}`,
			errMsg:  `storage.redis.addr: cannot be empty when "redis" storage is used`,
		},
		{
			name:    "negative redis db",
			cfgData: `storage: {redis: {db: -1}}`,
			errMsg:  `storage.redis.db: should be >= 0`,
		},
		{
			name:    "unknown file format",
			cfgData: `storage: {file: {format: plist}}`,
			errMsg:  `storage.file.format: unknown value "plist"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("")
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(strings.TrimSpace(tt.cfgData)), config.DataTypeYAML, cfg)
			if tt.errMsg != "" {
				require.ErrorContains(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedCfg(), cfg)
		})
	}
}
