/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestViperAdapter_Read(t *testing.T) {
	for _, tt := range []struct {
		dataType DataType
		data     string
	}{
		{DataTypeJSON, testCacheConfigJSON},
		{DataTypeYAML, testCacheConfigYAML},
	} {
		t.Run(string(tt.dataType), func(t *testing.T) {
			va := NewViperAdapter()
			require.NoError(t, va.Read(bytes.NewBufferString(tt.data), tt.dataType))

			maxUsers, err := va.GetInt("cache.maxUsers")
			require.NoError(t, err)
			require.Equal(t, 7, maxUsers)

			key, err := va.GetString("cache.storageKey")
			require.NoError(t, err)
			require.Equal(t, "custom.key", key)

			missing, err := va.GetString("cache.missing")
			require.NoError(t, err)
			require.Empty(t, missing)
		})
	}
}

func TestViperAdapter_UseEnvVars(t *testing.T) {
	t.Setenv("ENVTEST_CACHE_STORAGEKEY", "from.env")

	va := NewViperAdapter()
	va.UseEnvVars("envtest")
	require.NoError(t, va.Read(bytes.NewBufferString(testCacheConfigYAML), DataTypeYAML))

	key, err := va.GetString("cache.storageKey")
	require.NoError(t, err)
	require.Equal(t, "from.env", key)
}

func TestViperAdapter_GetStringFromSet(t *testing.T) {
	va := NewViperAdapter()
	va.SetDefault("type", "SQLite")

	got, err := va.GetStringFromSet("type", []string{"memory", "sqlite"}, true)
	require.NoError(t, err)
	require.Equal(t, "SQLite", got)

	_, err = va.GetStringFromSet("type", []string{"memory", "sqlite"}, false)
	require.ErrorContains(t, err, `type: unknown value "SQLite"`)
}

func TestViperAdapter_GetDuration(t *testing.T) {
	tests := []struct {
		name    string
		val     interface{}
		want    time.Duration
		wantErr bool
	}{
		{"missing", nil, 0, false},
		{"string", "1m30s", 90 * time.Second, false},
		{"nanoseconds", int64(time.Second), time.Second, false},
		{"garbage", "soon", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			if tt.val != nil {
				va.SetDefault("timeout", tt.val)
			}
			got, err := va.GetDuration("timeout")
			if tt.wantErr {
				require.ErrorContains(t, err, "timeout:")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestViperAdapter_GetBytesCount(t *testing.T) {
	tests := []struct {
		name    string
		val     interface{}
		want    BytesCount
		wantErr bool
	}{
		{"human-readable", "10M", 10 * 1024 * 1024, false},
		{"k8s suffix", "1Gi", 1024 * 1024 * 1024, false},
		{"integer", 4096, 4096, false},
		{"float", 1024.0, 1024, false},
		{"negative", -1, 0, true},
		{"garbage", "lots", 0, true},
		{"unsupported type", []int{1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			va.SetDefault("size", tt.val)
			got, err := va.GetBytesCount("size")
			if tt.wantErr {
				require.ErrorContains(t, err, "size:")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestWithKeyPrefix(t *testing.T) {
	va := NewViperAdapter()
	require.NoError(t, va.Read(bytes.NewBufferString(testCacheConfigJSON), DataTypeJSON))

	dp := WithKeyPrefix(va, "cache")
	maxUsers, err := dp.GetInt("maxUsers")
	require.NoError(t, err)
	require.Equal(t, 7, maxUsers)

	dp.SetDefault("ttl", "1m")
	ttl, err := va.GetDuration("cache.ttl")
	require.NoError(t, err)
	require.Equal(t, time.Minute, ttl)

	require.EqualError(t, dp.WrapKeyErr("maxUsers", errTest), "cache.maxUsers: test error")
	require.Same(t, va, WithKeyPrefix(va, "").(*ViperAdapter))
}
