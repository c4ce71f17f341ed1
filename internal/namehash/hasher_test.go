/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package namehash

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-evalcache/lrucache"
	"github.com/acronis/go-evalcache/testutil"
)

func TestSum(t *testing.T) {
	digest := sha256.Sum256([]byte("flag_a"))
	want := base64.StdEncoding.EncodeToString(digest[:])

	got, err := Sum("flag_a")
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Well-known digest of the empty string.
	got, err = Sum("")
	require.NoError(t, err)
	require.Equal(t, "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=", got)
}

func TestHasher(t *testing.T) {
	_, err := New(0, nil)
	require.Error(t, err)

	h, err := New(2, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		name := "gate_" + strconv.Itoa(i)
		got, hashErr := h.Hash(name)
		require.NoError(t, hashErr)
		want, _ := Sum(name)
		require.Equal(t, want, got)
		require.LessOrEqual(t, h.Len(), 2)
	}

	// Repeated names are served from the memo and keep the same result.
	first, err := h.Hash("gate_4")
	require.NoError(t, err)
	second, err := h.Hash("gate_4")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 2, h.Len())

	h.Purge()
	require.Equal(t, 0, h.Len())
}

func TestHasherEvictsLeastRecentlyUsed(t *testing.T) {
	h, err := New(2, nil)
	require.NoError(t, err)

	_, _ = h.Hash("a")
	_, _ = h.Hash("b")
	_, _ = h.Hash("a") // "b" becomes the least recently used.
	_, _ = h.Hash("c")

	require.True(t, h.memo.Contains("a"))
	require.False(t, h.memo.Contains("b"))
	require.True(t, h.memo.Contains("c"))
}

func TestHasherMetrics(t *testing.T) {
	mc := lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{Subsystem: "name_hash_memo"})
	h, err := New(1, mc)
	require.NoError(t, err)

	_, _ = h.Hash("a")
	_, _ = h.Hash("a")
	_, _ = h.Hash("b")

	testutil.RequireGaugeValue(t, mc.EntriesAmount, 1)
	testutil.RequireCounterValue(t, mc.HitsTotal, 1)
	testutil.RequireCounterValue(t, mc.MissesTotal, 2)
	testutil.RequireCounterValue(t, mc.EvictionsTotal, 1)
}

func TestDefault(t *testing.T) {
	require.NotNil(t, Default())
	require.Same(t, Default(), Default())
}
