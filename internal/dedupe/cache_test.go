package dedupe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docsite/search-indexer/internal/dedupe"
)

func TestCacheUnchanged(t *testing.T) {
	cache := dedupe.NewCache(10, time.Minute)
	require.False(t, cache.Unchanged("alpha", "h1"))
	cache.Remember("alpha", "h1")
	require.True(t, cache.Unchanged("alpha", "h1"))
}

func TestCacheDetectsChangedFingerprint(t *testing.T) {
	cache := dedupe.NewCache(10, time.Minute)
	cache.Remember("alpha", "h1")
	require.False(t, cache.Unchanged("alpha", "h2"))

	cache.Remember("alpha", "h2")
	require.True(t, cache.Unchanged("alpha", "h2"))
}

func TestCacheForget(t *testing.T) {
	cache := dedupe.NewCache(10, time.Minute)
	cache.Remember("alpha", "h1")
	cache.Forget("alpha")
	require.False(t, cache.Unchanged("alpha", "h1"))
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := dedupe.NewCache(10, 20*time.Millisecond)
	cache.Remember("beta", "h1")
	time.Sleep(25 * time.Millisecond)
	require.False(t, cache.Unchanged("beta", "h1"))
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	cache := dedupe.NewCache(1, time.Minute)
	cache.Remember("first", "h1")
	cache.Remember("second", "h2")

	require.False(t, cache.Unchanged("first", "h1"))
	require.True(t, cache.Unchanged("second", "h2"))
}
