package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"optionsgateway/internal/provider"
	"optionsgateway/internal/provider/cache"
)

func TestKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "expirations:SPY", cache.Key(provider.EndpointExpirations, "SPY", ""))
	require.Equal(t, "option-chain:SPY:2030-01-18", cache.Key(provider.EndpointOptionChain, "SPY", "2030-01-18"))
	require.Equal(t, "underlying-quote:AAPL", cache.Key(provider.EndpointUnderlyingQuote, "AAPL", ""))
}

func TestCache_SetGetStats(t *testing.T) {
	t.Parallel()

	// Arrange: an empty cache.
	c := cache.New(0, 0)

	// Act: miss, store, hit.
	_, ok := c.Get("k")
	require.False(t, ok)
	c.Set("k", []string{"2030-01-18"})
	got, ok := cache.Lookup[[]string](c, "k")

	// Assert: typed value and counters.
	require.True(t, ok)
	require.Equal(t, []string{"2030-01-18"}, got)
	require.Equal(t, cache.Stats{Hits: 1, Misses: 1, Keys: 1}, c.Stats())
}

func TestCache_LookupWrongTypeIsMiss(t *testing.T) {
	t.Parallel()

	c := cache.New(time.Minute, time.Minute)
	c.Set("k", provider.UnderlyingQuote{Symbol: "SPY"})

	_, ok := cache.Lookup[provider.OptionChain](c, "k")
	require.False(t, ok)
	require.Equal(t, cache.Stats{Hits: 0, Misses: 1, Keys: 1}, c.Stats())

	_, ok = cache.Lookup[provider.UnderlyingQuote](c, "k")
	require.True(t, ok)
	require.Equal(t, cache.Stats{Hits: 1, Misses: 1, Keys: 1}, c.Stats())
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	c := cache.New(time.Minute, time.Minute)
	c.SetWithTTL("k", 1, 20*time.Millisecond)

	_, ok := c.Get("k")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok := c.Get("k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestCache_ReadsDoNotExtendTTL(t *testing.T) {
	t.Parallel()

	c := cache.New(time.Minute, time.Minute)
	c.SetWithTTL("k", 1, 80*time.Millisecond)

	deadline := time.Now().Add(400 * time.Millisecond)
	expired := false
	for time.Now().Before(deadline) {
		if _, ok := c.Get("k"); !ok {
			expired = true
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, expired, "entry kept alive by reads")
}

func TestCache_Flush(t *testing.T) {
	t.Parallel()

	c := cache.New(time.Minute, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Flush()

	require.Equal(t, 0, c.Stats().Keys)
	_, ok := c.Get("a")
	require.False(t, ok)
}
