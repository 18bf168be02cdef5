package engine_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

func TestConnectionCacheSumsFanIn(t *testing.T) {
	conns := []engine.Connection{
		{FromPlugin: 1, FromPort: "out", ToPlugin: 3, ToPort: "gain"},
		{FromPlugin: 2, FromPort: "out", ToPlugin: 3, ToPort: "gain"},
	}
	cache := engine.BuildConnectionCache(conns, nil)

	outputs := map[engine.PluginID]float64{1: 1.5, 2: 2.5}
	got := cache.Sum(3, "gain", func(p engine.PluginID, port string) float64 { return outputs[p] })
	require.Equal(t, 4.0, got)
}

func TestConnectionCacheSumOnUnconnectedPortIsZero(t *testing.T) {
	cache := engine.BuildConnectionCache(nil, nil)
	got := cache.Sum(1, "in", func(engine.PluginID, string) float64 { return 99 })
	require.Equal(t, 0.0, got)
}

func TestConnectionCacheSanitizesNonFiniteSourcesBeforeSumming(t *testing.T) {
	conns := []engine.Connection{
		{FromPlugin: 1, FromPort: "out", ToPlugin: 3, ToPort: "in"},
		{FromPlugin: 2, FromPort: "out", ToPlugin: 3, ToPort: "in"},
	}
	cache := engine.BuildConnectionCache(conns, nil)
	outputs := map[engine.PluginID]float64{1: math.NaN(), 2: 5.0}
	got := cache.Sum(3, "in", func(p engine.PluginID, port string) float64 { return outputs[p] })
	require.Equal(t, 5.0, got, "a single faulting upstream must not poison a well-behaved sibling's contribution")
}

func TestConnectionCacheAliasesExtendableSlotZero(t *testing.T) {
	conns := []engine.Connection{
		{FromPlugin: 1, FromPort: "out", ToPlugin: 9, ToPort: "in"},
	}
	declared := map[engine.PluginID][]string{9: {"in"}}
	cache := engine.BuildConnectionCache(conns, declared)

	got := cache.Sum(9, "in_0", func(engine.PluginID, string) float64 { return 7 })
	require.Equal(t, 7.0, got, "\"in\" and \"in_0\" must resolve to the same canonical slot key")
}

func TestConnectionCacheActiveSlotsOrdersNumerically(t *testing.T) {
	conns := []engine.Connection{
		{FromPlugin: 1, FromPort: "out", ToPlugin: 9, ToPort: "in_10"},
		{FromPlugin: 2, FromPort: "out", ToPlugin: 9, ToPort: "in_2"},
	}
	declared := map[engine.PluginID][]string{9: {"in"}}
	cache := engine.BuildConnectionCache(conns, declared)

	require.Equal(t, []string{"in_2", "in_10"}, cache.ActiveSlots(9))
}

func TestConnectionCacheOutputIsConnected(t *testing.T) {
	conns := []engine.Connection{{FromPlugin: 1, FromPort: "out", ToPlugin: 2, ToPort: "in"}}
	cache := engine.BuildConnectionCache(conns, nil)
	require.True(t, cache.OutputIsConnected(1, "out"))
	require.False(t, cache.OutputIsConnected(1, "other"))
	require.False(t, cache.OutputIsConnected(2, "out"))
}

func TestConnectionCacheHasSources(t *testing.T) {
	conns := []engine.Connection{{FromPlugin: 1, FromPort: "out", ToPlugin: 2, ToPort: "in"}}
	cache := engine.BuildConnectionCache(conns, nil)
	require.True(t, cache.HasSources(2, "in"))
	require.False(t, cache.HasSources(2, "other"))
}
