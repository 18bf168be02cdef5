package pluginhost_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/pluginhost"
)

func TestDigestCacheFirstCallAlwaysChanged(t *testing.T) {
	d := pluginhost.NewDigestCache()
	require.True(t, d.Changed("osc", "/lib/osc.so", []byte(`{"freq":440}`)))
}

func TestDigestCacheUnchangedPatchIsSuppressed(t *testing.T) {
	d := pluginhost.NewDigestCache()
	patch := []byte(`{"freq":440}`)
	require.True(t, d.Changed("osc", "/lib/osc.so", patch))
	require.False(t, d.Changed("osc", "/lib/osc.so", patch))
}

func TestDigestCacheDistinguishesByKindAndPath(t *testing.T) {
	d := pluginhost.NewDigestCache()
	patch := []byte(`{"freq":440}`)
	require.True(t, d.Changed("osc", "/lib/osc.so", patch))
	require.True(t, d.Changed("osc", "/lib/osc_v2.so", patch), "a different library path is a distinct cache key even with an identical patch")
	require.True(t, d.Changed("filter", "/lib/osc.so", patch), "a different kind is a distinct cache key even with an identical patch")
}

func TestDigestCacheDetectsChangedPatch(t *testing.T) {
	d := pluginhost.NewDigestCache()
	require.True(t, d.Changed("osc", "/lib/osc.so", []byte(`{"freq":440}`)))
	require.True(t, d.Changed("osc", "/lib/osc.so", []byte(`{"freq":880}`)))
}
