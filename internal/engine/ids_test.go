package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

func TestFreelistAllocatesAscendingIDs(t *testing.T) {
	f := engine.NewFreelist()
	require.Equal(t, engine.PluginID(1), f.Allocate())
	require.Equal(t, engine.PluginID(2), f.Allocate())
	require.Equal(t, engine.PluginID(3), f.Allocate())
}

func TestFreelistReusesRetiredIDsBeforeNewOnes(t *testing.T) {
	f := engine.NewFreelist()
	a := f.Allocate()
	b := f.Allocate()
	_ = f.Allocate()

	f.Retire(a)
	f.Retire(b)

	require.Equal(t, a, f.Allocate())
	require.Equal(t, b, f.Allocate())
	require.Equal(t, engine.PluginID(4), f.Allocate())
}

func TestFreelistRetiredIDsHandedOutInAscendingOrder(t *testing.T) {
	f := engine.NewFreelist()
	ids := []engine.PluginID{f.Allocate(), f.Allocate(), f.Allocate()}
	f.Retire(ids[2])
	f.Retire(ids[0])
	f.Retire(ids[1])

	require.Equal(t, ids[0], f.Allocate())
	require.Equal(t, ids[1], f.Allocate())
	require.Equal(t, ids[2], f.Allocate())
}

func TestFreelistObserveAdvancesNextPastObservedID(t *testing.T) {
	f := engine.NewFreelist()
	f.Observe(engine.PluginID(10))
	require.Equal(t, engine.PluginID(11), f.Allocate())
}

func TestFreelistObserveIgnoresLowerIDs(t *testing.T) {
	f := engine.NewFreelist()
	f.Observe(engine.PluginID(5))
	f.Observe(engine.PluginID(2))
	require.Equal(t, engine.PluginID(6), f.Allocate())
}

func TestPluginIDStringFormatsAsDecimal(t *testing.T) {
	require.Equal(t, "42", engine.PluginID(42).String())
}
