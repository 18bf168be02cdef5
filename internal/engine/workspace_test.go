package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

func pluginIDSet(ids ...engine.PluginID) map[engine.PluginID]struct{} {
	set := make(map[engine.PluginID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestValidateConnectionsRejectsUnknownPlugin(t *testing.T) {
	conns := []engine.Connection{{FromPlugin: 1, FromPort: "out", ToPlugin: 2, ToPort: "in"}}
	err := engine.ValidateConnections(conns, pluginIDSet(1), nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, engine.ErrUnknownPlugin))
}

func TestValidateConnectionsRejectsSelfLoop(t *testing.T) {
	conns := []engine.Connection{{FromPlugin: 1, FromPort: "out", ToPlugin: 1, ToPort: "in"}}
	err := engine.ValidateConnections(conns, pluginIDSet(1), nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, engine.ErrSelfLoop))
}

func TestValidateConnectionsRejectsDuplicate(t *testing.T) {
	conns := []engine.Connection{
		{FromPlugin: 1, FromPort: "out", ToPlugin: 2, ToPort: "in"},
		{FromPlugin: 1, FromPort: "out", ToPlugin: 2, ToPort: "in"},
	}
	err := engine.ValidateConnections(conns, pluginIDSet(1, 2), nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, engine.ErrDuplicateConnection))
}

func TestValidateConnectionsRejectsPortAlreadyTaken(t *testing.T) {
	conns := []engine.Connection{
		{FromPlugin: 1, FromPort: "out", ToPlugin: 3, ToPort: "in"},
		{FromPlugin: 2, FromPort: "out", ToPlugin: 3, ToPort: "in"},
	}
	declared := map[engine.PluginID][]string{3: {"in", "gain"}}
	err := engine.ValidateConnections(conns, pluginIDSet(1, 2, 3), declared)
	require.Error(t, err)
	require.True(t, errors.Is(err, engine.ErrPortTaken))
}

func TestValidateConnectionsAllowsManyToOneOnExtendablePlugin(t *testing.T) {
	conns := []engine.Connection{
		{FromPlugin: 1, FromPort: "out", ToPlugin: 3, ToPort: "in"},
		{FromPlugin: 2, FromPort: "out", ToPlugin: 3, ToPort: "in_1"},
	}
	declared := map[engine.PluginID][]string{3: {"in"}}
	require.NoError(t, engine.ValidateConnections(conns, pluginIDSet(1, 2, 3), declared))
}

func TestRenumberExtendableSlotsClosesGap(t *testing.T) {
	conns := []engine.Connection{
		{FromPlugin: 1, FromPort: "out", ToPlugin: 9, ToPort: "in_0"},
		{FromPlugin: 2, FromPort: "out", ToPlugin: 9, ToPort: "in_2"},
		{FromPlugin: 3, FromPort: "out", ToPlugin: 9, ToPort: "in_3"},
		{FromPlugin: 4, FromPort: "out", ToPlugin: 5, ToPort: "in"},
	}
	out := engine.RenumberExtendableSlots(conns, 9)

	require.Len(t, out, 4)
	byFrom := make(map[engine.PluginID]string, len(out))
	for _, c := range out {
		byFrom[c.FromPlugin] = c.ToPort
	}
	require.Equal(t, "in_0", byFrom[1])
	require.Equal(t, "in_1", byFrom[2])
	require.Equal(t, "in_2", byFrom[3])
	require.Equal(t, "in", byFrom[4])
}

func TestRenumberExtendableSlotsPreservesOtherPlugins(t *testing.T) {
	conns := []engine.Connection{
		{FromPlugin: 1, FromPort: "out", ToPlugin: 9, ToPort: "in_0"},
		{FromPlugin: 2, FromPort: "out", ToPlugin: 7, ToPort: "gain"},
	}
	out := engine.RenumberExtendableSlots(conns, 9)
	require.Len(t, out, 2)
	for _, c := range out {
		if c.ToPlugin == 7 {
			require.Equal(t, "gain", c.ToPort)
		}
	}
}

func TestDefaultSettings(t *testing.T) {
	s := engine.DefaultSettings()
	require.Equal(t, engine.TimingRealtime, s.TimingMode)
	require.Equal(t, 0.001, s.PeriodSeconds)
	require.Equal(t, 60.0, s.UIHz)
	require.Equal(t, []int{0}, s.Cores)
	require.Equal(t, 10, s.MaxIntegrationSteps)
}
