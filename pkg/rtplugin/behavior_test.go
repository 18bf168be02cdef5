package rtplugin_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

func TestParseBehaviorFallsBackToDefaultOnEmpty(t *testing.T) {
	b := rtplugin.ParseBehavior(nil)
	require.Equal(t, rtplugin.DefaultBehavior(), b)
}

func TestParseBehaviorFallsBackToDefaultOnMalformed(t *testing.T) {
	b := rtplugin.ParseBehavior([]byte(`not json`))
	require.Equal(t, rtplugin.DefaultBehavior(), b)
}

func TestParseBehaviorDecodesFields(t *testing.T) {
	raw := []byte(`{
		"loads_started": false,
		"supports_start_stop": true,
		"start_requires_connected_inputs": ["in"]
	}`)
	b := rtplugin.ParseBehavior(raw)
	require.False(t, b.LoadsStarted)
	require.True(t, b.SupportsStartStop)
	require.Equal(t, []string{"in"}, b.StartRequiresConnectedInputs)
}

func TestParseDefaultVars(t *testing.T) {
	raw := []byte(`{"default_vars": [["gain", 1.0], ["offset", 0.5]]}`)
	vars := rtplugin.ParseDefaultVars(raw)
	require.Equal(t, []rtplugin.DefaultVar{{Name: "gain", Value: 1.0}, {Name: "offset", Value: 0.5}}, vars)
}

func TestParseDefaultVarsEmptyInput(t *testing.T) {
	require.Nil(t, rtplugin.ParseDefaultVars(nil))
}

func TestParsePortNames(t *testing.T) {
	require.Equal(t, []string{"in", "gain"}, rtplugin.ParsePortNames([]byte(`["in","gain"]`)))
	require.Nil(t, rtplugin.ParsePortNames(nil))
	require.Nil(t, rtplugin.ParsePortNames([]byte(`not json`)))
}
