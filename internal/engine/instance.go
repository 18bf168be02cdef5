package engine

import (
	"encoding/json"

	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

// Instance is a running plugin, as the scheduler sees it. It is declared
// here, in engine, rather than in the package that constructs concrete
// instances (internal/pluginhost and internal/pluginhost/rpcbackend), so
// that both the cgo-backed and the out-of-process backed implementations
// satisfy it structurally with zero import edge back into engine.
type Instance interface {
	Kind() string

	// Inputs/Outputs/InternalVariables report the plugin's declared port
	// and variable names, as decoded from its inputs_json/outputs_json
	// and meta_json entry points at load time.
	Inputs() []string
	Outputs() []string
	InternalVariables() []string

	// SetInput is called once per active input slot, per tick, with the
	// connection cache's fan-in sum for that slot. idx is the slot's
	// position for the dynamic-kind SetInputByIndex fallback; name is
	// its canonical port name ("in", "in_0", "in_1", ... or a fixed
	// declared name). The instance itself decides, via its own
	// last-value bit comparison, whether the change warrants an FFI
	// call into the plugin.
	SetInput(idx int, name string, value float64)

	// GetOutput reads a declared output port's current value.
	GetOutput(idx int, name string) float64

	// GetInternalVariable reads a declared internal variable for
	// state-sync or a GetVariable control query.
	GetInternalVariable(idx int, name string) (any, bool)
	// SetVariable applies a SetVariable control message.
	SetVariable(name string, value any) error

	// Process advances the plugin by one tick of periodSeconds duration.
	Process(tick uint64, periodSeconds float64)

	// SetConfig applies a JSON config patch; maxIntegrationSteps bounds
	// any internal sub-stepping the plugin chooses to perform.
	SetConfig(patch json.RawMessage, periodSeconds float64, maxIntegrationSteps int) error

	// Behavior returns the decoded behavior_json record captured at load
	// time (or rtplugin.DefaultBehavior() if the plugin exports none).
	Behavior() rtplugin.Behavior

	// Destroy tears the instance down and releases its loader resources.
	// It must be safe to call at most once.
	Destroy()
}
