// Package pluginhost implements internal/engine's Loader and Instance
// interfaces against real C-ABI dynamic plugin libraries (spec §4.1,
// §4.2, components C1/C2). It deliberately has no import of
// internal/engine: both interfaces are satisfied structurally, which is
// what lets this package (and rpcbackend, its out-of-process sibling)
// stay free of an import cycle back into the package that consumes them.
package pluginhost

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

// instance adapts one loaded plugin's VTable + Handle to engine.Instance.
// It owns the interned port name lists and the last_inputs bit-pattern
// vector used to suppress redundant set_input calls (spec §3: "Runtime
// plugin instance").
type instance struct {
	kind     string
	vt       rtplugin.VTable
	handle   rtplugin.Handle
	behavior rtplugin.Behavior

	inputs  []string
	outputs []string
	vars    []string

	lastInputs    []uint64 // raw bit pattern of the last value pushed per input slot
	lastInputsSet []bool

	destroyed bool
}

func newInstance(kind string, vt rtplugin.VTable, h rtplugin.Handle) (*instance, error) {
	if h == 0 {
		return nil, fmt.Errorf("plugin %q: constructor returned a null handle", kind)
	}
	inst := &instance{kind: kind, vt: vt, handle: h}
	inst.inputs = rtplugin.ParsePortNames(vt.InputsJSON(h))
	inst.outputs = rtplugin.ParsePortNames(vt.OutputsJSON(h))
	meta := vt.MetaJSON(h)
	for _, dv := range rtplugin.ParseDefaultVars(meta) {
		inst.vars = append(inst.vars, dv.Name)
	}
	if vt.BehaviorJSON != nil {
		inst.behavior = rtplugin.ParseBehavior(vt.BehaviorJSON(h))
	} else {
		inst.behavior = rtplugin.DefaultBehavior()
	}
	inst.lastInputs = make([]uint64, len(inst.inputs))
	inst.lastInputsSet = make([]bool, len(inst.inputs))
	return inst, nil
}

func (i *instance) Kind() string               { return i.kind }
func (i *instance) Inputs() []string            { return i.inputs }
func (i *instance) Outputs() []string           { return i.outputs }
func (i *instance) InternalVariables() []string { return i.vars }
func (i *instance) Behavior() rtplugin.Behavior { return i.behavior }

// SetInput compares the incoming value against last_inputs[idx] by raw
// bit pattern (spec §5 step 2: "compare against last_inputs[idx] ...
// skip set_input if unchanged") and only reaches the FFI boundary on a
// true change, preferring SetInputByIndex when the plugin exports it.
func (i *instance) SetInput(idx int, name string, value float64) {
	bits := math.Float64bits(value)
	if idx >= 0 && idx < len(i.lastInputs) {
		if i.lastInputsSet[idx] && i.lastInputs[idx] == bits {
			return
		}
		i.lastInputs[idx] = bits
		i.lastInputsSet[idx] = true
	}
	if i.vt.SetInputByIndex != nil && idx >= 0 {
		i.vt.SetInputByIndex(i.handle, idx, value)
		return
	}
	i.vt.SetInput(i.handle, name, value)
}

func (i *instance) GetOutput(idx int, name string) float64 {
	if i.vt.GetOutputByIndex != nil && idx >= 0 {
		return i.vt.GetOutputByIndex(i.handle, idx)
	}
	return i.vt.GetOutput(i.handle, name)
}

func (i *instance) GetInternalVariable(_ int, name string) (any, bool) {
	meta := i.vt.MetaJSON(i.handle)
	for _, dv := range rtplugin.ParseDefaultVars(meta) {
		if dv.Name == name {
			return dv.Value, true
		}
	}
	return nil, false
}

func (i *instance) SetVariable(name string, value any) error {
	v, ok := value.(float64)
	if !ok {
		return fmt.Errorf("plugin %s: variable %q requires a numeric value", i.kind, name)
	}
	patch, err := jsonVariablePatch(name, v)
	if err != nil {
		return err
	}
	return i.SetConfig(patch, 0, 0)
}

func (i *instance) Process(tick uint64, periodSeconds float64) {
	i.vt.Process(i.handle, tick, periodSeconds)
}

func (i *instance) SetConfig(patch []byte, periodSeconds float64, maxIntegrationSteps int) error {
	i.vt.SetConfig(i.handle, patch, periodSeconds, maxIntegrationSteps)
	return nil
}

func (i *instance) Destroy() {
	if i.destroyed {
		return
	}
	i.destroyed = true
	i.vt.Destroy(i.handle)
}

func jsonVariablePatch(name string, value float64) ([]byte, error) {
	return []byte(fmt.Sprintf(`{%q:%s}`, name, strconv.FormatFloat(value, 'g', -1, 64))), nil
}
