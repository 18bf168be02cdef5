package rpcbackend

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

// remoteInstance adapts a subprocess Backend to engine.Instance. It
// mirrors internal/pluginhost's in-process instance type closely
// (same last_inputs bit-comparison optimization) but every vtable call
// is a blocking RPC round trip instead of a direct function call.
type remoteInstance struct {
	kind     string
	backend  Backend
	rawMeta  []byte
	behavior rtplugin.Behavior

	inputs  []string
	outputs []string
	vars    []string

	mu            sync.Mutex
	lastInputs    []uint64
	lastInputsSet []bool

	onDestroy func()
	destroyed bool
}

func newRemoteInstance(kind string, backend Backend) (*remoteInstance, error) {
	inputsJSON, err := backend.InputsJSON()
	if err != nil {
		return nil, fmt.Errorf("plugin %q: inputs_json: %w", kind, err)
	}
	outputsJSON, err := backend.OutputsJSON()
	if err != nil {
		return nil, fmt.Errorf("plugin %q: outputs_json: %w", kind, err)
	}
	metaJSON, err := backend.MetaJSON()
	if err != nil {
		return nil, fmt.Errorf("plugin %q: meta_json: %w", kind, err)
	}
	behavior := rtplugin.DefaultBehavior()
	if bj, berr := backend.BehaviorJSON(); berr == nil && len(bj) > 0 {
		behavior = rtplugin.ParseBehavior(bj)
	}

	inst := &remoteInstance{
		kind:    kind,
		backend: backend,
		rawMeta: metaJSON,
		behavior: behavior,
		inputs:  rtplugin.ParsePortNames(inputsJSON),
		outputs: rtplugin.ParsePortNames(outputsJSON),
	}
	for _, dv := range rtplugin.ParseDefaultVars(metaJSON) {
		inst.vars = append(inst.vars, dv.Name)
	}
	inst.lastInputs = make([]uint64, len(inst.inputs))
	inst.lastInputsSet = make([]bool, len(inst.inputs))
	return inst, nil
}

func (i *remoteInstance) Kind() string               { return i.kind }
func (i *remoteInstance) Inputs() []string            { return i.inputs }
func (i *remoteInstance) Outputs() []string           { return i.outputs }
func (i *remoteInstance) InternalVariables() []string { return i.vars }
func (i *remoteInstance) Behavior() rtplugin.Behavior { return i.behavior }

func (i *remoteInstance) SetInput(idx int, name string, value float64) {
	bits := math.Float64bits(value)
	i.mu.Lock()
	if idx >= 0 && idx < len(i.lastInputs) {
		if i.lastInputsSet[idx] && i.lastInputs[idx] == bits {
			i.mu.Unlock()
			return
		}
		i.lastInputs[idx] = bits
		i.lastInputsSet[idx] = true
	}
	i.mu.Unlock()

	if idx >= 0 {
		if err := i.backend.SetInputByIndex(idx, value); err == nil {
			return
		}
	}
	_ = i.backend.SetInput(name, value)
}

func (i *remoteInstance) GetOutput(idx int, name string) float64 {
	if idx >= 0 {
		if v, err := i.backend.GetOutputByIndex(idx); err == nil {
			return v
		}
	}
	v, _ := i.backend.GetOutput(name)
	return v
}

func (i *remoteInstance) GetInternalVariable(_ int, name string) (any, bool) {
	meta, err := i.backend.MetaJSON()
	if err != nil {
		return nil, false
	}
	for _, dv := range rtplugin.ParseDefaultVars(meta) {
		if dv.Name == name {
			return dv.Value, true
		}
	}
	return nil, false
}

func (i *remoteInstance) SetVariable(name string, value any) error {
	v, ok := value.(float64)
	if !ok {
		return fmt.Errorf("plugin %s: variable %q requires a numeric value", i.kind, name)
	}
	patch := []byte(fmt.Sprintf(`{%q:%s}`, name, strconv.FormatFloat(v, 'g', -1, 64)))
	return i.backend.SetConfig(patch, 0, 0)
}

func (i *remoteInstance) Process(tick uint64, periodSeconds float64) {
	_ = i.backend.Process(tick, periodSeconds)
}

func (i *remoteInstance) SetConfig(patch []byte, periodSeconds float64, maxIntegrationSteps int) error {
	return i.backend.SetConfig(patch, periodSeconds, maxIntegrationSteps)
}

func (i *remoteInstance) Destroy() {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return
	}
	i.destroyed = true
	i.mu.Unlock()

	_ = i.backend.Destroy()
	if i.onDestroy != nil {
		i.onDestroy()
	}
}
