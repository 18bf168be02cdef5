package engine

// PluginSnapshot is one plugin's state-sync contribution for a single
// tick (spec §4, component C7).
type PluginSnapshot struct {
	ID        PluginID
	Running   bool
	Inputs    map[string]float64
	Outputs   map[string]float64
	Variables map[string]any
}

// Snapshot is the value-typed bundle the scheduler emits once per UI
// refresh interval (spec §4.5 step 5) for the state-sync stream to
// consume. Viewer holds one representative scalar per plugin (its first
// output, or omitted if it has none) for simple numeric-readout widgets;
// Plots holds, per plugin and output port, the batch of Plotter samples
// accumulated since the previous emission.
type Snapshot struct {
	Tick        uint64
	TimeSeconds float64
	Plugins     []PluginSnapshot
	Viewer      map[PluginID]float64
	Plots       map[PluginID]map[string][]Sample
}

// clone returns a deep-enough copy so a slow state-sync consumer cannot
// observe a scheduler thread mutating maps concurrently.
func (s Snapshot) clone() Snapshot {
	out := Snapshot{Tick: s.Tick, TimeSeconds: s.TimeSeconds}
	out.Plugins = make([]PluginSnapshot, len(s.Plugins))
	for i, p := range s.Plugins {
		cp := PluginSnapshot{ID: p.ID, Running: p.Running}
		if p.Inputs != nil {
			cp.Inputs = make(map[string]float64, len(p.Inputs))
			for k, v := range p.Inputs {
				cp.Inputs[k] = v
			}
		}
		if p.Outputs != nil {
			cp.Outputs = make(map[string]float64, len(p.Outputs))
			for k, v := range p.Outputs {
				cp.Outputs[k] = v
			}
		}
		if p.Variables != nil {
			cp.Variables = make(map[string]any, len(p.Variables))
			for k, v := range p.Variables {
				cp.Variables[k] = v
			}
		}
		out.Plugins[i] = cp
	}
	if s.Viewer != nil {
		out.Viewer = make(map[PluginID]float64, len(s.Viewer))
		for k, v := range s.Viewer {
			out.Viewer[k] = v
		}
	}
	if s.Plots != nil {
		out.Plots = make(map[PluginID]map[string][]Sample, len(s.Plots))
		for id, ports := range s.Plots {
			cp := make(map[string][]Sample, len(ports))
			for port, samples := range ports {
				cs := make([]Sample, len(samples))
				copy(cs, samples)
				cp[port] = cs
			}
			out.Plots[id] = cp
		}
	}
	return out
}
