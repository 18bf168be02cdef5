package engine

import "fmt"

// drainControl processes every ControlMessage currently queued, applying
// each atomically before the next tick evaluates, then reports whether a
// ShutdownMsg was among them (spec §5: "the scheduler drains the control
// channel once per tick, before advancing").
func (s *Scheduler) drainControl() (shutdown bool, err error) {
	for {
		select {
		case msg := <-s.control:
			if sd, ok := msg.(ShutdownMsg); ok {
				reply(sd.Reply, nil, nil)
				return true, nil
			}
			s.apply(msg)
		default:
			return false, nil
		}
	}
}

func (s *Scheduler) apply(msg ControlMessage) {
	switch m := msg.(type) {
	case UpdateWorkspaceMsg:
		s.handleUpdateWorkspace(m)
	case UpdateSettingsMsg:
		s.workspace.Settings = m.Settings
		s.rebuildPlotters()
		reply(m.Reply, nil, nil)
	case AddConnectionMsg:
		s.handleAddConnection(m)
	case RemoveConnectionMsg:
		s.handleRemoveConnection(m)
	case AddPluginMsg:
		s.handleAddPlugin(m)
	case RemovePluginMsg:
		s.handleRemovePlugin(m)
	case StartPluginMsg:
		s.handleSetRunning(m.ID, true, m.Reply)
	case StopPluginMsg:
		s.handleSetRunning(m.ID, false, m.Reply)
	case SetAllPluginsRunningMsg:
		s.handleSetAllPluginsRunning(m)
	case RestartPluginMsg:
		s.handleRestartPlugin(m)
	case ApplyConfigMsg:
		s.handleApplyConfig(m)
	case QueryPluginMetadataMsg:
		md, err := s.loader.Metadata(m.Kind)
		reply(m.Reply, md, err)
	case QueryPluginBehaviorMsg:
		b, err := s.loader.Behavior(m.Kind, m.LibraryPath)
		reply(m.Reply, b, err)
	case GetVariableMsg:
		s.handleGetVariable(m)
	case SetVariableMsg:
		s.handleSetVariable(m)
	case QueryWorkspaceMsg:
		reply(m.Reply, s.workspace, nil)
	default:
		// unknown message kinds are ignored rather than panicking; a
		// future transport version may send one an older build does
		// not recognize.
	}
}

func (s *Scheduler) rebuildDerived() {
	s.declared = make(map[PluginID][]string, len(s.instances))
	for id, st := range s.instances {
		s.declared[id] = st.instance.Inputs()
	}
	s.cache = BuildConnectionCache(s.workspace.Connections, s.declared)
	s.order = ComputeOrder(s.workspace.Plugins, s.workspace.Connections)
	s.rebuildPlotters()
}

// rebuildPlotters gives every plugin output a Plotter sized for the
// workspace's current period and ui_hz, reusing an existing one for an
// (id, port) pair that survived the rebuild so its buffered history
// isn't thrown away on an unrelated graph edit.
func (s *Scheduler) rebuildPlotters() {
	period := s.workspace.Settings.PeriodSeconds
	uiHz := s.workspace.Settings.UIHz
	plotters := make(map[PluginID]map[string]*Plotter, len(s.instances))
	for id, st := range s.instances {
		outs := st.instance.Outputs()
		if len(outs) == 0 {
			continue
		}
		existing := s.plotters[id]
		ports := make(map[string]*Plotter, len(outs))
		for _, name := range outs {
			if p, ok := existing[name]; ok {
				p.Resize(period, uiHz)
				ports[name] = p
				continue
			}
			ports[name] = NewPlotter(period, uiHz)
		}
		plotters[id] = ports
	}
	s.plotters = plotters
}

func (s *Scheduler) handleUpdateWorkspace(m UpdateWorkspaceMsg) {
	ids := make(map[PluginID]struct{}, len(m.Workspace.Plugins))
	for _, p := range m.Workspace.Plugins {
		ids[p.ID] = struct{}{}
	}
	// Load instances for any plugin id not already running.
	newInstances := make(map[PluginID]pluginState, len(m.Workspace.Plugins))
	for _, def := range m.Workspace.Plugins {
		if st, ok := s.instances[def.ID]; ok {
			st.def = def
			newInstances[def.ID] = st
			continue
		}
		inst, err := s.loader.Load(def.Kind, def.Config)
		if err != nil {
			reply(m.Reply, nil, fmt.Errorf("load plugin %d (%s): %w", def.ID, def.Kind, err))
			return
		}
		newInstances[def.ID] = pluginState{def: def, instance: inst}
		s.freelist.Observe(def.ID)
	}
	declared := make(map[PluginID][]string, len(newInstances))
	for id, st := range newInstances {
		declared[id] = st.instance.Inputs()
	}
	if err := ValidateConnections(m.Workspace.Connections, ids, declared); err != nil {
		reply(m.Reply, nil, err)
		return
	}

	for id, st := range s.instances {
		if _, kept := newInstances[id]; !kept {
			st.instance.Destroy()
			s.freelist.Retire(id)
		}
	}
	s.instances = newInstances
	s.workspace.Name = m.Workspace.Name
	s.workspace.Description = m.Workspace.Description
	s.workspace.Plugins = m.Workspace.Plugins
	s.workspace.Connections = m.Workspace.Connections
	s.workspace.Settings = m.Workspace.Settings
	s.rebuildDerived()
	reply(m.Reply, nil, nil)
}

func (s *Scheduler) handleAddConnection(m AddConnectionMsg) {
	ids := make(map[PluginID]struct{}, len(s.workspace.Plugins))
	for _, p := range s.workspace.Plugins {
		ids[p.ID] = struct{}{}
	}
	candidate := append(append([]Connection{}, s.workspace.Connections...), m.Connection)
	if err := ValidateConnections(candidate, ids, s.declared); err != nil {
		reply(m.Reply, nil, err)
		return
	}
	s.workspace.Connections = candidate
	s.rebuildDerived()
	reply(m.Reply, nil, nil)
}

func (s *Scheduler) handleRemoveConnection(m RemoveConnectionMsg) {
	out := make([]Connection, 0, len(s.workspace.Connections))
	removed := false
	for _, c := range s.workspace.Connections {
		if !removed && c == m.Connection {
			removed = true
			continue
		}
		out = append(out, c)
	}
	if !removed {
		reply(m.Reply, nil, fmt.Errorf("connection not found"))
		return
	}
	if extendableInputs(s.declared[m.Connection.ToPlugin]) {
		out = RenumberExtendableSlots(out, m.Connection.ToPlugin)
	}
	s.workspace.Connections = out
	s.rebuildDerived()
	reply(m.Reply, nil, nil)
}

func (s *Scheduler) handleAddPlugin(m AddPluginMsg) {
	inst, err := s.loader.Load(m.Kind, m.Config)
	if err != nil {
		reply(m.Reply, nil, err)
		return
	}
	id := s.freelist.Allocate()
	behavior := inst.Behavior()
	def := PluginDefinition{ID: id, Kind: m.Kind, Config: m.Config, Priority: m.Priority, Running: behavior.LoadsStarted}
	s.instances[id] = pluginState{def: def, instance: inst}
	s.workspace.Plugins = append(s.workspace.Plugins, def)
	s.rebuildDerived()
	reply(m.Reply, id, nil)
}

func (s *Scheduler) handleRemovePlugin(m RemovePluginMsg) {
	st, ok := s.instances[m.ID]
	if !ok {
		reply(m.Reply, nil, fmt.Errorf("%w: %d", ErrUnknownPlugin, m.ID))
		return
	}
	var remainingConns []Connection
	for _, c := range s.workspace.Connections {
		if c.FromPlugin == m.ID || c.ToPlugin == m.ID {
			continue
		}
		remainingConns = append(remainingConns, c)
	}
	var remainingPlugins []PluginDefinition
	for _, p := range s.workspace.Plugins {
		if p.ID == m.ID {
			continue
		}
		remainingPlugins = append(remainingPlugins, p)
	}
	st.instance.Destroy()
	delete(s.instances, m.ID)
	s.freelist.Retire(m.ID)
	s.workspace.Connections = remainingConns
	s.workspace.Plugins = remainingPlugins
	s.rebuildDerived()
	reply(m.Reply, nil, nil)
}

func (s *Scheduler) handleSetRunning(id PluginID, running bool, replyCh chan Reply) {
	reply(replyCh, nil, s.setRunning(id, running))
}

// handleSetAllPluginsRunning applies setRunning to every plugin
// currently in the workspace. A plugin that can't honor the request
// (e.g. start/stop unsupported, or a required port isn't connected) is
// left as-is rather than aborting the others; the first such failure is
// reported back so a caller can surface it, but every plugin that could
// comply already has.
func (s *Scheduler) handleSetAllPluginsRunning(m SetAllPluginsRunningMsg) {
	var firstErr error
	for _, p := range s.workspace.Plugins {
		if err := s.setRunning(p.ID, m.Running); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	reply(m.Reply, nil, firstErr)
}

func (s *Scheduler) setRunning(id PluginID, running bool) error {
	st, ok := s.instances[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPlugin, id)
	}
	behavior := st.instance.Behavior()
	if running && !behavior.SupportsStartStop && !st.def.Running {
		return fmt.Errorf("plugin %d does not support start/stop", id)
	}
	if running {
		for _, port := range behavior.StartRequiresConnectedInputs {
			if !s.cache.HasSources(id, port) {
				return fmt.Errorf("plugin %d: input %q must be connected before start", id, port)
			}
		}
		for _, port := range behavior.StartRequiresConnectedOutputs {
			if !s.cache.OutputIsConnected(id, port) {
				return fmt.Errorf("plugin %d: output %q must be connected before start", id, port)
			}
		}
	}
	st.def.Running = running
	s.instances[id] = st
	for i, p := range s.workspace.Plugins {
		if p.ID == id {
			s.workspace.Plugins[i].Running = running
		}
	}
	return nil
}

func (s *Scheduler) handleRestartPlugin(m RestartPluginMsg) {
	st, ok := s.instances[m.ID]
	if !ok {
		reply(m.Reply, nil, fmt.Errorf("%w: %d", ErrUnknownPlugin, m.ID))
		return
	}
	if !st.instance.Behavior().SupportsRestart {
		reply(m.Reply, nil, fmt.Errorf("plugin %d does not support restart", m.ID))
		return
	}
	inst, err := s.loader.Load(st.def.Kind, st.def.Config)
	if err != nil {
		reply(m.Reply, nil, err)
		return
	}
	st.instance.Destroy()
	st.instance = inst
	s.instances[m.ID] = st
	s.rebuildDerived()
	reply(m.Reply, nil, nil)
}

func (s *Scheduler) handleApplyConfig(m ApplyConfigMsg) {
	st, ok := s.instances[m.ID]
	if !ok {
		reply(m.Reply, nil, fmt.Errorf("%w: %d", ErrUnknownPlugin, m.ID))
		return
	}
	if !st.instance.Behavior().SupportsApply {
		reply(m.Reply, nil, fmt.Errorf("plugin %d does not support config apply", m.ID))
		return
	}
	err := st.instance.SetConfig(m.Patch, s.workspace.Settings.PeriodSeconds, s.workspace.Settings.MaxIntegrationSteps)
	reply(m.Reply, nil, err)
}

func (s *Scheduler) handleGetVariable(m GetVariableMsg) {
	st, ok := s.instances[m.ID]
	if !ok {
		reply(m.Reply, nil, fmt.Errorf("%w: %d", ErrUnknownPlugin, m.ID))
		return
	}
	v, found := st.instance.GetInternalVariable(0, m.Name)
	if !found {
		reply(m.Reply, nil, fmt.Errorf("plugin %d: no such variable %q", m.ID, m.Name))
		return
	}
	reply(m.Reply, v, nil)
}

func (s *Scheduler) handleSetVariable(m SetVariableMsg) {
	st, ok := s.instances[m.ID]
	if !ok {
		reply(m.Reply, nil, fmt.Errorf("%w: %d", ErrUnknownPlugin, m.ID))
		return
	}
	err := st.instance.SetVariable(m.Name, m.Value)
	reply(m.Reply, nil, err)
}
