package engine

import "encoding/json"

// Reply is the one-shot response to a ControlMessage, delivered over the
// message's own Reply channel (spec §4, component C6). Value's concrete
// type depends on the request; Err is non-nil on rejection.
type Reply struct {
	Err   error
	Value any
}

func reply(ch chan Reply, value any, err error) {
	if ch == nil {
		return
	}
	ch <- Reply{Value: value, Err: err}
}

// ControlMessage is a UI-to-engine command, submitted over a single
// buffered channel the scheduler drains at the start of every tick
// (spec §4, §5). Each concrete type owns its own reply channel so a
// caller can await exactly its own response without a correlation id.
type ControlMessage interface {
	isControlMessage()
}

// UpdateWorkspaceMsg replaces the whole graph in one atomic step.
type UpdateWorkspaceMsg struct {
	Workspace Workspace
	Reply     chan Reply
}

// UpdateSettingsMsg replaces the timing/UI-pacing settings.
type UpdateSettingsMsg struct {
	Settings Settings
	Reply    chan Reply
}

// AddConnectionMsg inserts a single edge into the live graph.
type AddConnectionMsg struct {
	Connection Connection
	Reply      chan Reply
}

// RemoveConnectionMsg deletes a single edge, renumbering the target's
// extendable input slots if applicable.
type RemoveConnectionMsg struct {
	Connection Connection
	Reply      chan Reply
}

// AddPluginMsg loads and inserts a new plugin instance.
type AddPluginMsg struct {
	Kind     string
	Config   map[string]any
	Priority int
	Reply    chan Reply // Value: PluginID
}

// RemovePluginMsg tears down and retires a plugin id.
type RemovePluginMsg struct {
	ID    PluginID
	Reply chan Reply
}

// StartPluginMsg resumes Process() calls for a stopped plugin.
type StartPluginMsg struct {
	ID    PluginID
	Reply chan Reply
}

// StopPluginMsg suspends Process() calls. The plugin keeps receiving its
// fan-in sums via SetInput every tick so it still "sees its environment,"
// but every output it feeds downstream (and its entry in a snapshot)
// reads as zero until it is started again.
type StopPluginMsg struct {
	ID    PluginID
	Reply chan Reply
}

// SetAllPluginsRunningMsg starts or stops every plugin in the workspace,
// one plugin at a time, subject to each plugin's own start/stop behavior
// gates. The change is not atomic: a plugin that fails its gate (e.g. a
// required input isn't connected) keeps its state, the other plugins are
// still changed, and the reply carries the first failure.
type SetAllPluginsRunningMsg struct {
	Running bool
	Reply   chan Reply
}

// RestartPluginMsg tears down and reconstructs a plugin instance in
// place, preserving its id, config, priority, and connections.
type RestartPluginMsg struct {
	ID    PluginID
	Reply chan Reply
}

// ApplyConfigMsg sends a JSON patch to a running plugin's SetConfig.
type ApplyConfigMsg struct {
	ID    PluginID
	Patch json.RawMessage
	Reply chan Reply
}

// QueryPluginMetadataMsg asks the loader for a kind's declared ports,
// default variables, and schemas without adding it to the workspace (the
// loader may construct a transient handle and destroy it before replying).
type QueryPluginMetadataMsg struct {
	Kind  string
	Reply chan Reply // Value: rtplugin.Metadata
}

// QueryPluginBehaviorMsg asks the loader to resolve a kind's declared
// start/stop/restart/apply behavior without instantiating it into the
// live workspace (spec §4.6) — unlike QueryPluginMetadataMsg, a UI uses
// this to gray out controls for a plugin it hasn't added yet.
// LibraryPath optionally overrides the installed-plugins registry
// lookup, the same way a config "library_path" entry overrides Load.
type QueryPluginBehaviorMsg struct {
	Kind        string
	LibraryPath string
	Reply       chan Reply // Value: rtplugin.Behavior
}

// GetVariableMsg reads a running plugin's internal variable.
type GetVariableMsg struct {
	ID    PluginID
	Name  string
	Reply chan Reply // Value: any
}

// SetVariableMsg writes a running plugin's internal variable.
type SetVariableMsg struct {
	ID    PluginID
	Name  string
	Value any
	Reply chan Reply
}

// QueryWorkspaceMsg asks the scheduler for its current workspace
// definition, e.g. to answer a GET /workspace request.
type QueryWorkspaceMsg struct {
	Reply chan Reply // Value: Workspace
}

// ShutdownMsg asks the scheduler loop to tear every plugin down and
// return from Run.
type ShutdownMsg struct {
	Reply chan Reply
}

func (UpdateWorkspaceMsg) isControlMessage()     {}
func (UpdateSettingsMsg) isControlMessage()      {}
func (AddConnectionMsg) isControlMessage()       {}
func (RemoveConnectionMsg) isControlMessage()    {}
func (AddPluginMsg) isControlMessage()           {}
func (RemovePluginMsg) isControlMessage()        {}
func (StartPluginMsg) isControlMessage()         {}
func (StopPluginMsg) isControlMessage()          {}
func (SetAllPluginsRunningMsg) isControlMessage() {}
func (RestartPluginMsg) isControlMessage()       {}
func (ApplyConfigMsg) isControlMessage()         {}
func (QueryPluginMetadataMsg) isControlMessage() {}
func (QueryPluginBehaviorMsg) isControlMessage() {}
func (GetVariableMsg) isControlMessage()         {}
func (SetVariableMsg) isControlMessage()         {}
func (QueryWorkspaceMsg) isControlMessage()      {}
func (ShutdownMsg) isControlMessage()            {}
