package engine

import "errors"

// Error kinds per spec §7. RuntimeError is the only one the scheduler
// treats as fatal to the engine thread; the rest surface as one-line
// status strings to the caller that triggered them.
var (
	// ErrSelfLoop: a connection whose from_plugin equals to_plugin.
	ErrSelfLoop = errors.New("graph: self-loop connections are not allowed")
	// ErrDuplicateConnection: (from_plugin,from_port,to_plugin,to_port) already present.
	ErrDuplicateConnection = errors.New("graph: duplicate connection")
	// ErrPortTaken: a non-extendable input port already has an incoming edge.
	ErrPortTaken = errors.New("graph: input port already has an incoming connection")
	// ErrUnknownPlugin: a connection references a plugin id not in the workspace.
	ErrUnknownPlugin = errors.New("graph: connection references an unknown plugin id")
)

// GraphError wraps a graph-rule violation (spec §7's "graph" error kind).
// The UI caller's submitted edit is rejected atomically — the workspace
// is left untouched.
type GraphError struct {
	Err        error
	Connection Connection
}

func (e *GraphError) Error() string {
	return e.Err.Error()
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// RuntimeError marks a plugin-originated fault as fatal to the engine
// thread per spec §7 ("a faulting dynamic plugin may terminate the
// host"). The scheduler does not attempt to recover from it.
type RuntimeError struct {
	PluginID PluginID
	Err      error
}

func (e *RuntimeError) Error() string {
	return "runtime: plugin " + e.PluginID.String() + ": " + e.Err.Error()
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
