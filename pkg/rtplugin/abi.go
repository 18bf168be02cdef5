// Package rtplugin defines the C-compatible ABI a dynamic plugin library
// must export, and the Go-side types used to describe a loaded plugin's
// ports and behavior. It has no dependency on how a plugin is actually
// loaded (dlopen vs. an out-of-process RPC backend) — that split lives in
// internal/pluginhost.
package rtplugin

// Handle is the opaque per-instance pointer a plugin's constructor
// returns. The host never dereferences it; it is only ever passed back
// into the plugin's own vtable entries.
type Handle uintptr

// VTable mirrors the function pointer table a plugin shared library
// exports, per spec §4.1. Optional entries are nil when the plugin does
// not implement them; the loader substitutes the name-keyed fallback for
// any nil *ByIndex entry.
//
// Every function here is, on a real dlopen'd library, a raw C function
// pointer resolved at load time; openSharedLibrary in
// internal/pluginhost/cabi_cgo.go is the cgo bridge that turns these into
// callable Go closures. Keeping the
// contract as a plain struct (rather than baking cgo types in here) lets
// pkg/rtplugin be imported by plugin authors and test code without
// requiring cgo.
type VTable struct {
	// Destroy releases all resources owned by h. Must tolerate being
	// called from a non-real-time thread.
	Destroy func(h Handle)

	// SetInput delivers the latest fan-in sum for the named input.
	// Must be O(1) amortized.
	SetInput func(h Handle, name string, value float64)

	// SetInputByIndex is the optional faster path keyed by an integer
	// input index instead of the port name.
	SetInputByIndex func(h Handle, idx int, value float64)

	// GetOutput reads the latest value produced for the named output.
	GetOutput func(h Handle, name string) float64

	// GetOutputByIndex is the optional faster read path.
	GetOutputByIndex func(h Handle, idx int) float64

	// Process advances the plugin by one tick. The host guarantees every
	// input has been set via SetInput/SetInputByIndex before this call.
	Process func(h Handle, tick uint64, periodSeconds float64)

	// InputsJSON returns a JSON array of input port names.
	InputsJSON func(h Handle) []byte

	// OutputsJSON returns a JSON array of output port names.
	OutputsJSON func(h Handle) []byte

	// MetaJSON returns a JSON object; may include "default_vars" as
	// [[name,value],...].
	MetaJSON func(h Handle) []byte

	// BehaviorJSON is optional; see Behavior for the decoded shape.
	BehaviorJSON func(h Handle) []byte

	// DisplaySchemaJSON and UISchemaJSON are optional schemas consumed
	// by the (out-of-scope) editor; the host only round-trips them.
	DisplaySchemaJSON func(h Handle) []byte
	UISchemaJSON      func(h Handle) []byte

	// SetConfig applies a JSON merge patch. Called whenever the plugin's
	// configuration changes, subject to the loader's digest cache.
	SetConfig func(h Handle, patchJSON []byte, periodSeconds float64, maxIntegrationSteps int)
}

// Constructor is the plugin's zero-arg entry point, resolved by symbol
// name at load time. A nil Handle from the constructor aborts the load.
type Constructor func() Handle
