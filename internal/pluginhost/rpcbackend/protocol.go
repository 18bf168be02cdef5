// Package rpcbackend hosts a plugin out-of-process over
// hashicorp/go-plugin's net/rpc transport (spec §4.12, component C12),
// for plugins that should not share the engine's address space (a
// crashing subprocess cannot take the host down with it, at the cost of
// a syscall round trip per tick instead of a direct call).
//
// The wire operations mirror the C-ABI vtable (spec §4.1) field for
// field; a subprocess plugin author implements Backend and serves it
// through go-plugin with Handshake and an InstancePlugin whose Impl is
// that Backend. This package has no Serve helper of its own, and nothing
// in rtsynd selects this backend from a Connection's Transport.
package rpcbackend

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// Handshake is the shared magic cookie both ends of the pipe verify
// before speaking the protocol, per go-plugin's convention.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "RTSYN_PLUGIN",
	MagicCookieValue: "rtsyn-dynamic-plugin-v1",
}

// PluginMap is the go-plugin PluginSet this package's client and server
// both register under, keyed by the single plugin kind this transport
// exposes per subprocess.
func PluginMap() map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		"rtsyn_instance": &InstancePlugin{},
	}
}

// Backend is the subprocess-side contract a dynamic plugin author
// implements; it is the RPC-transport twin of rtplugin.VTable.
type Backend interface {
	Construct() (bool, error) // false handle is reported as a load failure
	Destroy() error
	SetInput(name string, value float64) error
	SetInputByIndex(idx int, value float64) error
	GetOutput(name string) (float64, error)
	GetOutputByIndex(idx int) (float64, error)
	Process(tick uint64, periodSeconds float64) error
	InputsJSON() ([]byte, error)
	OutputsJSON() ([]byte, error)
	MetaJSON() ([]byte, error)
	BehaviorJSON() ([]byte, error)
	DisplaySchemaJSON() ([]byte, error)
	UISchemaJSON() ([]byte, error)
	SetConfig(patch []byte, periodSeconds float64, maxIntegrationSteps int) error
}

// InstancePlugin implements plugin.Plugin for the net/rpc transport.
type InstancePlugin struct {
	Impl Backend // set on the subprocess side only
}

func (p *InstancePlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &rpcServer{impl: p.Impl}, nil
}

func (p *InstancePlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &rpcClient{client: c}, nil
}
