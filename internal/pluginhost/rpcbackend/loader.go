package rpcbackend

import (
	"fmt"
	"os/exec"
	"sync"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

// BinaryResolver maps a plugin kind to the subprocess executable that
// hosts it (spec §4.12's out-of-process backend).
type BinaryResolver interface {
	ResolveBinary(kind string) (path string, err error)
}

// Loader implements engine.Loader by launching a subprocess per plugin
// instance and speaking the Backend RPC protocol to it over go-plugin's
// yamux-multiplexed pipe.
type Loader struct {
	resolver BinaryResolver
	logger   hclog.Logger

	mu      sync.Mutex
	clients map[engine.PluginID]*goplugin.Client
}

func NewLoader(resolver BinaryResolver) *Loader {
	return &Loader{
		resolver: resolver,
		logger:   hclog.New(&hclog.LoggerOptions{Name: "rtsyn-rpcbackend", Level: hclog.Warn}),
		clients:  make(map[engine.PluginID]*goplugin.Client),
	}
}

// Load launches kind's subprocess and returns an engine.Instance backed
// by it.
func (l *Loader) Load(kind string, config map[string]any) (engine.Instance, error) {
	path, err := l.resolver.ResolveBinary(kind)
	if err != nil {
		return nil, fmt.Errorf("resolve subprocess binary for kind %q: %w", kind, err)
	}

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(),
		Cmd:             exec.Command(path),
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		Logger:          l.logger,
	})

	rpcClientConn, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start subprocess %s: %w", path, err)
	}
	raw, err := rpcClientConn.Dispense("rtsyn_instance")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense rtsyn_instance from %s: %w", path, err)
	}
	backend, ok := raw.(Backend)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("subprocess %s did not implement the plugin Backend", path)
	}

	ok2, err := backend.Construct()
	if err != nil || !ok2 {
		client.Kill()
		return nil, fmt.Errorf("plugin %q: subprocess construct failed: %w", kind, err)
	}

	inst, err := newRemoteInstance(kind, backend)
	if err != nil {
		client.Kill()
		return nil, err
	}
	inst.onDestroy = client.Kill
	return inst, nil
}

// Metadata launches a short-lived subprocess purely to answer a
// QueryPluginMetadata control message, then tears it down.
func (l *Loader) Metadata(kind string) (rtplugin.Metadata, error) {
	inst, err := l.Load(kind, nil)
	if err != nil {
		return rtplugin.Metadata{}, err
	}
	defer inst.Destroy()
	ri := inst.(*remoteInstance)
	md := rtplugin.Metadata{
		Inputs:      ri.inputs,
		Outputs:     ri.outputs,
		DefaultVars: rtplugin.ParseDefaultVars(ri.rawMeta),
	}
	if b, berr := ri.backend.DisplaySchemaJSON(); berr == nil {
		md.DisplaySchema = b
	}
	if b, berr := ri.backend.UISchemaJSON(); berr == nil {
		md.UISchema = b
	}
	return md, nil
}

// Behavior launches a short-lived subprocess purely to answer a
// QueryPluginBehavior control message, then tears it down. libraryPath
// is unused: out-of-process plugins are resolved by binary, not by
// shared-library path, so there is nothing to override here.
func (l *Loader) Behavior(kind string, libraryPath string) (rtplugin.Behavior, error) {
	inst, err := l.Load(kind, nil)
	if err != nil {
		return rtplugin.Behavior{}, err
	}
	defer inst.Destroy()
	return inst.(*remoteInstance).behavior, nil
}
