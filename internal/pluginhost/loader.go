package pluginhost

import (
	"fmt"
	"sync"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

// LibraryResolver maps a plugin kind name to the filesystem path of its
// shared library, per the installed-plugins registry (spec §6). Config
// may also carry a "library_path" override (spec §4.10: "inject
// library_path into the plugin's config"), which Load prefers when
// present.
type LibraryResolver interface {
	ResolveLibrary(kind string) (path string, err error)
}

type openLibrary struct {
	vt   rtplugin.VTable
	ctor rtplugin.Constructor
}

// Loader implements engine.Loader against real C-ABI shared libraries
// (spec §4.2, component C2). It keeps one dlopen'd handle per library
// path for the lifetime of the process — unloading only ever happens on
// process exit — and caches each (kind, path) pair's last-applied
// set_config digest, so Load skips set_config when its patch matches the
// last one Load applied for that pair. SetConfig calls on an already
// loaded instance do not consult the cache.
type Loader struct {
	resolver LibraryResolver
	digests  *DigestCache

	mu        sync.Mutex
	libraries map[string]openLibrary // keyed by resolved library path
}

// NewLoader constructs a Loader backed by resolver for kind -> path
// lookups.
func NewLoader(resolver LibraryResolver) *Loader {
	return &Loader{
		resolver:  resolver,
		digests:   NewDigestCache(),
		libraries: make(map[string]openLibrary),
	}
}

// Load resolves kind's library, opens it (or reuses an already-open
// handle), constructs an instance, applies config via SetConfig, and
// returns it as an engine.Instance.
func (l *Loader) Load(kind string, config map[string]any) (engine.Instance, error) {
	path, err := libraryPathFromConfig(config)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path, err = l.resolver.ResolveLibrary(kind)
		if err != nil {
			return nil, fmt.Errorf("resolve library for kind %q: %w", kind, err)
		}
	}

	lib, err := l.open(path)
	if err != nil {
		return nil, err
	}

	h := lib.ctor()
	inst, err := newInstance(kind, lib.vt, h)
	if err != nil {
		return nil, err
	}

	if len(config) > 0 {
		patch, err := encodeConfig(config)
		if err != nil {
			inst.Destroy()
			return nil, fmt.Errorf("encode config for kind %q: %w", kind, err)
		}
		if l.digests.Changed(kind, path, patch) {
			if err := inst.SetConfig(patch, 0, 10); err != nil {
				inst.Destroy()
				return nil, fmt.Errorf("apply config for kind %q: %w", kind, err)
			}
		}
	}
	return inst, nil
}

// Metadata resolves kind's library and reports its declared ports and
// default variables without constructing a long-lived instance — used
// to answer a QueryPluginMetadata control message (spec §4.6) before a
// plugin is ever added to the workspace.
func (l *Loader) Metadata(kind string) (rtplugin.Metadata, error) {
	path, err := l.resolver.ResolveLibrary(kind)
	if err != nil {
		return rtplugin.Metadata{}, fmt.Errorf("resolve library for kind %q: %w", kind, err)
	}
	lib, err := l.open(path)
	if err != nil {
		return rtplugin.Metadata{}, err
	}
	h := lib.ctor()
	if h == 0 {
		return rtplugin.Metadata{}, fmt.Errorf("plugin %q: constructor returned a null handle", kind)
	}
	defer lib.vt.Destroy(h)

	md := rtplugin.Metadata{
		Inputs:      rtplugin.ParsePortNames(lib.vt.InputsJSON(h)),
		Outputs:     rtplugin.ParsePortNames(lib.vt.OutputsJSON(h)),
		DefaultVars: rtplugin.ParseDefaultVars(lib.vt.MetaJSON(h)),
	}
	if lib.vt.DisplaySchemaJSON != nil {
		md.DisplaySchema = lib.vt.DisplaySchemaJSON(h)
	}
	if lib.vt.UISchemaJSON != nil {
		md.UISchema = lib.vt.UISchemaJSON(h)
	}
	return md, nil
}

// Behavior resolves kind's library (or libraryPath, if non-empty,
// overriding the installed-plugins registry the same way a config
// "library_path" entry overrides Load) and reports its declared
// start/stop/restart/apply behavior without inserting the instance into
// any workspace — used to answer a QueryPluginBehavior control message
// (spec §4.6) so a UI can gray out controls before ever adding the
// plugin.
func (l *Loader) Behavior(kind string, libraryPath string) (rtplugin.Behavior, error) {
	path := libraryPath
	if path == "" {
		var err error
		path, err = l.resolver.ResolveLibrary(kind)
		if err != nil {
			return rtplugin.Behavior{}, fmt.Errorf("resolve library for kind %q: %w", kind, err)
		}
	}
	lib, err := l.open(path)
	if err != nil {
		return rtplugin.Behavior{}, err
	}
	h := lib.ctor()
	if h == 0 {
		return rtplugin.Behavior{}, fmt.Errorf("plugin %q: constructor returned a null handle", kind)
	}
	defer lib.vt.Destroy(h)

	if lib.vt.BehaviorJSON == nil {
		return rtplugin.DefaultBehavior(), nil
	}
	return rtplugin.ParseBehavior(lib.vt.BehaviorJSON(h)), nil
}

func (l *Loader) open(path string) (openLibrary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lib, ok := l.libraries[path]; ok {
		return lib, nil
	}
	vt, ctor, err := openSharedLibrary(path)
	if err != nil {
		return openLibrary{}, fmt.Errorf("load plugin library %s: %w", path, err)
	}
	lib := openLibrary{vt: vt, ctor: ctor}
	l.libraries[path] = lib
	return lib, nil
}

func libraryPathFromConfig(config map[string]any) (string, error) {
	raw, ok := config["library_path"]
	if !ok {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("config field %q must be a string", "library_path")
	}
	return s, nil
}
