//go:build !cgo

package pluginhost

import (
	"fmt"

	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

// openSharedLibrary is the non-cgo build's stand-in: the C-ABI bridge
// requires cgo's dlopen/dlsym access (see DESIGN.md — no pack
// dependency offers pure-Go C-ABI interop), so a CGO_ENABLED=0 build can
// still compile and run the out-of-process rpcbackend, but cannot load
// in-process dynamic plugin libraries.
func openSharedLibrary(path string) (rtplugin.VTable, rtplugin.Constructor, error) {
	return rtplugin.VTable{}, nil, fmt.Errorf("load plugin library %s: built without cgo; in-process dynamic plugins require CGO_ENABLED=1", path)
}
