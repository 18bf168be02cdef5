package engine

import (
	"fmt"
	"sort"
	"sync"
)

// PluginID is a process-unique, workspace-lifetime-stable plugin
// identifier (spec §3). Zero is never issued by Freelist.
type PluginID uint64

func (id PluginID) String() string {
	return fmt.Sprintf("%d", uint64(id))
}

// Freelist issues ascending PluginIDs and reuses retired ones, so a
// workspace that has deleted and re-added plugins does not grow its id
// space unboundedly (spec §3: "reused only from a freelist of retired
// ids").
type Freelist struct {
	mu      sync.Mutex
	next    PluginID
	retired []PluginID
}

// NewFreelist returns a Freelist that issues ids starting at 1.
func NewFreelist() *Freelist {
	return &Freelist{next: 1}
}

// Allocate returns the lowest retired id if one is available, otherwise
// the next never-used id.
func (f *Freelist) Allocate() PluginID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.retired) > 0 {
		sort.Slice(f.retired, func(i, j int) bool { return f.retired[i] < f.retired[j] })
		id := f.retired[0]
		f.retired = f.retired[1:]
		return id
	}
	id := f.next
	f.next++
	return id
}

// Retire returns id to the pool for future reuse.
func (f *Freelist) Retire(id PluginID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retired = append(f.retired, id)
}

// Observe records that id is already in use (e.g. loaded from a saved
// workspace) so future Allocate calls never hand it out.
func (f *Freelist) Observe(id PluginID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id >= f.next {
		f.next = id + 1
	}
}
