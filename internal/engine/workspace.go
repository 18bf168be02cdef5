package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Transport is the declared transport tag of a Connection (spec §3). It
// carries no scheduling semantics in the core — sum order and fan-in
// behave identically regardless of transport. It is preserved through
// load and save; no loader in this module reads it to choose between the
// cgo dlopen backend and the out-of-process RPC backend.
type Transport string

const (
	TransportSharedMemory Transport = "shared_memory"
	TransportPipe         Transport = "pipe"
	TransportInProcess    Transport = "in_process"
)

// PluginDefinition is one entry of a Workspace's plugin list (spec §3).
type PluginDefinition struct {
	ID       PluginID       `json:"id"`
	Kind     string         `json:"kind"`
	Config   map[string]any `json:"config"`
	Priority int            `json:"priority"` // [0,99]
	Running  bool           `json:"running"`
}

// Connection is a directed edge between two plugin ports (spec §3).
type Connection struct {
	FromPlugin PluginID  `json:"from_plugin"`
	FromPort   string    `json:"from_port"`
	ToPlugin   PluginID  `json:"to_plugin"`
	ToPort     string    `json:"to_port"`
	Kind       Transport `json:"kind"`
}

func (c Connection) key() connKey {
	return connKey{c.FromPlugin, c.FromPort, c.ToPlugin, c.ToPort}
}

type connKey struct {
	fromPlugin PluginID
	fromPort   string
	toPlugin   PluginID
	toPort     string
}

// TimingMode selects how the scheduler paces ticks.
type TimingMode string

const (
	TimingRealtime  TimingMode = "realtime"
	TimingAsFastAsPossible TimingMode = "afap"
)

// Settings is the workspace-level timing/UI-pacing record (spec §3, §4.6
// UpdateSettings).
type Settings struct {
	TimingMode           TimingMode `json:"timing_mode"`
	PeriodSeconds        float64    `json:"period_seconds"`
	UIHz                 float64    `json:"ui_hz"`
	Cores                []int      `json:"cores"`
	TimeScale            float64    `json:"time_scale"`
	TimeLabel            string     `json:"time_label"`
	MaxIntegrationSteps  int        `json:"max_integration_steps"`
}

// DefaultSettings matches the original runtime's defaults.
func DefaultSettings() Settings {
	return Settings{
		TimingMode:          TimingRealtime,
		PeriodSeconds:       0.001,
		UIHz:                60.0,
		Cores:               []int{0},
		TimeScale:           1000.0,
		TimeLabel:           "time_ms",
		MaxIntegrationSteps: 10,
	}
}

// Workspace is the full graph definition a UI submits via UpdateWorkspace
// (spec §3, §6).
type Workspace struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Plugins     []PluginDefinition `json:"plugins"`
	Connections []Connection       `json:"connections"`
	Settings    Settings           `json:"settings"`
}

// extendableInputs reports whether a plugin, known only by its declared
// (static) input port list, accepts the dynamically-numbered in/in_N
// family described in spec §3. A plugin declares this by exposing
// exactly one static input port, named "in" — any other declared input
// set is treated as fixed/non-extendable. This keeps the ABI unchanged
// (no new vtable entry) while giving the host a structural signal.
func extendableInputs(declaredInputs []string) bool {
	return len(declaredInputs) == 1 && declaredInputs[0] == "in"
}

var slotPortPattern = regexp.MustCompile(`^in(?:_(\d+))?$`)

// slotIndex returns the slot number of an extendable input port name
// ("in" is slot 0, "in_N" is slot N) and whether port matches the
// pattern at all.
func slotIndex(port string) (int, bool) {
	m := slotPortPattern.FindStringSubmatch(port)
	if m == nil {
		return 0, false
	}
	if m[1] == "" {
		return 0, true
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ValidateConnections enforces spec §3's connection invariants against a
// candidate connection list. declaredInputs maps a plugin id to its
// (static) declared input port names, used to decide extendability.
// Returns the first violation found, wrapped as a *GraphError.
func ValidateConnections(conns []Connection, pluginIDs map[PluginID]struct{}, declaredInputs map[PluginID][]string) error {
	seen := make(map[connKey]struct{}, len(conns))
	// (to_plugin, to_port) -> count, tracked per-port for non-extendable
	// targets; extendable targets are exempt from the one-incoming-edge
	// rule entirely.
	incoming := make(map[PluginID]map[string]int)

	for _, c := range conns {
		if _, ok := pluginIDs[c.FromPlugin]; !ok {
			return &GraphError{Err: fmt.Errorf("%w: %d", ErrUnknownPlugin, c.FromPlugin), Connection: c}
		}
		if _, ok := pluginIDs[c.ToPlugin]; !ok {
			return &GraphError{Err: fmt.Errorf("%w: %d", ErrUnknownPlugin, c.ToPlugin), Connection: c}
		}
		if c.FromPlugin == c.ToPlugin {
			return &GraphError{Err: ErrSelfLoop, Connection: c}
		}
		k := c.key()
		if _, dup := seen[k]; dup {
			return &GraphError{Err: ErrDuplicateConnection, Connection: c}
		}
		seen[k] = struct{}{}

		if extendableInputs(declaredInputs[c.ToPlugin]) {
			continue
		}
		if incoming[c.ToPlugin] == nil {
			incoming[c.ToPlugin] = make(map[string]int)
		}
		incoming[c.ToPlugin][c.ToPort]++
		if incoming[c.ToPlugin][c.ToPort] > 1 {
			return &GraphError{Err: ErrPortTaken, Connection: c}
		}
	}
	return nil
}

// RenumberExtendableSlots renumbers the surviving in/in_N connections
// targeting plugin so slot numbers stay contiguous from 0, preserving
// relative order (spec §3, §8 "Extendable input" boundary behavior, S5).
// Connections to other plugins, and non-slot-pattern ports on plugin,
// pass through unchanged.
func RenumberExtendableSlots(conns []Connection, plugin PluginID) []Connection {
	type slotted struct {
		idx  int
		conn Connection
	}
	var slots []slotted
	var rest []Connection
	for _, c := range conns {
		if c.ToPlugin != plugin {
			rest = append(rest, c)
			continue
		}
		if idx, ok := slotIndex(c.ToPort); ok {
			slots = append(slots, slotted{idx: idx, conn: c})
			continue
		}
		rest = append(rest, c)
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].idx < slots[j].idx })

	out := make([]Connection, 0, len(conns))
	out = append(out, rest...)
	for newIdx, s := range slots {
		c := s.conn
		if newIdx == 0 {
			c.ToPort = "in_0"
		} else {
			c.ToPort = "in_" + strconv.Itoa(newIdx)
		}
		out = append(out, c)
	}
	return out
}
