package rtplugin

import "encoding/json"

// Behavior is the decoded form of a plugin's optional behavior_json
// entry point. It governs when the host may start, restart, or apply
// changes to a plugin instance.
//
// RequiresIncomingConnection replaces the original sample source's
// kind-name special-casing of csv_recorder/live_plotter/comedi_daq (spec
// §9, first Open Question): any plugin kind can declare it, and the host
// never branches on a kind string to decide connection-dependence.
type Behavior struct {
	LoadsStarted                  bool     `json:"loads_started"`
	SupportsStartStop             bool     `json:"supports_start_stop"`
	SupportsRestart                bool     `json:"supports_restart"`
	SupportsApply                  bool     `json:"supports_apply"`
	ExternalWindow                 bool     `json:"external_window"`
	StartsExpanded                 bool     `json:"starts_expanded"`
	StartRequiresConnectedInputs   []string `json:"start_requires_connected_inputs,omitempty"`
	StartRequiresConnectedOutputs  []string `json:"start_requires_connected_outputs,omitempty"`
	RequiresIncomingConnection     bool     `json:"requires_incoming_connection"`
}

// DefaultBehavior is used when a plugin does not export behavior_json.
func DefaultBehavior() Behavior {
	return Behavior{
		LoadsStarted:       true,
		SupportsStartStop:  true,
		SupportsRestart:    true,
		SupportsApply:      true,
	}
}

// ParseBehavior decodes a plugin's behavior_json buffer, falling back to
// DefaultBehavior on empty input or malformed JSON (a misbehaving
// optional entry point is not itself fatal per spec §4.1).
func ParseBehavior(raw []byte) Behavior {
	if len(raw) == 0 {
		return DefaultBehavior()
	}
	var b Behavior
	if err := json.Unmarshal(raw, &b); err != nil {
		return DefaultBehavior()
	}
	return b
}

// DefaultVar is one entry of meta_json's "default_vars" array:
// [[name, value], ...].
type DefaultVar struct {
	Name  string
	Value float64
}

// Metadata is the decoded, host-facing view of inputs_json + outputs_json
// + meta_json (+ the optional schema entry points), as returned by a
// QueryPluginMetadata control message (spec §4.6).
type Metadata struct {
	Inputs        []string        `json:"inputs"`
	Outputs       []string        `json:"outputs"`
	DefaultVars   []DefaultVar    `json:"default_vars,omitempty"`
	DisplaySchema json.RawMessage `json:"display_schema,omitempty"`
	UISchema      json.RawMessage `json:"ui_schema,omitempty"`
}

// ParseDefaultVars extracts meta_json's optional "default_vars" array.
func ParseDefaultVars(metaJSON []byte) []DefaultVar {
	if len(metaJSON) == 0 {
		return nil
	}
	var meta struct {
		DefaultVars [][2]json.RawMessage `json:"default_vars"`
	}
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil
	}
	out := make([]DefaultVar, 0, len(meta.DefaultVars))
	for _, pair := range meta.DefaultVars {
		var name string
		var value float64
		if err := json.Unmarshal(pair[0], &name); err != nil {
			continue
		}
		if err := json.Unmarshal(pair[1], &value); err != nil {
			continue
		}
		out = append(out, DefaultVar{Name: name, Value: value})
	}
	return out
}

// ParsePortNames decodes an inputs_json/outputs_json buffer (a bare JSON
// array of strings), tolerating an empty or missing buffer.
func ParsePortNames(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil
	}
	return names
}
