package controlplane

import (
	"encoding/json"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

// DecodeWorkspaceFile parses a workspace JSON document (the same shape
// POST /workspace accepts) for offline use, e.g. `rtsynd validate`.
func DecodeWorkspaceFile(data []byte) (engine.Workspace, error) {
	var dto workspaceDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return engine.Workspace{}, err
	}
	return fromWorkspaceDTO(dto), nil
}

// workspaceDTO is the JSON wire shape for POST/GET /workspace. It is a
// thin rename of engine.Workspace's own json tags plus an explicit
// struct so the controlplane package owns its wire contract separately
// from the engine's internal type (a future wire-format change should
// never force an engine.Workspace field rename).
type workspaceDTO struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Plugins     []pluginDefinitionDTO      `json:"plugins"`
	Connections []connectionDTO            `json:"connections"`
	Settings    settingsDTO                `json:"settings"`
}

type pluginDefinitionDTO struct {
	ID       uint64         `json:"id"`
	Kind     string         `json:"kind"`
	Config   map[string]any `json:"config"`
	Priority int            `json:"priority"`
	Running  bool           `json:"running"`
}

type connectionDTO struct {
	FromPlugin uint64 `json:"from_plugin"`
	FromPort   string `json:"from_port"`
	ToPlugin   uint64 `json:"to_plugin"`
	ToPort     string `json:"to_port"`
	Kind       string `json:"kind"`
}

type settingsDTO struct {
	TimingMode          string  `json:"timing_mode"`
	PeriodSeconds       float64 `json:"period_seconds"`
	UIHz                float64 `json:"ui_hz"`
	Cores               []int   `json:"cores"`
	TimeScale           float64 `json:"time_scale"`
	TimeLabel           string  `json:"time_label"`
	MaxIntegrationSteps int     `json:"max_integration_steps"`
}

func toWorkspaceDTO(w engine.Workspace) workspaceDTO {
	dto := workspaceDTO{
		Name:        w.Name,
		Description: w.Description,
		Settings: settingsDTO{
			TimingMode:          string(w.Settings.TimingMode),
			PeriodSeconds:       w.Settings.PeriodSeconds,
			UIHz:                w.Settings.UIHz,
			Cores:               w.Settings.Cores,
			TimeScale:           w.Settings.TimeScale,
			TimeLabel:           w.Settings.TimeLabel,
			MaxIntegrationSteps: w.Settings.MaxIntegrationSteps,
		},
	}
	for _, p := range w.Plugins {
		dto.Plugins = append(dto.Plugins, pluginDefinitionDTO{
			ID: uint64(p.ID), Kind: p.Kind, Config: p.Config, Priority: p.Priority, Running: p.Running,
		})
	}
	for _, c := range w.Connections {
		dto.Connections = append(dto.Connections, connectionDTO{
			FromPlugin: uint64(c.FromPlugin), FromPort: c.FromPort,
			ToPlugin: uint64(c.ToPlugin), ToPort: c.ToPort, Kind: string(c.Kind),
		})
	}
	return dto
}

func fromWorkspaceDTO(dto workspaceDTO) engine.Workspace {
	w := engine.Workspace{
		Name:        dto.Name,
		Description: dto.Description,
		Settings: engine.Settings{
			TimingMode:          engine.TimingMode(dto.Settings.TimingMode),
			PeriodSeconds:       dto.Settings.PeriodSeconds,
			UIHz:                dto.Settings.UIHz,
			Cores:               dto.Settings.Cores,
			TimeScale:           dto.Settings.TimeScale,
			TimeLabel:           dto.Settings.TimeLabel,
			MaxIntegrationSteps: dto.Settings.MaxIntegrationSteps,
		},
	}
	for _, p := range dto.Plugins {
		w.Plugins = append(w.Plugins, engine.PluginDefinition{
			ID: engine.PluginID(p.ID), Kind: p.Kind, Config: p.Config, Priority: p.Priority, Running: p.Running,
		})
	}
	for _, c := range dto.Connections {
		w.Connections = append(w.Connections, engine.Connection{
			FromPlugin: engine.PluginID(c.FromPlugin), FromPort: c.FromPort,
			ToPlugin: engine.PluginID(c.ToPlugin), ToPort: c.ToPort, Kind: engine.Transport(c.Kind),
		})
	}
	return w
}

func toSnapshotDTO(snap engine.Snapshot) map[string]any {
	plugins := make([]map[string]any, 0, len(snap.Plugins))
	for _, p := range snap.Plugins {
		plugins = append(plugins, map[string]any{
			"id":        uint64(p.ID),
			"running":   p.Running,
			"inputs":    p.Inputs,
			"outputs":   p.Outputs,
			"variables": p.Variables,
		})
	}
	viewer := make(map[uint64]float64, len(snap.Viewer))
	for id, v := range snap.Viewer {
		viewer[uint64(id)] = v
	}
	plots := make(map[uint64]map[string][]engine.Sample, len(snap.Plots))
	for id, ports := range snap.Plots {
		plots[uint64(id)] = ports
	}
	return map[string]any{
		"tick":         snap.Tick,
		"time_seconds": snap.TimeSeconds,
		"plugins":      plugins,
		"viewer":       viewer,
		"plots":        plots,
	}
}
