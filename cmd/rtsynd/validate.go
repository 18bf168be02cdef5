package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/internal/controlplane"
	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [workspace.json]",
		Short: "Validate a workspace file's graph invariants without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
	return cmd
}

func runValidate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read workspace file: %w", err)
	}
	if err := controlplane.ValidateWorkspaceDocument(data); err != nil {
		return fmt.Errorf("invalid workspace: %w", err)
	}
	ws, err := controlplane.DecodeWorkspaceFile(data)
	if err != nil {
		return fmt.Errorf("parse workspace file: %w", err)
	}

	ids := make(map[engine.PluginID]struct{}, len(ws.Plugins))
	declared := make(map[engine.PluginID][]string, len(ws.Plugins))
	for _, p := range ws.Plugins {
		ids[p.ID] = struct{}{}
		// Without loading each plugin library, the validator cannot
		// know a kind's real declared inputs; it conservatively treats
		// every plugin as non-extendable unless the workspace file
		// itself lists them in a declared_inputs config hint.
		if hint, ok := p.Config["declared_inputs"]; ok {
			if names, ok := hint.([]any); ok {
				for _, n := range names {
					if s, ok := n.(string); ok {
						declared[p.ID] = append(declared[p.ID], s)
					}
				}
			}
		}
	}

	if err := engine.ValidateConnections(ws.Connections, ids, declared); err != nil {
		return fmt.Errorf("invalid workspace: %w", err)
	}
	order := engine.ComputeOrder(ws.Plugins, ws.Connections)
	if len(order.BrokenAt) > 0 {
		fmt.Printf("warning: cycle detected, back-edges cut at plugins: %v\n", order.BrokenAt)
	}
	summary, _ := json.MarshalIndent(map[string]any{
		"plugins":     len(ws.Plugins),
		"connections": len(ws.Connections),
		"order":       order.Sequence,
	}, "", "  ")
	fmt.Println(string(summary))
	return nil
}
