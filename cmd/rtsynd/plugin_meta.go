package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rtsyn-dev/rtsyn/internal/config"
	"github.com/rtsyn-dev/rtsyn/internal/pluginhost"
	"github.com/rtsyn-dev/rtsyn/internal/registry"
)

func newPluginCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "plugin",
		Short: "Plugin installation and introspection commands",
	}
	root.AddCommand(newPluginMetaCommand())
	return root
}

func newPluginMetaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta <kind>",
		Short: "Query a kind's declared ports, default variables, and schemas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPluginMeta(args[0])
		},
	}
	return cmd
}

func runPluginMeta(kind string) error {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return err
	}
	loader := pluginhost.NewLoader(reg)
	md, err := loader.Metadata(kind)
	if err != nil {
		return fmt.Errorf("query metadata for %q: %w", kind, err)
	}
	out, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
