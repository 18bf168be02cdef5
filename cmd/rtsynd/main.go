// Command rtsynd runs the RTSyn real-time signal-processing host.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
)

func main() {
	root := &cobra.Command{
		Use:   "rtsynd",
		Short: "RTSyn real-time signal-processing host",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (TOML/YAML/JSON)")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.AddCommand(newRunCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newPluginCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
