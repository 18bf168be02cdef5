// Package config resolves rtsynd's settings from a config file, then
// environment variables, then CLI flags (highest precedence wins), via
// spf13/viper (spec §4.13, component C13).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

// Config is the fully resolved process configuration.
type Config struct {
	Workspace  engine.Workspace
	PluginDir  string   // directory scanned for plugin manifests
	RegistryPath string // installed-plugins registry JSON path
	HTTPAddr   string
	JWTSecret  string
	MetricsAddr string
	LogLevel   string
	LogFormat  string // "json" or "text"
}

// Defaults matches the original runtime's out-of-the-box configuration.
func Defaults() Config {
	return Config{
		Workspace:    engine.Workspace{Settings: engine.DefaultSettings()},
		PluginDir:    "./plugins",
		RegistryPath: "./rtsynd-plugins.json",
		HTTPAddr:     ":8421",
		MetricsAddr:  ":9421",
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

// Load builds a viper instance reading configPath (if non-empty),
// environment variables prefixed RTSYND_, and returns the resolved
// Config. Flag values should be bound into v by the caller (cobra's
// command.Flags()) before Load is called, so flags retain top
// precedence.
func Load(v *viper.Viper, configPath string) (Config, error) {
	d := Defaults()
	v.SetDefault("plugin_dir", d.PluginDir)
	v.SetDefault("registry_path", d.RegistryPath)
	v.SetDefault("http_addr", d.HTTPAddr)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("period_seconds", d.Workspace.Settings.PeriodSeconds)
	v.SetDefault("ui_hz", d.Workspace.Settings.UIHz)

	v.SetEnvPrefix("RTSYND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	cfg := d
	cfg.PluginDir = v.GetString("plugin_dir")
	cfg.RegistryPath = v.GetString("registry_path")
	cfg.HTTPAddr = v.GetString("http_addr")
	cfg.MetricsAddr = v.GetString("metrics_addr")
	cfg.JWTSecret = v.GetString("jwt_secret")
	cfg.LogLevel = v.GetString("log_level")
	cfg.LogFormat = v.GetString("log_format")
	cfg.Workspace.Settings.PeriodSeconds = v.GetFloat64("period_seconds")
	cfg.Workspace.Settings.UIHz = v.GetFloat64("ui_hz")
	if cfg.Workspace.Settings.PeriodSeconds <= 0 {
		cfg.Workspace.Settings.PeriodSeconds = d.Workspace.Settings.PeriodSeconds
	}
	return cfg, nil
}
