package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"net/http"

	"github.com/rtsyn-dev/rtsyn/internal/config"
	"github.com/rtsyn-dev/rtsyn/internal/controlplane"
	"github.com/rtsyn-dev/rtsyn/internal/engine"
	"github.com/rtsyn-dev/rtsyn/internal/metrics"
	"github.com/rtsyn-dev/rtsyn/internal/pluginhost"
	"github.com/rtsyn-dev/rtsyn/internal/registry"
	"github.com/rtsyn-dev/rtsyn/internal/rtbackend"
)

const httpShutdownTimeout = 5 * time.Second

// pluginRescanSchedule drives a background pass over --plugin-dir to
// pick up manifests dropped in by something other than the control
// plane's install path (spec §6's "refresh"). It is the only path that
// installs new manifests: the fsnotify watcher (internal/pluginhost.Watcher)
// reacts to changed library files by restarting plugins of an already
// registered kind, and does not rescan.
const pluginRescanSchedule = "@every 1m"

func newRunCommand() *cobra.Command {
	var httpAddr, metricsAddr, pluginDir, registryPath string
	var periodSeconds float64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the engine, control-plane bridge, and metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfgFile, httpAddr, metricsAddr, pluginDir, registryPath, periodSeconds)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8421", "HTTP control-plane listen address")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9421", "Prometheus /metrics listen address")
	cmd.Flags().StringVar(&pluginDir, "plugin-dir", "./plugins", "directory scanned for plugin manifests")
	cmd.Flags().StringVar(&registryPath, "registry-path", "./rtsynd-plugins.json", "installed-plugins registry JSON path")
	cmd.Flags().Float64Var(&periodSeconds, "period-seconds", 0.001, "scheduler tick period in seconds")

	_ = v.BindPFlag("http_addr", cmd.Flags().Lookup("http-addr"))
	_ = v.BindPFlag("metrics_addr", cmd.Flags().Lookup("metrics-addr"))
	_ = v.BindPFlag("plugin_dir", cmd.Flags().Lookup("plugin-dir"))
	_ = v.BindPFlag("registry_path", cmd.Flags().Lookup("registry-path"))
	_ = v.BindPFlag("period_seconds", cmd.Flags().Lookup("period-seconds"))
	return cmd
}

func runServe(cfgPath, httpAddr, metricsAddr, pluginDir, registryPath string, periodSeconds float64) error {
	cfg, err := config.Load(v, cfgPath)
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	reg, err := registry.Open(cfg.RegistryPath)
	if err != nil {
		return err
	}
	loader := pluginhost.NewLoader(reg)

	promReg := prometheus.NewRegistry()
	collectors := metrics.NewCollectors(promReg)

	sched := engine.NewScheduler(loader,
		engine.WithPacer(rtbackend.New()),
		engine.WithHooks(collectors.Hooks()),
		engine.WithLogger(log),
		engine.WithInitialSettings(cfg.Workspace.Settings),
	)

	cp := controlplane.New(cfg.HTTPAddr, sched.Control(), engine.NewStateSync(sched.Snapshots()), cfg.JWTSecret, log)

	if err := os.MkdirAll(cfg.PluginDir, 0o755); err != nil {
		return fmt.Errorf("create plugin directory %s: %w", cfg.PluginDir, err)
	}
	watcher, err := pluginhost.NewWatcher([]string{cfg.PluginDir}, func(libraryPath string) {
		var changedKind string
		for _, rec := range reg.List() {
			if rec.LibraryPath == libraryPath {
				changedKind = rec.Manifest.Kind
				break
			}
		}
		if changedKind == "" {
			return
		}
		wsReply := make(chan engine.Reply, 1)
		sched.Control() <- engine.QueryWorkspaceMsg{Reply: wsReply}
		r := <-wsReply
		ws, ok := r.Value.(engine.Workspace)
		if r.Err != nil || !ok {
			return
		}
		for _, p := range ws.Plugins {
			if p.Kind != changedKind {
				continue
			}
			restartReply := make(chan engine.Reply, 1)
			sched.Control() <- engine.RestartPluginMsg{ID: p.ID, Reply: restartReply}
			<-restartReply
		}
	}, log)
	if err != nil {
		return fmt.Errorf("start plugin library watcher: %w", err)
	}
	defer watcher.Close()

	housekeeping := cron.New()
	_, err = housekeeping.AddFunc(pluginRescanSchedule, func() {
		added, err := reg.Scan(cfg.PluginDir)
		if err != nil {
			log.Warn("plugin directory rescan failed", "error", err)
			return
		}
		if len(added) > 0 {
			log.Info("plugin directory rescan installed new kinds", "kinds", added)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule plugin rescan: %w", err)
	}
	housekeeping.Start()
	defer housekeeping.Stop()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	errs := make(chan error, 3)
	go func() { errs <- sched.Run() }()
	go func() { errs <- cp.ListenAndServe() }()
	go func() { errs <- metricsSrv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		replyCh := make(chan engine.Reply, 1)
		sched.Control() <- engine.ShutdownMsg{Reply: replyCh}
		<-replyCh
		ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		_ = cp.Shutdown(ctx)
		_ = metricsSrv.Shutdown(ctx)
		return nil
	case err := <-errs:
		return err
	}
}
