// Package metrics exposes the scheduler's hot-loop health as Prometheus
// collectors (spec §4.14, component C14): tick duration, deadline
// overruns, the count of currently-running plugins, and state-sync
// snapshot emit/drop counts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rtsyn-dev/rtsyn/internal/engine"
)

// Collectors bundles every metric the scheduler's engine.Hooks report
// into, registered against a single prometheus.Registerer.
type Collectors struct {
	TickDuration    prometheus.Histogram
	Overruns        prometheus.Counter
	OverrunSeconds  prometheus.Histogram
	PluginsRunning  prometheus.Gauge
	SnapshotsEmitted prometheus.Counter
	SnapshotsDropped prometheus.Counter
	RuntimeErrors   prometheus.Counter
}

// NewCollectors registers every metric against reg and returns the
// bundle.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rtsyn",
			Subsystem: "scheduler",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of one evaluateTick pass.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 2, 20),
		}),
		Overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtsyn",
			Subsystem: "scheduler",
			Name:      "tick_overruns_total",
			Help:      "Number of ticks whose deadline was missed.",
		}),
		OverrunSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rtsyn",
			Subsystem: "scheduler",
			Name:      "tick_overrun_seconds",
			Help:      "Magnitude of missed tick deadlines.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 2, 20),
		}),
		PluginsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rtsyn",
			Subsystem: "scheduler",
			Name:      "plugins_running",
			Help:      "Number of plugins currently in the running state.",
		}),
		SnapshotsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtsyn",
			Subsystem: "statesync",
			Name:      "snapshots_emitted_total",
			Help:      "Snapshots successfully handed to the state-sync channel.",
		}),
		SnapshotsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtsyn",
			Subsystem: "statesync",
			Name:      "snapshots_dropped_total",
			Help:      "Snapshots dropped because the state-sync consumer was slow.",
		}),
		RuntimeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtsyn",
			Subsystem: "scheduler",
			Name:      "runtime_errors_total",
			Help:      "Fatal plugin runtime errors observed.",
		}),
	}
	reg.MustRegister(c.TickDuration, c.Overruns, c.OverrunSeconds, c.PluginsRunning,
		c.SnapshotsEmitted, c.SnapshotsDropped, c.RuntimeErrors)
	return c
}

// Hooks adapts Collectors to engine.Hooks.
func (c *Collectors) Hooks() engine.Hooks {
	return engine.Hooks{
		OnTick: func(_ uint64, dur time.Duration) {
			c.TickDuration.Observe(dur.Seconds())
		},
		OnOverrun: func(_ uint64, overrun time.Duration) {
			c.Overruns.Inc()
			c.OverrunSeconds.Observe(overrun.Seconds())
		},
		OnPluginsRunning: func(n int) {
			c.PluginsRunning.Set(float64(n))
		},
		OnSnapshotEmit: func() {
			c.SnapshotsEmitted.Inc()
		},
		OnSnapshotDrop: func() {
			c.SnapshotsDropped.Inc()
		},
		OnRuntimeError: func(*engine.RuntimeError) {
			c.RuntimeErrors.Inc()
		},
	}
}
