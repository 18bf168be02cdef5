// Package rtbackend elevates the scheduler's OS thread to a real-time
// scheduling class, pins it to the configured CPU set, and sleeps it to
// a precise per-tick deadline (spec §4.8, component C8). It implements
// engine.Pacer without importing engine, the same structural-typing
// convention used throughout this module.
package rtbackend

import "time"

// Backend is the platform-specific half of Pacer; New picks the right
// one for GOOS at compile time.
type Backend interface {
	Prepare(cores []int) error
	SleepUntil(deadline time.Time) (overrun time.Duration)
}

// New returns the platform backend (Linux: SCHED_FIFO + sched_setaffinity
// via raw syscalls; everywhere else: a portable fallback with no
// priority/affinity control).
func New() Backend {
	return newPlatformBackend()
}
