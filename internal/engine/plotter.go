package engine

import (
	"math"
	"sync"
	"time"
)

// Sample is one (time, value) point appended to a Plotter trace.
type Sample struct {
	TimeSeconds float64
	Value       float64
}

// Plotter is a bounded ring buffer of Samples for one plugin output,
// paced by the workspace's ui_hz rather than the engine's tick rate
// (spec §4, component C9): a 1 MHz engine does not try to push a point
// per tick to a 60 Hz UI.
type Plotter struct {
	mu           sync.Mutex
	cap          int
	buf          []Sample
	start        int
	count        int
	lastPushedAt time.Time
	refresh      time.Duration
}

// sampleCap implements spec §4's bound: max(128, min(20000, 2*ceil(ui_interval/period))).
func sampleCap(periodSeconds, uiHz float64) int {
	if uiHz <= 0 {
		uiHz = 60
	}
	if periodSeconds <= 0 {
		periodSeconds = 0.001
	}
	uiInterval := 1.0 / uiHz
	n := 2 * int(math.Ceil(uiInterval/periodSeconds))
	if n < 128 {
		return 128
	}
	if n > 20000 {
		return 20000
	}
	return n
}

// NewPlotter sizes the ring buffer from the workspace's current period
// and ui_hz, and paces pushes at the same ui_hz.
func NewPlotter(periodSeconds, uiHz float64) *Plotter {
	if uiHz <= 0 {
		uiHz = 60
	}
	cap := sampleCap(periodSeconds, uiHz)
	return &Plotter{
		cap:     cap,
		buf:     make([]Sample, cap),
		refresh: time.Duration(float64(time.Second) / uiHz),
	}
}

// Push appends a sample, dropping the oldest one once the ring is full.
// It is a no-op if called before the pacing interval has elapsed since
// the last accepted sample, so a plotter fed from a fast engine only
// ever grows at ui_hz.
func (p *Plotter) Push(now time.Time, s Sample) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.lastPushedAt.IsZero() && now.Sub(p.lastPushedAt) < p.refresh {
		return
	}
	p.lastPushedAt = now

	idx := (p.start + p.count) % p.cap
	p.buf[idx] = s
	if p.count < p.cap {
		p.count++
	} else {
		p.start = (p.start + 1) % p.cap
	}
}

// Samples returns the buffered samples in chronological order.
func (p *Plotter) Samples() []Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Sample, p.count)
	for i := 0; i < p.count; i++ {
		out[i] = p.buf[(p.start+i)%p.cap]
	}
	return out
}

// Drain returns the buffered samples in chronological order and empties
// the ring, so the next batch a caller reads holds only samples pushed
// since this call.
func (p *Plotter) Drain() []Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Sample, p.count)
	for i := 0; i < p.count; i++ {
		out[i] = p.buf[(p.start+i)%p.cap]
	}
	p.start = 0
	p.count = 0
	return out
}

// Resize rebuilds the buffer for a new period/ui_hz pair, keeping as
// many of the most recent samples as fit in the new capacity.
func (p *Plotter) Resize(periodSeconds, uiHz float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if uiHz <= 0 {
		uiHz = 60
	}
	newCap := sampleCap(periodSeconds, uiHz)
	existing := make([]Sample, p.count)
	for i := 0; i < p.count; i++ {
		existing[i] = p.buf[(p.start+i)%p.cap]
	}
	if len(existing) > newCap {
		existing = existing[len(existing)-newCap:]
	}
	p.cap = newCap
	p.buf = make([]Sample, newCap)
	copy(p.buf, existing)
	p.start = 0
	p.count = len(existing)
	p.refresh = time.Duration(float64(time.Second) / uiHz)
}
