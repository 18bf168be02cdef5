package engine

import (
	"log/slog"
	"time"

	"github.com/rtsyn-dev/rtsyn/pkg/rtplugin"
)

// Loader constructs and introspects plugin instances for a kind name. It
// is declared in engine (like Instance) so internal/pluginhost's
// concrete loader satisfies it structurally without importing engine.
type Loader interface {
	Load(kind string, config map[string]any) (Instance, error)
	Metadata(kind string) (rtplugin.Metadata, error)
	Behavior(kind string, libraryPath string) (rtplugin.Behavior, error)
}

// Pacer elevates the calling OS thread's scheduling class and sleeps the
// hot loop to a precise per-tick deadline (spec §5, component C8). A nil
// Pacer degrades to plain time.Sleep with no priority/affinity request.
type Pacer interface {
	Prepare(cores []int) error
	SleepUntil(deadline time.Time) (overrun time.Duration)
}

// Hooks lets an observer (metrics, logging) watch the hot loop without
// the scheduler importing anything outside engine. Every field is
// optional.
type Hooks struct {
	OnTick         func(tick uint64, dur time.Duration)
	OnOverrun      func(tick uint64, overrun time.Duration)
	OnPluginsRunning func(n int)
	OnSnapshotEmit func()
	OnSnapshotDrop func()
	OnRuntimeError func(*RuntimeError)
}

type pluginState struct {
	def      PluginDefinition
	instance Instance
}

// Scheduler owns the workspace, the loaded instances, and the hot tick
// loop (spec §5, component C5). A Scheduler is single-owner: only the
// goroutine running Run ever touches instances/cache/order; every other
// interaction goes through the control channel.
type Scheduler struct {
	loader   Loader
	freelist *Freelist
	pacer    Pacer
	hooks    Hooks
	log      *slog.Logger

	workspace Workspace
	instances map[PluginID]pluginState
	declared  map[PluginID][]string
	cache     *ConnectionCache
	order     Order
	plotters  map[PluginID]map[string]*Plotter

	control  chan ControlMessage
	snapshot chan Snapshot

	tick           uint64
	lastSnapshotAt time.Time
}

// Option configures a Scheduler at construction time (functional-options
// pattern, matching the teacher's scheduler options surface).
type Option func(*Scheduler)

func WithPacer(p Pacer) Option                { return func(s *Scheduler) { s.pacer = p } }
func WithHooks(h Hooks) Option                { return func(s *Scheduler) { s.hooks = h } }
func WithLogger(l *slog.Logger) Option        { return func(s *Scheduler) { s.log = l } }
func WithControlBuffer(n int) Option          { return func(s *Scheduler) { s.control = make(chan ControlMessage, n) } }
func WithSnapshotBuffer(n int) Option         { return func(s *Scheduler) { s.snapshot = make(chan Snapshot, n) } }
func WithInitialSettings(st Settings) Option  { return func(s *Scheduler) { s.workspace.Settings = st } }

// NewScheduler constructs an idle Scheduler with an empty workspace.
// Submit an UpdateWorkspaceMsg on Control() to populate it.
func NewScheduler(loader Loader, opts ...Option) *Scheduler {
	s := &Scheduler{
		loader:    loader,
		freelist:  NewFreelist(),
		log:       slog.Default(),
		workspace: Workspace{Settings: DefaultSettings()},
		instances: make(map[PluginID]pluginState),
		declared:  make(map[PluginID][]string),
		cache:     BuildConnectionCache(nil, nil),
		plotters:  make(map[PluginID]map[string]*Plotter),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.control == nil {
		s.control = make(chan ControlMessage, 64)
	}
	if s.snapshot == nil {
		s.snapshot = make(chan Snapshot, 4)
	}
	return s
}

// Control returns the channel UI-facing transports send ControlMessages
// on.
func (s *Scheduler) Control() chan<- ControlMessage { return s.control }

// Snapshots returns the channel the state-sync consumer reads from. The
// scheduler never blocks sending to it (spec §4, component C7): a full
// channel means the reader is slow, and that snapshot is dropped (the
// tick itself still runs) rather than stalling the engine.
func (s *Scheduler) Snapshots() <-chan Snapshot { return s.snapshot }

// Run executes the hot loop until a ShutdownMsg is processed or ctx-free
// deadline is requested; callers typically run it on its own goroutine.
// A *RuntimeError from any plugin's Process call is fatal: Run tears
// every instance down and returns the error (spec §7).
func (s *Scheduler) Run() error {
	if s.pacer != nil {
		if err := s.pacer.Prepare(s.workspace.Settings.Cores); err != nil {
			s.log.Warn("pacer prepare failed, continuing unprivileged", "error", err)
		}
	}

	period := s.periodDuration()
	deadline := time.Now().Add(period)

	for {
		shutdown, err := s.drainControl()
		if err != nil {
			s.teardownAll()
			return err
		}
		if shutdown {
			s.teardownAll()
			return nil
		}

		s.tick++
		start := time.Now()
		if rerr := s.evaluateTick(); rerr != nil {
			s.teardownAll()
			if s.hooks.OnRuntimeError != nil {
				s.hooks.OnRuntimeError(rerr)
			}
			return rerr
		}
		dur := time.Since(start)
		if s.hooks.OnTick != nil {
			s.hooks.OnTick(s.tick, dur)
		}
		if s.snapshotDue(start) {
			s.emitSnapshot()
			s.lastSnapshotAt = start
		}

		period = s.periodDuration()
		deadline = deadline.Add(period)
		if deadline.Before(start) {
			// we are already behind; resynchronize instead of
			// accumulating an ever-growing backlog of instant ticks.
			deadline = start.Add(period)
		}

		if s.workspace.Settings.TimingMode == TimingAsFastAsPossible {
			continue
		}
		var overrun time.Duration
		if s.pacer != nil {
			overrun = s.pacer.SleepUntil(deadline)
		} else {
			if d := time.Until(deadline); d > 0 {
				time.Sleep(d)
			} else {
				overrun = -d
			}
		}
		if overrun > 0 && s.hooks.OnOverrun != nil {
			s.hooks.OnOverrun(s.tick, overrun)
		}
	}
}

func (s *Scheduler) periodDuration() time.Duration {
	p := s.workspace.Settings.PeriodSeconds
	if p <= 0 {
		p = 0.001
	}
	return time.Duration(p * float64(time.Second))
}

// evaluateTick runs one pass over the execution order, feeding every
// plugin its fan-in sums (even a stopped one, so it still "sees its
// environment") and calling Process on the ones currently running.
func (s *Scheduler) evaluateTick() (rerr *RuntimeError) {
	defer func() {
		if r := recover(); r != nil {
			rerr = &RuntimeError{Err: panicToError(r)}
		}
	}()

	now := time.Now()
	period := s.workspace.Settings.PeriodSeconds
	timeSeconds := float64(s.tick) * period
	for _, id := range s.order.Sequence {
		st, ok := s.instances[id]
		if !ok {
			continue
		}
		inst := st.instance
		for idx, port := range s.cache.ActiveSlots(id) {
			v := s.cache.Sum(id, port, s.readOutput)
			inst.SetInput(idx, port, v)
		}
		if st.def.Running {
			inst.Process(s.tick, period)
		}

		ports := s.plotters[id]
		for idx, name := range inst.Outputs() {
			plotter, ok := ports[name]
			if !ok {
				continue
			}
			v := 0.0
			if st.def.Running {
				v = inst.GetOutput(idx, name)
			}
			plotter.Push(now, Sample{TimeSeconds: timeSeconds, Value: v})
		}
	}
	return nil
}

// readOutput is the fan-in cache's value source for a (plugin, port)
// pair. A stopped plugin reads as zero here, same as in a snapshot, so a
// stopped producer zeros every downstream sum it feeds (its own inputs
// are still observed and delivered via SetInput above).
func (s *Scheduler) readOutput(plugin PluginID, port string) float64 {
	st, ok := s.instances[plugin]
	if !ok || !st.def.Running {
		return 0
	}
	for idx, name := range st.instance.Outputs() {
		if name == port {
			return st.instance.GetOutput(idx, name)
		}
	}
	return 0
}

// snapshotDue reports whether enough wall-clock time has passed since
// the last emitted snapshot to honor the workspace's ui_hz, falling back
// to once a second when ui_hz is unset or non-positive. The very first
// snapshot is always due.
func (s *Scheduler) snapshotDue(now time.Time) bool {
	if s.lastSnapshotAt.IsZero() {
		return true
	}
	uiHz := s.workspace.Settings.UIHz
	if uiHz <= 0 {
		uiHz = 1
	}
	interval := time.Duration(float64(time.Second) / uiHz)
	return now.Sub(s.lastSnapshotAt) >= interval
}

// emitSnapshot builds and pushes the state-sync bundle for the current
// tick. It is gated by snapshotDue, not called on every tick, so it also
// owns draining the plugins' plotters: each plotter only ever holds the
// samples pushed since the previous drain.
func (s *Scheduler) emitSnapshot() {
	snap := Snapshot{
		Tick:        s.tick,
		TimeSeconds: float64(s.tick) * s.workspace.Settings.PeriodSeconds,
		Viewer:      map[PluginID]float64{},
		Plots:       map[PluginID]map[string][]Sample{},
	}
	running := 0
	for _, id := range s.order.Sequence {
		st := s.instances[id]
		if st.def.Running {
			running++
		}
		ps := PluginSnapshot{ID: id, Running: st.def.Running, Outputs: map[string]float64{}, Inputs: map[string]float64{}}
		for idx, name := range st.instance.Outputs() {
			v := 0.0
			if st.def.Running {
				v = st.instance.GetOutput(idx, name)
			}
			ps.Outputs[name] = v
			if idx == 0 {
				snap.Viewer[id] = v
			}
		}
		for _, port := range s.cache.ActiveSlots(id) {
			ps.Inputs[port] = s.cache.Sum(id, port, s.readOutput)
		}
		if vars := st.instance.InternalVariables(); len(vars) > 0 {
			ps.Variables = make(map[string]any, len(vars))
			for _, name := range vars {
				if v, ok := st.instance.GetInternalVariable(0, name); ok {
					ps.Variables[name] = v
				}
			}
		}
		snap.Plugins = append(snap.Plugins, ps)

		if batch := s.drainPlotters(id); len(batch) > 0 {
			snap.Plots[id] = batch
		}
	}

	if s.hooks.OnPluginsRunning != nil {
		s.hooks.OnPluginsRunning(running)
	}

	select {
	case s.snapshot <- snap:
		if s.hooks.OnSnapshotEmit != nil {
			s.hooks.OnSnapshotEmit()
		}
	default:
		if s.hooks.OnSnapshotDrop != nil {
			s.hooks.OnSnapshotDrop()
		}
	}
}

func (s *Scheduler) drainPlotters(id PluginID) map[string][]Sample {
	ports := s.plotters[id]
	if len(ports) == 0 {
		return nil
	}
	batch := make(map[string][]Sample, len(ports))
	for port, plotter := range ports {
		if samples := plotter.Drain(); len(samples) > 0 {
			batch[port] = samples
		}
	}
	return batch
}

func (s *Scheduler) teardownAll() {
	for _, st := range s.instances {
		st.instance.Destroy()
	}
	s.instances = make(map[PluginID]pluginState)
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &recoveredPanic{r}
}

type recoveredPanic struct{ v any }

func (p *recoveredPanic) Error() string { return "panic: " + toString(p.v) }

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "non-string panic value"
}
