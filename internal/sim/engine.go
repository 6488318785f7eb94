// Package sim is the tick orchestrator. One engine owns one network state
// and advances it on a single goroutine: spawning, vehicle movement, the
// per-intersection controllers, cross-intersection coordination, signal
// timers, and metrics all run inside the tick, so no stage ever observes a
// half-updated state. External callers interact through the mutex-guarded
// methods and receive deep state copies.
package sim

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/banshee-data/intersect.report/internal/aggregate"
	"github.com/banshee-data/intersect.report/internal/config"
	"github.com/banshee-data/intersect.report/internal/coordinate"
	"github.com/banshee-data/intersect.report/internal/monitoring"
	"github.com/banshee-data/intersect.report/internal/network"
	"github.com/banshee-data/intersect.report/internal/queue"
	"github.com/banshee-data/intersect.report/internal/signal"
)

// Options configures a new engine.
type Options struct {
	// Layout selects the starting topology. Empty means the 2x2 grid.
	Layout string
	// Seed initialises the engine's single rng. Equal seeds over equal
	// inputs replay the same run.
	Seed int64
	// OnStateUpdate, when set, receives a deep copy of the state after
	// every tick. It is called outside the engine lock.
	OnStateUpdate func(*network.State)
}

// Engine drives the simulation.
type Engine struct {
	mu          sync.Mutex
	cfg         *config.TuningConfig
	st          *network.State
	controllers []*signal.Controller // indexed by Intersection.Index
	rng         *rand.Rand
	healthy     bool
	onState     func(*network.State)

	stop chan struct{}
	done chan struct{}
}

// New builds an engine over a fresh topology. The provided config is shared
// with every controller; nil means defaults.
func New(cfg *config.TuningConfig, opts Options) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	layout := opts.Layout
	if layout == "" {
		layout = network.LayoutGrid2x2
	}
	st, err := network.BuildLayout(layout)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		st:      st,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		healthy: true,
		onState: opts.OnStateUpdate,
	}
	e.rebuildControllers()
	return e, nil
}

// rebuildControllers resyncs the controller slice with the current
// intersections. Called under the lock after every topology edit; learned
// predictor state does not survive the rebuild.
func (e *Engine) rebuildControllers() {
	e.controllers = make([]*signal.Controller, len(e.st.Intersections))
	for _, id := range e.st.IntersectionIDs() {
		ic := e.st.Intersections[id]
		e.controllers[ic.Index] = signal.NewController(id, e.cfg, e.rng)
	}
}

// Start launches the tick loop. Starting a running engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.st.Running {
		e.mu.Unlock()
		return
	}
	e.st.Running = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	stop, done := e.stop, e.done
	e.mu.Unlock()

	go e.run(stop, done)
}

// Stop halts the tick loop and blocks until the in-flight tick finishes.
// Network state is retained, so a later Start resumes from where the run
// stopped, but controller instances are discarded and any adapted
// predictor scores reset with them.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.st.Running {
		e.mu.Unlock()
		return
	}
	e.st.Running = false
	stop, done := e.stop, e.done
	e.stop, e.done = nil, nil
	e.mu.Unlock()

	close(stop)
	<-done

	e.mu.Lock()
	e.rebuildControllers()
	e.mu.Unlock()
}

func (e *Engine) run(stop, done chan struct{}) {
	defer close(done)
	for {
		timer := time.NewTimer(e.tickInterval())
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
			e.Tick()
		}
	}
}

func (e *Engine) tickInterval() time.Duration {
	e.mu.Lock()
	speed := e.st.Speed
	e.mu.Unlock()
	if speed <= 0 {
		speed = 1
	}
	base := time.Duration(e.cfg.GetBaseTickMs()) * time.Millisecond
	return time.Duration(float64(base) / speed)
}

// SetSpeed adjusts the tick cadence multiplier. Values outside (0, 10] are
// rejected so a bad caller cannot stall or spin the loop.
func (e *Engine) SetSpeed(speed float64) error {
	if speed <= 0 || speed > 10 {
		return fmt.Errorf("speed %v out of range (0, 10]", speed)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.st.Speed = speed
	return nil
}

// SetHealthy flips the system health flag consumed by every controller's
// guardian. While unhealthy, all signals hold their current phase.
func (e *Engine) SetHealthy(healthy bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.healthy = healthy
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *network.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.Clone()
}

// Tick advances the simulation by exactly one step. It is the same code
// path the Start loop drives, exposed so headless runs and tests can step
// deterministically.
func (e *Engine) Tick() {
	e.mu.Lock()
	e.step()
	var snap *network.State
	cb := e.onState
	if cb != nil {
		snap = e.st.Clone()
	}
	e.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// step runs the tick stages in a fixed order. Queue releases happen in the
// signal-advance stage, after movement, so a released vehicle crosses on
// the following tick and its wait no longer accrues on the release tick.
func (e *Engine) step() {
	e.st.TickCount++
	e.st.SimTimeS = float64(e.st.TickCount) * e.cfg.GetTickSeconds()

	e.autoSpawn()
	e.moveVehicles()

	decisions := make(map[string]*network.AIDecision, len(e.controllers))
	for _, c := range e.controllers {
		decisions[c.IntersectionID] = c.Decide(e.st, e.st.SimTimeS, e.healthy)
	}
	for _, adj := range coordinate.Apply(e.st, decisions, e.cfg) {
		e.logEvent(network.Event{
			SimTimeS:       e.st.SimTimeS,
			Kind:           adj.Kind,
			Message:        adj.Message,
			IntersectionID: adj.IntersectionID,
		})
	}

	e.applyDecisions(decisions)
	e.advanceSignals()

	aggregate.Update(e.st, e.cfg)
	monitoring.Tracef("tick %d: %d vehicles, %d queued, congestion %s",
		e.st.TickCount, e.st.Metrics.VehicleCount, e.st.Metrics.TotalQueueLength, e.st.Metrics.Congestion)
}

// applyDecisions turns approved phase-change decisions into yellow
// transitions. The current green pair goes yellow for the clearance
// interval; the flip to the cross phase completes in advanceSignals.
func (e *Engine) applyDecisions(decisions map[string]*network.AIDecision) {
	yellow := e.cfg.GetYellowSeconds()
	for _, c := range e.controllers {
		dec := decisions[c.IntersectionID]
		if dec == nil || !dec.Approved || dec.Recommended == network.ActionHold {
			continue
		}
		ic := e.st.Intersections[c.IntersectionID]
		current := signal.CurrentAction(ic.Signal)
		if current == dec.Recommended || current == network.ActionHold {
			continue
		}

		switch current {
		case network.ActionNS:
			ic.Signal.NorthSouth = network.LightYellow
		case network.ActionEW:
			ic.Signal.EastWest = network.LightYellow
		}
		ic.Signal.TimeRemaining = yellow
		ic.Signal.NextPhaseEnd = e.st.SimTimeS + dec.Plan.StartS + yellow + dec.Plan.DurationS
		c.MarkChanged(e.st.SimTimeS)
		monitoring.Diagf("%s: yellow toward %s, green window %.1fs",
			c.IntersectionID, dec.Recommended, dec.Plan.DurationS)

		e.logEvent(network.Event{
			SimTimeS:       e.st.SimTimeS,
			Kind:           network.EventPhaseChange,
			Message:        fmt.Sprintf("phase change to %s (%.1fs green)", dec.Recommended, dec.Plan.DurationS),
			IntersectionID: c.IntersectionID,
		})
	}
}

// advanceSignals decrements the per-intersection phase timers and completes
// any yellow whose clearance interval has elapsed: the yellow pair goes
// red, the cross pair green, and that pair's approach queues are released.
func (e *Engine) advanceSignals() {
	ts := e.cfg.GetTickSeconds()
	for _, id := range e.st.IntersectionIDs() {
		ic := e.st.Intersections[id]
		sig := &ic.Signal
		if sig.TimeRemaining > 0 {
			sig.TimeRemaining -= ts
			if sig.TimeRemaining < 0 {
				sig.TimeRemaining = 0
			}
		}
		if !sig.InYellow() || sig.TimeRemaining > 0 {
			continue
		}

		var target network.Axis
		if sig.NorthSouth == network.LightYellow {
			sig.NorthSouth = network.LightRed
			sig.EastWest = network.LightGreen
			target = network.AxisEW
		} else {
			sig.EastWest = network.LightRed
			sig.NorthSouth = network.LightGreen
			target = network.AxisNS
		}
		remaining := sig.NextPhaseEnd - e.st.SimTimeS
		if remaining < 0 {
			remaining = 0
		}
		sig.TimeRemaining = remaining

		queue.Release(e.st, id, network.AxisDirections(target))
	}
}

func (e *Engine) logEvent(ev network.Event) {
	e.st.AppendEvent(ev, e.cfg.GetEventLogSize())
}
