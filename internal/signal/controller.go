package signal

import (
	"math/rand"

	"github.com/banshee-data/intersect.report/internal/config"
	"github.com/banshee-data/intersect.report/internal/network"
)

// Controller is the per-intersection signal decision maker: predictor
// proposal, guardian validation, timing plan. Controllers live in a slice
// indexed by the intersection's stable Index and are rebuilt on topology
// edits; any adapted predictor state is discarded with them.
type Controller struct {
	IntersectionID string

	predictor   *Predictor
	cfg         *config.TuningConfig
	lastChangeS float64
}

// NewController builds a controller for one intersection. All controllers
// of an engine share one seeded rng so runs replay deterministically.
func NewController(intersectionID string, cfg *config.TuningConfig, rng *rand.Rand) *Controller {
	return &Controller{
		IntersectionID: intersectionID,
		cfg:            cfg,
		predictor: NewPredictor(PredictorConfig{
			LearningRate:     cfg.GetLearningRate(),
			ExplorationNoise: cfg.GetExplorationNoise(),
			PressureBonus:    cfg.GetPressureBonus(),
		}, rng),
	}
}

// CurrentAction maps a signal state to the action matching its green axis.
// Mid-yellow there is no green axis and the result is HOLD.
func CurrentAction(sig network.SignalState) network.Action {
	if axis, ok := sig.GreenAxis(); ok {
		if axis == network.AxisNS {
			return network.ActionNS
		}
		return network.ActionEW
	}
	return network.ActionHold
}

func actionAxis(a network.Action) (network.Axis, bool) {
	switch a {
	case network.ActionNS:
		return network.AxisNS, true
	case network.ActionEW:
		return network.AxisEW, true
	}
	return "", false
}

func opposite(a network.Action) network.Action {
	if a == network.ActionNS {
		return network.ActionEW
	}
	return network.ActionNS
}

// Decide runs one controller evaluation at simulation time nowS: detect
// platoons, score both phases, validate against the guardian, emit a timing
// plan. The decision is stored on the intersection and returned; it never
// mutates the signal itself, the engine applies approved transitions.
func (c *Controller) Decide(st *network.State, nowS float64, healthy bool) *network.AIDecision {
	ic, ok := st.Intersections[c.IntersectionID]
	if !ok || !ic.Active {
		return nil
	}

	platoons := DetectPlatoons(st, c.IntersectionID)
	ic.Platoons = platoons
	pressNS := Pressure(platoons, network.AxisNS)
	pressEW := Pressure(platoons, network.AxisEW)

	qNS, qEW, action := c.predictor.Recommend(pressNS, pressEW)

	elapsed := nowS - c.lastChangeS
	minElapsed := elapsed >= c.cfg.GetMinGreenSeconds()
	maxElapsed := elapsed >= c.cfg.GetMaxGreenSeconds()

	// Anti-starvation: once the maximum green has elapsed, a predictor that
	// keeps re-recommending the current phase is overruled and the cross
	// phase is forced, so zero-pressure approaches still get served.
	current := CurrentAction(ic.Signal)
	if maxElapsed && (action == current || action == network.ActionHold) && current != network.ActionHold {
		action = opposite(current)
	}

	checks := network.GuardianChecks{
		MinGreenElapsed:  minElapsed || maxElapsed,
		SafeToTransition: !ic.Signal.InYellow(),
		SystemHealthy:    healthy,
	}
	approved := checks.All()

	planAxis, _ := actionAxis(action)
	if planAxis == "" {
		if axis, ok := ic.Signal.GreenAxis(); ok {
			planAxis = axis
		} else {
			planAxis = network.AxisNS
		}
	}
	plan := c.timingPlan(platoons, planAxis)

	if !approved {
		action = network.ActionHold
	}

	decision := &network.AIDecision{
		QValueNS:    qNS,
		QValueEW:    qEW,
		Recommended: action,
		Checks:      checks,
		Approved:    approved,
		Plan:        plan,
		Pressure:    network.PressurePair{NS: pressNS, EW: pressEW},
	}
	ic.LastDecision = decision
	return decision
}

// timingPlan sizes the green window for an axis from its standing load:
// duration clamped between min and max green plus a fixed buffer, start
// pulled ahead of the earliest platoon by the lead time.
func (c *Controller) timingPlan(platoons []network.Platoon, axis network.Axis) network.TimingPlan {
	load := float64(AxisLoad(platoons, axis))

	duration := load / c.cfg.GetSaturationFlowRate()
	if min := c.cfg.GetMinGreenSeconds(); duration < min {
		duration = min
	}
	if max := c.cfg.GetMaxGreenSeconds(); duration > max {
		duration = max
	}
	duration += c.cfg.GetGreenBufferSeconds()

	start := 0.0
	if eta, ok := EarliestETA(platoons, axis); ok {
		start = eta - c.cfg.GetGreenLeadSeconds()
		if start < 0 {
			start = 0
		}
	}
	return network.TimingPlan{
		StartS:    start,
		DurationS: duration,
		EndS:      start + duration,
	}
}

// MarkChanged records an actually applied phase change. The engine calls it
// only when the signal really flips, so back-to-back HOLDs never reset the
// anti-flicker window.
func (c *Controller) MarkChanged(nowS float64) {
	c.lastChangeS = nowS
}

// LastChange returns the simulation time of the last applied phase change.
func (c *Controller) LastChange() float64 {
	return c.lastChangeS
}
