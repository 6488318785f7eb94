package coordinate

import (
	"testing"

	"github.com/banshee-data/intersect.report/internal/config"
	"github.com/banshee-data/intersect.report/internal/network"
)

func grid(t *testing.T) *network.State {
	t.Helper()
	st, err := network.BuildLayout(network.LayoutGrid2x2)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func decision(action network.Action, durationS float64) *network.AIDecision {
	return &network.AIDecision{
		Recommended: action,
		Approved:    true,
		Plan:        network.TimingPlan{DurationS: durationS, EndS: durationS},
	}
}

func TestGreenWaveExtendsUpstream(t *testing.T) {
	st := grid(t)
	cfg := config.Default()

	// nw-ne is 500 m; at 50 km/h the platoon needs 36 s. Give the pair a
	// remaining-time offset matching that travel time. The reverse road is
	// dropped so only one of the pair counts as upstream.
	delete(st.Roads, "ne-nw")
	st.Intersections["nw"].Signal.TimeRemaining = 40
	st.Intersections["ne"].Signal.TimeRemaining = 4

	decisions := map[string]*network.AIDecision{
		"nw": decision(network.ActionEW, 20),
		"ne": decision(network.ActionEW, 20),
	}

	adjustments := Apply(st, decisions, cfg)

	found := false
	for _, a := range adjustments {
		if a.Kind == network.EventGreenWave && a.IntersectionID == "nw" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no green wave adjustment recorded: %+v", adjustments)
	}
	want := 20 + cfg.GetGreenWaveExtensionSeconds()
	if got := decisions["nw"].Plan.DurationS; got != want {
		t.Errorf("upstream duration = %v, want %v", got, want)
	}
	if got := decisions["ne"].Plan.DurationS; got != 20 {
		t.Errorf("downstream duration = %v, want untouched 20", got)
	}
}

func TestGreenWaveOutsideToleranceDoesNothing(t *testing.T) {
	st := grid(t)
	cfg := config.Default()

	st.Intersections["nw"].Signal.TimeRemaining = 40
	st.Intersections["ne"].Signal.TimeRemaining = 39 // offset 1s vs ~36s travel

	decisions := map[string]*network.AIDecision{
		"nw": decision(network.ActionEW, 20),
		"ne": decision(network.ActionEW, 20),
	}
	Apply(st, decisions, cfg)
	if got := decisions["nw"].Plan.DurationS; got != 20 {
		t.Errorf("duration changed outside tolerance: %v", got)
	}
}

func TestGreenWaveRequiresMatchingPhases(t *testing.T) {
	st := grid(t)
	cfg := config.Default()

	delete(st.Roads, "ne-nw")
	st.Intersections["nw"].Signal.TimeRemaining = 40
	st.Intersections["ne"].Signal.TimeRemaining = 4

	decisions := map[string]*network.AIDecision{
		"nw": decision(network.ActionEW, 20),
		"ne": decision(network.ActionNS, 20),
	}
	Apply(st, decisions, cfg)
	if got := decisions["nw"].Plan.DurationS; got != 20 {
		t.Errorf("duration changed for mismatched phases: %v", got)
	}
}

func TestCorridorOverrideForcesAxis(t *testing.T) {
	st := grid(t)
	cfg := config.Default()

	d := decision(network.ActionEW, 12)
	d.Pressure = network.PressurePair{NS: cfg.GetCorridorPressureThreshold() + 1, EW: 0.5}
	decisions := map[string]*network.AIDecision{"nw": d}

	adjustments := Apply(st, decisions, cfg)

	if d.Recommended != network.ActionNS {
		t.Fatalf("recommendation = %v, want forced NS", d.Recommended)
	}
	if d.Plan.DurationS != cfg.GetCorridorMinGreenSeconds() {
		t.Errorf("duration = %v, want floored %v", d.Plan.DurationS, cfg.GetCorridorMinGreenSeconds())
	}
	found := false
	for _, a := range adjustments {
		if a.Kind == network.EventCorridorOverride && a.IntersectionID == "nw" {
			found = true
		}
	}
	if !found {
		t.Errorf("no corridor override adjustment recorded: %+v", adjustments)
	}
}

func TestCorridorOverrideFloorsAlignedDecision(t *testing.T) {
	st := grid(t)
	cfg := config.Default()

	d := decision(network.ActionNS, 5)
	d.Pressure = network.PressurePair{NS: cfg.GetCorridorPressureThreshold() + 2}
	decisions := map[string]*network.AIDecision{"nw": d}

	Apply(st, decisions, cfg)
	if d.Recommended != network.ActionNS {
		t.Fatalf("aligned recommendation changed: %v", d.Recommended)
	}
	if d.Plan.DurationS != cfg.GetCorridorMinGreenSeconds() {
		t.Errorf("duration = %v, want floored %v", d.Plan.DurationS, cfg.GetCorridorMinGreenSeconds())
	}
}

func TestCorridorBelowThresholdUntouched(t *testing.T) {
	st := grid(t)
	cfg := config.Default()

	d := decision(network.ActionEW, 12)
	d.Pressure = network.PressurePair{NS: 1, EW: 2}
	decisions := map[string]*network.AIDecision{"nw": d}

	Apply(st, decisions, cfg)
	if d.Recommended != network.ActionEW || d.Plan.DurationS != 12 {
		t.Errorf("decision disturbed below threshold: %+v", d)
	}
}
