// Package coordinate applies the cross-intersection heuristics layered on
// top of the per-intersection controllers: green-wave phase offsetting
// between road-connected neighbours, and a corridor-pressure override that
// supersedes a single intersection's recommendation.
package coordinate

import (
	"math"

	"github.com/banshee-data/intersect.report/internal/config"
	"github.com/banshee-data/intersect.report/internal/network"
	"github.com/banshee-data/intersect.report/internal/units"
)

// Adjustment records one coordinator intervention for the event log.
type Adjustment struct {
	Kind           network.EventKind
	IntersectionID string
	Message        string
}

// Apply mutates the tick's decisions in place and returns the adjustments
// made. decisions maps intersection id to that intersection's controller
// output; entries may be nil for inactive intersections.
//
// Corridor overrides run after the green wave so a saturated axis wins over
// a progression tweak.
func Apply(st *network.State, decisions map[string]*network.AIDecision, cfg *config.TuningConfig) []Adjustment {
	var adjustments []Adjustment
	adjustments = append(adjustments, greenWave(st, decisions, cfg)...)
	adjustments = append(adjustments, corridorOverride(st, decisions, cfg)...)
	return adjustments
}

// greenWave looks for road-connected pairs proposing the same phase whose
// remaining phase times already differ by roughly the travel time between
// them at the assumed coordination speed. Extending the upstream green a
// little then lets a departing platoon arrive on green downstream.
func greenWave(st *network.State, decisions map[string]*network.AIDecision, cfg *config.TuningConfig) []Adjustment {
	coordMps := units.KmhToMps(cfg.GetCoordinationSpeedKmh())
	if coordMps <= 0 {
		return nil
	}
	tolerance := cfg.GetGreenWaveToleranceSeconds()
	extension := cfg.GetGreenWaveExtensionSeconds()

	var adjustments []Adjustment
	for _, rid := range st.RoadIDs() {
		r := st.Roads[rid]
		up := decisions[r.From]
		down := decisions[r.To]
		if up == nil || down == nil {
			continue
		}
		if up.Recommended == network.ActionHold || up.Recommended != down.Recommended {
			continue
		}
		upIC, okUp := st.Intersections[r.From]
		downIC, okDown := st.Intersections[r.To]
		if !okUp || !okDown {
			continue
		}

		travelS := r.LengthM / coordMps
		offset := math.Abs(upIC.Signal.TimeRemaining - downIC.Signal.TimeRemaining)
		if math.Abs(offset-travelS) > tolerance {
			continue
		}

		up.Plan.DurationS += extension
		up.Plan.EndS += extension
		adjustments = append(adjustments, Adjustment{
			Kind:           network.EventGreenWave,
			IntersectionID: r.From,
			Message:        "green wave extension toward " + r.To,
		})
	}
	return adjustments
}

// corridorOverride forces an axis whose pressure exceeds the corridor
// threshold, flooring the green duration, regardless of what the predictor
// proposed. The guardian's verdict still stands: an unapproved decision
// stays unapproved, the override only redirects what would be applied.
func corridorOverride(st *network.State, decisions map[string]*network.AIDecision, cfg *config.TuningConfig) []Adjustment {
	threshold := cfg.GetCorridorPressureThreshold()
	floor := cfg.GetCorridorMinGreenSeconds()

	var adjustments []Adjustment
	for _, id := range st.IntersectionIDs() {
		d := decisions[id]
		if d == nil {
			continue
		}

		var forced network.Action
		switch {
		case d.Pressure.NS >= threshold && d.Pressure.NS >= d.Pressure.EW:
			forced = network.ActionNS
		case d.Pressure.EW >= threshold:
			forced = network.ActionEW
		default:
			continue
		}
		if d.Recommended == forced {
			// Already pointing the right way; still enforce the floor.
			if d.Plan.DurationS < floor {
				d.Plan.EndS += floor - d.Plan.DurationS
				d.Plan.DurationS = floor
			}
			continue
		}

		d.Recommended = forced
		if d.Plan.DurationS < floor {
			d.Plan.EndS += floor - d.Plan.DurationS
			d.Plan.DurationS = floor
		}
		adjustments = append(adjustments, Adjustment{
			Kind:           network.EventCorridorOverride,
			IntersectionID: id,
			Message:        "corridor pressure forced " + string(forced),
		})
	}
	return adjustments
}
