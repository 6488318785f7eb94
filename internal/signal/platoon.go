// Package signal implements the per-intersection signal controller: platoon
// detection over approaching traffic, a heuristic phase predictor, the
// guardian safety checks gating any phase change, and the green timing plan.
package signal

import (
	"github.com/banshee-data/intersect.report/internal/network"
	"github.com/banshee-data/intersect.report/internal/units"
)

// DetectPlatoons aggregates the vehicles approaching an intersection into
// per-direction platoons: a vehicle count plus count-weighted distance and
// speed estimates. Vehicles already queued at the stop line join their
// direction's platoon at distance zero, so standing demand keeps exerting
// pressure.
func DetectPlatoons(st *network.State, intersectionID string) []network.Platoon {
	type acc struct {
		count    int
		sumDist  float64
		sumSpeed float64
	}
	byDir := make(map[network.Direction]*acc)

	add := func(dir network.Direction, dist, speedKmh float64) {
		a := byDir[dir]
		if a == nil {
			a = &acc{}
			byDir[dir] = a
		}
		a.count++
		a.sumDist += dist
		a.sumSpeed += speedKmh
	}

	for _, r := range st.RoadsInto(intersectionID) {
		for _, vid := range st.VehicleIDs() {
			v := st.Vehicles[vid]
			if v.RoadID != r.ID || len(v.Route) == 0 {
				continue
			}
			add(r.Direction, v.Route[0].RemainingM, v.SpeedKmh)
		}
	}

	if q := st.Queues[intersectionID]; q != nil {
		for _, dir := range network.Directions {
			for _, vid := range q.Get(dir) {
				v, ok := st.Vehicles[vid]
				if !ok {
					continue
				}
				add(dir, 0, v.SpeedKmh)
			}
		}
	}

	var platoons []network.Platoon
	for _, dir := range network.Directions {
		a := byDir[dir]
		if a == nil {
			continue
		}
		avgDist := a.sumDist / float64(a.count)
		avgSpeed := a.sumSpeed / float64(a.count)
		platoons = append(platoons, network.Platoon{
			Direction:    dir,
			VehicleCount: a.count,
			AvgDistanceM: avgDist,
			AvgSpeedKmh:  avgSpeed,
			ETASeconds:   etaSeconds(avgDist, avgSpeed),
		})
	}
	return platoons
}

// etaSeconds estimates arrival time from a count-weighted distance and
// speed. Zero or crawling speeds floor at 1 m/s so the estimate stays
// finite.
func etaSeconds(distM, speedKmh float64) float64 {
	mps := units.KmhToMps(speedKmh)
	if mps < 1 {
		mps = 1
	}
	return distM / mps
}

// Pressure is the demand on one phase axis: the sum over its platoons of
// vehicleCount / max(eta, 1).
func Pressure(platoons []network.Platoon, axis network.Axis) float64 {
	var p float64
	for _, pl := range platoons {
		if pl.Direction.Axis() != axis {
			continue
		}
		eta := pl.ETASeconds
		if eta < 1 {
			eta = 1
		}
		p += float64(pl.VehicleCount) / eta
	}
	return p
}

// EarliestETA returns the smallest platoon ETA on the given axis, and false
// when the axis has no platoons.
func EarliestETA(platoons []network.Platoon, axis network.Axis) (float64, bool) {
	best := 0.0
	found := false
	for _, pl := range platoons {
		if pl.Direction.Axis() != axis {
			continue
		}
		if !found || pl.ETASeconds < best {
			best = pl.ETASeconds
			found = true
		}
	}
	return best, found
}

// AxisLoad sums platoon vehicle counts on the given axis.
func AxisLoad(platoons []network.Platoon, axis network.Axis) int {
	var load int
	for _, pl := range platoons {
		if pl.Direction.Axis() == axis {
			load += pl.VehicleCount
		}
	}
	return load
}
