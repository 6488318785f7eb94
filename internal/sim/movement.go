package sim

import (
	"fmt"

	"github.com/banshee-data/intersect.report/internal/aggregate"
	"github.com/banshee-data/intersect.report/internal/monitoring"
	"github.com/banshee-data/intersect.report/internal/network"
	"github.com/banshee-data/intersect.report/internal/queue"
	"github.com/banshee-data/intersect.report/internal/route"
	"github.com/banshee-data/intersect.report/internal/units"
)

// moveVehicles advances every vehicle one tick. A vehicle is in exactly one
// of two places: on a road (RoadID set) or held at an intersection
// (IntersectionID set). Vehicles referencing entities that no longer exist
// are skipped for the tick, not removed; a topology edit mid-run may leave
// them dangling for one tick before the cascade cleans them up.
func (e *Engine) moveVehicles() {
	ts := e.cfg.GetTickSeconds()
	for _, id := range e.st.VehicleIDs() {
		v, ok := e.st.Vehicles[id]
		if !ok {
			continue
		}
		switch {
		case v.RoadID != "":
			e.advanceOnRoad(v, ts)
		case v.IntersectionID != "":
			e.advanceHeld(v, ts)
		default:
			monitoring.Opsf("vehicle %s has no location, skipping tick", v.ID)
		}
	}
}

// advanceOnRoad moves a vehicle along its current road. Within two tick
// distances of the far end the admissibility of the upcoming crossing is
// checked; a blocked vehicle halts there, accruing wait, and joins the
// approach queue on the tick that would have carried it across the line.
func (e *Engine) advanceOnRoad(v *network.Vehicle, ts float64) {
	r, ok := e.st.Roads[v.RoadID]
	if !ok {
		monitoring.Opsf("vehicle %s on unknown road %s, skipping tick", v.ID, v.RoadID)
		return
	}
	if v.SpeedKmh > r.SpeedLimitKmh {
		v.SpeedKmh = r.SpeedLimitKmh
	}
	tickDist := units.KmhToMps(v.SpeedKmh) * ts
	remainingM := r.LengthM * (1 - v.Progress)

	// On the last segment the road ends at the destination, so arrival is
	// never gated on the signal.
	atDestination := len(v.Route) <= 1

	// A vehicle entering the approach window against a red halts where it
	// is and starts accruing wait; on the tick that would carry it across
	// the line it joins the queue instead.
	if !atDestination && remainingM <= 2*tickDist && !e.admissible(r.To, v) {
		v.WaitS += ts
		if remainingM <= tickDist {
			e.stopAndQueue(v, r)
		}
		return
	}

	if remainingM > tickDist {
		v.Progress += tickDist / r.LengthM
		v.Route[0].RemainingM = r.LengthM * (1 - v.Progress)
		e.placeOnRoad(v, r)
		return
	}

	// Reaches the far end this tick.
	if atDestination {
		e.arrive(v, r)
		return
	}
	e.crossInto(v, r.To)
}

// advanceHeld handles a vehicle at an intersection: queued and waiting, or
// released and attempting its crossing.
func (e *Engine) advanceHeld(v *network.Vehicle, ts float64) {
	ic, ok := e.st.Intersections[v.IntersectionID]
	if !ok {
		monitoring.Opsf("vehicle %s at unknown intersection %s, skipping tick", v.ID, v.IntersectionID)
		return
	}

	if len(v.Route) == 0 {
		e.arriveAt(v, ic.ID)
		return
	}

	if _, held := queue.Holding(e.st, ic.ID, v.ID); held {
		// The hold is re-checked every tick; a queue facing a green axis
		// drains without waiting for the phase-change release.
		if e.admissible(ic.ID, v) {
			e.crossInto(v, ic.ID)
			return
		}
		v.WaitS += ts
		e.maybeReroute(v, ic.ID)
		return
	}

	// Released from the queue, or never admitted to one. Cross if the
	// signal allows it, otherwise fall back into the queue.
	if e.admissible(ic.ID, v) {
		e.crossInto(v, ic.ID)
		return
	}
	if !queue.Enqueue(e.st, v, ic.ID) {
		monitoring.Opsf("vehicle %s cannot queue at %s, skipping tick", v.ID, ic.ID)
	}
}

// admissible reports whether the vehicle may cross the intersection this
// tick: the axis serving its next road must be green and no approach may be
// mid-yellow. Priority vehicles cross regardless.
func (e *Engine) admissible(intersectionID string, v *network.Vehicle) bool {
	if v.Priority {
		return true
	}
	ic, ok := e.st.Intersections[intersectionID]
	if !ok {
		return false
	}
	if ic.Signal.InYellow() {
		return false
	}
	dir, ok := queue.DirectionFor(e.st, v)
	if !ok {
		return false
	}
	axis, ok := ic.Signal.GreenAxis()
	return ok && axis == dir.Axis()
}

// stopAndQueue parks the vehicle at the end of its road and enqueues it at
// the downstream intersection. The completed road segment is consumed so
// the route's front segment is the upcoming one.
func (e *Engine) stopAndQueue(v *network.Vehicle, r *network.Road) {
	e.leaveRoad(v, r)
	v.IntersectionID = r.To
	v.SpeedKmh = 0
	if ic, ok := e.st.Intersections[r.To]; ok {
		v.Pos = ic.Pos
	}
	if len(v.Route) > 0 {
		v.Route = v.Route[1:]
	}
	if !queue.Enqueue(e.st, v, r.To) {
		monitoring.Opsf("vehicle %s cannot queue at %s, skipping tick", v.ID, r.To)
	}
}

// crossInto takes the vehicle through an intersection onto the next road in
// its route. The crossing bumps the intersection's throughput.
func (e *Engine) crossInto(v *network.Vehicle, intersectionID string) {
	ic, ok := e.st.Intersections[intersectionID]
	if !ok {
		monitoring.Opsf("vehicle %s crossing unknown intersection %s, skipping tick", v.ID, intersectionID)
		return
	}

	// Arriving off a road: drop the completed segment first.
	if v.RoadID != "" {
		if r, onRoad := e.st.Roads[v.RoadID]; onRoad {
			e.leaveRoad(v, r)
		}
		if len(v.Route) > 0 {
			v.Route = v.Route[1:]
		}
	}
	if len(v.Route) == 0 {
		e.arriveAt(v, intersectionID)
		return
	}

	next, ok := e.st.Roads[v.Route[0].RoadID]
	if !ok {
		monitoring.Opsf("vehicle %s next road %s missing, skipping tick", v.ID, v.Route[0].RoadID)
		v.IntersectionID = intersectionID
		return
	}

	aggregate.RecordCrossing(ic)
	queue.Dequeue(e.st, v.ID, intersectionID)
	v.IntersectionID = ""
	e.enterRoad(v, next)
}

// maybeReroute replans a queued vehicle's remaining route on the reroute
// cadence. Repeated planning failures eventually remove the vehicle.
func (e *Engine) maybeReroute(v *network.Vehicle, intersectionID string) {
	interval := int64(e.cfg.GetRerouteIntervalTicks())
	if interval <= 0 || e.st.TickCount%interval != 0 {
		return
	}

	segments, _, err := route.Plan(e.st, intersectionID, v.DestinationID, e.cfg.GetCongestionPenaltySeconds())
	if err != nil {
		v.RouteAttempts++
		if v.RouteAttempts >= e.cfg.GetMaxRouteAttempts() {
			e.removeVehicle(v, fmt.Sprintf("no route to %s after %d attempts", v.DestinationID, v.RouteAttempts))
		}
		return
	}
	v.RouteAttempts = 0
	if len(segments) == 0 || segments[0].RoadID == v.Route[0].RoadID {
		return
	}
	// The new route starts down a different road, so the vehicle moves to
	// that approach queue and surrenders its FIFO slot.
	queue.Dequeue(e.st, v.ID, intersectionID)
	v.Route = segments
	if !queue.Enqueue(e.st, v, intersectionID) {
		monitoring.Opsf("vehicle %s cannot requeue at %s after reroute", v.ID, intersectionID)
	}
}

func (e *Engine) enterRoad(v *network.Vehicle, r *network.Road) {
	v.RoadID = r.ID
	v.Progress = 0
	if len(v.Route) > 0 {
		v.Route[0].RemainingM = r.LengthM
	}
	v.SpeedKmh = r.SpeedLimitKmh
	r.CurrentFlow++
	r.RecomputeTravelTime()
	e.placeOnRoad(v, r)
}

func (e *Engine) leaveRoad(v *network.Vehicle, r *network.Road) {
	v.RoadID = ""
	v.Progress = 0
	if r.CurrentFlow > 0 {
		r.CurrentFlow--
	}
	r.RecomputeTravelTime()
}

// placeOnRoad interpolates the vehicle's planar position along its road.
func (e *Engine) placeOnRoad(v *network.Vehicle, r *network.Road) {
	from, okFrom := e.st.Intersections[r.From]
	to, okTo := e.st.Intersections[r.To]
	if !okFrom || !okTo {
		return
	}
	v.Pos = network.Position{
		X: from.Pos.X + (to.Pos.X-from.Pos.X)*v.Progress,
		Y: from.Pos.Y + (to.Pos.Y-from.Pos.Y)*v.Progress,
	}
}

// arrive completes a trip that ends at the far end of the current road.
func (e *Engine) arrive(v *network.Vehicle, r *network.Road) {
	e.leaveRoad(v, r)
	e.arriveAt(v, r.To)
}

func (e *Engine) arriveAt(v *network.Vehicle, intersectionID string) {
	queue.Dequeue(e.st, v.ID, intersectionID)
	delete(e.st.Vehicles, v.ID)
	e.logEvent(network.Event{
		SimTimeS:       e.st.SimTimeS,
		Kind:           network.EventArrival,
		Message:        fmt.Sprintf("vehicle arrived at %s", intersectionID),
		IntersectionID: intersectionID,
		VehicleID:      v.ID,
	})
}

// removeVehicle drops a vehicle that cannot make progress.
func (e *Engine) removeVehicle(v *network.Vehicle, reason string) {
	if v.IntersectionID != "" {
		queue.Dequeue(e.st, v.ID, v.IntersectionID)
	}
	if v.RoadID != "" {
		if r, ok := e.st.Roads[v.RoadID]; ok {
			e.leaveRoad(v, r)
		}
	}
	delete(e.st.Vehicles, v.ID)
	e.logEvent(network.Event{
		SimTimeS:  e.st.SimTimeS,
		Kind:      network.EventRemoved,
		Message:   reason,
		VehicleID: v.ID,
	})
}
