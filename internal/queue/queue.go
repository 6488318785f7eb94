// Package queue manages the per-intersection, per-approach-direction FIFO
// admission and release of vehicles.
package queue

import (
	"github.com/banshee-data/intersect.report/internal/network"
)

// DirectionFor returns the approach-direction queue a vehicle belongs in at
// its current intersection: the compass direction of the next road in its
// remaining route. ok is false when the route is exhausted or the next road
// is missing from the network.
func DirectionFor(st *network.State, v *network.Vehicle) (network.Direction, bool) {
	nextID, ok := v.NextRoadID()
	if !ok {
		return "", false
	}
	r, ok := st.Roads[nextID]
	if !ok {
		return "", false
	}
	return r.Direction, true
}

// Enqueue appends the vehicle id to the approach queue implied by the next
// road in its route. The call is idempotent: a vehicle already queued in
// any direction at this intersection is left where it is, preserving its
// FIFO slot.
func Enqueue(st *network.State, v *network.Vehicle, intersectionID string) bool {
	q, ok := st.Queues[intersectionID]
	if !ok {
		return false
	}
	if _, found := Holding(st, intersectionID, v.ID); found {
		return true
	}
	dir, ok := DirectionFor(st, v)
	if !ok {
		return false
	}
	q.Set(dir, append(q.Get(dir), v.ID))
	return true
}

// Dequeue removes the vehicle id from whichever direction queue currently
// holds it. Removing an absent vehicle is a no-op.
func Dequeue(st *network.State, vehicleID, intersectionID string) {
	q, ok := st.Queues[intersectionID]
	if !ok {
		return
	}
	for _, dir := range network.Directions {
		ids := q.Get(dir)
		for i, id := range ids {
			if id == vehicleID {
				q.Set(dir, append(ids[:i:i], ids[i+1:]...))
				return
			}
		}
	}
}

// Release clears all queued vehicles in the newly green directions and
// returns the released ids in FIFO order. Release is an instantaneous
// batch: no minimum headway is enforced, every released vehicle is
// eligible to move on the very next tick.
func Release(st *network.State, intersectionID string, allowed []network.Direction) []string {
	q, ok := st.Queues[intersectionID]
	if !ok {
		return nil
	}
	var released []string
	for _, dir := range allowed {
		released = append(released, q.Get(dir)...)
		q.Set(dir, nil)
	}
	return released
}

// Holding reports the direction queue currently holding the vehicle at the
// given intersection.
func Holding(st *network.State, intersectionID, vehicleID string) (network.Direction, bool) {
	q, ok := st.Queues[intersectionID]
	if !ok {
		return "", false
	}
	for _, dir := range network.Directions {
		for _, id := range q.Get(dir) {
			if id == vehicleID {
				return dir, true
			}
		}
	}
	return "", false
}
