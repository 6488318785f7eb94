package sim

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/intersect.report/internal/monitoring"
	"github.com/banshee-data/intersect.report/internal/network"
	"github.com/banshee-data/intersect.report/internal/route"
)

// classMix is the cumulative spawn distribution over vehicle classes.
var classMix = []struct {
	upTo  float64
	class network.VehicleClass
}{
	{0.70, network.ClassCar},
	{0.85, network.ClassTruck},
	{0.95, network.ClassBus},
	{1.00, network.ClassEmergency},
}

func (e *Engine) pickClass() network.VehicleClass {
	roll := e.rng.Float64()
	for _, entry := range classMix {
		if roll < entry.upTo {
			return entry.class
		}
	}
	return network.ClassCar
}

// autoSpawn injects background traffic. The configured spawn rate is per
// simulated second, so the per-tick probability scales with tick length.
func (e *Engine) autoSpawn() {
	p := e.cfg.GetSpawnPerSec() * e.cfg.GetTickSeconds()
	if p <= 0 || e.rng.Float64() >= p {
		return
	}

	ids := e.st.IntersectionIDs()
	if len(ids) < 2 {
		return
	}
	from := ids[e.rng.Intn(len(ids))]
	to := ids[e.rng.Intn(len(ids))]
	for to == from {
		to = ids[e.rng.Intn(len(ids))]
	}

	if _, err := e.spawn(from, to, e.pickClass()); err != nil {
		// Unroutable pairs happen after topology edits; background spawns
		// just try again on a later tick.
		return
	}
}

// SpawnVehicle injects a vehicle travelling from one intersection to
// another and returns its id. Empty endpoint ids are drawn from the engine
// rng. Emergency-class vehicles carry priority and cross against the
// signals.
func (e *Engine) SpawnVehicle(fromID, toID string, class network.VehicleClass) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if fromID == "" || toID == "" {
		ids := e.st.IntersectionIDs()
		if len(ids) < 2 {
			return "", fmt.Errorf("network has %d intersections, need at least 2", len(ids))
		}
		if fromID == "" {
			fromID = ids[e.rng.Intn(len(ids))]
		}
		if toID == "" {
			toID = ids[e.rng.Intn(len(ids))]
			for toID == fromID {
				toID = ids[e.rng.Intn(len(ids))]
			}
		}
	}
	if fromID == toID {
		return "", fmt.Errorf("origin and destination are both %q", fromID)
	}
	return e.spawn(fromID, toID, class)
}

func (e *Engine) spawn(fromID, toID string, class network.VehicleClass) (string, error) {
	segments, _, err := route.Plan(e.st, fromID, toID, e.cfg.GetCongestionPenaltySeconds())
	if err != nil {
		return "", fmt.Errorf("route %s to %s: %w", fromID, toID, err)
	}
	if len(segments) == 0 {
		return "", fmt.Errorf("route %s to %s is empty", fromID, toID)
	}
	first, ok := e.st.Roads[segments[0].RoadID]
	if !ok {
		return "", fmt.Errorf("route %s to %s starts on unknown road %s", fromID, toID, segments[0].RoadID)
	}

	// Ids come off the engine rng so runs with equal seeds replay with
	// equal vehicle ids.
	id := uuid.Must(uuid.NewRandomFromReader(e.rng)).String()

	v := &network.Vehicle{
		ID:            id,
		DestinationID: toID,
		Route:         segments,
		Class:         class,
		Priority:      class == network.ClassEmergency,
	}
	e.st.Vehicles[v.ID] = v
	e.enterRoad(v, first)
	monitoring.Diagf("spawned %s %s: %s to %s (%d segments)", class, v.ID, fromID, toID, len(segments))

	e.logEvent(network.Event{
		SimTimeS:  e.st.SimTimeS,
		Kind:      network.EventSpawn,
		Message:   fmt.Sprintf("%s spawned %s to %s", class, fromID, toID),
		VehicleID: v.ID,
	})
	return v.ID, nil
}
