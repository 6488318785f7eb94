package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/intersect.report/internal/config"
	"github.com/banshee-data/intersect.report/internal/network"
	"github.com/banshee-data/intersect.report/internal/queue"
	"github.com/banshee-data/intersect.report/internal/signal"
	"github.com/banshee-data/intersect.report/internal/units"
)

// neWestbound parks a vehicle just short of ne with its route continuing
// west, the cross axis of the initial NS green.
func neWestbound(e *Engine, id string, priority bool) *network.Vehicle {
	v := &network.Vehicle{
		ID:            id,
		RoadID:        "nw-ne",
		Route:         []network.RouteSegment{{RoadID: "nw-ne"}, {RoadID: "ne-nw"}},
		Progress:      0.99,
		SpeedKmh:      50,
		DestinationID: "nw",
		Priority:      priority,
	}
	e.st.Vehicles[id] = v
	e.st.Roads["nw-ne"].CurrentFlow++
	return v
}

// holdSignals pins every phase by pushing min green past the test horizon.
func holdSignals(cfg *config.TuningConfig) {
	cfg.SpawnPerSec = f64(0)
	cfg.MinGreenSeconds = f64(1e6)
	cfg.MaxGreenSeconds = f64(2e6)
}

func TestVehicleTravelsAndArrives(t *testing.T) {
	e := newTestEngine(t, 1, func(cfg *config.TuningConfig) {
		cfg.SpawnPerSec = f64(0)
	})

	id, err := e.SpawnVehicle("nw", "ne", network.ClassCar)
	require.NoError(t, err)
	require.Equal(t, "nw-ne", e.st.Vehicles[id].RoadID)
	require.Equal(t, 1, e.st.Roads["nw-ne"].CurrentFlow)

	// 500 m at 50 km/h is well under a minute of simulated time.
	arrived := false
	var lastProgress float64
	for i := 0; i < 60; i++ {
		e.Tick()
		v, ok := e.st.Vehicles[id]
		if !ok {
			arrived = true
			break
		}
		require.Greater(t, v.Progress, lastProgress, "vehicle stalled on a clear road")
		lastProgress = v.Progress
	}

	require.True(t, arrived, "vehicle never reached its destination")
	require.Equal(t, 0, e.st.Roads["nw-ne"].CurrentFlow)

	found := false
	for _, ev := range e.st.Events {
		if ev.Kind == network.EventArrival && ev.VehicleID == id {
			found = true
		}
	}
	require.True(t, found, "arrival event missing")
}

func TestBlockedVehicleQueuesAndWaits(t *testing.T) {
	e := newTestEngine(t, 1, holdSignals)
	v := neWestbound(e, "v1", false)

	e.Tick()
	require.Empty(t, v.RoadID)
	require.Equal(t, "ne", v.IntersectionID)
	require.Zero(t, v.SpeedKmh)
	dir, held := queue.Holding(e.st, "ne", "v1")
	require.True(t, held)
	require.Equal(t, network.West, dir)
	require.InDelta(t, 1.0, v.WaitS, 1e-9, "wait starts on the stop tick")

	e.Tick()
	e.Tick()
	require.InDelta(t, 3.0, v.WaitS, 1e-9)
}

func TestVehicleHaltsInApproachWindow(t *testing.T) {
	e := newTestEngine(t, 1, holdSignals)
	v := neWestbound(e, "v1", false)

	// 20 m out: between one and two tick distances at 50 km/h, so the
	// vehicle halts short of the line instead of rolling up to it.
	v.Progress = 1 - 20.0/500
	v.Route[0].RemainingM = 20

	e.Tick()
	require.Equal(t, "nw-ne", v.RoadID)
	require.InDelta(t, 1-20.0/500, v.Progress, 1e-9, "halted vehicle moved")
	require.InDelta(t, 1.0, v.WaitS, 1e-9)
	_, held := queue.Holding(e.st, "ne", "v1")
	require.False(t, held, "vehicle queued before reaching the line")

	e.Tick()
	require.InDelta(t, 1-20.0/500, v.Progress, 1e-9)
	require.InDelta(t, 2.0, v.WaitS, 1e-9)

	// On green the halt lifts and the crossing completes in two ticks.
	e.st.Intersections["ne"].Signal.NorthSouth = network.LightRed
	e.st.Intersections["ne"].Signal.EastWest = network.LightGreen
	e.Tick()
	e.Tick()
	require.Equal(t, "ne-nw", v.RoadID)
}

func TestArrivalNotGatedBySignal(t *testing.T) {
	e := newTestEngine(t, 1, holdSignals)
	v := &network.Vehicle{
		ID:            "v1",
		RoadID:        "nw-ne",
		Route:         []network.RouteSegment{{RoadID: "nw-ne", RemainingM: 5}},
		Progress:      0.99,
		SpeedKmh:      50,
		DestinationID: "ne",
	}
	e.st.Vehicles["v1"] = v
	e.st.Roads["nw-ne"].CurrentFlow++

	// The eastbound approach at ne faces a pinned red, but the road ends
	// at the destination so the vehicle arrives instead of queueing.
	e.Tick()
	_, ok := e.st.Vehicles["v1"]
	require.False(t, ok, "vehicle queued at its own destination")
	_, held := queue.Holding(e.st, "ne", "v1")
	require.False(t, held)
	require.Equal(t, 0, e.st.Roads["nw-ne"].CurrentFlow)

	found := false
	for _, ev := range e.st.Events {
		if ev.Kind == network.EventArrival && ev.VehicleID == "v1" {
			found = true
		}
	}
	require.True(t, found, "arrival event missing")
}

func TestReleasedVehicleCrossesAndWaitFreezes(t *testing.T) {
	e := newTestEngine(t, 1, holdSignals)
	v := neWestbound(e, "v1", false)

	for i := 0; i < 5; i++ {
		e.Tick()
	}
	waited := v.WaitS
	require.Greater(t, waited, 0.0)

	// Flip ne to EW green and release its approaches, as a completed
	// yellow would.
	sig := &e.st.Intersections["ne"].Signal
	sig.NorthSouth = network.LightRed
	sig.EastWest = network.LightGreen
	released := queue.Release(e.st, "ne", network.AxisDirections(network.AxisEW))
	require.Equal(t, []string{"v1"}, released)

	e.Tick()
	require.Equal(t, "ne-nw", v.RoadID)
	require.Empty(t, v.IntersectionID)
	require.InDelta(t, waited, v.WaitS, 1e-9, "wait kept accruing after release")
	require.Greater(t, e.st.Intersections["ne"].Metrics.Throughput, 0.0)
}

func TestEmergencyVehicleCrossesAgainstRed(t *testing.T) {
	e := newTestEngine(t, 1, holdSignals)
	v := neWestbound(e, "ev1", true)

	e.Tick()
	require.Equal(t, "ne-nw", v.RoadID, "priority vehicle should not stop at the red")
	require.Zero(t, v.WaitS)
	_, held := queue.Holding(e.st, "ne", "ev1")
	require.False(t, held)
}

func TestHeldVehicleDrainsOnGreenAxis(t *testing.T) {
	e := newTestEngine(t, 1, holdSignals)

	// Queued on the southbound approach while NS already holds the
	// green. The hold is re-checked each tick, so the vehicle crosses
	// without waiting for a phase change to release it.
	v := &network.Vehicle{
		ID:             "v1",
		IntersectionID: "ne",
		Route:          []network.RouteSegment{{RoadID: "ne-se", RemainingM: 500}},
		DestinationID:  "se",
	}
	e.st.Vehicles["v1"] = v
	require.True(t, queue.Enqueue(e.st, v, "ne"))

	e.Tick()
	require.Equal(t, "ne-se", v.RoadID)
	require.Empty(t, v.IntersectionID)
	require.Zero(t, v.WaitS)
	_, held := queue.Holding(e.st, "ne", "v1")
	require.False(t, held)
}

func TestQueueReleaseIsFIFO(t *testing.T) {
	e := newTestEngine(t, 1, holdSignals)
	first := neWestbound(e, "v1", false)
	e.Tick()

	second := neWestbound(e, "v2", false)
	e.Tick()

	_, held := queue.Holding(e.st, "ne", "v2")
	require.True(t, held)

	q := e.st.Queues["ne"]
	require.Equal(t, []string{first.ID, second.ID}, q.Get(network.West))
}

func TestUnroutableVehicleEventuallyRemoved(t *testing.T) {
	e := newTestEngine(t, 1, func(cfg *config.TuningConfig) {
		holdSignals(cfg)
		cfg.RerouteIntervalTicks = num(1)
		cfg.MaxRouteAttempts = num(3)
	})
	v := neWestbound(e, "v1", false)
	v.DestinationID = "ghost"

	e.Tick() // reaches the line and queues
	for i := 0; i < 3; i++ {
		e.Tick()
	}

	_, ok := e.st.Vehicles["v1"]
	require.False(t, ok, "unroutable vehicle was not removed")
	_, held := queue.Holding(e.st, "ne", "v1")
	require.False(t, held)

	found := false
	for _, ev := range e.st.Events {
		if ev.Kind == network.EventRemoved && ev.VehicleID == "v1" {
			found = true
		}
	}
	require.True(t, found, "removal event missing")
}

func TestRerouteAroundCongestion(t *testing.T) {
	e := newTestEngine(t, 1, func(cfg *config.TuningConfig) {
		holdSignals(cfg)
		cfg.RerouteIntervalTicks = num(1)
	})

	v := &network.Vehicle{
		ID:            "v1",
		RoadID:        "nw-ne",
		Route:         []network.RouteSegment{{RoadID: "nw-ne"}, {RoadID: "ne-se"}},
		Progress:      0.99,
		SpeedKmh:      50,
		DestinationID: "sw",
	}
	e.st.Vehicles["v1"] = v
	e.st.Roads["nw-ne"].CurrentFlow++

	// ne-se southbound is NS, green, so force the vehicle to hold first.
	e.st.Intersections["ne"].Signal.NorthSouth = network.LightRed

	// Saturate the planned next road so the replan prefers another path.
	e.st.Roads["ne-se"].CurrentFlow = e.st.Roads["ne-se"].Capacity * 3

	e.Tick() // queues at ne
	require.Equal(t, "ne", v.IntersectionID)

	e.Tick() // reroute cadence fires
	require.NotEqual(t, "ne-se", v.Route[0].RoadID, "replan kept the saturated road")
	dir, held := queue.Holding(e.st, "ne", "v1")
	require.True(t, held)
	wantDir, ok := queue.DirectionFor(e.st, v)
	require.True(t, ok)
	require.Equal(t, wantDir, dir)
}

func TestVehiclesOccupyExactlyOneLocation(t *testing.T) {
	e := newTestEngine(t, 99, nil)

	for i := 0; i < 300; i++ {
		e.Tick()
		for _, id := range e.st.VehicleIDs() {
			v := e.st.Vehicles[id]
			onRoad := v.RoadID != ""
			atNode := v.IntersectionID != ""
			require.NotEqual(t, onRoad, atNode, "vehicle %s: road=%q intersection=%q", id, v.RoadID, v.IntersectionID)

			queuedAt := 0
			for _, icID := range e.st.IntersectionIDs() {
				if _, held := queue.Holding(e.st, icID, id); held {
					require.Equal(t, icID, v.IntersectionID)
					queuedAt++
				}
			}
			require.LessOrEqual(t, queuedAt, 1)
		}
	}
}

func TestPlatoonDistanceTracksMovement(t *testing.T) {
	e := newTestEngine(t, 1, holdSignals)

	id, err := e.SpawnVehicle("nw", "ne", network.ClassCar)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		e.Tick()
	}

	// 10 s at 50 km/h covers 138.9 m, so the eastbound platoon at ne
	// must report the distance still ahead, not the full road length.
	wantDist := 500 - 10*units.KmhToMps(50)
	require.InDelta(t, wantDist, e.st.Vehicles[id].Route[0].RemainingM, 1e-6)

	var eastbound *network.Platoon
	for _, p := range signal.DetectPlatoons(e.st, "ne") {
		if p.Direction == network.East {
			eastbound = &p
			break
		}
	}
	require.NotNil(t, eastbound, "no eastbound platoon detected")
	require.Equal(t, 1, eastbound.VehicleCount)
	require.InDelta(t, wantDist, eastbound.AvgDistanceM, 1e-6)
	require.Less(t, eastbound.ETASeconds, 500/units.KmhToMps(50))
}

func TestRoadFlowNeverNegative(t *testing.T) {
	e := newTestEngine(t, 17, nil)

	for i := 0; i < 300; i++ {
		e.Tick()
		for _, id := range e.st.RoadIDs() {
			require.GreaterOrEqual(t, e.st.Roads[id].CurrentFlow, 0, "road %s flow went negative", id)
		}
	}
}
