package aggregate

import (
	"math"
	"testing"

	"github.com/banshee-data/intersect.report/internal/config"
	"github.com/banshee-data/intersect.report/internal/network"
	"github.com/banshee-data/intersect.report/internal/testutil"
)

func TestUpdateIntersectionMetrics(t *testing.T) {
	st := testutil.Grid(t)
	cfg := config.Default()

	testutil.EnqueueVehicle(t, st, "a", "nw", "nw-ne", 10)
	testutil.EnqueueVehicle(t, st, "b", "nw", "nw-ne", 30)
	testutil.EnqueueVehicle(t, st, "c", "nw", "nw-sw", 20)

	Update(st, cfg)

	m := st.Intersections["nw"].Metrics
	if m.QueueLengths[network.East] != 2 || m.QueueLengths[network.South] != 1 {
		t.Errorf("queue lengths = %v, want east 2 south 1", m.QueueLengths)
	}
	if math.Abs(m.AvgWaitS-20) > 1e-9 {
		t.Errorf("avg wait = %v, want 20", m.AvgWaitS)
	}

	wantEff := ((1 - 3/cfg.GetMaxQueueAssumed()) + (1 - 20/cfg.GetMaxWaitAssumed())) / 2
	if math.Abs(m.Efficiency-wantEff) > 1e-9 {
		t.Errorf("efficiency = %v, want %v", m.Efficiency, wantEff)
	}
}

func TestEmptyIntersectionHasZeroWait(t *testing.T) {
	st := testutil.Grid(t)
	Update(st, config.Default())
	if got := st.Intersections["nw"].Metrics.AvgWaitS; got != 0 {
		t.Errorf("avg wait with no queued vehicles = %v, want 0", got)
	}
}

func TestThroughputDecaysGeometrically(t *testing.T) {
	st := testutil.Grid(t)
	cfg := config.Default()
	ic := st.Intersections["nw"]

	RecordCrossing(ic)
	RecordCrossing(ic)

	Update(st, cfg)
	want := 2 * cfg.GetThroughputDecay()
	if math.Abs(ic.Metrics.Throughput-want) > 1e-9 {
		t.Fatalf("throughput after one tick = %v, want %v", ic.Metrics.Throughput, want)
	}

	Update(st, cfg)
	want *= cfg.GetThroughputDecay()
	if math.Abs(ic.Metrics.Throughput-want) > 1e-9 {
		t.Fatalf("throughput after two ticks = %v, want %v", ic.Metrics.Throughput, want)
	}
}

func TestTotalQueueLengthIsSumOfIntersections(t *testing.T) {
	st := testutil.Grid(t)
	cfg := config.Default()

	testutil.EnqueueVehicle(t, st, "a", "nw", "nw-ne", 5)
	testutil.EnqueueVehicle(t, st, "b", "nw", "nw-sw", 5)
	testutil.EnqueueVehicle(t, st, "c", "se", "se-ne", 5)

	Update(st, cfg)

	manual := 0
	for _, id := range st.IntersectionIDs() {
		for _, n := range st.Intersections[id].Metrics.QueueLengths {
			manual += n
		}
	}
	if st.Metrics.TotalQueueLength != manual || manual != 3 {
		t.Errorf("total queue length = %d (manual %d), want 3", st.Metrics.TotalQueueLength, manual)
	}
}

func TestCongestionMonotoneInWait(t *testing.T) {
	cfg := config.Default()

	rank := map[network.CongestionLevel]int{
		network.CongestionLow:      0,
		network.CongestionMedium:   1,
		network.CongestionHigh:     2,
		network.CongestionCritical: 3,
	}
	prev := -1
	for wait := 0.0; wait <= 200; wait += 5 {
		level := CongestionFor(wait, cfg)
		if rank[level] < prev {
			t.Fatalf("congestion regressed to %v at wait %v", level, wait)
		}
		prev = rank[level]
	}

	if CongestionFor(0, cfg) != network.CongestionLow {
		t.Error("zero wait not classified low")
	}
	if CongestionFor(cfg.GetCriticalWaitSeconds(), cfg) != network.CongestionCritical {
		t.Error("critical threshold not classified critical")
	}
}

func TestNetworkVehicleAverages(t *testing.T) {
	st := testutil.Grid(t)
	cfg := config.Default()

	st.Vehicles["a"] = &network.Vehicle{ID: "a", RoadID: "nw-ne", WaitS: 10, SpeedKmh: 40}
	st.Vehicles["b"] = &network.Vehicle{ID: "b", RoadID: "sw-se", WaitS: 20, SpeedKmh: 60}

	Update(st, cfg)

	if math.Abs(st.Metrics.AvgWaitS-15) > 1e-9 {
		t.Errorf("avg wait = %v, want 15", st.Metrics.AvgWaitS)
	}
	if math.Abs(st.Metrics.AvgSpeedKmh-50) > 1e-9 {
		t.Errorf("avg speed = %v, want 50", st.Metrics.AvgSpeedKmh)
	}
	if st.Metrics.VehicleCount != 2 {
		t.Errorf("vehicle count = %d, want 2", st.Metrics.VehicleCount)
	}
}
