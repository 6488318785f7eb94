// Package aggregate derives the per-intersection and network-wide traffic
// indicators from live queue, wait, and vehicle data.
package aggregate

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/intersect.report/internal/config"
	"github.com/banshee-data/intersect.report/internal/network"
)

// RecordCrossing bumps an intersection's throughput for one vehicle
// crossing. The counter is decayed geometrically every tick by Update, so
// it behaves as a recency-weighted rate rather than a windowed count.
func RecordCrossing(ic *network.Intersection) {
	ic.Metrics.Throughput++
}

// Update refreshes every intersection's metrics and the network aggregate
// for the current tick.
func Update(st *network.State, cfg *config.TuningConfig) {
	decay := cfg.GetThroughputDecay()
	for _, id := range st.IntersectionIDs() {
		updateIntersection(st, st.Intersections[id], decay, cfg)
	}
	updateNetwork(st, cfg)
}

func updateIntersection(st *network.State, ic *network.Intersection, decay float64, cfg *config.TuningConfig) {
	q := st.Queues[ic.ID]
	if q == nil {
		return
	}

	if ic.Metrics.QueueLengths == nil {
		ic.Metrics.QueueLengths = make(map[network.Direction]int, len(network.Directions))
	}
	var waits []float64
	total := 0
	for _, dir := range network.Directions {
		ids := q.Get(dir)
		ic.Metrics.QueueLengths[dir] = len(ids)
		total += len(ids)
		for _, vid := range ids {
			if v, ok := st.Vehicles[vid]; ok {
				waits = append(waits, v.WaitS)
			}
		}
	}

	avgWait := 0.0
	if len(waits) > 0 {
		avgWait = stat.Mean(waits, nil)
	}
	ic.Metrics.AvgWaitS = avgWait
	ic.Metrics.Throughput *= decay

	// Efficiency averages a queue-length score and a wait-time score, each
	// penalised linearly against an assumed maximum.
	queueScore := 1 - clamp01(float64(total)/cfg.GetMaxQueueAssumed())
	waitScore := 1 - clamp01(avgWait/cfg.GetMaxWaitAssumed())
	ic.Metrics.Efficiency = (queueScore + waitScore) / 2
}

func updateNetwork(st *network.State, cfg *config.TuningConfig) {
	m := network.NetworkMetrics{
		VehicleCount: len(st.Vehicles),
	}

	var waits, speeds []float64
	for _, vid := range st.VehicleIDs() {
		v := st.Vehicles[vid]
		waits = append(waits, v.WaitS)
		speeds = append(speeds, v.SpeedKmh)
	}
	if len(waits) > 0 {
		m.AvgWaitS = stat.Mean(waits, nil)
		m.AvgSpeedKmh = stat.Mean(speeds, nil)
	}

	for _, id := range st.IntersectionIDs() {
		ic := st.Intersections[id]
		for _, n := range ic.Metrics.QueueLengths {
			m.TotalQueueLength += n
		}
		m.TotalThroughput += ic.Metrics.Throughput
	}

	m.Congestion = CongestionFor(m.AvgWaitS, cfg)
	st.Metrics = m
}

// CongestionFor classifies a mean wait time against the configured
// thresholds. The classification is monotone: a longer wait never maps to
// a lower level.
func CongestionFor(avgWaitS float64, cfg *config.TuningConfig) network.CongestionLevel {
	switch {
	case avgWaitS >= cfg.GetCriticalWaitSeconds():
		return network.CongestionCritical
	case avgWaitS >= cfg.GetHighWaitSeconds():
		return network.CongestionHigh
	case avgWaitS >= cfg.GetMediumWaitSeconds():
		return network.CongestionMedium
	default:
		return network.CongestionLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
