// Package route computes congestion-aware shortest paths over the road
// network.
package route

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/banshee-data/intersect.report/internal/network"
)

// ErrNoRoute is returned when the destination is unreachable from the
// source. Callers treat it as "vehicle cannot complete the trip" and either
// retry later or drop the vehicle.
var ErrNoRoute = errors.New("route: destination unreachable")

// ErrUnknownEndpoint is returned when either endpoint id is not an active
// intersection.
var ErrUnknownEndpoint = errors.New("route: unknown endpoint")

// Plan returns the ordered road segments of a shortest path from one
// intersection to another, and the path's total cost in seconds.
//
// Edge weights come from the current tick's road state (free-flow travel
// time plus a flow/capacity share of penaltySeconds), so the plan is
// congestion-aware at departure but is not re-planned mid-route. Ties are
// broken by the traversal order of discovered neighbours; the cost of two
// equal-weight plans is identical but their road sequence is not guaranteed
// stable.
func Plan(st *network.State, fromID, toID string, penaltySeconds float64) ([]network.RouteSegment, float64, error) {
	gi := st.BuildGraphIndex(penaltySeconds)

	fromNode, ok := gi.NodeID[fromID]
	if !ok {
		return nil, 0, ErrUnknownEndpoint
	}
	toNode, ok := gi.NodeID[toID]
	if !ok {
		return nil, 0, ErrUnknownEndpoint
	}
	if fromNode == toNode {
		return []network.RouteSegment{}, 0, nil
	}

	shortest := path.DijkstraFrom(simple.Node(fromNode), gi.Graph)
	nodes, cost := shortest.To(toNode)
	if len(nodes) == 0 || math.IsInf(cost, 1) {
		return nil, 0, ErrNoRoute
	}

	segments := make([]network.RouteSegment, 0, len(nodes)-1)
	for i := 0; i+1 < len(nodes); i++ {
		r, ok := gi.RoadByEdge[[2]int64{nodes[i].ID(), nodes[i+1].ID()}]
		if !ok {
			// The index and the path disagree; treat as unroutable rather
			// than emit a broken segment chain.
			return nil, 0, ErrNoRoute
		}
		segments = append(segments, network.RouteSegment{
			RoadID:     r.ID,
			RemainingM: r.LengthM,
		})
	}
	return segments, cost, nil
}

// TotalDistance sums the road lengths of a planned route in metres.
func TotalDistance(st *network.State, segments []network.RouteSegment) float64 {
	var total float64
	for _, seg := range segments {
		if r, ok := st.Roads[seg.RoadID]; ok {
			total += r.LengthM
		}
	}
	return total
}
