package network

import (
	"math"

	"gonum.org/v1/gonum/graph/simple"
)

// GraphIndex is a gonum view of the road network for one planning call.
// Node ids are the stable intersection indexes; edge weights are the
// congestion-aware costs of the tick the index was built on, so routes are
// congestion-aware without being re-planned mid-trip.
type GraphIndex struct {
	Graph      *simple.WeightedDirectedGraph
	NodeID     map[string]int64 // intersection id -> graph node id
	RoadByEdge map[[2]int64]*Road
}

// EdgeWeight is the routing cost of one road in seconds: free-flow travel
// time plus a flow/capacity share of the congestion penalty. The penalty
// term is the only congestion contribution; the occupancy multiplier in
// TravelTimeS stays out of the weight so load is not counted twice.
func EdgeWeight(r *Road, penaltySeconds float64) float64 {
	w := r.FreeFlowTravelTimeS()
	if r.Capacity > 0 {
		w += (float64(r.CurrentFlow) / float64(r.Capacity)) * penaltySeconds
	}
	return w
}

// BuildGraphIndex snapshots the network into a weighted directed graph.
// Inactive intersections are excluded. When two roads connect the same
// ordered pair of intersections the cheaper one wins; the dearer road is
// simply never routed over.
func (s *State) BuildGraphIndex(penaltySeconds float64) *GraphIndex {
	gi := &GraphIndex{
		Graph:      simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		NodeID:     make(map[string]int64, len(s.Intersections)),
		RoadByEdge: make(map[[2]int64]*Road, len(s.Roads)),
	}
	for _, id := range s.IntersectionIDs() {
		ic := s.Intersections[id]
		if !ic.Active {
			continue
		}
		nid := int64(ic.Index)
		gi.NodeID[id] = nid
		gi.Graph.AddNode(simple.Node(nid))
	}
	for _, rid := range s.RoadIDs() {
		r := s.Roads[rid]
		from, okFrom := gi.NodeID[r.From]
		to, okTo := gi.NodeID[r.To]
		if !okFrom || !okTo {
			continue
		}
		w := EdgeWeight(r, penaltySeconds)
		key := [2]int64{from, to}
		if prev, ok := gi.RoadByEdge[key]; ok && EdgeWeight(prev, penaltySeconds) <= w {
			continue
		}
		gi.RoadByEdge[key] = r
		gi.Graph.SetWeightedEdge(gi.Graph.NewWeightedEdge(simple.Node(from), simple.Node(to), w))
	}
	return gi
}
