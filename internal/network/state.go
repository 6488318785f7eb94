package network

import (
	"fmt"
	"math"
	"sort"
)

// State is the full mutable network state. It is owned exclusively by the
// tick engine for the duration of a run; external collaborators receive
// deep copies via Clone and must never mutate the live object.
type State struct {
	Intersections map[string]*Intersection       `json:"intersections"`
	Roads         map[string]*Road               `json:"roads"`
	Vehicles      map[string]*Vehicle            `json:"vehicles"`
	Queues        map[string]*IntersectionQueues `json:"queues"`
	Metrics       NetworkMetrics                 `json:"metrics"`
	Events        []Event                        `json:"events"`
	Running       bool                           `json:"running"`
	Speed         float64                        `json:"speed"` // tick cadence multiplier, > 0
	TickCount     int64                          `json:"tick_count"`
	SimTimeS      float64                        `json:"sim_time_s"`
}

// NewState returns an empty state with initialised maps and 1x speed.
func NewState() *State {
	return &State{
		Intersections: make(map[string]*Intersection),
		Roads:         make(map[string]*Road),
		Vehicles:      make(map[string]*Vehicle),
		Queues:        make(map[string]*IntersectionQueues),
		Speed:         1,
	}
}

// IntersectionIDs returns all intersection ids in Index order. Iteration
// over the state must be deterministic, so callers range over this rather
// than the map.
func (s *State) IntersectionIDs() []string {
	ids := make([]string, 0, len(s.Intersections))
	for id := range s.Intersections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.Intersections[ids[i]].Index < s.Intersections[ids[j]].Index
	})
	return ids
}

// VehicleIDs returns all vehicle ids in lexical order for deterministic
// iteration.
func (s *State) VehicleIDs() []string {
	ids := make([]string, 0, len(s.Vehicles))
	for id := range s.Vehicles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RoadIDs returns all road ids in lexical order.
func (s *State) RoadIDs() []string {
	ids := make([]string, 0, len(s.Roads))
	for id := range s.Roads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RoadsInto returns the roads whose To endpoint is the given intersection,
// in lexical id order.
func (s *State) RoadsInto(intersectionID string) []*Road {
	var roads []*Road
	for _, id := range s.RoadIDs() {
		if r := s.Roads[id]; r.To == intersectionID {
			roads = append(roads, r)
		}
	}
	return roads
}

// RoadsOutOf returns the roads whose From endpoint is the given
// intersection, in lexical id order.
func (s *State) RoadsOutOf(intersectionID string) []*Road {
	var roads []*Road
	for _, id := range s.RoadIDs() {
		if r := s.Roads[id]; r.From == intersectionID {
			roads = append(roads, r)
		}
	}
	return roads
}

// AppendEvent pushes an event onto the bounded log, discarding the oldest
// entries beyond capacity. capacity <= 0 disables the log.
func (s *State) AppendEvent(ev Event, capacity int) {
	if capacity <= 0 {
		return
	}
	s.Events = append(s.Events, ev)
	if excess := len(s.Events) - capacity; excess > 0 {
		s.Events = append(s.Events[:0], s.Events[excess:]...)
	}
}

// AddIntersection creates a new active intersection at the given position.
// The signal starts with north-south green. Index assignment is stable:
// the next free slot.
func (s *State) AddIntersection(id string, pos Position) (*Intersection, error) {
	if id == "" {
		return nil, fmt.Errorf("intersection id must not be empty")
	}
	if _, ok := s.Intersections[id]; ok {
		return nil, fmt.Errorf("intersection %q already exists", id)
	}
	ic := &Intersection{
		ID:    id,
		Index: len(s.Intersections),
		Pos:   pos,
		Signal: SignalState{
			NorthSouth: LightGreen,
			EastWest:   LightRed,
		},
		Metrics: IntersectionMetrics{
			QueueLengths: make(map[Direction]int),
		},
		Active: true,
	}
	s.Intersections[id] = ic
	s.Queues[id] = &IntersectionQueues{}
	return ic, nil
}

// ConnectRoad creates a directed road between two existing intersections.
// Length defaults to the planar distance between the endpoints when
// lengthM <= 0.
func (s *State) ConnectRoad(id, from, to string, lanes int, lengthM, speedLimitKmh float64, dir Direction) (*Road, error) {
	if _, ok := s.Roads[id]; ok {
		return nil, fmt.Errorf("road %q already exists", id)
	}
	src, ok := s.Intersections[from]
	if !ok {
		return nil, fmt.Errorf("unknown from intersection %q", from)
	}
	dst, ok := s.Intersections[to]
	if !ok {
		return nil, fmt.Errorf("unknown to intersection %q", to)
	}
	if from == to {
		return nil, fmt.Errorf("road %q connects %q to itself", id, from)
	}
	if lanes <= 0 {
		lanes = 1
	}
	if lengthM <= 0 {
		lengthM = math.Hypot(dst.Pos.X-src.Pos.X, dst.Pos.Y-src.Pos.Y)
	}
	r := &Road{
		ID:            id,
		From:          from,
		To:            to,
		Lanes:         lanes,
		LengthM:       lengthM,
		SpeedLimitKmh: speedLimitKmh,
		Direction:     dir,
		Capacity:      lanes * 10,
	}
	r.RecomputeTravelTime()
	s.Roads[id] = r
	return r, nil
}

// RemoveIntersection deletes an intersection, cascading to its incident
// roads and to every vehicle resident on those roads or queued at the
// intersection. Remaining intersection indexes are compacted so controller
// slices stay dense.
func (s *State) RemoveIntersection(id string) error {
	if _, ok := s.Intersections[id]; !ok {
		return fmt.Errorf("unknown intersection %q", id)
	}

	removedRoads := make(map[string]bool)
	for rid, r := range s.Roads {
		if r.From == id || r.To == id {
			removedRoads[rid] = true
			delete(s.Roads, rid)
		}
	}
	for vid, v := range s.Vehicles {
		if v.IntersectionID == id || removedRoads[v.RoadID] || v.DestinationID == id {
			delete(s.Vehicles, vid)
		}
	}
	delete(s.Queues, id)
	delete(s.Intersections, id)

	// Compact indexes, preserving relative order.
	ids := s.IntersectionIDs()
	for i, iid := range ids {
		s.Intersections[iid].Index = i
	}
	return nil
}

// Clone returns a deep copy of the state. Published snapshots use this so
// receivers can never reach back into the live simulation.
func (s *State) Clone() *State {
	out := &State{
		Intersections: make(map[string]*Intersection, len(s.Intersections)),
		Roads:         make(map[string]*Road, len(s.Roads)),
		Vehicles:      make(map[string]*Vehicle, len(s.Vehicles)),
		Queues:        make(map[string]*IntersectionQueues, len(s.Queues)),
		Metrics:       s.Metrics,
		Running:       s.Running,
		Speed:         s.Speed,
		TickCount:     s.TickCount,
		SimTimeS:      s.SimTimeS,
	}
	for id, ic := range s.Intersections {
		c := *ic
		c.Metrics.QueueLengths = make(map[Direction]int, len(ic.Metrics.QueueLengths))
		for d, n := range ic.Metrics.QueueLengths {
			c.Metrics.QueueLengths[d] = n
		}
		c.Platoons = append([]Platoon(nil), ic.Platoons...)
		if ic.LastDecision != nil {
			d := *ic.LastDecision
			c.LastDecision = &d
		}
		out.Intersections[id] = &c
	}
	for id, r := range s.Roads {
		c := *r
		out.Roads[id] = &c
	}
	for id, v := range s.Vehicles {
		c := *v
		c.Route = append([]RouteSegment(nil), v.Route...)
		out.Vehicles[id] = &c
	}
	for id, q := range s.Queues {
		out.Queues[id] = &IntersectionQueues{
			North: append([]string(nil), q.North...),
			South: append([]string(nil), q.South...),
			East:  append([]string(nil), q.East...),
			West:  append([]string(nil), q.West...),
		}
	}
	out.Events = append([]Event(nil), s.Events...)
	return out
}
