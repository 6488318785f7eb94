// Package network holds the shared traffic-network state: intersections,
// directed road segments, vehicles, signal state, and the aggregate metrics
// derived from them. The packages that operate on this state (routing,
// queueing, signalling, the tick engine) all import network and never each
// other, which keeps the dependency graph a straight line.
//
// Units convention, preserved everywhere: road lengths in metres, speed
// limits and vehicle speeds in km/h, all time fields in seconds, positions
// in arbitrary planar metres.
package network

import (
	"github.com/banshee-data/intersect.report/internal/units"
)

// Direction is a compass direction of travel along a road.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Axis is a signal phase axis: the north-south or east-west approach pair.
type Axis string

const (
	AxisNS Axis = "NS"
	AxisEW Axis = "EW"
)

// Axis returns the phase axis the direction belongs to.
func (d Direction) Axis() Axis {
	if d == North || d == South {
		return AxisNS
	}
	return AxisEW
}

// Directions lists all four compass directions in a stable order.
var Directions = []Direction{North, South, East, West}

// AxisDirections returns the two compass directions served by a phase axis.
func AxisDirections(a Axis) []Direction {
	if a == AxisNS {
		return []Direction{North, South}
	}
	return []Direction{East, West}
}

// LightColor is the state of one approach pair's signal head.
type LightColor string

const (
	LightRed    LightColor = "red"
	LightYellow LightColor = "yellow"
	LightGreen  LightColor = "green"
)

// SignalState is the two-phase signal cycle at one intersection. Exactly one
// of the two approach pairs is green (or yellow, mid-transition) at a time.
type SignalState struct {
	NorthSouth    LightColor `json:"north_south"`
	EastWest      LightColor `json:"east_west"`
	TimeRemaining float64    `json:"time_remaining"` // seconds left in the current phase
	NextPhaseEnd  float64    `json:"next_phase_end"` // scheduled end of the next phase, sim seconds
}

// GreenAxis returns the currently green axis and true, or false mid-yellow
// or in the degenerate all-red case.
func (s SignalState) GreenAxis() (Axis, bool) {
	switch {
	case s.NorthSouth == LightGreen:
		return AxisNS, true
	case s.EastWest == LightGreen:
		return AxisEW, true
	}
	return "", false
}

// InYellow reports whether either approach pair is mid-yellow. Yellow is a
// conservative clearance interval: no vehicle in any direction crosses
// while it shows.
func (s SignalState) InYellow() bool {
	return s.NorthSouth == LightYellow || s.EastWest == LightYellow
}

// Position is a point in planar metres.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Road is a directed edge between two intersections.
type Road struct {
	ID            string    `json:"id"`
	From          string    `json:"from"` // intersection id
	To            string    `json:"to"`   // intersection id
	Lanes         int       `json:"lanes"`
	LengthM       float64   `json:"length_m"`
	SpeedLimitKmh float64   `json:"speed_limit_kmh"`
	Direction     Direction `json:"direction"`
	Capacity      int       `json:"capacity"`
	CurrentFlow   int       `json:"current_flow"` // vehicles currently occupying the road
	TravelTimeS   float64   `json:"travel_time_s"`
}

// RecomputeTravelTime refreshes the derived travel time from length, speed
// limit, and the congestion multiplier 1 + 2*(flow/capacity). The result is
// never negative.
func (r *Road) RecomputeTravelTime() {
	congestion := 1.0
	if r.Capacity > 0 && r.CurrentFlow > 0 {
		congestion = 1 + 2*(float64(r.CurrentFlow)/float64(r.Capacity))
	}
	t := r.FreeFlowTravelTimeS() * congestion
	if t < 0 {
		t = 0
	}
	r.TravelTimeS = t
}

// FreeFlowTravelTimeS returns the uncongested traversal time in seconds.
func (r *Road) FreeFlowTravelTimeS() float64 {
	if r.SpeedLimitKmh <= 0 {
		return 0
	}
	return r.LengthM / units.KmhToMps(r.SpeedLimitKmh)
}

// Platoon is an aggregated cluster of same-direction vehicles approaching an
// intersection, modelled as a count plus count-weighted distance and speed
// estimates rather than individually.
type Platoon struct {
	Direction    Direction `json:"direction"`
	VehicleCount int       `json:"vehicle_count"`
	AvgDistanceM float64   `json:"avg_distance_m"`
	AvgSpeedKmh  float64   `json:"avg_speed_kmh"`
	ETASeconds   float64   `json:"eta_seconds"`
}

// Action is a signal phase recommendation.
type Action string

const (
	ActionNS   Action = "NS"
	ActionEW   Action = "EW"
	ActionHold Action = "HOLD"
)

// GuardianChecks records the three safety checks applied to a proposed
// phase change. All must pass for approval.
type GuardianChecks struct {
	MinGreenElapsed  bool `json:"min_green_elapsed"` // or max-green starvation override
	SafeToTransition bool `json:"safe_to_transition"`
	SystemHealthy    bool `json:"system_healthy"`
}

// All reports whether every check passed.
func (g GuardianChecks) All() bool {
	return g.MinGreenElapsed && g.SafeToTransition && g.SystemHealthy
}

// TimingPlan is the proposed green window, in seconds relative to now.
type TimingPlan struct {
	StartS    float64 `json:"start_s"`
	DurationS float64 `json:"duration_s"`
	EndS      float64 `json:"end_s"`
}

// PressurePair is the axis pressure analysis backing a decision.
type PressurePair struct {
	NS float64 `json:"ns"`
	EW float64 `json:"ew"`
}

// AIDecision is the per-intersection controller output for one tick:
// predictor scores, the post-guardian recommendation, and a timing plan.
type AIDecision struct {
	QValueNS    float64        `json:"q_value_ns"`
	QValueEW    float64        `json:"q_value_ew"`
	Recommended Action         `json:"recommended"`
	Checks      GuardianChecks `json:"checks"`
	Approved    bool           `json:"approved"`
	Plan        TimingPlan     `json:"plan"`
	Pressure    PressurePair   `json:"pressure"`
}

// IntersectionMetrics are the live per-intersection indicators.
type IntersectionMetrics struct {
	QueueLengths map[Direction]int `json:"queue_lengths"`
	AvgWaitS     float64           `json:"avg_wait_s"`
	Throughput   float64           `json:"throughput"` // geometrically decayed crossing count
	Efficiency   float64           `json:"efficiency"` // [0,1]
}

// Intersection is a node in the road graph.
type Intersection struct {
	ID           string              `json:"id"`
	Index        int                 `json:"index"` // stable slice index assigned at topology build
	Pos          Position            `json:"pos"`
	Signal       SignalState         `json:"signal"`
	Metrics      IntersectionMetrics `json:"metrics"`
	Platoons     []Platoon           `json:"platoons"`
	LastDecision *AIDecision         `json:"last_decision,omitempty"`
	Active       bool                `json:"active"`
}

// RouteSegment is a traversal of one road with remaining distance. A route
// is an ordered queue of segments consumed from the front as they complete.
type RouteSegment struct {
	RoadID     string  `json:"road_id"`
	RemainingM float64 `json:"remaining_m"`
}

// VehicleClass partitions vehicles by kind. Emergency vehicles carry the
// priority override and always pass the admissibility check.
type VehicleClass string

const (
	ClassCar       VehicleClass = "car"
	ClassBus       VehicleClass = "bus"
	ClassTruck     VehicleClass = "truck"
	ClassEmergency VehicleClass = "emergency"
)

// Vehicle is one simulated vehicle. Exactly one of RoadID or IntersectionID
// is set at any time, except transiently between segment completion and the
// next assignment within the same tick.
type Vehicle struct {
	ID             string         `json:"id"`
	RoadID         string         `json:"road_id,omitempty"`
	IntersectionID string         `json:"intersection_id,omitempty"` // set while queued
	DestinationID  string         `json:"destination_id"`
	Route          []RouteSegment `json:"route"`
	Progress       float64        `json:"progress"` // fraction [0,1] along the current road
	SpeedKmh       float64        `json:"speed_kmh"`
	Pos            Position       `json:"pos"`
	WaitS          float64        `json:"wait_s"` // accumulated, monotonic while blocked
	Priority       bool           `json:"priority"`
	Class          VehicleClass   `json:"class"`
	RouteAttempts  int            `json:"route_attempts,omitempty"` // consecutive failed replans
}

// NextRoadID returns the id of the road the vehicle will take next: the
// segment after the current one while on a road, or the front segment while
// queued between roads. ok is false when the route is exhausted.
func (v *Vehicle) NextRoadID() (string, bool) {
	idx := 0
	if v.RoadID != "" {
		idx = 1
	}
	if idx >= len(v.Route) {
		return "", false
	}
	return v.Route[idx].RoadID, true
}

// IntersectionQueues holds the four per-direction FIFO approach queues of
// one intersection. Insertion order is queue order. A vehicle id appears in
// at most one direction queue at a time.
type IntersectionQueues struct {
	North []string `json:"north"`
	South []string `json:"south"`
	East  []string `json:"east"`
	West  []string `json:"west"`
}

// Get returns the queue slice for a direction.
func (q *IntersectionQueues) Get(d Direction) []string {
	switch d {
	case North:
		return q.North
	case South:
		return q.South
	case East:
		return q.East
	case West:
		return q.West
	}
	return nil
}

// Set replaces the queue slice for a direction.
func (q *IntersectionQueues) Set(d Direction, ids []string) {
	switch d {
	case North:
		q.North = ids
	case South:
		q.South = ids
	case East:
		q.East = ids
	case West:
		q.West = ids
	}
}

// Total returns the number of queued vehicles across all directions.
func (q *IntersectionQueues) Total() int {
	return len(q.North) + len(q.South) + len(q.East) + len(q.West)
}

// CongestionLevel classifies network-wide congestion.
type CongestionLevel string

const (
	CongestionLow      CongestionLevel = "low"
	CongestionMedium   CongestionLevel = "medium"
	CongestionHigh     CongestionLevel = "high"
	CongestionCritical CongestionLevel = "critical"
)

// NetworkMetrics are the network-wide aggregate indicators.
type NetworkMetrics struct {
	VehicleCount     int             `json:"vehicle_count"`
	AvgWaitS         float64         `json:"avg_wait_s"`
	AvgSpeedKmh      float64         `json:"avg_speed_kmh"`
	TotalQueueLength int             `json:"total_queue_length"`
	TotalThroughput  float64         `json:"total_throughput"`
	Congestion       CongestionLevel `json:"congestion"`
}

// EventKind tags entries in the bounded event log.
type EventKind string

const (
	EventSpawn            EventKind = "spawn"
	EventArrival          EventKind = "arrival"
	EventRemoved          EventKind = "removed"
	EventPhaseChange      EventKind = "phase_change"
	EventCorridorOverride EventKind = "corridor_override"
	EventGreenWave        EventKind = "green_wave"
	EventTopology         EventKind = "topology"
)

// Event is one entry in the bounded in-memory event log.
type Event struct {
	SimTimeS       float64   `json:"sim_time_s"`
	Kind           EventKind `json:"kind"`
	Message        string    `json:"message"`
	IntersectionID string    `json:"intersection_id,omitempty"`
	VehicleID      string    `json:"vehicle_id,omitempty"`
}
