package network

import (
	"errors"
	"fmt"
)

// Layout names accepted by BuildLayout.
const (
	LayoutGrid2x2 = "grid-2x2"
	LayoutCustom  = "custom"
)

// ErrUnknownLayout is returned for layout names BuildLayout does not know.
var ErrUnknownLayout = errors.New("network: unknown layout")

// Grid spacing and road defaults for the generated layouts.
const (
	gridSpacingM     = 500
	gridLanes        = 2
	gridSpeedLimitKm = 50
)

// BuildLayout produces the initial network state for a named layout.
//
// grid-2x2 is a fixed 4-intersection, 8-directed-road topology with
// symmetric bidirectional connectivity: every adjacent pair of
// intersections is linked by one road in each direction, so each
// intersection ends up with exactly 2 incoming and 2 outgoing roads.
//
// custom returns an empty state; callers populate it through the topology
// edit calls with externally supplied geometry.
func BuildLayout(name string) (*State, error) {
	switch name {
	case LayoutGrid2x2:
		return buildGrid2x2()
	case LayoutCustom:
		return NewState(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}
}

func buildGrid2x2() (*State, error) {
	st := NewState()

	// nw  ne
	// sw  se
	points := []struct {
		id  string
		pos Position
	}{
		{"nw", Position{X: 0, Y: gridSpacingM}},
		{"ne", Position{X: gridSpacingM, Y: gridSpacingM}},
		{"sw", Position{X: 0, Y: 0}},
		{"se", Position{X: gridSpacingM, Y: 0}},
	}
	for _, p := range points {
		if _, err := st.AddIntersection(p.id, p.pos); err != nil {
			return nil, err
		}
	}

	// The direction on each road is the compass direction of travel.
	links := []struct {
		from, to string
		dir      Direction
	}{
		{"nw", "ne", East},
		{"ne", "nw", West},
		{"sw", "se", East},
		{"se", "sw", West},
		{"sw", "nw", North},
		{"nw", "sw", South},
		{"se", "ne", North},
		{"ne", "se", South},
	}
	for _, l := range links {
		id := fmt.Sprintf("%s-%s", l.from, l.to)
		if _, err := st.ConnectRoad(id, l.from, l.to, gridLanes, 0, gridSpeedLimitKm, l.dir); err != nil {
			return nil, err
		}
	}
	return st, nil
}
