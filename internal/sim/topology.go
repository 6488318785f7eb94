package sim

import (
	"fmt"

	"github.com/banshee-data/intersect.report/internal/network"
)

// AddIntersection adds a signalised node to the live network. Controllers
// are rebuilt to cover it, which resets every predictor's learned scores.
func (e *Engine) AddIntersection(id string, pos network.Position) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.st.AddIntersection(id, pos); err != nil {
		return err
	}
	e.rebuildControllers()
	e.logEvent(network.Event{
		SimTimeS:       e.st.SimTimeS,
		Kind:           network.EventTopology,
		Message:        fmt.Sprintf("intersection %s added", id),
		IntersectionID: id,
	})
	return nil
}

// ConnectRoad adds a directed road between two existing intersections.
// Pass lengthM <= 0 to derive the length from the endpoint positions.
func (e *Engine) ConnectRoad(id, from, to string, lanes int, lengthM, speedLimitKmh float64, dir network.Direction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.st.ConnectRoad(id, from, to, lanes, lengthM, speedLimitKmh, dir); err != nil {
		return err
	}
	e.logEvent(network.Event{
		SimTimeS: e.st.SimTimeS,
		Kind:     network.EventTopology,
		Message:  fmt.Sprintf("road %s connected %s to %s", id, from, to),
	})
	return nil
}

// RemoveIntersection removes a node and cascades to its incident roads and
// any vehicles on, queued at, or destined for it.
func (e *Engine) RemoveIntersection(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.st.RemoveIntersection(id); err != nil {
		return err
	}
	e.rebuildControllers()
	e.logEvent(network.Event{
		SimTimeS:       e.st.SimTimeS,
		Kind:           network.EventTopology,
		Message:        fmt.Sprintf("intersection %s removed", id),
		IntersectionID: id,
	})
	return nil
}
