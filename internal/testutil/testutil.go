// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"testing"

	"github.com/banshee-data/intersect.report/internal/network"
	"github.com/banshee-data/intersect.report/internal/queue"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Grid returns a fresh 2x2 grid network state.
func Grid(t *testing.T) *network.State {
	t.Helper()
	st, err := network.BuildLayout(network.LayoutGrid2x2)
	if err != nil {
		t.Fatalf("build grid layout: %v", err)
	}
	return st
}

// EnqueueVehicle inserts a vehicle whose route continues down nextRoad and
// queues it at the given intersection.
func EnqueueVehicle(t *testing.T, st *network.State, id, intersectionID, nextRoad string, waitS float64) *network.Vehicle {
	t.Helper()
	v := &network.Vehicle{
		ID:             id,
		IntersectionID: intersectionID,
		Route:          []network.RouteSegment{{RoadID: nextRoad}},
		WaitS:          waitS,
	}
	st.Vehicles[id] = v
	if !queue.Enqueue(st, v, intersectionID) {
		t.Fatalf("enqueue %s at %s failed", id, intersectionID)
	}
	return v
}
