package domain

import "testing"

func TestRoute_AddRejectsOutOfRange(t *testing.T) {
	r := NewRoute()

	cases := []Coordinate{
		{Lat: 91, Lon: 0},
		{Lat: -91, Lon: 0},
		{Lat: 0, Lon: 181},
		{Lat: 0, Lon: -181},
	}
	for _, c := range cases {
		if _, err := r.Add(c); err != ErrInvalidCoordinate {
			t.Errorf("Add(%v): expected ErrInvalidCoordinate, got %v", c, err)
		}
	}
	if r.Len() != 0 {
		t.Errorf("failed adds must leave the route empty, got len %d", r.Len())
	}

	// Boundary values are valid.
	if _, err := r.Add(Coordinate{Lat: 90, Lon: -180}); err != nil {
		t.Fatalf("Add boundary coordinate: %v", err)
	}
}

func TestRoute_RemoveShiftsPositions(t *testing.T) {
	r := NewRoute()
	coords := []Coordinate{
		{Lat: 41.0, Lon: -87.6},
		{Lat: 41.1, Lon: -87.6},
		{Lat: 41.2, Lon: -87.6},
	}
	for _, c := range coords {
		if _, err := r.Add(c); err != nil {
			t.Fatal(err)
		}
	}

	second := r.Waypoints()[1]

	if err := r.Remove(0); err != nil {
		t.Fatalf("Remove(0): %v", err)
	}

	// After removing index 0, an update at index 0 must hit what used to be
	// at index 1 — and that waypoint keeps its stable ID.
	moved := Coordinate{Lat: 42.0, Lon: -88.0}
	wp, err := r.Update(0, moved)
	if err != nil {
		t.Fatalf("Update(0): %v", err)
	}
	if wp.ID != second.ID {
		t.Errorf("expected update to target waypoint %s, got %s", second.ID, wp.ID)
	}
	if got := r.Snapshot()[0]; got != moved {
		t.Errorf("expected %v at position 0, got %v", moved, got)
	}
}

func TestRoute_BadIndexLeavesRouteUnchanged(t *testing.T) {
	r := NewRoute()
	if _, err := r.Add(Coordinate{Lat: 1, Lon: 2}); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Update(1, Coordinate{Lat: 3, Lon: 4}); err != ErrIndexOutOfRange {
		t.Errorf("Update(1): expected ErrIndexOutOfRange, got %v", err)
	}
	if err := r.Remove(-1); err != ErrIndexOutOfRange {
		t.Errorf("Remove(-1): expected ErrIndexOutOfRange, got %v", err)
	}
	if got := r.Snapshot(); len(got) != 1 || got[0] != (Coordinate{Lat: 1, Lon: 2}) {
		t.Errorf("route changed by failed mutations: %v", got)
	}
}

func TestRoute_UndoOnEmptyIsNoop(t *testing.T) {
	r := NewRoute()
	r.Undo() // must not panic or error
	if r.Len() != 0 {
		t.Errorf("expected empty route, got len %d", r.Len())
	}

	if _, err := r.Add(Coordinate{Lat: 1, Lon: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add(Coordinate{Lat: 2, Lon: 2}); err != nil {
		t.Fatal(err)
	}
	r.Undo()
	if r.Len() != 1 {
		t.Fatalf("expected 1 waypoint after undo, got %d", r.Len())
	}
	if got := r.Snapshot()[0]; got != (Coordinate{Lat: 1, Lon: 1}) {
		t.Errorf("undo removed the wrong waypoint: %v", got)
	}
}

func TestRoute_DuplicatesAllowed(t *testing.T) {
	r := NewRoute()
	c := Coordinate{Lat: 43.26, Lon: -2.93}
	a, _ := r.Add(c)
	b, _ := r.Add(c)
	if a.ID == b.ID {
		t.Error("duplicate coordinates must still get distinct waypoint IDs")
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 waypoints, got %d", r.Len())
	}
}

func TestRoute_LoadReplacesContents(t *testing.T) {
	r := NewRoute()
	_, _ = r.Add(Coordinate{Lat: 9, Lon: 9})

	coords := []Coordinate{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}
	if err := r.Load(coords); err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0] != coords[0] || snap[1] != coords[1] {
		t.Errorf("unexpected contents after load: %v", snap)
	}

	// A load with any invalid coordinate must not touch the route.
	if err := r.Load([]Coordinate{{Lat: 1, Lon: 1}, {Lat: 99, Lon: 0}}); err != ErrInvalidCoordinate {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
	if len(r.Snapshot()) != 2 {
		t.Error("failed load must leave previous contents in place")
	}
}
