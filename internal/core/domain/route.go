package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Route mutation errors. All of these are recoverable: a failed mutation
// leaves the route exactly as it was.
var (
	ErrInvalidCoordinate = errors.New("coordinate outside valid latitude/longitude range")
	ErrIndexOutOfRange   = errors.New("waypoint index out of range")
	ErrRouteTooShort     = errors.New("route must have at least two waypoints")
)

// Waypoint is one placed point of a route. Every waypoint gets an opaque
// stable ID at creation time; Position is a derived view of where the
// waypoint currently sits in the route order.
type Waypoint struct {
	ID       string     `json:"id"`
	Position int        `json:"position"`
	Location Coordinate `json:"location"`
}

// Route is the ordered waypoint sequence owned by a single editing session.
// Order is insertion order; duplicates are allowed; the empty route is valid
// and means "no route". Internally waypoints are keyed by stable ID so that
// a positional edit can never silently land on a neighbour after a
// concurrent delete shifted the order.
//
// Route is not safe for concurrent use; the owning session serialises
// access.
type Route struct {
	order  []string
	points map[string]Coordinate
}

// NewRoute returns an empty route.
func NewRoute() *Route {
	return &Route{points: make(map[string]Coordinate)}
}

// Len returns the number of waypoints.
func (r *Route) Len() int {
	return len(r.order)
}

// Add appends a waypoint at the end of the route and returns it.
// Coordinates outside the valid range are rejected with ErrInvalidCoordinate.
func (r *Route) Add(c Coordinate) (Waypoint, error) {
	if !c.Valid() {
		return Waypoint{}, ErrInvalidCoordinate
	}
	id := uuid.NewString()
	r.order = append(r.order, id)
	r.points[id] = c
	return Waypoint{ID: id, Position: len(r.order) - 1, Location: c}, nil
}

// Update replaces the coordinate of the waypoint at index i, keeping its ID.
// Used for drag-to-reposition.
func (r *Route) Update(i int, c Coordinate) (Waypoint, error) {
	if i < 0 || i >= len(r.order) {
		return Waypoint{}, ErrIndexOutOfRange
	}
	if !c.Valid() {
		return Waypoint{}, ErrInvalidCoordinate
	}
	id := r.order[i]
	r.points[id] = c
	return Waypoint{ID: id, Position: i, Location: c}, nil
}

// Remove deletes the waypoint at index i. Subsequent waypoints shift down
// by one position; their IDs are unchanged.
func (r *Route) Remove(i int) error {
	if i < 0 || i >= len(r.order) {
		return ErrIndexOutOfRange
	}
	delete(r.points, r.order[i])
	r.order = append(r.order[:i], r.order[i+1:]...)
	return nil
}

// Undo removes the last waypoint. Undo on an empty route is a no-op, not an
// error. History is exactly one level deep: there is no redo.
func (r *Route) Undo() {
	if len(r.order) == 0 {
		return
	}
	last := len(r.order) - 1
	delete(r.points, r.order[last])
	r.order = r.order[:last]
}

// Clear empties the route.
func (r *Route) Clear() {
	r.order = nil
	r.points = make(map[string]Coordinate)
}

// Snapshot returns the current coordinates in route order. The returned
// slice is a copy; consumers can hold it across later mutations.
func (r *Route) Snapshot() []Coordinate {
	if len(r.order) == 0 {
		return nil
	}
	out := make([]Coordinate, len(r.order))
	for i, id := range r.order {
		out[i] = r.points[id]
	}
	return out
}

// Waypoints returns the waypoints with their derived positions.
func (r *Route) Waypoints() []Waypoint {
	if len(r.order) == 0 {
		return nil
	}
	out := make([]Waypoint, len(r.order))
	for i, id := range r.order {
		out[i] = Waypoint{ID: id, Position: i, Location: r.points[id]}
	}
	return out
}

// Load replaces the route contents with the given coordinates, assigning
// fresh IDs. Invalid coordinates are rejected wholesale so a failed load
// leaves the route unchanged.
func (r *Route) Load(coords []Coordinate) error {
	for _, c := range coords {
		if !c.Valid() {
			return ErrInvalidCoordinate
		}
	}
	r.Clear()
	for _, c := range coords {
		if _, err := r.Add(c); err != nil {
			return err
		}
	}
	return nil
}

// RouteSnapshot is the rendered state of a session's route, pushed to map
// surfaces after every mutation and returned by the read endpoints.
type RouteSnapshot struct {
	SessionID      string     `json:"session_id"`
	Waypoints      []Waypoint `json:"waypoints"`
	DistanceMeters float64    `json:"distance_meters"`
	Polyline       string     `json:"polyline,omitempty"`
	Bounds         *Bounds    `json:"bounds,omitempty"`
	Fragment       string     `json:"fragment"`
	SnapToTrail    bool       `json:"snap_to_trail"`
}
