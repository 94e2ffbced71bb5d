package usecases

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/twpayne/go-polyline"

	"github.com/Runscount/RunScout/internal/core/domain"
	"github.com/Runscount/RunScout/internal/core/ports"
	"github.com/Runscount/RunScout/internal/pkg/fragment"
	"github.com/Runscount/RunScout/internal/pkg/geospatial"
	"github.com/Runscount/RunScout/internal/pkg/gpx"
	"github.com/Runscount/RunScout/internal/pkg/kml"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSnapUnavailable is returned when a client tries to enable the
	// snap-to-trail toggle. The toggle exists but no snapping backend does.
	ErrSnapUnavailable = errors.New("snap-to-trail is not available")
)

// defaultWaypoints seed a brand-new session when the client asks for the
// built-in demo route (Chicago lakefront).
var defaultWaypoints = []domain.Coordinate{
	{Lat: 41.87811, Lon: -87.62980},
	{Lat: 41.88425, Lon: -87.63245},
	{Lat: 41.89103, Lon: -87.60788},
}

// session is one editing session owning exactly one route. Route access is
// serialised through mu; lookupSeq orders geocode lookups so that a stale
// response can be recognised and discarded.
type session struct {
	id         string
	mu         sync.Mutex
	route      *domain.Route
	lookupSeq  uint64
	lastActive time.Time
}

// SessionService owns all live editing sessions. Sessions are held in
// memory only — the shareable URL fragment is the sole persistence format —
// and are dropped after sitting idle for the configured TTL.
type SessionService struct {
	mu        sync.RWMutex
	sessions  map[string]*session
	fragments ports.FragmentStore
	publisher ports.RoutePublisher
	idleTTL   time.Duration
}

// NewSessionService creates a new SessionService.
func NewSessionService(fragments ports.FragmentStore, publisher ports.RoutePublisher, idleTTL time.Duration) *SessionService {
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	return &SessionService{
		sessions:  make(map[string]*session),
		fragments: fragments,
		publisher: publisher,
		idleTTL:   idleTTL,
	}
}

// CreateOptions controls how a new session's route starts out.
type CreateOptions struct {
	// Fragment, when set, is decoded into the initial route. Malformed
	// entries are dropped per the fragment format rules.
	Fragment string
	// UseDefaults seeds the built-in demo route. Ignored when Fragment is
	// set.
	UseDefaults bool
}

// Create starts a new session: empty, from the built-in defaults, or from a
// decoded URL fragment.
func (s *SessionService) Create(ctx context.Context, opts CreateOptions) (*domain.RouteSnapshot, error) {
	route := domain.NewRoute()
	switch {
	case opts.Fragment != "":
		// Decoded coordinates are already range-checked, so Load cannot fail.
		if err := route.Load(fragment.Decode(opts.Fragment)); err != nil {
			return nil, err
		}
	case opts.UseDefaults:
		if err := route.Load(defaultWaypoints); err != nil {
			return nil, err
		}
	}

	sess := &session{
		id:         uuid.NewString(),
		route:      route,
		lastActive: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.sync(ctx, sess), nil
}

// End discards a session and its stored fragment.
func (s *SessionService) End(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	if s.fragments != nil {
		_ = s.fragments.Delete(ctx, id)
	}
	return nil
}

// Snapshot returns the current rendered state of a session's route.
func (s *SessionService) Snapshot(ctx context.Context, id string) (*domain.RouteSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.buildSnapshot(sess), nil
}

// AddWaypoint appends a waypoint (map surface "point-added" intent).
func (s *SessionService) AddWaypoint(ctx context.Context, id string, c domain.Coordinate) (*domain.RouteSnapshot, error) {
	return s.mutate(ctx, id, func(r *domain.Route) error {
		_, err := r.Add(c)
		return err
	})
}

// MoveWaypoint repositions the waypoint at index (map surface
// "point-moved" intent, i.e. a drag).
func (s *SessionService) MoveWaypoint(ctx context.Context, id string, index int, c domain.Coordinate) (*domain.RouteSnapshot, error) {
	return s.mutate(ctx, id, func(r *domain.Route) error {
		_, err := r.Update(index, c)
		return err
	})
}

// RemoveWaypoint deletes the waypoint at index (map surface
// "point-removed" intent).
func (s *SessionService) RemoveWaypoint(ctx context.Context, id string, index int) (*domain.RouteSnapshot, error) {
	return s.mutate(ctx, id, func(r *domain.Route) error {
		return r.Remove(index)
	})
}

// Undo removes the last waypoint. One level only; undo on an empty route is
// a no-op.
func (s *SessionService) Undo(ctx context.Context, id string) (*domain.RouteSnapshot, error) {
	return s.mutate(ctx, id, func(r *domain.Route) error {
		r.Undo()
		return nil
	})
}

// Clear empties the route.
func (s *SessionService) Clear(ctx context.Context, id string) (*domain.RouteSnapshot, error) {
	return s.mutate(ctx, id, func(r *domain.Route) error {
		r.Clear()
		return nil
	})
}

// LoadFragment replaces the session's route with the waypoints decoded from
// a shared URL fragment.
func (s *SessionService) LoadFragment(ctx context.Context, id, frag string) (*domain.RouteSnapshot, error) {
	return s.mutate(ctx, id, func(r *domain.Route) error {
		return r.Load(fragment.Decode(frag))
	})
}

// Fragment returns the session's current shareable fragment. It prefers the
// fragment store (the persisted copy) and falls back to re-encoding.
func (s *SessionService) Fragment(ctx context.Context, id string) (string, error) {
	sess, err := s.get(id)
	if err != nil {
		return "", err
	}
	if s.fragments != nil {
		if frag, err := s.fragments.Get(ctx, id); err == nil && frag != "" {
			return frag, nil
		}
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.buildSnapshot(sess).Fragment, nil
}

// ExportGPX renders the session's route as a GPX 1.1 track.
func (s *SessionService) ExportGPX(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	points := sess.route.Snapshot()
	sess.mu.Unlock()
	return gpx.Track(points)
}

// ExportKML renders the session's route as a KML LineString.
func (s *SessionService) ExportKML(ctx context.Context, id string) ([]byte, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	points := sess.route.Snapshot()
	sess.mu.Unlock()
	return kml.LineString(points)
}

// SetSnapToTrail flips the snap-to-trail toggle. Turning it on always fails:
// the toggle is a placeholder until a snapping backend exists. Turning it
// off succeeds trivially.
func (s *SessionService) SetSnapToTrail(ctx context.Context, id string, enabled bool) (*domain.RouteSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if enabled {
		return nil, ErrSnapUnavailable
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.buildSnapshot(sess), nil
}

// BeginGeocode issues a new lookup sequence number for the session. Any
// lookup holding an older number is superseded from the user's perspective.
func (s *SessionService) BeginGeocode(id string) (uint64, error) {
	sess, err := s.get(id)
	if err != nil {
		return 0, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lookupSeq++
	return sess.lookupSeq, nil
}

// GeocodeCurrent reports whether seq is still the session's newest lookup.
func (s *SessionService) GeocodeCurrent(id string, seq uint64) bool {
	sess, err := s.get(id)
	if err != nil {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.lookupSeq == seq
}

// Count returns the number of live sessions (a gauge for metrics).
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle longer than the TTL and returns how many were
// removed. RunSweeper calls it periodically.
func (s *SessionService) Sweep(ctx context.Context) int {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastActive.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	if s.fragments != nil {
		for _, id := range expired {
			_ = s.fragments.Delete(ctx, id)
		}
	}
	return len(expired)
}

// RunSweeper expires idle sessions until the context is cancelled.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *SessionService) get(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// mutate applies fn to the session's route and, on success, persists the
// fragment and publishes the fresh snapshot. A failed mutation changes
// nothing and publishes nothing.
func (s *SessionService) mutate(ctx context.Context, id string, fn func(*domain.Route) error) (*domain.RouteSnapshot, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := fn(sess.route); err != nil {
		return nil, err
	}
	return s.sync(ctx, sess), nil
}

// sync rebuilds the snapshot after a change, persists the fragment through
// the store port, and pushes the snapshot to subscribed map surfaces.
// Callers must hold sess.mu.
func (s *SessionService) sync(ctx context.Context, sess *session) *domain.RouteSnapshot {
	sess.lastActive = time.Now()
	snap := s.buildSnapshot(sess)
	if s.fragments != nil {
		_ = s.fragments.Set(ctx, sess.id, snap.Fragment)
	}
	if s.publisher != nil {
		_ = s.publisher.PublishSnapshot(ctx, snap)
	}
	return snap
}

// buildSnapshot derives the rendered state from the route. Total distance
// is always recomputed here — it is never stored alongside the route.
// Callers must hold sess.mu.
func (s *SessionService) buildSnapshot(sess *session) *domain.RouteSnapshot {
	points := sess.route.Snapshot()
	distance := geospatial.PathLength(points)

	extra := map[string]string{}
	if len(points) >= 2 {
		// Rounded distance hint for humans reading the link.
		extra["dist"] = strconv.FormatFloat(math.Round(distance), 'f', -1, 64)
	}

	snap := &domain.RouteSnapshot{
		SessionID:      sess.id,
		Waypoints:      sess.route.Waypoints(),
		DistanceMeters: distance,
		Bounds:         geospatial.PathBounds(points),
		Fragment:       fragment.Encode(points, extra),
		SnapToTrail:    false,
	}

	if len(points) >= 2 {
		coords := make([][]float64, len(points))
		for i, p := range points {
			coords[i] = []float64{p.Lat, p.Lon}
		}
		snap.Polyline = string(polyline.EncodeCoords(coords))
	}
	return snap
}
