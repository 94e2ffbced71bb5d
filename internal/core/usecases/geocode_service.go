package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Runscount/RunScout/internal/core/domain"
	"github.com/Runscount/RunScout/internal/core/ports"
)

var (
	// ErrNoCandidates means the lookup succeeded but matched nothing. It is
	// retryable and never touches route state.
	ErrNoCandidates = errors.New("no geocoding candidates found")
	// ErrLookupSuperseded means a newer lookup was issued for the session
	// while this one was in flight; the stale result must be discarded.
	ErrLookupSuperseded = errors.New("geocode lookup superseded by a newer query")
)

const geocodeCacheTTL = 3600 // seconds

// GeocodeService resolves place names for editing sessions. One lookup per
// session is considered live at a time: issuing a new query supersedes the
// previous one, and a slower-but-earlier response is discarded rather than
// shown.
type GeocodeService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
	sessions *SessionService
}

// NewGeocodeService creates a new GeocodeService.
func NewGeocodeService(geocoder ports.Geocoder, cache ports.CacheService, sessions *SessionService) *GeocodeService {
	return &GeocodeService{geocoder: geocoder, cache: cache, sessions: sessions}
}

// Search resolves query into ranked candidates on behalf of a session.
func (s *GeocodeService) Search(ctx context.Context, sessionID, query string, limit int) ([]domain.GeocodeCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("geocode query must not be empty")
	}
	if limit <= 0 || limit > 10 {
		limit = 5
	}

	seq, err := s.sessions.BeginGeocode(sessionID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.lookup(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	// A newer query for this session has taken over; this response is stale.
	if !s.sessions.GeocodeCurrent(sessionID, seq) {
		return nil, ErrLookupSuperseded
	}

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return candidates, nil
}

// lookup hits the cache first, then the geocoder. Cache writes are
// best-effort.
func (s *GeocodeService) lookup(ctx context.Context, query string, limit int) ([]domain.GeocodeCandidate, error) {
	cacheKey := fmt.Sprintf("geocode:%d:%s", limit, strings.ToLower(query))
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []domain.GeocodeCandidate
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	candidates, err := s.geocoder.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("geocoder: %w", err)
	}

	if s.cache != nil && len(candidates) > 0 {
		if data, err := json.Marshal(candidates); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, geocodeCacheTTL)
		}
	}
	return candidates, nil
}
