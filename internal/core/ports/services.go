package ports

import (
	"context"

	"github.com/Runscount/RunScout/internal/core/domain"
)

// Geocoder resolves a free-text place query into ranked candidates.
// Retry, backoff, and ranking live behind this port; the core only consumes
// the candidate the user picks.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]domain.GeocodeCandidate, error)
}

// RoutePublisher pushes route snapshots to whatever is fanning them out to
// connected map surfaces.
type RoutePublisher interface {
	PublishSnapshot(ctx context.Context, snap *domain.RouteSnapshot) error
}

// FragmentStore is where the shareable URL fragment for a session lives.
// The core never touches the address bar (or any other ambient location)
// directly; it reads and writes fragments through this port.
type FragmentStore interface {
	Get(ctx context.Context, sessionID string) (string, error)
	Set(ctx context.Context, sessionID, frag string) error
	Delete(ctx context.Context, sessionID string) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
