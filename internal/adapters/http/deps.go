package http

import (
	"github.com/nats-io/nats.go"

	"github.com/Runscount/RunScout/internal/adapters/valkey"
	"github.com/Runscount/RunScout/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions *usecases.SessionService
	Geocode  *usecases.GeocodeService
	NATS     *nats.Conn
	Cache    *valkey.Cache
}
