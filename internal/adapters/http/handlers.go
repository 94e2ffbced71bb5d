package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Runscount/RunScout/internal/core/domain"
	"github.com/Runscount/RunScout/internal/core/usecases"
	"github.com/Runscount/RunScout/internal/pkg/fragment"
	"github.com/Runscount/RunScout/internal/pkg/gpx"
	"github.com/Runscount/RunScout/internal/pkg/kml"
	"github.com/Runscount/RunScout/internal/pkg/metrics"
)

type createSessionRequest struct {
	Fragment    string `json:"fragment,omitempty"`
	UseDefaults bool   `json:"use_defaults,omitempty"`
}

type coordinateRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type fragmentRequest struct {
	Fragment string `json:"fragment"`
}

type snapRequest struct {
	Enabled bool `json:"enabled"`
}

// CreateSessionHandler starts a new editing session. The route is seeded
// from a URL fragment when one is supplied, from the starter waypoints when
// use_defaults is set, and is empty otherwise.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSessionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid JSON body")
			}
		}

		snap, err := deps.Sessions.Create(c.Context(), usecases.CreateOptions{
			Fragment:    req.Fragment,
			UseDefaults: req.UseDefaults,
		})
		if err != nil {
			return errInternal(c, err.Error())
		}

		metrics.SessionsStarted.Inc()
		return c.Status(fiber.StatusCreated).JSON(snap)
	}
}

// GetSessionHandler returns the current snapshot for a session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Sessions.Snapshot(c.Context(), c.Params("id"))
		if err != nil {
			return routeError(c, err)
		}
		return c.JSON(snap)
	}
}

// EndSessionHandler discards a session and its stored fragment.
func EndSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.End(c.Context(), c.Params("id")); err != nil {
			return routeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AddWaypointHandler appends a waypoint to the end of the route.
func AddWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req coordinateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		snap, err := deps.Sessions.AddWaypoint(c.Context(), c.Params("id"), domain.Coordinate{Lat: req.Lat, Lon: req.Lon})
		if err != nil {
			return routeError(c, err)
		}

		metrics.RouteMutations.WithLabelValues("add").Inc()
		return c.Status(fiber.StatusCreated).JSON(snap)
	}
}

// MoveWaypointHandler replaces the coordinate of the waypoint at an index.
func MoveWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		index, err := c.ParamsInt("index")
		if err != nil || index < 0 {
			return errBadRequest(c, "index must be a non-negative integer")
		}

		var req coordinateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		snap, err := deps.Sessions.MoveWaypoint(c.Context(), c.Params("id"), index, domain.Coordinate{Lat: req.Lat, Lon: req.Lon})
		if err != nil {
			return routeError(c, err)
		}

		metrics.RouteMutations.WithLabelValues("move").Inc()
		return c.JSON(snap)
	}
}

// RemoveWaypointHandler deletes the waypoint at an index. Later waypoints
// shift down by one.
func RemoveWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		index, err := c.ParamsInt("index")
		if err != nil || index < 0 {
			return errBadRequest(c, "index must be a non-negative integer")
		}

		snap, err := deps.Sessions.RemoveWaypoint(c.Context(), c.Params("id"), index)
		if err != nil {
			return routeError(c, err)
		}

		metrics.RouteMutations.WithLabelValues("remove").Inc()
		return c.JSON(snap)
	}
}

// UndoHandler reverts the most recent waypoint addition. Undoing with no
// waypoints is a no-op, not an error.
func UndoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Sessions.Undo(c.Context(), c.Params("id"))
		if err != nil {
			return routeError(c, err)
		}

		metrics.RouteMutations.WithLabelValues("undo").Inc()
		return c.JSON(snap)
	}
}

// ClearHandler removes every waypoint from the route.
func ClearHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := deps.Sessions.Clear(c.Context(), c.Params("id"))
		if err != nil {
			return routeError(c, err)
		}

		metrics.RouteMutations.WithLabelValues("clear").Inc()
		return c.JSON(snap)
	}
}

// GetFragmentHandler returns the shareable URL fragment for a session.
func GetFragmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		frag, err := deps.Sessions.Fragment(c.Context(), c.Params("id"))
		if err != nil {
			return routeError(c, err)
		}
		return c.JSON(fiber.Map{"fragment": frag})
	}
}

// LoadFragmentHandler replaces a session's route with one decoded from a
// URL fragment. Entries that fail to parse are dropped rather than
// rejecting the whole fragment.
func LoadFragmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req fragmentRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		snap, err := deps.Sessions.LoadFragment(c.Context(), c.Params("id"), req.Fragment)
		if err != nil {
			return routeError(c, err)
		}

		metrics.RouteMutations.WithLabelValues("load").Inc()
		return c.JSON(snap)
	}
}

// DecodeFragmentHandler decodes a URL fragment into waypoints without
// touching any session state.
func DecodeFragmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req fragmentRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		points := fragment.Decode(req.Fragment)
		return c.JSON(fiber.Map{"waypoints": points, "count": len(points)})
	}
}

// ExportGPXHandler renders the route as a downloadable GPX track.
func ExportGPXHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := deps.Sessions.ExportGPX(c.Context(), c.Params("id"))
		if err != nil {
			return routeError(c, err)
		}

		metrics.RouteExports.WithLabelValues("gpx").Inc()
		c.Set(fiber.HeaderContentType, gpx.MIMEType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+gpx.Filename+`"`)
		return c.Send(data)
	}
}

// ExportKMLHandler renders the route as a downloadable KML line string.
func ExportKMLHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := deps.Sessions.ExportKML(c.Context(), c.Params("id"))
		if err != nil {
			return routeError(c, err)
		}

		metrics.RouteExports.WithLabelValues("kml").Inc()
		c.Set(fiber.HeaderContentType, kml.MIMEType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+kml.Filename+`"`)
		return c.Send(data)
	}
}

// GeocodeHandler searches place names and returns candidate coordinates.
// Only the newest lookup in a session wins; a lookup that was superseded
// while in flight returns 409 and its results must be discarded.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 5)

		candidates, err := deps.Geocode.Search(c.Context(), c.Params("id"), query, limit)
		switch {
		case err == nil:
		case errors.Is(err, usecases.ErrSessionNotFound):
			return errNotFound(c, "session not found")
		case errors.Is(err, usecases.ErrNoCandidates):
			metrics.GeocodeLookups.WithLabelValues("empty").Inc()
			return errNotFound(c, "no results for that query")
		case errors.Is(err, usecases.ErrLookupSuperseded):
			metrics.GeocodeLookups.WithLabelValues("superseded").Inc()
			return errConflict(c, "superseded", "a newer lookup replaced this one")
		default:
			metrics.GeocodeLookups.WithLabelValues("error").Inc()
			return errBadGateway(c, "geocoder unavailable")
		}

		metrics.GeocodeLookups.WithLabelValues("ok").Inc()
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(fiber.Map{"query": query, "candidates": candidates})
	}
}

// SnapHandler toggles snap-to-trail. Enabling it reports 501 until a trail
// network source is wired in; disabling always succeeds.
func SnapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req snapRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		snap, err := deps.Sessions.SetSnapToTrail(c.Context(), c.Params("id"), req.Enabled)
		if err != nil {
			return routeError(c, err)
		}
		return c.JSON(snap)
	}
}
