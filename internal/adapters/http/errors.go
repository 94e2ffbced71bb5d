package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Runscount/RunScout/internal/core/domain"
	"github.com/Runscount/RunScout/internal/core/usecases"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, code, msg string) error {
	return newError(c, 409, code, msg)
}

// errUnprocessable returns a 422 error.
func errUnprocessable(c *fiber.Ctx, msg string) error {
	return newError(c, 422, "unprocessable", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errNotImplemented returns a 501 error.
func errNotImplemented(c *fiber.Ctx, msg string) error {
	return newError(c, 501, "not_implemented", msg)
}

// errBadGateway returns a 502 error for upstream (geocoder) failures. These
// are retryable from the client's perspective.
func errBadGateway(c *fiber.Ctx, msg string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(502).JSON(APIError{
		Status:    502,
		Code:      "upstream_error",
		Message:   msg,
		RequestID: reqID,
		Retryable: true,
	})
}

// routeError maps core errors onto HTTP responses. Everything the core
// returns is recoverable; nothing here ends the session.
func routeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecases.ErrSessionNotFound):
		return errNotFound(c, "session not found")
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return errNotFound(c, "no waypoint at that index")
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return errBadRequest(c, "latitude must be in [-90, 90] and longitude in [-180, 180]")
	case errors.Is(err, domain.ErrRouteTooShort):
		return errUnprocessable(c, "route needs at least two waypoints to export")
	case errors.Is(err, usecases.ErrSnapUnavailable):
		return errNotImplemented(c, "snap-to-trail is not available yet")
	default:
		return errInternal(c, err.Error())
	}
}
