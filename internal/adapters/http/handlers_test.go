package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/Runscount/RunScout/internal/adapters/http"
	"github.com/Runscount/RunScout/internal/adapters/memory"
	"github.com/Runscount/RunScout/internal/core/domain"
	"github.com/Runscount/RunScout/internal/core/usecases"
)

// ---- Mocks ----

type mockGeocoder struct {
	searchFn func(ctx context.Context, query string, limit int) ([]domain.GeocodeCandidate, error)
}

func (m *mockGeocoder) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeCandidate, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	sessions := usecases.NewSessionService(memory.NewFragmentStore(), nil, 30*time.Minute)
	d := &handler.Dependencies{
		Sessions: sessions,
		Geocode:  usecases.NewGeocodeService(&mockGeocoder{}, nil, sessions),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func createSession(t *testing.T, app *fiber.App, body string) *domain.RouteSnapshot {
	t.Helper()
	req := httptest.NewRequest("POST", "/v1/sessions", strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("create session: expected 201, got %d", resp.StatusCode)
	}
	var snap domain.RouteSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	return &snap
}

// ---- Session handler tests ----

func TestCreateSession_Empty(t *testing.T) {
	app := setupApp(makeDeps())

	snap := createSession(t, app, "")
	if snap.SessionID == "" {
		t.Error("expected a session id")
	}
	if len(snap.Waypoints) != 0 {
		t.Errorf("expected empty route, got %d waypoints", len(snap.Waypoints))
	}
	if snap.Fragment != "#wps=" {
		t.Errorf("expected empty fragment, got %q", snap.Fragment)
	}
}

func TestCreateSession_Defaults(t *testing.T) {
	app := setupApp(makeDeps())

	snap := createSession(t, app, `{"use_defaults":true}`)
	if len(snap.Waypoints) != 3 {
		t.Fatalf("expected 3 starter waypoints, got %d", len(snap.Waypoints))
	}
	if snap.DistanceMeters <= 0 {
		t.Errorf("expected positive distance, got %f", snap.DistanceMeters)
	}
	if snap.Polyline == "" {
		t.Error("expected a polyline for a multi-point route")
	}
}

func TestCreateSession_FromFragment(t *testing.T) {
	app := setupApp(makeDeps())

	snap := createSession(t, app, `{"fragment":"#wps=41.87811,-87.62980|41.88425,-87.63245"}`)
	if len(snap.Waypoints) != 2 {
		t.Fatalf("expected 2 waypoints, got %d", len(snap.Waypoints))
	}
}

func TestGetSession_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/sessions/nope", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found error, got %s", apiErr.Code)
	}
}

func TestEndSession(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, "")

	req := httptest.NewRequest("DELETE", "/v1/sessions/"+snap.SessionID, nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/v1/sessions/"+snap.SessionID, nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 after end, got %d", resp.StatusCode)
	}
}

// ---- Waypoint handler tests ----

func TestAddWaypoint(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, "")

	req := httptest.NewRequest("POST", "/v1/sessions/"+snap.SessionID+"/waypoints",
		strings.NewReader(`{"lat":41.87811,"lon":-87.62980}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var got domain.RouteSnapshot
	json.NewDecoder(resp.Body).Decode(&got)
	if len(got.Waypoints) != 1 {
		t.Errorf("expected 1 waypoint, got %d", len(got.Waypoints))
	}
	if got.Waypoints[0].ID == "" {
		t.Error("expected waypoint to carry a stable id")
	}
}

func TestAddWaypoint_InvalidCoordinate(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, "")

	req := httptest.NewRequest("POST", "/v1/sessions/"+snap.SessionID+"/waypoints",
		strings.NewReader(`{"lat":95.0,"lon":10.0}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMoveWaypoint_BadIndex(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, "")

	req := httptest.NewRequest("PUT", "/v1/sessions/"+snap.SessionID+"/waypoints/3",
		strings.NewReader(`{"lat":41.0,"lon":-87.0}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 for out-of-range index, got %d", resp.StatusCode)
	}
}

func TestRemoveAndUndoWaypoints(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, `{"use_defaults":true}`)
	id := snap.SessionID

	req := httptest.NewRequest("DELETE", "/v1/sessions/"+id+"/waypoints/0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("remove: expected 200, got %d", resp.StatusCode)
	}
	var got domain.RouteSnapshot
	json.NewDecoder(resp.Body).Decode(&got)
	if len(got.Waypoints) != 2 {
		t.Fatalf("expected 2 waypoints after remove, got %d", len(got.Waypoints))
	}

	req = httptest.NewRequest("POST", "/v1/sessions/"+id+"/undo", nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("undo: expected 200, got %d", resp.StatusCode)
	}
	json.NewDecoder(resp.Body).Decode(&got)
	if len(got.Waypoints) != 1 {
		t.Errorf("expected 1 waypoint after undo, got %d", len(got.Waypoints))
	}

	req = httptest.NewRequest("POST", "/v1/sessions/"+id+"/clear", nil)
	resp, _ = app.Test(req, -1)
	json.NewDecoder(resp.Body).Decode(&got)
	if len(got.Waypoints) != 0 {
		t.Errorf("expected empty route after clear, got %d", len(got.Waypoints))
	}
}

// ---- Fragment handler tests ----

func TestLoadFragment_DropsMalformed(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, "")

	req := httptest.NewRequest("PUT", "/v1/sessions/"+snap.SessionID+"/fragment",
		strings.NewReader(`{"fragment":"#wps=41.0,not-a-number|41.1,-87.6"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got domain.RouteSnapshot
	json.NewDecoder(resp.Body).Decode(&got)
	if len(got.Waypoints) != 1 {
		t.Errorf("expected malformed entry to be dropped, got %d waypoints", len(got.Waypoints))
	}
}

func TestGetFragment(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, `{"use_defaults":true}`)

	req := httptest.NewRequest("GET", "/v1/sessions/"+snap.SessionID+"/fragment", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got struct {
		Fragment string `json:"fragment"`
	}
	json.NewDecoder(resp.Body).Decode(&got)
	if !strings.HasPrefix(got.Fragment, "#wps=") {
		t.Errorf("expected fragment starting with #wps=, got %q", got.Fragment)
	}
}

func TestDecodeFragment_NoSession(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/fragments/decode",
		strings.NewReader(`{"fragment":"#wps=41.87811,-87.62980|bogus|41.88425,-87.63245"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got struct {
		Count int `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&got)
	if got.Count != 2 {
		t.Errorf("expected 2 decoded waypoints, got %d", got.Count)
	}
}

// ---- Export handler tests ----

func TestExportGPX(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, `{"use_defaults":true}`)

	req := httptest.NewRequest("GET", "/v1/sessions/"+snap.SessionID+"/export.gpx", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/gpx+xml" {
		t.Errorf("expected gpx content type, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "route.gpx") {
		t.Errorf("expected attachment filename, got %q", cd)
	}
}

func TestExportGPX_TooShort(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, "")

	req := httptest.NewRequest("GET", "/v1/sessions/"+snap.SessionID+"/export.gpx", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 422 {
		t.Fatalf("expected 422 for a route under two waypoints, got %d", resp.StatusCode)
	}
}

func TestExportKML(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, `{"use_defaults":true}`)

	req := httptest.NewRequest("GET", "/v1/sessions/"+snap.SessionID+"/export.kml", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "route.kml") {
		t.Errorf("expected attachment filename, got %q", cd)
	}
}

// ---- Geocode handler tests ----

func TestGeocode_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Geocode = usecases.NewGeocodeService(&mockGeocoder{
			searchFn: func(ctx context.Context, query string, limit int) ([]domain.GeocodeCandidate, error) {
				return []domain.GeocodeCandidate{
					{Location: domain.Coordinate{Lat: 41.88, Lon: -87.63}, Label: "Chicago, IL"},
				}, nil
			},
		}, nil, d.Sessions)
	})
	app := setupApp(deps)
	snap := createSession(t, app, "")

	req := httptest.NewRequest("GET", "/v1/sessions/"+snap.SessionID+"/geocode?q=chicago", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got struct {
		Query      string                    `json:"query"`
		Candidates []domain.GeocodeCandidate `json:"candidates"`
	}
	json.NewDecoder(resp.Body).Decode(&got)
	if len(got.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got.Candidates))
	}
	if got.Candidates[0].Label != "Chicago, IL" {
		t.Errorf("unexpected label %q", got.Candidates[0].Label)
	}
}

func TestGeocode_NoResults(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, "")

	req := httptest.NewRequest("GET", "/v1/sessions/"+snap.SessionID+"/geocode?q=nowhere", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 for empty results, got %d", resp.StatusCode)
	}
}

func TestGeocode_UpstreamError(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Geocode = usecases.NewGeocodeService(&mockGeocoder{
			searchFn: func(ctx context.Context, query string, limit int) ([]domain.GeocodeCandidate, error) {
				return nil, context.DeadlineExceeded
			},
		}, nil, d.Sessions)
	})
	app := setupApp(deps)
	snap := createSession(t, app, "")

	req := httptest.NewRequest("GET", "/v1/sessions/"+snap.SessionID+"/geocode?q=chicago", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502 for upstream failure, got %d", resp.StatusCode)
	}
}

func TestGeocode_MissingQuery(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, "")

	req := httptest.NewRequest("GET", "/v1/sessions/"+snap.SessionID+"/geocode", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Snap-to-trail tests ----

func TestSnapToTrail_EnableUnavailable(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, "")

	req := httptest.NewRequest("PUT", "/v1/sessions/"+snap.SessionID+"/snap",
		strings.NewReader(`{"enabled":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 501 {
		t.Fatalf("expected 501, got %d", resp.StatusCode)
	}
}

func TestSnapToTrail_DisableOK(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, "")

	req := httptest.NewRequest("PUT", "/v1/sessions/"+snap.SessionID+"/snap",
		strings.NewReader(`{"enabled":false}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

// ---- GraphQL tests ----

func TestGraphQL_Session(t *testing.T) {
	app := setupApp(makeDeps())
	snap := createSession(t, app, `{"use_defaults":true}`)

	query := `{"query":"query($id: String!) { session(id: $id) { session_id distance_meters } }","variables":{"id":"` + snap.SessionID + `"}}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(query))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Session struct {
				SessionID      string  `json:"session_id"`
				DistanceMeters float64 `json:"distance_meters"`
			} `json:"session"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected graphql errors: %v", result.Errors)
	}
	if result.Data.Session.SessionID != snap.SessionID {
		t.Errorf("expected session %s, got %s", snap.SessionID, result.Data.Session.SessionID)
	}
	if result.Data.Session.DistanceMeters <= 0 {
		t.Error("expected positive distance")
	}
}

func TestGraphQL_DecodeFragment(t *testing.T) {
	app := setupApp(makeDeps())

	query := `{"query":"{ decodeFragment(fragment: \"#wps=41.87811,-87.62980|41.88425,-87.63245\") { lat lon } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(query))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			DecodeFragment []domain.Coordinate `json:"decodeFragment"`
		} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Data.DecodeFragment) != 2 {
		t.Errorf("expected 2 coordinates, got %d", len(result.Data.DecodeFragment))
	}
}

// ---- Health tests ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
