// Package nominatim implements the Geocoder port against a
// Nominatim-compatible search endpoint (OpenStreetMap's place search).
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Runscount/RunScout/internal/core/domain"
)

// Client is a minimal Nominatim search client. It performs one request per
// lookup; retry and backoff are left to the caller's judgement, and the
// upstream usage policy (one request per second, identifying User-Agent) is
// respected by construction.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// New creates a Client. baseURL defaults to the public OSM instance.
func New(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if userAgent == "" {
		userAgent = "RunScout/1.0"
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// searchResult is the subset of the Nominatim response we consume.
// Nominatim serialises coordinates as strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search resolves a free-text query into ranked candidates. Zero results is
// not an error here; the caller decides how to surface an empty response.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeCandidate, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", strconv.Itoa(limit))

	requestURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("nominatim rate limit exceeded")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nominatim error %d: %s", resp.StatusCode, string(body))
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	candidates := make([]domain.GeocodeCandidate, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		c := domain.Coordinate{Lat: lat, Lon: lon}
		if !c.Valid() {
			continue
		}
		candidates = append(candidates, domain.GeocodeCandidate{
			Location: c,
			Label:    r.DisplayName,
		})
	}
	return candidates, nil
}
