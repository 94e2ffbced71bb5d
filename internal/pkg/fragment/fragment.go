// Package fragment maps route state to and from the shareable URL fragment
// of the form:
//
//	#wps=lat1,lon1|lat2,lon2|...&key=value&...
//
// Coordinates are written at fixed 5-decimal precision (~1.1 m), which keeps
// links compact; full-precision export is the GPX serializer's job.
package fragment

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Runscount/RunScout/internal/core/domain"
)

const wpsKey = "wps"

// Encode renders the coordinates and optional scalar metadata as a URL
// fragment. Metadata keys are emitted in sorted order so the same input
// always yields the same fragment.
func Encode(points []domain.Coordinate, extra map[string]string) string {
	var b strings.Builder
	b.WriteByte('#')
	b.WriteString(wpsKey)
	b.WriteByte('=')
	for i, p := range points {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(formatCoord(p.Lat))
		b.WriteByte(',')
		b.WriteString(formatCoord(p.Lon))
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		if k == wpsKey {
			continue // reserved
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(extra[k])
	}
	return b.String()
}

// Decode parses the wps parameter of a fragment into coordinates. Malformed
// entries — wrong arity, non-numeric, non-finite, or out-of-range values —
// are dropped silently: a partially valid fragment yields a partial route.
// A missing or empty wps parameter yields no coordinates and no error, and
// unknown metadata keys are ignored, so old links keep decoding.
func Decode(frag string) []domain.Coordinate {
	frag = strings.TrimPrefix(frag, "#")
	if frag == "" {
		return nil
	}

	var wps string
	for _, param := range strings.Split(frag, "&") {
		if v, ok := strings.CutPrefix(param, wpsKey+"="); ok {
			wps = v
			break
		}
	}
	if wps == "" {
		return nil
	}

	var points []domain.Coordinate
	for _, pair := range strings.Split(wps, "|") {
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
			continue
		}
		c := domain.Coordinate{Lat: lat, Lon: lon}
		if !c.Valid() {
			continue
		}
		points = append(points, c)
	}
	return points
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', 5, 64)
}
