package geospatial

import (
	"math"

	"github.com/Runscount/RunScout/internal/core/domain"
)

const earthRadiusM = 6371000.0

// Haversine calculates the great-circle distance in meters between two
// points on a spherical Earth.
func Haversine(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusM * c
}

// PathLength returns the sum of segment distances over consecutive points.
// Paths with fewer than two points have length 0.
func PathLength(points []domain.Coordinate) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1], points[i])
	}
	return total
}

// PathBounds returns the bounding box of the points, or nil for an empty
// path. Map surfaces use it for bounds-fit requests.
func PathBounds(points []domain.Coordinate) *domain.Bounds {
	if len(points) == 0 {
		return nil
	}
	b := &domain.Bounds{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLon: points[0].Lon, MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
