// Package kml renders routes as KML LineString documents for viewers like
// Google Earth. GPX remains the primary export format; KML mirrors its
// two-waypoint minimum.
package kml

import (
	"bytes"

	gokml "github.com/twpayne/go-kml/v2"

	"github.com/Runscount/RunScout/internal/core/domain"
)

const (
	// MIMEType is the media type for KML downloads.
	MIMEType = "application/vnd.google-earth.kml+xml"
	// Filename is the suggested download filename.
	Filename = "route.kml"

	placemarkName = "RunScout route"
)

// LineString renders the route as a KML document with a single Placemark
// holding a tessellated LineString. Routes with fewer than two waypoints
// are refused with domain.ErrRouteTooShort.
func LineString(points []domain.Coordinate) ([]byte, error) {
	if len(points) < 2 {
		return nil, domain.ErrRouteTooShort
	}

	coords := make([]gokml.Coordinate, len(points))
	for i, p := range points {
		coords[i] = gokml.Coordinate{Lon: p.Lon, Lat: p.Lat}
	}

	doc := gokml.KML(
		gokml.Placemark(
			gokml.Name(placemarkName),
			gokml.LineString(
				gokml.Tessellate(true),
				gokml.Coordinates(coords...),
			),
		),
	)

	var buf bytes.Buffer
	if err := doc.WriteIndent(&buf, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
