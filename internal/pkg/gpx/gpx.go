// Package gpx serializes routes as GPX 1.1 track documents.
package gpx

import (
	"encoding/xml"
	"strconv"

	"github.com/Runscount/RunScout/internal/core/domain"
)

const (
	// MIMEType is the media type for GPX downloads.
	MIMEType = "application/gpx+xml"
	// Filename is the suggested download filename.
	Filename = "route.gpx"

	creator   = "RunScout"
	trackName = "RunScout route"
)

type gpxDoc struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Track   track    `xml:"trk"`
}

type track struct {
	Name    string  `xml:"name"`
	Segment segment `xml:"trkseg"`
}

type segment struct {
	Points []trackPoint `xml:"trkpt"`
}

type trackPoint struct {
	Lat string `xml:"lat,attr"`
	Lon string `xml:"lon,attr"`
	Ele int    `xml:"ele"`
}

// Track renders the route as a GPX 1.1 document: one track, one segment,
// one track point per waypoint, elevation fixed at 0. Coordinates keep full
// float precision, unlike the 5-decimal URL fragment. The output is
// byte-for-byte stable for a given route.
//
// Routes with fewer than two waypoints are not meaningful tracks and are
// refused with domain.ErrRouteTooShort.
func Track(points []domain.Coordinate) ([]byte, error) {
	if len(points) < 2 {
		return nil, domain.ErrRouteTooShort
	}

	doc := gpxDoc{
		Version: "1.1",
		Creator: creator,
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Track: track{
			Name:    trackName,
			Segment: segment{Points: make([]trackPoint, len(points))},
		},
	}
	for i, p := range points {
		doc.Track.Segment.Points[i] = trackPoint{
			Lat: strconv.FormatFloat(p.Lat, 'f', -1, 64),
			Lon: strconv.FormatFloat(p.Lon, 'f', -1, 64),
		}
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}
