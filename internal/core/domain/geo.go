package domain

// Coordinate is a geographic position in decimal degrees (WGS 84).
// Value type: a Coordinate is never mutated after construction.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies inside the WGS 84 domain.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Bounds is a geographic bounding box, used for map bounds-fit requests.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// GeocodeCandidate is one ranked result of a place-name lookup.
type GeocodeCandidate struct {
	Location Coordinate `json:"location"`
	Label    string     `json:"label"`
}
