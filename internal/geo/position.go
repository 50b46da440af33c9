package geo

// Position is a GeoJSON coordinate tuple: [lon, lat] or [lon, lat, ele].
type Position []float64

// NewPosition builds a position in GeoJSON axis order.
// Elevation is appended only when ele is non-nil, a missing value is never written as zero.
func NewPosition(lon, lat float64, ele *float64) Position {
	if ele == nil {
		return Position{lon, lat}
	}

	return Position{lon, lat, *ele}
}

// Lon returns the longitude.
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude.
func (p Position) Lat() float64 { return p[1] }

// Elevation returns the third axis if present.
func (p Position) Elevation() (float64, bool) {
	if len(p) < 3 {
		return 0, false
	}

	return p[2], true
}
