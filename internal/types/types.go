// README: Common value types shared across modules.
package types

type ID string

type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point lies inside the WGS84 coordinate ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
