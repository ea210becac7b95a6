// README: Fare calculator; fares are fixed at ride creation and never recomputed.
package pricing

import (
	"math"

	"glide/internal/geo"
	"glide/internal/types"
)

// Calculator derives a fare from the straight-line trip distance.
// All rates are non-negative and come from config.
type Calculator struct {
	BaseFare  float64
	PerKmRate float64
	MinFare   float64
}

func NewCalculator(baseFare, perKmRate, minFare float64) Calculator {
	return Calculator{BaseFare: baseFare, PerKmRate: perKmRate, MinFare: minFare}
}

// Price returns max(BaseFare + distance*PerKmRate, MinFare) rounded to two
// decimal places.
func (c Calculator) Price(pickup, dropoff types.Point) float64 {
	raw := c.BaseFare + geo.DistanceKm(pickup, dropoff)*c.PerKmRate
	return math.Round(math.Max(raw, c.MinFare)*100) / 100
}
