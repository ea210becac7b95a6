// README: Nearest-driver matching policy.
package ride

import (
	"sort"

	"glide/internal/geo"
	"glide/internal/modules/driver"
	"glide/internal/types"
)

// Nearest selects the closest candidate within radiusKm of the pickup point.
// Candidates without a location are skipped; ties keep input order (stable
// sort). The second return is false when no candidate qualifies.
//
// This is deliberately a single-winner policy: the nearest live driver is
// auto-assigned with no accept/decline window. A broadcast auction is out of
// scope here.
func Nearest(pickup types.Point, candidates []driver.Driver, radiusKm float64) (driver.Driver, bool) {
	type scored struct {
		d          driver.Driver
		distanceKm float64
	}
	eligible := make([]scored, 0, len(candidates))
	for _, d := range candidates {
		if d.Location == nil {
			continue
		}
		dist := geo.DistanceKm(pickup, *d.Location)
		if dist > radiusKm {
			continue
		}
		eligible = append(eligible, scored{d: d, distanceKm: dist})
	}
	if len(eligible) == 0 {
		return driver.Driver{}, false
	}
	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].distanceKm < eligible[j].distanceKm })
	return eligible[0].d, true
}
