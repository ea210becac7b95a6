// README: Driver availability row; one per driver user.
package driver

import (
	"time"

	"glide/internal/types"
)

type Driver struct {
	UserID     types.ID
	Location   *types.Point
	Online     bool
	LastPingAt *time.Time
}

// Live reports whether the driver is eligible for matching: online, located,
// and reporting within the freshness window.
func (d Driver) Live(since time.Time) bool {
	return d.Online && d.Location != nil && d.LastPingAt != nil && !d.LastPingAt.Before(since)
}
