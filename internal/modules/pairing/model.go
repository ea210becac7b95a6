// README: Offline pairing code issued by a driver for connectivity-less rides.
package pairing

import (
	"time"

	"glide/internal/types"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusUsed    Status = "used"
	StatusExpired Status = "expired"
)

// Pairing codes are not globally unique over time; uniqueness only matters
// among currently-active codes, and lookups resolve ties newest-first.
type Pairing struct {
	ID        types.ID
	DriverID  types.ID
	Code      string
	Status    Status
	ExpiresAt time.Time
	CreatedAt time.Time
}
