// README: Storage contracts consumed by the dispatch service.
package ride

import (
	"context"
	"time"

	"glide/internal/modules/driver"
	"glide/internal/modules/pairing"
	"glide/internal/types"
)

// Store persists rides. Guarded mutations take the expected current state and
// report whether the row was updated, so concurrent writers lose cleanly
// instead of overwriting each other.
type Store interface {
	// CreateIfNoActive inserts the ride unless the rider already holds an
	// active one in the same scope (the exact scheduled slot for scheduled
	// rides, any non-scheduled active ride otherwise). Returns false when the
	// active-ride check failed.
	CreateIfNoActive(ctx context.Context, r *Ride) (bool, error)
	GetByID(ctx context.Context, id types.ID) (*Ride, error)
	// GetByIDForRider and GetByIDForDriver load the ride only when the caller
	// owns it; a ride outside the caller's scope reads as ErrNotFound.
	GetByIDForRider(ctx context.Context, id, riderID types.ID) (*Ride, error)
	GetByIDForDriver(ctx context.Context, id, driverID types.ID) (*Ride, error)
	GetDetail(ctx context.Context, id types.ID) (*Detail, error)
	// AssignDriver binds a driver and moves requested→assigned in one guarded
	// update. Returns false if the ride left requested or already has a driver.
	AssignDriver(ctx context.Context, id, driverID types.ID) (bool, error)
	// UpdateStatus performs a guarded status transition. Completing a ride
	// also flips its payment status to paid.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error)
	FindDueScheduled(ctx context.Context, now time.Time) ([]*Ride, error)
	// CreateOfflinePaired inserts an already-completed ride and marks the
	// pairing used in a single transaction. Returns false without inserting
	// when the pairing is no longer active.
	CreateOfflinePaired(ctx context.Context, r *Ride, pairingID types.ID) (bool, error)
}

// DriverSource supplies matching candidates. The store applies the freshness
// filter; the matcher only ranks what it is given.
type DriverSource interface {
	FreshOnline(ctx context.Context, since time.Time) ([]driver.Driver, error)
}

// PairingSource resolves offline pairing codes.
type PairingSource interface {
	FindActiveByCode(ctx context.Context, code string, now time.Time) (*pairing.Pairing, error)
}
