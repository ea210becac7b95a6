// README: Ride aggregate, status definitions, and the transition table.
package ride

import (
	"time"

	"glide/internal/types"
)

type Type string

const (
	TypeOnline    Type = "online"
	TypeScheduled Type = "scheduled"
	TypeOffline   Type = "offline"
)

type Status string

const (
	StatusRequested         Status = "requested"
	StatusAssigned          Status = "assigned"
	StatusAccepted          Status = "accepted"
	StatusStarted           Status = "started"
	StatusCompleted         Status = "completed"
	StatusCancelledByRider  Status = "cancelled_by_rider"
	StatusCancelledByDriver Status = "cancelled_by_driver"
	StatusNoDriver          Status = "no_driver"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type Ride struct {
	ID            types.ID
	RiderID       types.ID
	DriverID      *types.ID
	Pickup        types.Point
	Dropoff       types.Point
	Fare          float64
	Code          string
	Type          Type
	Status        Status
	PaymentStatus PaymentStatus
	ScheduledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Detail is a ride with its rider and driver resolved to display names.
type Detail struct {
	Ride
	RiderName  string
	DriverName *string
}

// AllowedTransitions represents the ride state flow as code. Terminal
// statuses (completed, both cancels, no_driver) have no outgoing edges;
// offline rides are created terminal and never enter the machine.
var AllowedTransitions = map[Status][]Status{
	StatusRequested: {StatusAssigned, StatusNoDriver, StatusCancelledByRider, StatusCancelledByDriver},
	StatusAssigned:  {StatusAccepted, StatusCancelledByRider, StatusCancelledByDriver},
	StatusAccepted:  {StatusStarted, StatusCancelledByRider, StatusCancelledByDriver},
	StatusStarted:   {StatusCompleted, StatusCancelledByRider, StatusCancelledByDriver},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can leave the status.
func IsTerminal(s Status) bool {
	return len(AllowedTransitions[s]) == 0
}
