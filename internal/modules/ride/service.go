// README: Dispatch service; ride creation paths, assignment, and guarded lifecycle transitions.
package ride

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"glide/internal/config"
	"glide/internal/modules/pairing"
	"glide/internal/observability"
	"glide/internal/pricing"
	"glide/internal/types"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("ride not found")
	ErrConflict     = errors.New("ride state conflict")
	ErrInvalidState = errors.New("invalid state transition")
	ErrActiveRide   = errors.New("rider has an active ride")
)

type Service struct {
	store    Store
	drivers  DriverSource
	pairings PairingSource
	calc     pricing.Calculator
	dispatch config.DispatchConfig
	// scheduleAhead caps advance booking.
	scheduleAhead time.Duration
	log           *slog.Logger
}

func NewService(store Store, drivers DriverSource, pairings PairingSource, calc pricing.Calculator, cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		store:         store,
		drivers:       drivers,
		pairings:      pairings,
		calc:          calc,
		dispatch:      cfg.Dispatch,
		scheduleAhead: time.Duration(cfg.ScheduleAheadDays) * 24 * time.Hour,
		log:           log,
	}
}

type CreateOnlineCommand struct {
	RiderID types.ID
	Pickup  types.Point
	Dropoff types.Point
}

type CreateScheduledCommand struct {
	RiderID     types.ID
	Pickup      types.Point
	Dropoff     types.Point
	ScheduledAt time.Time
}

type CreateOfflineCommand struct {
	RiderID     types.ID
	PairingCode string
	Pickup      types.Point
	Dropoff     types.Point
}

type AcceptCommand struct {
	RideID   types.ID
	DriverID types.ID
}

type StartCommand struct {
	RideID   types.ID
	DriverID types.ID
}

type CompleteCommand struct {
	RideID   types.ID
	DriverID types.ID
}

type RiderCancelCommand struct {
	RideID  types.ID
	RiderID types.ID
}

type DriverCancelCommand struct {
	RideID   types.ID
	DriverID types.ID
}

// CreateOnline persists a requested ride and immediately tries to assign the
// nearest live driver. The returned detail reflects the assignment outcome:
// assigned with a driver, or no_driver.
func (s *Service) CreateOnline(ctx context.Context, cmd CreateOnlineCommand) (*Detail, error) {
	if err := validateTrip(cmd.RiderID, cmd.Pickup, cmd.Dropoff); err != nil {
		return nil, err
	}

	now := time.Now()
	r := &Ride{
		ID:            newID(),
		RiderID:       cmd.RiderID,
		Pickup:        cmd.Pickup,
		Dropoff:       cmd.Dropoff,
		Fare:          s.calc.Price(cmd.Pickup, cmd.Dropoff),
		Code:          newRideCode(),
		Type:          TypeOnline,
		Status:        StatusRequested,
		PaymentStatus: PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	ok, err := s.store.CreateIfNoActive(ctx, r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: an active ride already exists for this rider", ErrActiveRide)
	}
	observability.RidesCreatedTotal.WithLabelValues(string(TypeOnline)).Inc()

	if err := s.assignNearest(ctx, r); err != nil {
		return nil, err
	}
	return s.store.GetDetail(ctx, r.ID)
}

// CreateScheduled persists a future ride in requested status. Assignment
// happens later, when the sweeper finds the ride due.
func (s *Service) CreateScheduled(ctx context.Context, cmd CreateScheduledCommand) (*Detail, error) {
	if err := validateTrip(cmd.RiderID, cmd.Pickup, cmd.Dropoff); err != nil {
		return nil, err
	}
	now := time.Now()
	if !cmd.ScheduledAt.After(now) {
		return nil, fmt.Errorf("%w: scheduledAt must be in the future", ErrBadRequest)
	}
	if cmd.ScheduledAt.After(now.Add(s.scheduleAhead)) {
		return nil, fmt.Errorf("%w: scheduledAt cannot be more than %d days in advance",
			ErrBadRequest, int(s.scheduleAhead.Hours())/24)
	}

	scheduledAt := cmd.ScheduledAt
	r := &Ride{
		ID:            newID(),
		RiderID:       cmd.RiderID,
		Pickup:        cmd.Pickup,
		Dropoff:       cmd.Dropoff,
		Fare:          s.calc.Price(cmd.Pickup, cmd.Dropoff),
		Code:          newRideCode(),
		Type:          TypeScheduled,
		Status:        StatusRequested,
		PaymentStatus: PaymentUnpaid,
		ScheduledAt:   &scheduledAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	ok, err := s.store.CreateIfNoActive(ctx, r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: a scheduled ride already exists for this rider at the specified time", ErrActiveRide)
	}
	observability.RidesCreatedTotal.WithLabelValues(string(TypeScheduled)).Inc()
	return s.store.GetDetail(ctx, r.ID)
}

// CreateOffline records an already-finished trip against the driver who
// issued the pairing code. The ride insert and the pairing consumption are a
// single atomic unit.
func (s *Service) CreateOffline(ctx context.Context, cmd CreateOfflineCommand) (*Detail, error) {
	if err := validateTrip(cmd.RiderID, cmd.Pickup, cmd.Dropoff); err != nil {
		return nil, err
	}
	if cmd.PairingCode == "" {
		return nil, fmt.Errorf("%w: pairing code is required", ErrBadRequest)
	}

	now := time.Now()
	p, err := s.pairings.FindActiveByCode(ctx, cmd.PairingCode, now)
	if errors.Is(err, pairing.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid or expired pairing code", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	driverID := p.DriverID
	r := &Ride{
		ID:            newID(),
		RiderID:       cmd.RiderID,
		DriverID:      &driverID,
		Pickup:        cmd.Pickup,
		Dropoff:       cmd.Dropoff,
		Fare:          s.calc.Price(cmd.Pickup, cmd.Dropoff),
		Code:          newRideCode(),
		Type:          TypeOffline,
		Status:        StatusCompleted,
		PaymentStatus: PaymentPaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	ok, err := s.store.CreateOfflinePaired(ctx, r, p.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race: another ride consumed the pairing first.
		return nil, fmt.Errorf("%w: pairing code is no longer active", ErrNotFound)
	}
	observability.RidesCreatedTotal.WithLabelValues(string(TypeOffline)).Inc()
	return s.store.GetDetail(ctx, r.ID)
}

func (s *Service) GetByID(ctx context.Context, id types.ID) (*Detail, error) {
	return s.store.GetDetail(ctx, id)
}

func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Ride, error) {
	return s.driverTransition(ctx, cmd.RideID, cmd.DriverID, StatusAccepted)
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) (*Ride, error) {
	return s.driverTransition(ctx, cmd.RideID, cmd.DriverID, StatusStarted)
}

// Complete moves started→completed; the guarded update also marks the ride
// paid as part of the same write.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Ride, error) {
	return s.driverTransition(ctx, cmd.RideID, cmd.DriverID, StatusCompleted)
}

func (s *Service) CancelByRider(ctx context.Context, cmd RiderCancelCommand) (*Ride, error) {
	r, err := s.store.GetByIDForRider(ctx, cmd.RideID, cmd.RiderID)
	if errors.Is(err, ErrNotFound) {
		return nil, s.ownershipError(ctx, cmd.RideID, "rider")
	}
	if err != nil {
		return nil, err
	}
	if err := rejectOffline(r); err != nil {
		return nil, err
	}
	return s.transition(ctx, r, StatusCancelledByRider)
}

func (s *Service) CancelByDriver(ctx context.Context, cmd DriverCancelCommand) (*Ride, error) {
	return s.driverTransition(ctx, cmd.RideID, cmd.DriverID, StatusCancelledByDriver)
}

// assignNearest runs the matching step for a requested ride: no live driver
// within the radius sends the ride to no_driver, otherwise the winner is
// bound by a conditional update so a concurrent assignment cannot double-book.
func (s *Service) assignNearest(ctx context.Context, r *Ride) error {
	since := time.Now().Add(-s.dispatch.DriverFreshWindow)
	candidates, err := s.drivers.FreshOnline(ctx, since)
	if err != nil {
		return err
	}

	best, found := Nearest(r.Pickup, candidates, s.dispatch.NearbyRadiusKm)
	if !found {
		ok, err := s.store.UpdateStatus(ctx, r.ID, StatusRequested, StatusNoDriver)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: ride already left %s", ErrConflict, StatusRequested)
		}
		observability.NoDriverTotal.Inc()
		s.log.Info("no eligible driver", "ride_id", r.ID, "candidates", len(candidates))
		return nil
	}

	ok, err := s.store.AssignDriver(ctx, r.ID, best.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: ride already left %s", ErrConflict, StatusRequested)
	}
	observability.AssignmentsTotal.Inc()
	s.log.Info("driver assigned", "ride_id", r.ID, "driver_id", best.UserID)
	return nil
}

// driverTransition covers every driver-initiated event: accept, start,
// complete, cancel. Ownership is enforced by the scoped read; the lifecycle
// table decides legality; the store update is guarded on the loaded status so
// a concurrent transition loses cleanly.
func (s *Service) driverTransition(ctx context.Context, rideID, driverID types.ID, to Status) (*Ride, error) {
	r, err := s.store.GetByIDForDriver(ctx, rideID, driverID)
	if errors.Is(err, ErrNotFound) {
		return nil, s.ownershipError(ctx, rideID, "driver")
	}
	if err != nil {
		return nil, err
	}
	if err := rejectOffline(r); err != nil {
		return nil, err
	}
	return s.transition(ctx, r, to)
}

// ownershipError tells a foreign ride apart from a missing one after a scoped
// read came back empty.
func (s *Service) ownershipError(ctx context.Context, rideID types.ID, role string) error {
	if _, err := s.store.GetByID(ctx, rideID); err != nil {
		return err
	}
	return fmt.Errorf("%w: ride does not belong to this %s", ErrConflict, role)
}

func (s *Service) transition(ctx context.Context, r *Ride, to Status) (*Ride, error) {
	if !CanTransition(r.Status, to) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidState, r.Status, to)
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: ride already left %s", ErrConflict, r.Status)
	}
	return s.store.GetByID(ctx, r.ID)
}

// rejectOffline blocks lifecycle actions against offline rides, which are
// recorded terminal and never transition.
func rejectOffline(r *Ride) error {
	if r.Type == TypeOffline {
		return fmt.Errorf("%w: operation not allowed for offline rides", ErrBadRequest)
	}
	return nil
}

func validateTrip(riderID types.ID, pickup, dropoff types.Point) error {
	if riderID == "" {
		return fmt.Errorf("%w: rider id is required", ErrBadRequest)
	}
	if !pickup.Valid() || !dropoff.Valid() {
		return fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
	}
	return nil
}

func newID() types.ID {
	return types.ID(uuid.NewString())
}

// newRideCode builds a short, human-shareable code: base-36 timestamp plus
// three random bytes, uppercased. Uniqueness is enforced by the store.
func newRideCode() string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return strings.ToUpper(ts + hex.EncodeToString(b[:]))
}
