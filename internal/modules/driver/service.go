// README: Driver availability service; status and location reports are last-write-wins.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"glide/internal/types"
)

var (
	ErrNotFound   = errors.New("driver not found")
	ErrBadRequest = errors.New("bad request")
)

// Store persists driver rows and maintains the live geo index.
type Store interface {
	GetByUserID(ctx context.Context, userID types.ID) (*Driver, error)
	// SetOnline flips availability and stamps the last report time. Going
	// offline also drops the driver from the live geo index.
	SetOnline(ctx context.Context, userID types.ID, online bool, at time.Time) (*Driver, error)
	// SetLocation updates coordinates, stamps the last report time, and
	// mirrors the position into the geo index.
	SetLocation(ctx context.Context, userID types.ID, pos types.Point, at time.Time) (*Driver, error)
	// FreshOnline lists matching candidates: online, located, and reporting
	// at or after since.
	FreshOnline(ctx context.Context, since time.Time) ([]Driver, error)
	// Nearby returns driver ids within radiusKm of p, closest first.
	Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}

type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

type UpdateStatusCommand struct {
	UserID types.ID
	Online bool
}

type UpdateLocationCommand struct {
	UserID   types.ID
	Position types.Point
}

func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*Driver, error) {
	if cmd.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrBadRequest)
	}
	d, err := s.store.SetOnline(ctx, cmd.UserID, cmd.Online, time.Now())
	if err != nil {
		return nil, err
	}
	s.log.Info("driver status updated", "driver_id", cmd.UserID, "online", cmd.Online)
	return d, nil
}

func (s *Service) UpdateLocation(ctx context.Context, cmd UpdateLocationCommand) (*Driver, error) {
	if cmd.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrBadRequest)
	}
	if !cmd.Position.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
	}
	return s.store.SetLocation(ctx, cmd.UserID, cmd.Position, time.Now())
}

// Nearby exposes the live geo index for client-side driver discovery.
func (s *Service) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrBadRequest)
	}
	if radiusKm <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", ErrBadRequest)
	}
	return s.store.Nearby(ctx, p, radiusKm)
}

// FreshOnline satisfies the dispatch service's candidate source.
func (s *Service) FreshOnline(ctx context.Context, since time.Time) ([]Driver, error) {
	return s.store.FreshOnline(ctx, since)
}
