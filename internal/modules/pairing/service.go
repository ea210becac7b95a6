// README: Offline pairing manager; issues short-lived codes for after-the-fact rides.
package pairing

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"glide/internal/types"
)

var (
	ErrNotFound   = errors.New("pairing not found")
	ErrBadRequest = errors.New("bad request")
)

type Store interface {
	Create(ctx context.Context, p *Pairing) error
	// FindActiveByCode resolves a code to its newest active, unexpired
	// pairing as of now. Returns ErrNotFound when no such pairing exists.
	FindActiveByCode(ctx context.Context, code string, now time.Time) (*Pairing, error)
	// ExpireOld flips every active pairing past its expiry to expired and
	// returns how many rows changed.
	ExpireOld(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	store Store
	ttl   time.Duration
	log   *slog.Logger
}

func NewService(store Store, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{store: store, ttl: ttl, log: log}
}

// Generate sweeps expired pairings, then issues a fresh code for the driver.
// Codes may repeat across time; lookups only consider active rows and break
// ties newest-first, so only the latest issue of a code wins.
func (s *Service) Generate(ctx context.Context, driverID types.ID) (*Pairing, error) {
	if driverID == "" {
		return nil, fmt.Errorf("%w: driver id is required", ErrBadRequest)
	}

	now := time.Now()
	expired, err := s.store.ExpireOld(ctx, now)
	if err != nil {
		return nil, err
	}
	if expired > 0 {
		s.log.Info("expired stale pairings", "count", expired)
	}

	p := &Pairing{
		ID:        types.ID(uuid.NewString()),
		DriverID:  driverID,
		Code:      newCode(),
		Status:    StatusActive,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// FindActiveByCode satisfies the dispatch service's pairing source.
func (s *Service) FindActiveByCode(ctx context.Context, code string, now time.Time) (*Pairing, error) {
	return s.store.FindActiveByCode(ctx, code, now)
}

// newCode returns six random digits.
func newCode() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(1_000_000))
	return fmt.Sprintf("%06d", n.Int64())
}
