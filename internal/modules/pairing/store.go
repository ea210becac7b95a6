// README: Pairing store backed by PostgreSQL.
package pairing

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, p *Pairing) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO offline_pairings (id, driver_id, code, status, expires_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		string(p.ID),
		string(p.DriverID),
		p.Code,
		string(p.Status),
		p.ExpiresAt,
		p.CreatedAt,
	)
	return err
}

func (s *PGStore) FindActiveByCode(ctx context.Context, code string, now time.Time) (*Pairing, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, driver_id, code, status, expires_at, created_at
        FROM offline_pairings
        WHERE code = $1 AND status = 'active' AND expires_at >= $2
        ORDER BY created_at DESC
        LIMIT 1`, code, now,
	)

	var p Pairing
	err := row.Scan(&p.ID, &p.DriverID, &p.Code, &p.Status, &p.ExpiresAt, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PGStore) ExpireOld(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE offline_pairings
        SET status = 'expired', updated_at = $1
        WHERE status = 'active' AND expires_at < $1`, now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
