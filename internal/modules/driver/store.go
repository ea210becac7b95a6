// README: Driver store backed by PostgreSQL rows and a Redis GEO live index.
package driver

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"glide/internal/types"
)

const driverGeoKey = "dispatch:drivers"

type PGStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewPGStore(db *pgxpool.Pool, redis *redis.Client) *PGStore {
	return &PGStore{db: db, redis: redis}
}

func (s *PGStore) GetByUserID(ctx context.Context, userID types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
        SELECT user_id, lat, lng, is_online, last_ping_at
        FROM drivers
        WHERE user_id = $1`, string(userID),
	)
	return scanDriver(row)
}

func (s *PGStore) SetOnline(ctx context.Context, userID types.ID, online bool, at time.Time) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
        UPDATE drivers
        SET is_online = $2, last_ping_at = $3
        WHERE user_id = $1
        RETURNING user_id, lat, lng, is_online, last_ping_at`,
		string(userID), online, at,
	)
	d, err := scanDriver(row)
	if err != nil {
		return nil, err
	}
	if !online {
		if err := s.redis.ZRem(ctx, driverGeoKey, string(userID)).Err(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (s *PGStore) SetLocation(ctx context.Context, userID types.ID, pos types.Point, at time.Time) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
        UPDATE drivers
        SET lat = $2, lng = $3, last_ping_at = $4
        WHERE user_id = $1
        RETURNING user_id, lat, lng, is_online, last_ping_at`,
		string(userID), pos.Lat, pos.Lng, at,
	)
	d, err := scanDriver(row)
	if err != nil {
		return nil, err
	}
	err = s.redis.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
		Name:      string(userID),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// FreshOnline reads from Postgres, the source of truth; the Redis index is
// only a discovery cache.
func (s *PGStore) FreshOnline(ctx context.Context, since time.Time) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `
        SELECT user_id, lat, lng, is_online, last_ping_at
        FROM drivers
        WHERE is_online = TRUE
          AND lat IS NOT NULL AND lng IS NOT NULL
          AND last_ping_at >= $1`, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *PGStore) Nearby(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, driverGeoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	var lat, lng sql.NullFloat64
	var lastPing sql.NullTime

	err := row.Scan(&d.UserID, &lat, &lng, &d.Online, &lastPing)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat.Valid && lng.Valid {
		d.Location = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	if lastPing.Valid {
		t := lastPing.Time
		d.LastPingAt = &t
	}
	return &d, nil
}
