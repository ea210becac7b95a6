// README: Ride store backed by PostgreSQL; all transitions are conditional updates.
package ride

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"glide/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const rideColumns = `id, rider_id, driver_id,
       pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
       fare, code, type, status, payment_status,
       scheduled_at, created_at, updated_at`

// CreateIfNoActive inserts unless the rider already holds an active ride in
// the same scope. The INSERT..SELECT carries the check; the partial unique
// index uniq_rides_rider_active backstops it against concurrent inserts that
// both pass the NOT EXISTS read.
func (s *PGStore) CreateIfNoActive(ctx context.Context, r *Ride) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        INSERT INTO rides (
            id, rider_id, driver_id,
            pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
            fare, code, type, status, payment_status,
            scheduled_at, created_at, updated_at
        )
        SELECT $1, $2, $3,
               $4, $5, $6, $7,
               $8, $9, $10, $11, $12,
               $13, $14, $15
        WHERE NOT EXISTS (
            SELECT 1 FROM rides
            WHERE rider_id = $2
              AND status IN ('requested','assigned','accepted','started')
              AND (($13::timestamptz IS NULL AND scheduled_at IS NULL)
                OR ($13::timestamptz IS NOT NULL AND scheduled_at = $13))
        )`,
		string(r.ID),
		string(r.RiderID),
		idPtr(r.DriverID),
		r.Pickup.Lat, r.Pickup.Lng,
		r.Dropoff.Lat, r.Dropoff.Lng,
		r.Fare,
		r.Code,
		string(r.Type),
		string(r.Status),
		string(r.PaymentStatus),
		r.ScheduledAt,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uniq_rides_rider_active" {
			return false, nil
		}
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) GetByID(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))
	return scanRide(row)
}

// GetByIDForRider loads the ride only when it belongs to the rider.
func (s *PGStore) GetByIDForRider(ctx context.Context, id, riderID types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1 AND rider_id = $2`,
		string(id), string(riderID))
	return scanRide(row)
}

// GetByIDForDriver loads the ride only when it is assigned to the driver.
func (s *PGStore) GetByIDForDriver(ctx context.Context, id, driverID types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1 AND driver_id = $2`,
		string(id), string(driverID))
	return scanRide(row)
}

func (s *PGStore) GetDetail(ctx context.Context, id types.ID) (*Detail, error) {
	row := s.db.QueryRow(ctx, `
        SELECT r.id, r.rider_id, r.driver_id,
               r.pickup_lat, r.pickup_lng, r.dropoff_lat, r.dropoff_lng,
               r.fare, r.code, r.type, r.status, r.payment_status,
               r.scheduled_at, r.created_at, r.updated_at,
               rider.name, drv.name
        FROM rides r
        JOIN users rider ON rider.id = r.rider_id
        LEFT JOIN users drv ON drv.id = r.driver_id
        WHERE r.id = $1`, string(id),
	)

	var d Detail
	var driverID, driverName sql.NullString
	var scheduledAt sql.NullTime

	err := row.Scan(
		&d.ID, &d.RiderID, &driverID,
		&d.Pickup.Lat, &d.Pickup.Lng, &d.Dropoff.Lat, &d.Dropoff.Lng,
		&d.Fare, &d.Code, &d.Type, &d.Status, &d.PaymentStatus,
		&scheduledAt, &d.CreatedAt, &d.UpdatedAt,
		&d.RiderName, &driverName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		v := types.ID(driverID.String)
		d.DriverID = &v
	}
	if driverName.Valid {
		d.DriverName = &driverName.String
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		d.ScheduledAt = &t
	}
	return &d, nil
}

func (s *PGStore) AssignDriver(ctx context.Context, id, driverID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE rides
        SET driver_id = $2,
            status = 'assigned',
            updated_at = NOW()
        WHERE id = $1 AND status = 'requested' AND driver_id IS NULL`,
		string(id), string(driverID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE rides
        SET status = $2,
            payment_status = CASE WHEN $2 = 'completed' THEN 'paid' ELSE payment_status END,
            updated_at = NOW()
        WHERE id = $1 AND status = $3`,
		string(id), string(to), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) FindDueScheduled(ctx context.Context, now time.Time) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE type = 'scheduled' AND status = 'requested' AND scheduled_at <= $1
        ORDER BY scheduled_at`, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateOfflinePaired runs the ride insert and the pairing consumption in one
// transaction. The pairing update is guarded on status='active', so a code
// can be spent exactly once.
func (s *PGStore) CreateOfflinePaired(ctx context.Context, r *Ride, pairingID types.ID) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
        UPDATE offline_pairings
        SET status = 'used', updated_at = NOW()
        WHERE id = $1 AND status = 'active' AND expires_at > NOW()`,
		string(pairingID),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO rides (
            id, rider_id, driver_id,
            pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
            fare, code, type, status, payment_status,
            scheduled_at, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		string(r.ID),
		string(r.RiderID),
		idPtr(r.DriverID),
		r.Pickup.Lat, r.Pickup.Lng,
		r.Dropoff.Lat, r.Dropoff.Lng,
		r.Fare,
		r.Code,
		string(r.Type),
		string(r.Status),
		string(r.PaymentStatus),
		r.ScheduledAt,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func scanRide(row pgx.Row) (*Ride, error) {
	var r Ride
	var driverID sql.NullString
	var scheduledAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.RiderID, &driverID,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.Dropoff.Lat, &r.Dropoff.Lng,
		&r.Fare, &r.Code, &r.Type, &r.Status, &r.PaymentStatus,
		&scheduledAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if driverID.Valid {
		v := types.ID(driverID.String)
		r.DriverID = &v
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		r.ScheduledAt = &t
	}
	return &r, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
