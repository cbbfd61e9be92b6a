// README: Ride store contract and the PostgreSQL implementation.
package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ryde/internal/types"
)

// Transition is a compare-and-set on (ID, From, Version). Any outstanding OTP challenge is cleared.
type Transition struct {
	ID       types.ID
	From     Status
	To       Status
	Version  int
	DriverID *types.ID
}

// Store persists rides. Conditional writes return ErrConflict when the (status, version) guard misses.
type Store interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	Transition(ctx context.Context, t Transition) (*Ride, error)
	SetChallenge(ctx context.Context, id types.ID, status Status, version int, c Challenge) (*Ride, error)
	ListByRider(ctx context.Context, riderID types.ID, limit int) ([]*Ride, error)
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const rideColumns = `
	id, rider_id, driver_id,
	pickup_lat, pickup_lng, pickup_address,
	destination_lat, destination_lng, destination_address,
	vehicle_type, fare_amount, fare_currency, status,
	distance_meters, duration_seconds,
	payment_id, order_id, signature,
	version, otp_hash, otp_expires_at,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *Ride) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO rides (
			id, rider_id, driver_id,
			pickup_lat, pickup_lng, pickup_address,
			destination_lat, destination_lng, destination_address,
			vehicle_type, fare_amount, fare_currency, status,
			distance_meters, duration_seconds,
			payment_id, order_id, signature,
			version, created_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15,
			$16, $17, $18,
			$19, $20, $20
		)`,
		string(r.ID), string(r.RiderID), idPtr(r.DriverID),
		r.Pickup.Point.Lat, r.Pickup.Point.Lng, r.Pickup.Address,
		r.Destination.Point.Lat, r.Destination.Point.Lng, r.Destination.Address,
		string(r.VehicleType), r.Fare.Amount, r.Fare.Currency, string(r.Status),
		r.DistanceMeters, r.DurationSeconds,
		nullString(r.PaymentID), nullString(r.OrderID), nullString(r.Signature),
		r.Version, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert ride: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get ride: %v", ErrStorageUnavailable, err)
	}
	return r, nil
}

func (s *PostgresStore) Transition(ctx context.Context, t Transition) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE rides
		SET status = $1,
		    version = version + 1,
		    driver_id = COALESCE($2, driver_id),
		    otp_hash = NULL,
		    otp_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $3 AND status = $4 AND version = $5
		RETURNING `+rideColumns,
		string(t.To), idPtr(t.DriverID), string(t.ID), string(t.From), t.Version,
	)
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("%w: update ride status: %v", ErrStorageUnavailable, err)
	}
	return r, nil
}

func (s *PostgresStore) SetChallenge(ctx context.Context, id types.ID, status Status, version int, c Challenge) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE rides
		SET otp_hash = $1,
		    otp_expires_at = $2,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND status = $4 AND version = $5
		RETURNING `+rideColumns,
		c.Hash, c.ExpiresAt, string(id), string(status), version,
	)
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("%w: store otp challenge: %v", ErrStorageUnavailable, err)
	}
	return r, nil
}

func (s *PostgresStore) ListByRider(ctx context.Context, riderID types.ID, limit int) ([]*Ride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+rideColumns+`
		FROM rides
		WHERE rider_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, string(riderID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list rides: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	out := make([]*Ride, 0, limit)
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan ride: %v", ErrStorageUnavailable, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list rides: %v", ErrStorageUnavailable, err)
	}
	return out, nil
}

func scanRide(row pgx.Row) (*Ride, error) {
	var (
		r                       Ride
		id, riderID             string
		driverID                *string
		vehicle, status         string
		paymentID, orderID, sig *string
		otpHash                 *string
		otpExpiresAt            *time.Time
	)
	err := row.Scan(
		&id, &riderID, &driverID,
		&r.Pickup.Point.Lat, &r.Pickup.Point.Lng, &r.Pickup.Address,
		&r.Destination.Point.Lat, &r.Destination.Point.Lng, &r.Destination.Address,
		&vehicle, &r.Fare.Amount, &r.Fare.Currency, &status,
		&r.DistanceMeters, &r.DurationSeconds,
		&paymentID, &orderID, &sig,
		&r.Version, &otpHash, &otpExpiresAt,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ID = types.ID(id)
	r.RiderID = types.ID(riderID)
	if driverID != nil {
		d := types.ID(*driverID)
		r.DriverID = &d
	}
	r.VehicleType = types.VehicleType(vehicle)
	r.Status = Status(status)
	r.PaymentID = deref(paymentID)
	r.OrderID = deref(orderID)
	r.Signature = deref(sig)
	if otpHash != nil && otpExpiresAt != nil {
		r.OTP = &Challenge{Hash: *otpHash, ExpiresAt: *otpExpiresAt}
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

func nullString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
