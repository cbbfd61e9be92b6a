// README: Account store contract and the PostgreSQL implementation.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ryde/internal/types"
)

type Store interface {
	Create(ctx context.Context, a *Account) error
	FindByEmail(ctx context.Context, role types.Role, email string) (*Account, error)
	FindByID(ctx context.Context, role types.Role, id types.ID) (*Account, error)
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `
	id, role, first_name, last_name, email, password_hash, phone, device_token, status,
	vehicle_color, vehicle_plate, vehicle_capacity, vehicle_type,
	created_at, updated_at`

const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, a *Account) error {
	var color, plate, vtype *string
	var capacity *int
	if v := a.Vehicle; v != nil {
		t := string(v.Type)
		color, plate, capacity, vtype = &v.Color, &v.Plate, &v.Capacity, &t
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO accounts (
			id, role, first_name, last_name, email, password_hash, phone, device_token, status,
			vehicle_color, vehicle_plate, vehicle_capacity, vehicle_type,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		string(a.ID), string(a.Role), a.Name.First, a.Name.Last, a.Email, a.PasswordHash,
		a.Phone, a.DeviceToken, string(a.Status),
		color, plate, capacity, vtype,
		a.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("%w: insert account: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, role types.Role, email string) (*Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE role = $1 AND email = $2`,
		string(role), email)
	return scanAccount(row)
}

func (s *PostgresStore) FindByID(ctx context.Context, role types.Role, id types.ID) (*Account, error) {
	row := s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE role = $1 AND id = $2`,
		string(role), string(id))
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		a                   Account
		id, role, status    string
		color, plate, vtype *string
		capacity            *int
	)
	err := row.Scan(
		&id, &role, &a.Name.First, &a.Name.Last, &a.Email, &a.PasswordHash, &a.Phone, &a.DeviceToken, &status,
		&color, &plate, &capacity, &vtype,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan account: %v", ErrStorageUnavailable, err)
	}
	a.ID = types.ID(id)
	a.Role = types.Role(role)
	a.Status = DriverStatus(status)
	if plate != nil {
		a.Vehicle = &Vehicle{Plate: *plate}
		if color != nil {
			a.Vehicle.Color = *color
		}
		if capacity != nil {
			a.Vehicle.Capacity = *capacity
		}
		if vtype != nil {
			a.Vehicle.Type = types.VehicleType(*vtype)
		}
	}
	return &a, nil
}
