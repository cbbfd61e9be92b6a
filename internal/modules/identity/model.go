// README: Rider and driver accounts.
package identity

import (
	"errors"
	"time"

	"ryde/internal/types"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("account not found")
	ErrStorageUnavailable = errors.New("account storage unavailable")
)

type DriverStatus string

const (
	DriverActive   DriverStatus = "active"
	DriverInactive DriverStatus = "inactive"
)

type FullName struct {
	First string `json:"firstName" validate:"required,min=1,max=50"`
	Last  string `json:"lastName" validate:"required,min=1,max=50"`
}

type Vehicle struct {
	Color    string            `json:"color" validate:"required,min=1,max=30"`
	Plate    string            `json:"plate" validate:"required,plate"`
	Capacity int               `json:"capacity" validate:"required,min=1,max=20"`
	Type     types.VehicleType `json:"vehicleType" validate:"required,oneof=car motorcycle auto"`
}

type Account struct {
	ID           types.ID
	Role         types.Role
	Name         FullName
	Email        string
	PasswordHash string `json:"-"`
	Phone        string
	DeviceToken  string
	Vehicle      *Vehicle
	Status       DriverStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *Account) Principal() types.Principal {
	return types.Principal{Role: a.Role, ID: a.ID}
}
