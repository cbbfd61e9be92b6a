// README: Ride aggregate and status definitions.
package ride

import (
	"time"

	"ryde/internal/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

// Location is a coordinate with the address the rider typed, if any.
type Location struct {
	Point   types.Point
	Address string
}

// Challenge is an outstanding start-ride OTP. Only the keyed hash is kept.
type Challenge struct {
	Hash      string
	ExpiresAt time.Time
}

type Ride struct {
	ID              types.ID
	RiderID         types.ID
	DriverID        *types.ID
	Pickup          Location
	Destination     Location
	VehicleType     types.VehicleType
	Fare            types.Money
	Status          Status
	DistanceMeters  float64
	DurationSeconds float64
	PaymentID       string
	OrderID         string
	Signature       string
	Version         int
	OTP             *Challenge `json:"-"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssignedTo reports whether driverID is the driver that confirmed the ride.
func (r *Ride) AssignedTo(driverID types.ID) bool {
	return r.DriverID != nil && *r.DriverID == driverID
}

// Clone returns a deep copy; stores hand out copies so callers never share state.
func (r *Ride) Clone() *Ride {
	c := *r
	if r.DriverID != nil {
		d := *r.DriverID
		c.DriverID = &d
	}
	if r.OTP != nil {
		ch := *r.OTP
		c.OTP = &ch
	}
	return &c
}

// AllowedTransitions represents the ride state flow as code. Completed is terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:  {StatusAccepted},
	StatusAccepted: {StatusOngoing},
	StatusOngoing:  {StatusCompleted},
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
