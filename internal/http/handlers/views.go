package handlers

import (
	"time"

	"ryde/internal/maps"
	"ryde/internal/modules/identity"
	"ryde/internal/modules/ride"
	"ryde/internal/types"
)

type locationView struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// rideView is the public shape of a ride. The OTP challenge is never rendered.
type rideView struct {
	ID              types.ID          `json:"id"`
	RiderID         types.ID          `json:"riderId"`
	DriverID        *types.ID         `json:"driverId,omitempty"`
	Pickup          locationView      `json:"pickup"`
	Destination     locationView      `json:"destination"`
	VehicleType     types.VehicleType `json:"vehicleType"`
	Fare            types.Money       `json:"fare"`
	Status          ride.Status       `json:"status"`
	DistanceMeters  float64           `json:"distance"`
	DurationSeconds float64           `json:"duration"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func newLocationView(l ride.Location) locationView {
	return locationView{Lat: l.Point.Lat, Lng: l.Point.Lng, Address: l.Address}
}

func newRideView(r *ride.Ride) rideView {
	return rideView{
		ID:              r.ID,
		RiderID:         r.RiderID,
		DriverID:        r.DriverID,
		Pickup:          newLocationView(r.Pickup),
		Destination:     newLocationView(r.Destination),
		VehicleType:     r.VehicleType,
		Fare:            r.Fare,
		Status:          r.Status,
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: r.DurationSeconds,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func newRideViews(rs []*ride.Ride) []rideView {
	out := make([]rideView, 0, len(rs))
	for _, r := range rs {
		out = append(out, newRideView(r))
	}
	return out
}

type fareView struct {
	Fares map[types.VehicleType]types.Money `json:"fares"`
	Route maps.Quote                        `json:"route"`
}

type accountView struct {
	ID        types.ID              `json:"id"`
	Role      types.Role            `json:"role"`
	Name      identity.FullName     `json:"fullname"`
	Email     string                `json:"email"`
	Phone     string                `json:"phone,omitempty"`
	Vehicle   *identity.Vehicle     `json:"vehicle,omitempty"`
	Status    identity.DriverStatus `json:"status,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
}

func newAccountView(a *identity.Account) accountView {
	return accountView{
		ID:        a.ID,
		Role:      a.Role,
		Name:      a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		Vehicle:   a.Vehicle,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}

type sessionView struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Account   accountView `json:"account"`
}
