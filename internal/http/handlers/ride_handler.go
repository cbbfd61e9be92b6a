// README: Ride handlers for booking, fare quotes and the driver lifecycle (confirm, otp, start, end).
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ryde/internal/http/middleware"
	"ryde/internal/modules/ride"
	"ryde/internal/types"
)

type RideService interface {
	CreateRide(ctx context.Context, p types.Principal, cmd ride.CreateCommand) (*ride.Ride, error)
	QuoteFare(ctx context.Context, p types.Principal, pickup, destination types.Point) (ride.FareQuote, error)
	ListRides(ctx context.Context, p types.Principal, limit int) ([]*ride.Ride, error)
	GetRide(ctx context.Context, p types.Principal, id types.ID) (*ride.Ride, error)
	ConfirmRide(ctx context.Context, p types.Principal, id types.ID) (*ride.Ride, error)
	GenerateRideOTP(ctx context.Context, p types.Principal, id types.ID) (string, *ride.Ride, error)
	StartRide(ctx context.Context, p types.Principal, id types.ID, candidate string) (*ride.Ride, error)
	EndRide(ctx context.Context, p types.Principal, id types.ID) (*ride.Ride, error)
}

// OTPDelivery sends a freshly issued start code to the ride's rider.
type OTPDelivery interface {
	SendRideOTP(ctx context.Context, riderID, rideID types.ID, code string) error
}

type RideHandler struct {
	rides RideService
	otp   OTPDelivery
	log   *zap.Logger
}

func NewRideHandler(svc RideService, otp OTPDelivery, log *zap.Logger) *RideHandler {
	return &RideHandler{rides: svc, otp: otp, log: log}
}

type pointReq struct {
	Lat *float64 `json:"lat" binding:"required,latitude"`
	Lng *float64 `json:"lng" binding:"required,longitude"`
}

type createRideReq struct {
	Pickup             pointReq `json:"pickup"`
	PickupAddress      string   `json:"pickupAddress" binding:"max=256"`
	Destination        pointReq `json:"destination"`
	DestinationAddress string   `json:"destinationAddress" binding:"max=256"`
	VehicleType        string   `json:"vehicleType" binding:"required,oneof=auto car motorcycle"`
}

type fareReq struct {
	PickupLat      *float64 `form:"pickupLat" binding:"required,latitude"`
	PickupLng      *float64 `form:"pickupLng" binding:"required,longitude"`
	DestinationLat *float64 `form:"destinationLat" binding:"required,latitude"`
	DestinationLng *float64 `form:"destinationLng" binding:"required,longitude"`
}

type listRidesReq struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

type startRideReq struct {
	OTP string `json:"otp" binding:"required"`
}

func (p pointReq) point() types.Point {
	return types.Point{Lat: *p.Lat, Lng: *p.Lng}
}

func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.rides.CreateRide(c.Request.Context(), middleware.Principal(c), ride.CreateCommand{
		Pickup:             req.Pickup.point(),
		PickupAddress:      strings.TrimSpace(req.PickupAddress),
		Destination:        req.Destination.point(),
		DestinationAddress: strings.TrimSpace(req.DestinationAddress),
		VehicleType:        types.VehicleType(req.VehicleType),
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, newRideView(r))
}

func (h *RideHandler) Fare(c *gin.Context) {
	var req fareReq
	if !bindQuery(c, &req) {
		return
	}
	q, err := h.rides.QuoteFare(c.Request.Context(), middleware.Principal(c),
		types.Point{Lat: *req.PickupLat, Lng: *req.PickupLng},
		types.Point{Lat: *req.DestinationLat, Lng: *req.DestinationLng},
	)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, fareView{Fares: q.Fares, Route: q.Quote})
}

func (h *RideHandler) List(c *gin.Context) {
	var req listRidesReq
	if !bindQuery(c, &req) {
		return
	}
	rs, err := h.rides.ListRides(c.Request.Context(), middleware.Principal(c), req.Limit)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": newRideViews(rs)})
}

func (h *RideHandler) Get(c *gin.Context) {
	h.withRide(c, h.rides.GetRide)
}

func (h *RideHandler) Confirm(c *gin.Context) {
	h.withRide(c, h.rides.ConfirmRide)
}

func (h *RideHandler) End(c *gin.Context) {
	h.withRide(c, h.rides.EndRide)
}

// SendOTP issues a start code and hands it to the rider. The code never appears in the response.
func (h *RideHandler) SendOTP(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	code, r, err := h.rides.GenerateRideOTP(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	if err := h.otp.SendRideOTP(c.Request.Context(), r.RiderID, r.ID, code); err != nil {
		h.log.Error("ride otp delivery failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("ride_id", r.ID.String()),
			zap.Error(err),
		)
		writeError(c, http.StatusBadGateway, "otp delivery failed")
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"message": "otp sent"})
}

func (h *RideHandler) Start(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req startRideReq
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.rides.StartRide(c.Request.Context(), middleware.Principal(c), id, strings.TrimSpace(req.OTP))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, newRideView(r))
}

func (h *RideHandler) withRide(c *gin.Context, op func(context.Context, types.Principal, types.ID) (*ride.Ride, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := op(c.Request.Context(), middleware.Principal(c), id)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, newRideView(r))
}
