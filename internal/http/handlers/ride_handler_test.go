package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"ryde/internal/maps"
	"ryde/internal/modules/identity"
	"ryde/internal/modules/ride"
	"ryde/internal/types"
)

func sampleRide(status ride.Status) *ride.Ride {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	r := &ride.Ride{
		ID:              rideID,
		RiderID:         riderID,
		Pickup:          ride.Location{Point: types.Point{Lat: 12.9, Lng: 77.6}, Address: "MG Road"},
		Destination:     ride.Location{Point: types.Point{Lat: 13.0, Lng: 77.7}},
		VehicleType:     types.VehicleCar,
		Fare:            types.Money{Amount: 500, Currency: "INR"},
		Status:          status,
		DistanceMeters:  10000,
		DurationSeconds: 900,
		Version:         3,
		OTP:             &ride.Challenge{Hash: "deadbeefhash", ExpiresAt: now.Add(5 * time.Minute)},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if status != ride.StatusPending {
		d := driverID
		r.DriverID = &d
	}
	return r
}

func TestCreateRide(t *testing.T) {
	rides := &stubRides{ride: sampleRide(ride.StatusPending)}
	r := buildRideRouter(rides, &stubDelivery{})

	w := doRequest(r, http.MethodPost, "/api/rides", map[string]any{
		"pickup":        map[string]any{"lat": 12.9, "lng": 77.6},
		"pickupAddress": " MG Road ",
		"destination":   map[string]any{"lat": 13.0, "lng": 77.7},
		"vehicleType":   "car",
	}, riderToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if rides.lastCmd.VehicleType != types.VehicleCar || rides.lastCmd.PickupAddress != "MG Road" {
		t.Errorf("unexpected command %+v", rides.lastCmd)
	}
	if rides.lastUser != types.RiderPrincipal(riderID) {
		t.Errorf("expected rider principal, got %+v", rides.lastUser)
	}
	body := decodeBody(w)
	if body["status"] != "pending" || body["id"] != string(rideID) {
		t.Errorf("unexpected body %v", body)
	}
	if _, ok := body["driverId"]; ok {
		t.Errorf("pending ride should omit driverId: %v", body)
	}
}

func TestCreateRide_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown vehicle", map[string]any{
			"pickup": map[string]any{"lat": 12.9, "lng": 77.6}, "destination": map[string]any{"lat": 13.0, "lng": 77.7}, "vehicleType": "bus",
		}},
		{"missing pickup", map[string]any{
			"destination": map[string]any{"lat": 13.0, "lng": 77.7}, "vehicleType": "car",
		}},
		{"latitude out of range", map[string]any{
			"pickup": map[string]any{"lat": 91.0, "lng": 77.6}, "destination": map[string]any{"lat": 13.0, "lng": 77.7}, "vehicleType": "car",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rides := &stubRides{ride: sampleRide(ride.StatusPending)}
			w := doRequest(buildRideRouter(rides, &stubDelivery{}), http.MethodPost, "/api/rides", tt.body, riderToken)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if rides.lastUser.ID != "" {
				t.Error("service should not be called")
			}
		})
	}
}

func TestRideEndpoints_RequireToken(t *testing.T) {
	r := buildRideRouter(&stubRides{}, &stubDelivery{})
	w := doRequest(r, http.MethodGet, "/api/rides/"+string(rideID), nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	w = doRequest(r, http.MethodGet, "/api/rides/"+string(rideID), nil, "forged")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRideEndpoints_MalformedID(t *testing.T) {
	rides := &stubRides{ride: sampleRide(ride.StatusAccepted)}
	r := buildRideRouter(rides, &stubDelivery{})
	for _, path := range []string{"/api/rides/not-an-id", "/api/rides/65a1f0c2e4b0a1b2c3d4e5fz"} {
		w := doRequest(r, http.MethodGet, path, nil, riderToken)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
	if rides.lastID != "" {
		t.Error("service should not be called with a malformed id")
	}
}

func TestRideView_NeverIncludesOTP(t *testing.T) {
	r := buildRideRouter(&stubRides{ride: sampleRide(ride.StatusAccepted)}, &stubDelivery{})
	w := doRequest(r, http.MethodGet, "/api/rides/"+string(rideID), nil, riderToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := strings.ToLower(w.Body.String())
	for _, leak := range []string{"otp", "deadbeefhash", "version"} {
		if strings.Contains(body, leak) {
			t.Errorf("response leaks %q: %s", leak, body)
		}
	}
	if !strings.Contains(w.Body.String(), `"driverId":"`+string(driverID)+`"`) {
		t.Errorf("expected driverId in body, got %s", w.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
		msg  string
	}{
		{ride.ErrInvalidInput, http.StatusBadRequest, ""},
		{ride.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{ride.ErrForbidden, http.StatusForbidden, "forbidden"},
		{ride.ErrNotFound, http.StatusNotFound, "ride not found"},
		{ride.ErrInvalidState, http.StatusConflict, "invalid state transition"},
		{ride.ErrConflict, http.StatusConflict, "ride state conflict"},
		{ride.ErrInvalidOTP, http.StatusForbidden, "invalid or expired otp"},
		{ride.ErrOTPExpired, http.StatusForbidden, "invalid or expired otp"},
		{ride.ErrOTPMissing, http.StatusForbidden, "invalid or expired otp"},
		{ride.ErrTooManyAttempts, http.StatusTooManyRequests, ""},
		{maps.ErrRoutingUnavailable, http.StatusBadGateway, "routing unavailable"},
		{fmt.Errorf("%w: connection reset", ride.ErrStorageUnavailable), http.StatusInternalServerError, "internal error"},
		{errBoom, http.StatusInternalServerError, "internal error"},
		{identity.ErrEmailTaken, http.StatusConflict, "email already registered"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := buildRideRouter(&stubRides{err: tt.err}, &stubDelivery{})
			w := doRequest(r, http.MethodPost, "/api/rides/"+string(rideID)+"/confirm", nil, driverToken)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
			if tt.msg != "" {
				if got := decodeBody(w)["error"]; got != tt.msg {
					t.Errorf("expected error %q, got %v", tt.msg, got)
				}
			}
			if strings.Contains(w.Body.String(), "connection reset") {
				t.Errorf("internal detail leaked: %s", w.Body.String())
			}
		})
	}
}

func TestOTPFailuresAreIndistinguishable(t *testing.T) {
	var bodies []string
	for _, err := range []error{ride.ErrInvalidOTP, ride.ErrOTPExpired, ride.ErrOTPMissing} {
		r := buildRideRouter(&stubRides{err: err}, &stubDelivery{})
		w := doRequest(r, http.MethodPost, "/api/rides/"+string(rideID)+"/start", map[string]any{"otp": "123456"}, driverToken)
		if w.Code != http.StatusForbidden {
			t.Fatalf("%v: expected 403, got %d", err, w.Code)
		}
		bodies = append(bodies, w.Body.String())
	}
	if bodies[0] != bodies[1] || bodies[1] != bodies[2] {
		t.Errorf("otp failure bodies differ: %q", bodies)
	}
}

func TestStartRide(t *testing.T) {
	rides := &stubRides{ride: sampleRide(ride.StatusOngoing)}
	r := buildRideRouter(rides, &stubDelivery{})

	w := doRequest(r, http.MethodPost, "/api/rides/"+strings.ToUpper(string(rideID))+"/start", map[string]any{"otp": " 482913 "}, driverToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if rides.lastOTP != "482913" || rides.lastID != rideID {
		t.Errorf("unexpected call: id=%s otp=%q", rides.lastID, rides.lastOTP)
	}
	if decodeBody(w)["status"] != "ongoing" {
		t.Errorf("unexpected body %s", w.Body.String())
	}

	w = doRequest(r, http.MethodPost, "/api/rides/"+string(rideID)+"/start", map[string]any{}, driverToken)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing otp: expected 400, got %d", w.Code)
	}
}

func TestSendOTP(t *testing.T) {
	rides := &stubRides{ride: sampleRide(ride.StatusAccepted), code: "482913"}
	delivery := &stubDelivery{}
	r := buildRideRouter(rides, delivery)

	w := doRequest(r, http.MethodPost, "/api/rides/"+string(rideID)+"/otp", nil, driverToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decodeBody(w)["message"] != "otp sent" {
		t.Errorf("unexpected body %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "482913") {
		t.Errorf("code leaked in response: %s", w.Body.String())
	}
	if len(delivery.sent) != 1 || delivery.sent[0] != (sentOTP{rider: riderID, ride: rideID, code: "482913"}) {
		t.Errorf("unexpected deliveries %+v", delivery.sent)
	}
}

func TestSendOTP_DeliveryFailure(t *testing.T) {
	rides := &stubRides{ride: sampleRide(ride.StatusAccepted), code: "482913"}
	r := buildRideRouter(rides, &stubDelivery{err: errBoom})

	w := doRequest(r, http.MethodPost, "/api/rides/"+string(rideID)+"/otp", nil, driverToken)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "482913") {
		t.Errorf("code leaked in response: %s", w.Body.String())
	}
}

func TestSendOTP_ServiceError(t *testing.T) {
	delivery := &stubDelivery{}
	r := buildRideRouter(&stubRides{err: ride.ErrInvalidState}, delivery)
	w := doRequest(r, http.MethodPost, "/api/rides/"+string(rideID)+"/otp", nil, driverToken)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if len(delivery.sent) != 0 {
		t.Error("nothing should be delivered")
	}
}

func TestFareAndList(t *testing.T) {
	rides := &stubRides{
		quote: ride.FareQuote{
			Fares: map[types.VehicleType]types.Money{types.VehicleCar: {Amount: 500, Currency: "INR"}},
			Quote: maps.Quote{DistanceMeters: 10000, DurationSeconds: 900},
		},
		rides: []*ride.Ride{sampleRide(ride.StatusCompleted)},
	}
	r := buildRideRouter(rides, &stubDelivery{})

	w := doRequest(r, http.MethodGet, "/api/rides/fare?pickupLat=12.9&pickupLng=77.6&destinationLat=13&destinationLng=77.7", nil, riderToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"car":{"amount":500,"currency":"INR"}`) {
		t.Errorf("unexpected fare body %s", w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/rides/fare?pickupLat=12.9&pickupLng=77.6", nil, riderToken)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing destination, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/rides?limit=5", nil, riderToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if rides.lastLimit != 5 {
		t.Errorf("expected limit 5, got %d", rides.lastLimit)
	}
	if !strings.Contains(w.Body.String(), `"status":"completed"`) {
		t.Errorf("unexpected list body %s", w.Body.String())
	}
}
