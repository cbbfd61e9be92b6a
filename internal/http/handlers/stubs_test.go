package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ryde/internal/http/handlers"
	"ryde/internal/http/middleware"
	"ryde/internal/maps"
	"ryde/internal/modules/identity"
	"ryde/internal/modules/ride"
	"ryde/internal/types"
)

const (
	riderID  = types.ID("65a1f0c2e4b0a1b2c3d4e5f6")
	driverID = types.ID("65a1f0c2e4b0a1b2c3d4e5f7")
	rideID   = types.ID("65a1f0c2e4b0a1b2c3d4e5f8")

	riderToken  = "rider-token"
	driverToken = "driver-token"
)

// stubAccounts maps fixed tokens to principals and records account calls.
type stubAccounts struct {
	session   *identity.Session
	account   *identity.Account
	err       error
	loggedOut []string
	registers []identity.RegisterCommand
}

func (s *stubAccounts) Authenticate(_ context.Context, token string) (types.Principal, error) {
	switch token {
	case riderToken:
		return types.RiderPrincipal(riderID), nil
	case driverToken:
		return types.DriverPrincipal(driverID), nil
	}
	return types.Principal{}, identity.ErrUnauthorized
}

func (s *stubAccounts) Register(_ context.Context, cmd identity.RegisterCommand) (*identity.Session, error) {
	s.registers = append(s.registers, cmd)
	return s.session, s.err
}

func (s *stubAccounts) Login(context.Context, types.Role, string, string) (*identity.Session, error) {
	return s.session, s.err
}

func (s *stubAccounts) Profile(context.Context, types.Principal) (*identity.Account, error) {
	return s.account, s.err
}

func (s *stubAccounts) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return s.err
}

// stubRides returns ride and err from every operation and records the last call.
type stubRides struct {
	ride      *ride.Ride
	rides     []*ride.Ride
	quote     ride.FareQuote
	code      string
	err       error
	lastCmd   ride.CreateCommand
	lastID    types.ID
	lastOTP   string
	lastLimit int
	lastUser  types.Principal
}

func (s *stubRides) CreateRide(_ context.Context, p types.Principal, cmd ride.CreateCommand) (*ride.Ride, error) {
	s.lastUser, s.lastCmd = p, cmd
	return s.ride, s.err
}

func (s *stubRides) QuoteFare(_ context.Context, p types.Principal, _, _ types.Point) (ride.FareQuote, error) {
	s.lastUser = p
	return s.quote, s.err
}

func (s *stubRides) ListRides(_ context.Context, p types.Principal, limit int) ([]*ride.Ride, error) {
	s.lastUser, s.lastLimit = p, limit
	return s.rides, s.err
}

func (s *stubRides) GetRide(_ context.Context, p types.Principal, id types.ID) (*ride.Ride, error) {
	s.lastUser, s.lastID = p, id
	return s.ride, s.err
}

func (s *stubRides) ConfirmRide(_ context.Context, p types.Principal, id types.ID) (*ride.Ride, error) {
	s.lastUser, s.lastID = p, id
	return s.ride, s.err
}

func (s *stubRides) GenerateRideOTP(_ context.Context, p types.Principal, id types.ID) (string, *ride.Ride, error) {
	s.lastUser, s.lastID = p, id
	if s.err != nil {
		return "", nil, s.err
	}
	return s.code, s.ride, nil
}

func (s *stubRides) StartRide(_ context.Context, p types.Principal, id types.ID, candidate string) (*ride.Ride, error) {
	s.lastUser, s.lastID, s.lastOTP = p, id, candidate
	return s.ride, s.err
}

func (s *stubRides) EndRide(_ context.Context, p types.Principal, id types.ID) (*ride.Ride, error) {
	s.lastUser, s.lastID = p, id
	return s.ride, s.err
}

type sentOTP struct {
	rider, ride types.ID
	code        string
}

type stubDelivery struct {
	sent []sentOTP
	err  error
}

func (s *stubDelivery) SendRideOTP(_ context.Context, riderID, rideID types.ID, code string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentOTP{rider: riderID, ride: rideID, code: code})
	return nil
}

type stubMaps struct {
	quote       maps.Quote
	point       types.Point
	suggestions []string
	err         error
	lastLimit   int
	lastProfile maps.Profile
}

func (s *stubMaps) QuoteRoute(_ context.Context, _, _ types.Point, profile maps.Profile) (maps.Quote, error) {
	s.lastProfile = profile
	return s.quote, s.err
}

func (s *stubMaps) Geocode(context.Context, string) (types.Point, error) {
	return s.point, s.err
}

func (s *stubMaps) Suggest(_ context.Context, _ string, limit int) ([]string, error) {
	s.lastLimit = limit
	return s.suggestions, s.err
}

var errBoom = errors.New("boom")

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	if err := handlers.RegisterValidators(); err != nil {
		panic(err)
	}
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

func buildRideRouter(rides *stubRides, delivery *stubDelivery) *gin.Engine {
	r := newEngine()
	auth := middleware.Auth(&stubAccounts{})
	h := handlers.NewRideHandler(rides, delivery, zap.NewNop())
	g := r.Group("/api/rides", auth)
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/fare", h.Fare)
	g.GET("/:id", h.Get)
	g.POST("/:id/confirm", h.Confirm)
	g.POST("/:id/otp", h.SendOTP)
	g.POST("/:id/start", h.Start)
	g.POST("/:id/end", h.End)
	return r
}

func doRequest(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}
