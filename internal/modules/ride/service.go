// README: Ride service implements the lifecycle state machine and the OTP-gated start.
package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ryde/internal/maps"
	"ryde/internal/metrics"
	"ryde/internal/modules/pricing"
	"ryde/internal/types"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type FareEstimator interface {
	Estimate(ctx context.Context, pickup, destination types.Point, vehicle types.VehicleType) (pricing.Estimate, error)
	QuoteAll(ctx context.Context, pickup, destination types.Point) (map[types.VehicleType]types.Money, maps.Quote, error)
}

// AttemptLimiter bounds start-ride verification attempts per ride.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

type Service struct {
	store   Store
	fares   FareEstimator
	otp     *OTP
	limiter AttemptLimiter
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Service)

func WithLimiter(l AttemptLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, fares FareEstimator, otp *OTP, opts ...Option) *Service {
	s := &Service{store: store, fares: fares, otp: otp, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateCommand struct {
	Pickup             types.Point
	PickupAddress      string
	Destination        types.Point
	DestinationAddress string
	VehicleType        types.VehicleType
}

type FareQuote struct {
	Fares map[types.VehicleType]types.Money
	Quote maps.Quote
}

func (s *Service) CreateRide(ctx context.Context, p types.Principal, cmd CreateCommand) (*Ride, error) {
	if err := requireRole(p, types.RoleRider); err != nil {
		return nil, err
	}
	if !cmd.Pickup.Valid() || !cmd.Destination.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	if !cmd.VehicleType.Valid() {
		return nil, fmt.Errorf("%w: unsupported vehicle type %q", ErrInvalidInput, cmd.VehicleType)
	}

	est, err := s.fares.Estimate(ctx, cmd.Pickup, cmd.Destination, cmd.VehicleType)
	if err != nil {
		return nil, fareError(err)
	}

	now := s.now().UTC()
	r := &Ride{
		ID:              types.NewID(),
		RiderID:         p.ID,
		Pickup:          Location{Point: cmd.Pickup, Address: cmd.PickupAddress},
		Destination:     Location{Point: cmd.Destination, Address: cmd.DestinationAddress},
		VehicleType:     cmd.VehicleType,
		Fare:            est.Fare,
		Status:          StatusPending,
		DistanceMeters:  est.Quote.DistanceMeters,
		DurationSeconds: est.Quote.DurationSeconds,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	metrics.RecordRideTransition(string(StatusPending))
	s.log.Info("ride created",
		zap.String("ride_id", r.ID.String()),
		zap.String("rider_id", p.ID.String()),
		zap.String("vehicle_type", string(r.VehicleType)),
		zap.Int64("fare", r.Fare.Amount),
	)
	return r, nil
}

func (s *Service) QuoteFare(ctx context.Context, p types.Principal, pickup, destination types.Point) (FareQuote, error) {
	if err := requireRole(p, types.RoleRider); err != nil {
		return FareQuote{}, err
	}
	if !pickup.Valid() || !destination.Valid() {
		return FareQuote{}, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	fares, q, err := s.fares.QuoteAll(ctx, pickup, destination)
	if err != nil {
		return FareQuote{}, fareError(err)
	}
	return FareQuote{Fares: fares, Quote: q}, nil
}

// ConfirmRide assigns the calling driver to a pending ride. Only one concurrent confirm wins.
func (s *Service) ConfirmRide(ctx context.Context, p types.Principal, id types.ID) (*Ride, error) {
	if err := requireRole(p, types.RoleDriver); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusAccepted) {
		return nil, ErrInvalidState
	}
	driverID := p.ID
	return s.transition(ctx, r, StatusAccepted, &driverID, p)
}

// GenerateRideOTP issues a fresh start code, replacing any outstanding one. The raw code is returned
// for delivery to the rider and is never stored.
func (s *Service) GenerateRideOTP(ctx context.Context, p types.Principal, id types.ID) (string, *Ride, error) {
	r, err := s.loadAssigned(ctx, p, id)
	if err != nil {
		return "", nil, err
	}
	if r.Status != StatusAccepted {
		return "", nil, ErrInvalidState
	}
	code, challenge, err := s.otp.Generate()
	if err != nil {
		return "", nil, err
	}
	updated, err := s.store.SetChallenge(ctx, r.ID, r.Status, r.Version, challenge)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.RecordRideConflict("generate_otp")
		}
		return "", nil, err
	}
	s.log.Info("ride otp issued",
		zap.String("ride_id", r.ID.String()),
		zap.String("driver_id", p.ID.String()),
		zap.Time("expires_at", challenge.ExpiresAt),
	)
	return code, updated, nil
}

// StartRide moves an accepted ride to ongoing once the rider's code verifies. The challenge is
// consumed by the same conditional write.
func (s *Service) StartRide(ctx context.Context, p types.Principal, id types.ID, candidate string) (*Ride, error) {
	if err := requireRole(p, types.RoleDriver); err != nil {
		return nil, err
	}
	if !ValidCandidate(candidate) {
		return nil, fmt.Errorf("%w: otp must be 4-6 digits", ErrInvalidInput)
	}
	r, err := s.loadAssigned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusOngoing) {
		return nil, ErrInvalidState
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, r.ID.String())
		if err != nil {
			s.log.Warn("otp attempt limiter unavailable", zap.String("ride_id", r.ID.String()), zap.Error(err))
		} else if !ok {
			metrics.RecordOTPVerification(metrics.OTPRateLimited)
			return nil, ErrTooManyAttempts
		}
	}

	if err := s.otp.VerifyDetailed(r.OTP, candidate); err != nil {
		metrics.RecordOTPVerification(otpOutcome(err))
		s.log.Info("ride otp rejected",
			zap.String("ride_id", r.ID.String()),
			zap.String("driver_id", p.ID.String()),
			zap.String("reason", otpOutcome(err)),
		)
		return nil, err
	}
	metrics.RecordOTPVerification(metrics.OTPVerified)

	updated, err := s.transition(ctx, r, StatusOngoing, nil, p)
	if err != nil {
		return nil, err
	}
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, r.ID.String()); err != nil {
			s.log.Warn("otp attempt limiter reset failed", zap.String("ride_id", r.ID.String()), zap.Error(err))
		}
	}
	return updated, nil
}

func (s *Service) EndRide(ctx context.Context, p types.Principal, id types.ID) (*Ride, error) {
	r, err := s.loadAssigned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, StatusCompleted) {
		return nil, ErrInvalidState
	}
	return s.transition(ctx, r, StatusCompleted, nil, p)
}

// GetRide returns the ride to its rider or its assigned driver. Everyone else gets ErrNotFound.
func (s *Service) GetRide(ctx context.Context, p types.Principal, id types.ID) (*Ride, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case p.Role == types.RoleRider && r.RiderID == p.ID:
		return r, nil
	case p.Role == types.RoleDriver && r.AssignedTo(p.ID):
		return r, nil
	}
	return nil, ErrNotFound
}

// ListRides returns the calling rider's rides, newest first.
func (s *Service) ListRides(ctx context.Context, p types.Principal, limit int) ([]*Ride, error) {
	if err := requireRole(p, types.RoleRider); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.store.ListByRider(ctx, p.ID, limit)
}

func (s *Service) load(ctx context.Context, id types.ID) (*Ride, error) {
	if !types.IsValidID(string(id)) {
		return nil, fmt.Errorf("%w: malformed ride id", ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// loadAssigned fetches a ride for a driver operation. A driver other than the assigned one is
// rejected with ErrForbidden; an unassigned ride falls through to the caller's status check.
func (s *Service) loadAssigned(ctx context.Context, p types.Principal, id types.ID) (*Ride, error) {
	if err := requireRole(p, types.RoleDriver); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.DriverID == nil {
		if r.Status == StatusPending {
			return r, nil
		}
		return nil, ErrForbidden
	}
	if !r.AssignedTo(p.ID) {
		return nil, ErrForbidden
	}
	return r, nil
}

func (s *Service) transition(ctx context.Context, r *Ride, to Status, driverID *types.ID, actor types.Principal) (*Ride, error) {
	updated, err := s.store.Transition(ctx, Transition{
		ID:       r.ID,
		From:     r.Status,
		To:       to,
		Version:  r.Version,
		DriverID: driverID,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.RecordRideConflict(string(to))
			s.log.Info("ride transition lost race",
				zap.String("ride_id", r.ID.String()),
				zap.String("to", string(to)),
				zap.Int("version", r.Version),
			)
		}
		return nil, err
	}
	metrics.RecordRideTransition(string(to))
	s.log.Info("ride transition",
		zap.String("ride_id", r.ID.String()),
		zap.String("from", string(r.Status)),
		zap.String("to", string(to)),
		zap.String("actor_role", string(actor.Role)),
		zap.String("actor_id", actor.ID.String()),
	)
	return updated, nil
}

func requireAuthenticated(p types.Principal) error {
	if p.ID == "" || !p.Role.Valid() {
		return ErrUnauthorized
	}
	return nil
}

func requireRole(p types.Principal, role types.Role) error {
	if err := requireAuthenticated(p); err != nil {
		return err
	}
	if p.Role != role {
		return ErrForbidden
	}
	return nil
}

func fareError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case errors.Is(err, maps.ErrRoutingUnavailable):
		return err
	}
	return fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
}

func otpOutcome(err error) string {
	switch {
	case errors.Is(err, ErrOTPExpired):
		return metrics.OTPExpired
	case errors.Is(err, ErrOTPMissing):
		return metrics.OTPMissing
	}
	return metrics.OTPRejected
}
