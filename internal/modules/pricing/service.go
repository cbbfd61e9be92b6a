// README: Pricing service computes fare estimates from a routing quote.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ryde/internal/maps"
	"ryde/internal/metrics"
	"ryde/internal/types"
)

var (
	ErrInvalidInput       = errors.New("invalid pricing input")
	ErrRoutingUnavailable = maps.ErrRoutingUnavailable
)

type Service struct {
	router     maps.Router
	rates      RateTable
	unitMeters float64
	currency   string
}

func NewService(router maps.Router, rates RateTable, unitMeters float64, currency string) *Service {
	if rates == nil {
		rates = DefaultRates
	}
	if unitMeters <= 0 {
		unitMeters = 1000
	}
	return &Service{router: router, rates: rates, unitMeters: unitMeters, currency: currency}
}

// Estimate prices one vehicle class for the route between pickup and destination.
func (s *Service) Estimate(ctx context.Context, pickup, destination types.Point, vehicle types.VehicleType) (Estimate, error) {
	if err := validatePoints(pickup, destination); err != nil {
		return Estimate{}, err
	}
	rate, ok := s.rates[vehicle]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: unsupported vehicle type %q", ErrInvalidInput, vehicle)
	}
	q, err := s.quote(ctx, pickup, destination)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{Fare: s.Fare(rate, q.DistanceMeters), Quote: q}, nil
}

// QuoteAll prices every vehicle class from a single route lookup.
func (s *Service) QuoteAll(ctx context.Context, pickup, destination types.Point) (map[types.VehicleType]types.Money, maps.Quote, error) {
	if err := validatePoints(pickup, destination); err != nil {
		return nil, maps.Quote{}, err
	}
	q, err := s.quote(ctx, pickup, destination)
	if err != nil {
		return nil, maps.Quote{}, err
	}
	out := make(map[types.VehicleType]types.Money, len(s.rates))
	for vt, rate := range s.rates {
		out[vt] = s.Fare(rate, q.DistanceMeters)
	}
	return out, q, nil
}

// Fare is rate per unit times distance in units, rounded half away from zero.
// Units are unitMeters long; with unitMeters=1 this is rate × raw route distance in meters.
func (s *Service) Fare(rate int64, distanceMeters float64) types.Money {
	amount := math.Round(float64(rate) * distanceMeters / s.unitMeters)
	return types.Money{Amount: int64(amount), Currency: s.currency}
}

func (s *Service) quote(ctx context.Context, pickup, destination types.Point) (maps.Quote, error) {
	if s.router == nil {
		return maps.Quote{}, fmt.Errorf("%w: no router configured", ErrRoutingUnavailable)
	}
	q, err := s.router.QuoteRoute(ctx, pickup, destination, maps.ProfileDriving)
	metrics.RecordRouteQuote(err == nil)
	if err != nil {
		if errors.Is(err, maps.ErrRoutingUnavailable) {
			return maps.Quote{}, err
		}
		return maps.Quote{}, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}
	if q.DistanceMeters < 0 || math.IsNaN(q.DistanceMeters) {
		return maps.Quote{}, fmt.Errorf("%w: bad distance %v", ErrRoutingUnavailable, q.DistanceMeters)
	}
	return q, nil
}

func validatePoints(pickup, destination types.Point) error {
	if !pickup.Valid() {
		return fmt.Errorf("%w: pickup out of range", ErrInvalidInput)
	}
	if !destination.Valid() {
		return fmt.Errorf("%w: destination out of range", ErrInvalidInput)
	}
	return nil
}
