// README: Routing/geocoding contracts consumed by pricing and the maps HTTP endpoints.
package maps

import (
	"context"
	"errors"
	"fmt"

	"ryde/internal/types"
)

var (
	// ErrRoutingUnavailable is returned when no route exists or the upstream call fails.
	ErrRoutingUnavailable = errors.New("routing unavailable")
	// ErrNoResults is returned when a geocoding lookup matches nothing.
	ErrNoResults = errors.New("no results found")
	// ErrUpstream wraps any other provider failure.
	ErrUpstream = errors.New("maps provider error")
)

type Profile string

const (
	ProfileDriving Profile = "driving"
	ProfileWalking Profile = "walking"
	ProfileCycling Profile = "cycling"
)

// ParseProfile maps an empty value to driving and rejects unknown profiles.
func ParseProfile(v string) (Profile, error) {
	switch Profile(v) {
	case "":
		return ProfileDriving, nil
	case ProfileDriving, ProfileWalking, ProfileCycling:
		return Profile(v), nil
	}
	return "", fmt.Errorf("unknown routing profile %q", v)
}

// Quote is a distance/duration snapshot for one route.
type Quote struct {
	DistanceMeters  float64 `json:"distance"`
	DurationSeconds float64 `json:"duration"`
}

type Router interface {
	QuoteRoute(ctx context.Context, origin, destination types.Point, profile Profile) (Quote, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type Suggester interface {
	Suggest(ctx context.Context, input string, limit int) ([]string, error)
}

// Provider is a full maps backend.
type Provider interface {
	Router
	Geocoder
	Suggester
}

const DefaultSuggestionLimit = 5

func routingError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRoutingUnavailable, fmt.Sprintf(format, args...))
}
