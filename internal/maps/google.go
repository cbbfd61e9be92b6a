package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"ryde/internal/types"
)

// GoogleClient handles interactions with the Google Maps Directions, Geocoding and Places APIs.
type GoogleClient struct {
	client *maps.Client
}

// NewGoogleClient creates a new GoogleClient with the given API Key.
func NewGoogleClient(apiKey string, opts ...maps.ClientOption) (*GoogleClient, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleClient{client: client}, nil
}

func travelMode(p Profile) maps.Mode {
	switch p {
	case ProfileWalking:
		return maps.TravelModeWalking
	case ProfileCycling:
		return maps.TravelModeBicycling
	default:
		return maps.TravelModeDriving
	}
}

// QuoteRoute sums the legs of the first route returned by the Directions API.
func (g *GoogleClient) QuoteRoute(ctx context.Context, origin, destination types.Point, profile Profile) (Quote, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin.String(),
		Destination: destination.String(),
		Mode:        travelMode(profile),
	}

	routes, _, err := g.client.Directions(ctx, r)
	if err != nil {
		return Quote{}, routingError("maps api error: %v", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Quote{}, routingError("no route found")
	}

	var q Quote
	for _, leg := range routes[0].Legs {
		q.DistanceMeters += float64(leg.Distance.Meters)
		q.DurationSeconds += leg.Duration.Seconds()
	}
	return q, nil
}

func (g *GoogleClient) Geocode(ctx context.Context, address string) (types.Point, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return types.Point{}, fmt.Errorf("%w: geocode: %v", ErrUpstream, err)
	}
	if len(results) == 0 {
		return types.Point{}, ErrNoResults
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (g *GoogleClient) Suggest(ctx context.Context, input string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	resp, err := g.client.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("%w: place autocomplete: %v", ErrUpstream, err)
	}
	out := make([]string, 0, limit)
	for _, p := range resp.Predictions {
		if len(out) >= limit {
			break
		}
		out = append(out, p.Description)
	}
	return out, nil
}
