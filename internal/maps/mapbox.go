package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ryde/internal/types"
)

const defaultMapboxBaseURL = "https://api.mapbox.com"

// MapboxClient talks to the Mapbox Directions and Geocoding v5 APIs.
type MapboxClient struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

type MapboxOption func(*MapboxClient)

// WithMapboxBaseURL points the client at a different host (tests, proxies).
func WithMapboxBaseURL(u string) MapboxOption {
	return func(m *MapboxClient) { m.baseURL = u }
}

func WithMapboxHTTPClient(c *http.Client) MapboxOption {
	return func(m *MapboxClient) { m.httpClient = c }
}

func NewMapboxClient(accessToken string, opts ...MapboxOption) *MapboxClient {
	m := &MapboxClient{
		accessToken: accessToken,
		baseURL:     defaultMapboxBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type mapboxFeatures struct {
	Features []struct {
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
		Geometry  struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

type mapboxDirections struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// QuoteRoute returns distance (meters) and duration (seconds) of the first route.
func (m *MapboxClient) QuoteRoute(ctx context.Context, origin, destination types.Point, profile Profile) (Quote, error) {
	if profile == "" {
		profile = ProfileDriving
	}
	coords := fmt.Sprintf("%s,%s;%s,%s",
		formatCoord(origin.Lng), formatCoord(origin.Lat),
		formatCoord(destination.Lng), formatCoord(destination.Lat))
	path := fmt.Sprintf("/directions/v5/mapbox/%s/%s", profile, coords)
	q := url.Values{}
	q.Set("overview", "simplified")
	q.Set("geometries", "geojson")

	var resp mapboxDirections
	if err := m.get(ctx, path, q, &resp); err != nil {
		return Quote{}, routingError("directions request: %v", err)
	}
	if len(resp.Routes) == 0 {
		return Quote{}, routingError("no route found")
	}
	r := resp.Routes[0]
	return Quote{DistanceMeters: r.Distance, DurationSeconds: r.Duration}, nil
}

// Geocode resolves an address to the coordinates of the best match.
func (m *MapboxClient) Geocode(ctx context.Context, address string) (types.Point, error) {
	q := url.Values{}
	q.Set("limit", "1")

	var resp mapboxFeatures
	if err := m.get(ctx, geocodingPath(address), q, &resp); err != nil {
		return types.Point{}, fmt.Errorf("%w: geocoding request: %v", ErrUpstream, err)
	}
	if len(resp.Features) == 0 {
		return types.Point{}, ErrNoResults
	}
	f := resp.Features[0]
	coords := f.Geometry.Coordinates
	if len(coords) < 2 {
		coords = f.Center
	}
	if len(coords) < 2 {
		return types.Point{}, ErrNoResults
	}
	return types.Point{Lat: coords[1], Lng: coords[0]}, nil
}

// Suggest returns place names for autocomplete.
func (m *MapboxClient) Suggest(ctx context.Context, input string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	q := url.Values{}
	q.Set("autocomplete", "true")
	q.Set("limit", strconv.Itoa(limit))

	var resp mapboxFeatures
	if err := m.get(ctx, geocodingPath(input), q, &resp); err != nil {
		return nil, fmt.Errorf("%w: suggestions request: %v", ErrUpstream, err)
	}
	out := make([]string, 0, len(resp.Features))
	for _, f := range resp.Features {
		out = append(out, f.PlaceName)
	}
	return out, nil
}

func (m *MapboxClient) get(ctx context.Context, path string, q url.Values, v any) error {
	q.Set("access_token", m.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the full URL, access token included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func geocodingPath(query string) string {
	return "/geocoding/v5/mapbox.places/" + url.PathEscape(query) + ".json"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
