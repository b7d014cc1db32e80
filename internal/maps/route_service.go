package maps

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"googlemaps.github.io/maps"
)

// ErrNoRoute is returned when Directions finds no drivable leg between the two points.
var ErrNoRoute = errors.New("maps: no route found")

// DriveEstimate is the first leg of the best driving route.
type DriveEstimate struct {
	Duration time.Duration
	Distance string
}

// Minutes rounds the duration to whole minutes.
func (e DriveEstimate) Minutes() int {
	return int(math.Round(e.Duration.Minutes()))
}

// RouteService estimates drive times inside New Zealand. Results are biased to the nz region
// and bare town names are qualified with the country, so "Wanaka" never resolves overseas.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string, opts ...maps.ClientOption) (*RouteService, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// DriveTime estimates the drive from a trip destination to a venue address.
func (s *RouteService) DriveTime(ctx context.Context, from, venueAddress string) (DriveEstimate, error) {
	routes, _, err := s.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      inNewZealand(from),
		Destination: inNewZealand(venueAddress),
		Mode:        maps.TravelModeDriving,
		Language:    "en-NZ",
		Region:      "nz",
	})
	if err != nil {
		return DriveEstimate{}, fmt.Errorf("maps directions: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return DriveEstimate{}, ErrNoRoute
	}

	leg := routes[0].Legs[0]
	return DriveEstimate{Duration: leg.Duration, Distance: leg.Distance.HumanReadable}, nil
}

func inNewZealand(place string) string {
	lower := strings.ToLower(place)
	if strings.Contains(lower, "new zealand") || strings.HasSuffix(lower, " nz") || strings.HasSuffix(lower, ", nz") {
		return place
	}
	return place + ", New Zealand"
}
