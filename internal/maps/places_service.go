// README: Google Maps lookups used to ground venue verification (place status and drive time).
package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// ErrNoPlace is returned when a text search finds nothing for the venue.
var ErrNoPlace = errors.New("maps: no matching place")

// Place represents a simplified location result.
type Place struct {
	Name           string
	Address        string
	Rating         float32
	PlaceID        string
	BusinessStatus string
}

// PlacesService handles interactions with Google Places API.
type PlacesService struct {
	client *maps.Client
}

// NewPlacesService creates a new PlacesService with the given API Key.
func NewPlacesService(apiKey string, opts ...maps.ClientOption) (*PlacesService, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client}, nil
}

// FindVenue returns the best text-search match for venue near location.
func (s *PlacesService) FindVenue(ctx context.Context, venue, location string) (Place, error) {
	query := venue
	if location != "" && !containsIgnoreCase(venue, location) {
		query = fmt.Sprintf("%s, %s", venue, location)
	}

	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Language: "en",
		Region:   "nz",
	})
	if err != nil {
		return Place{}, fmt.Errorf("places api error: %w", err)
	}
	if len(resp.Results) == 0 {
		return Place{}, ErrNoPlace
	}

	// Prefer a result whose name actually mentions the venue; fall back to the top hit.
	best := resp.Results[0]
	for _, r := range resp.Results {
		if containsIgnoreCase(r.Name, venue) || containsIgnoreCase(venue, r.Name) {
			best = r
			break
		}
	}
	return Place{
		Name:           best.Name,
		Address:        best.FormattedAddress,
		Rating:         best.Rating,
		PlaceID:        best.PlaceID,
		BusinessStatus: best.BusinessStatus,
	}, nil
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
