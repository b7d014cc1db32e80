package maps

import (
	"context"

	"googlemaps.github.io/maps"

	"wondura/internal/types"
)

// VenueLocator combines a place lookup with a drive-time estimate from the trip destination.
type VenueLocator struct {
	places *PlacesService
	routes *RouteService
}

// NewVenueLocator builds both services from one API key.
func NewVenueLocator(apiKey string, opts ...maps.ClientOption) (*VenueLocator, error) {
	places, err := NewPlacesService(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	routes, err := NewRouteService(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &VenueLocator{places: places, routes: routes}, nil
}

// Locate finds venue near location. A failed drive-time estimate leaves TravelTimeMinutes nil
// rather than failing the lookup.
func (l *VenueLocator) Locate(ctx context.Context, venue, location string) (types.VenueLocation, error) {
	place, err := l.places.FindVenue(ctx, venue, location)
	if err != nil {
		return types.VenueLocation{}, err
	}

	out := types.VenueLocation{
		Name:           place.Name,
		Address:        place.Address,
		BusinessStatus: place.BusinessStatus,
		Rating:         place.Rating,
	}
	if location != "" && place.Address != "" {
		if est, err := l.routes.DriveTime(ctx, location, place.Address); err == nil {
			mins := est.Minutes()
			out.TravelTimeMinutes = &mins
		}
	}
	return out, nil
}
