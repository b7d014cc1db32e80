package providers

import (
	"context"
	"fmt"
	"strings"

	"wondura/internal/types"
)

// VenueVerdict is the best-effort operational check for one venue.
type VenueVerdict struct {
	Venue             string   `json:"venue"`
	Exists            bool     `json:"exists"`
	OpenOnDates       bool     `json:"open_on_dates"`
	RedFlags          []string `json:"red_flags"`
	BusinessStatus    string   `json:"business_status,omitempty"`
	TravelTimeMinutes *int     `json:"travel_time_minutes"`
	Sources           []string `json:"sources,omitempty"`
}

// VenueHeuristic derives a verdict from free text. Implementations are pure.
type VenueHeuristic interface {
	Assess(venue string, texts []string) VenueVerdict
}

// VenueLocator resolves a venue on a map. Optional.
type VenueLocator interface {
	Locate(ctx context.Context, venue, location string) (types.VenueLocation, error)
}

type signal struct {
	phrases []string
	flag    string
	// fatal marks signals that mean the venue no longer operates at all.
	fatal bool
}

var venueSignals = []signal{
	{phrases: []string{"permanently closed", "closed permanently", "has closed its doors", "closed down for good"}, flag: "Reported permanently closed", fatal: true},
	{phrases: []string{"temporarily closed", "closed until further notice", "closed until"}, flag: "Reported temporarily closed"},
	{phrases: []string{"under renovation", "closed for renovation", "renovations", "refurbishment"}, flag: "Renovation work reported"},
	{phrases: []string{"closed for the season", "seasonal closure", "closed for winter", "closed during winter", "closed over winter", "reopens in"}, flag: "Seasonal closure reported"},
}

// PhraseVenueHeuristic scans English text for closure, renovation and seasonal-closure phrases.
// It can be fooled by negations ("no longer under renovation") and by pages about other venues.
type PhraseVenueHeuristic struct{}

func (PhraseVenueHeuristic) Assess(venue string, texts []string) VenueVerdict {
	v := VenueVerdict{Venue: venue, RedFlags: []string{}}
	if len(texts) == 0 {
		v.RedFlags = append(v.RedFlags, "No search results found for venue")
		return v
	}

	body := strings.ToLower(strings.Join(texts, "\n"))
	v.Exists = true
	if venue != "" && !strings.Contains(body, strings.ToLower(venue)) {
		v.RedFlags = append(v.RedFlags, fmt.Sprintf("No result mentions %q", venue))
	}

	closed := false
	for _, s := range venueSignals {
		if containsAny(body, s.phrases) {
			v.RedFlags = append(v.RedFlags, s.flag)
			closed = true
			if s.fatal {
				v.Exists = false
			}
		}
	}
	v.OpenOnDates = v.Exists && !closed
	return v
}

func containsAny(body string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(body, p) {
			return true
		}
	}
	return false
}

// VenueAdapter checks that the venue is open around the travel dates.
type VenueAdapter struct {
	searcher  Searcher
	heuristic VenueHeuristic
	locator   VenueLocator
}

// NewVenue builds the adapter. locator may be nil.
func NewVenue(s Searcher, h VenueHeuristic, locator VenueLocator) *VenueAdapter {
	return &VenueAdapter{searcher: s, heuristic: h, locator: locator}
}

func (a *VenueAdapter) Name() string { return NameVenue }

func (a *VenueAdapter) Lookup(ctx context.Context, p TripParams) Result {
	if p.Venue == "" {
		return Failed(NameVenue, "No venue named in the request")
	}

	objective := fmt.Sprintf("Verify if %q in %s is open and operational, check hours and availability around %s",
		p.Venue, p.Location, p.Dates)
	resp, err := a.searcher.Search(ctx, FastTuning.request(objective))
	if err != nil {
		return Failed(NameVenue, failureReason(NameVenue, err))
	}

	verdict := a.heuristic.Assess(p.Venue, resp.Texts())
	verdict.Sources = resp.URLs()

	if a.locator != nil {
		if loc, err := a.locator.Locate(ctx, p.Venue, p.Location); err == nil {
			applyLocation(&verdict, loc)
		}
	}
	return Ok(NameVenue, verdict)
}

func applyLocation(v *VenueVerdict, loc types.VenueLocation) {
	v.BusinessStatus = loc.BusinessStatus
	v.TravelTimeMinutes = loc.TravelTimeMinutes
	switch loc.BusinessStatus {
	case "CLOSED_PERMANENTLY":
		v.Exists = false
		v.OpenOnDates = false
		v.RedFlags = append(v.RedFlags, "Maps lists this place as permanently closed")
	case "CLOSED_TEMPORARILY":
		v.OpenOnDates = false
		v.RedFlags = append(v.RedFlags, "Maps lists this place as temporarily closed")
	}
}
