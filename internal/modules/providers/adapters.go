package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider names, also used as metric labels and generation-context headings.
const (
	NameWeather    = "weather"
	NameEvents     = "events"
	NameDining     = "dining"
	NameActivities = "activities"
	NameVenue      = "venue"
	NamePrice      = "price"
)

// Adapter converts trip parameters into one lookup. Lookup never returns a Go error;
// every outcome, including cancellation, is expressed as a Result.
type Adapter interface {
	Name() string
	Lookup(ctx context.Context, p TripParams) Result
}

// Tuning is the per-domain search configuration.
type Tuning struct {
	Processor         Processor
	MaxResults        int
	MaxCharsPerResult int
}

var (
	// ThoroughTuning serves the broad discovery lookups.
	ThoroughTuning = Tuning{Processor: ProcessorPro, MaxResults: 20, MaxCharsPerResult: 10000}
	// FastTuning serves the narrow verification lookups.
	FastTuning = Tuning{Processor: ProcessorFast, MaxResults: 5, MaxCharsPerResult: 2000}
)

func (t Tuning) request(objective string) SearchRequest {
	return SearchRequest{
		Objective:         objective,
		Processor:         t.Processor,
		MaxResults:        t.MaxResults,
		MaxCharsPerResult: t.MaxCharsPerResult,
	}
}

// searchAdapter submits an objective and returns the raw response as its payload.
type searchAdapter struct {
	name      string
	tuning    Tuning
	objective func(TripParams) string
	searcher  Searcher
}

func (a *searchAdapter) Name() string { return a.name }

func (a *searchAdapter) Lookup(ctx context.Context, p TripParams) Result {
	resp, err := a.searcher.Search(ctx, a.tuning.request(a.objective(p)))
	if err != nil {
		return Failed(a.name, failureReason(a.name, err))
	}
	return Ok(a.name, resp)
}

func failureReason(name string, err error) string {
	title := strings.ToUpper(name[:1]) + name[1:]
	switch {
	case errors.Is(err, ErrSearchTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("%s lookup timed out", title)
	case errors.Is(err, context.Canceled):
		return fmt.Sprintf("%s lookup cancelled", title)
	default:
		return fmt.Sprintf("%s data unavailable: %v", title, err)
	}
}

// NewWeather looks up forecasts and their suitability for the planned activities.
func NewWeather(s Searcher) Adapter {
	return &searchAdapter{name: NameWeather, tuning: ThoroughTuning, searcher: s, objective: weatherObjective}
}

// NewEvents looks up events during the travel dates.
func NewEvents(s Searcher) Adapter {
	return &searchAdapter{name: NameEvents, tuning: ThoroughTuning, searcher: s, objective: eventsObjective}
}

// NewDining looks up restaurants that complement the activities.
func NewDining(s Searcher) Adapter {
	return &searchAdapter{name: NameDining, tuning: ThoroughTuning, searcher: s, objective: diningObjective}
}

// NewActivities looks up bookable activities with seasonal availability.
func NewActivities(s Searcher) Adapter {
	return &searchAdapter{name: NameActivities, tuning: ThoroughTuning, searcher: s, objective: activitiesObjective}
}

// DefaultSet returns the six adapters in their canonical order.
func DefaultSet(s Searcher, locator VenueLocator) []Adapter {
	return []Adapter{
		NewWeather(s),
		NewEvents(s),
		NewDining(s),
		NewActivities(s),
		NewVenue(s, PhraseVenueHeuristic{}, locator),
		NewPrice(s, RegexPriceHeuristic{}),
	}
}

func weatherObjective(p TripParams) string {
	parts := []string{
		fmt.Sprintf("Find comprehensive weather information for %s around %s.", p.Location, p.Dates),
		"Include temperature, precipitation, wind conditions, and forecasts.",
	}
	if p.Activities != "" {
		parts = append(parts, fmt.Sprintf("The traveler is interested in: %s. Provide weather suitability for these activities.", p.Activities))
	}
	if p.Dealmaker != "" {
		parts = append(parts, fmt.Sprintf("Their priority is: %s.", p.Dealmaker))
	}
	return strings.Join(parts, " ")
}

func eventsObjective(p TripParams) string {
	parts := []string{
		fmt.Sprintf("Find local events, activities, and things to do in %s during %s.", p.Location, p.Dates),
		"Include concerts, food & drink events, sports, arts & culture, outdoor events, festivals, and community gatherings.",
		"Provide details on dates, times, venues, tickets, and activities.",
	}
	if p.Activities != "" {
		parts = append(parts, fmt.Sprintf("Focus on events related to: %s.", p.Activities))
	}
	if p.Dealmaker != "" {
		parts = append(parts, fmt.Sprintf("The traveler's priority is: %s.", p.Dealmaker))
	}
	return strings.Join(parts, " ")
}

func diningObjective(p TripParams) string {
	parts := []string{
		fmt.Sprintf("Find restaurants and dining options in %s.", p.Location),
		"Include fine dining, casual restaurants, cafes, bars, seafood, ethnic cuisines, and local favorites.",
		"Provide details on menus, prices, hours, reviews, and reservations.",
	}
	if p.Activities != "" {
		parts = append(parts, fmt.Sprintf("The traveler is interested in: %s. Suggest dining that complements these activities.", p.Activities))
	}
	if p.Dealmaker != "" {
		parts = append(parts, fmt.Sprintf("Their priority is: %s.", p.Dealmaker))
	}
	return strings.Join(parts, " ")
}

func activitiesObjective(p TripParams) string {
	parts := []string{
		fmt.Sprintf("Find local activities, attractions, and experiences in %s.", p.Location),
		"Include outdoor adventures, water sports, tours, cultural activities, entertainment, wellness, wildlife, scenic spots, and family-friendly options.",
		"Provide details on bookings, schedules, prices, requirements, and activity descriptions.",
	}
	if p.Activities != "" {
		parts = append(parts, fmt.Sprintf("Focus on activities related to: %s.", p.Activities))
	}
	if p.Dates != "" {
		parts = append(parts, fmt.Sprintf("The traveler is visiting around: %s. Check seasonal availability.", p.Dates))
	}
	if p.Dealmaker != "" {
		parts = append(parts, fmt.Sprintf("Their priority is: %s.", p.Dealmaker))
	}
	return strings.Join(parts, " ")
}
