// README: Shared trip request and response shapes exchanged between the classifier, planner and HTTP layer.
package types

import "strings"

// Routing is the five-way specificity decision that selects the downstream branch.
type Routing string

const (
	RoutingDetails             Routing = "Details"
	RoutingOptionsDestinations Routing = "Options_Destinations"
	RoutingOptionsActivities   Routing = "Options_Activities"
	RoutingOptionsBoth         Routing = "Options_Both"
	RoutingUnknown             Routing = "Unknown"
)

// AllRoutings lists the closed set of routing labels in declaration order.
var AllRoutings = []Routing{
	RoutingDetails,
	RoutingOptionsDestinations,
	RoutingOptionsActivities,
	RoutingOptionsBoth,
	RoutingUnknown,
}

// Valid reports whether r is one of the five known labels.
func (r Routing) Valid() bool {
	for _, known := range AllRoutings {
		if r == known {
			return true
		}
	}
	return false
}

// UserQuery is the raw form input. Every field is optional; nil means "not provided".
type UserQuery struct {
	Destination *string `json:"destination,omitempty"`
	Dates       *string `json:"dates,omitempty"`
	Activity1   *string `json:"activity1,omitempty"`
	Activity2   *string `json:"activity2,omitempty"`
	Activity3   *string `json:"activity3,omitempty"`
	Dealmaker   *string `json:"dealmaker,omitempty"`
}

// Normalize turns empty or whitespace-only strings into nil so that downstream code
// only has to check for absence.
func (q UserQuery) Normalize() UserQuery {
	return UserQuery{
		Destination: Present(q.Destination),
		Dates:       Present(q.Dates),
		Activity1:   Present(q.Activity1),
		Activity2:   Present(q.Activity2),
		Activity3:   Present(q.Activity3),
		Dealmaker:   Present(q.Dealmaker),
	}
}

// Activities returns the provided activity strings in form order.
func (q UserQuery) Activities() []string {
	var out []string
	for _, a := range []*string{q.Activity1, q.Activity2, q.Activity3} {
		if v := Present(a); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// ExtractedFields carries the normalized fields produced by classification.
// A nil field is serialized as JSON null.
type ExtractedFields struct {
	Activity    *string `json:"activity"`
	Destination *string `json:"destination"`
	Date        *string `json:"date"`
	DealMaker   *string `json:"deal_maker"`
}

// RoutingDecision is the classifier output and the sole input to the planner branch.
type RoutingDecision struct {
	Routing   Routing         `json:"routing"`
	Extracted ExtractedFields `json:"extracted"`
}

// ExperienceCard is one recommended activity or place.
type ExperienceCard struct {
	CardTitle             string `json:"card_title"`
	ExperienceDescription string `json:"experience_description"`
	PracticalLogistics    string `json:"practical_logistics"`
}

// OptionItem is one ranked entry for the destination or activity option lists.
type OptionItem struct {
	Name          string `json:"name"`
	Subtext       string `json:"subtext"`
	Ranking       int    `json:"ranking"`
	Justification string `json:"justification"`
	ImageQuery    string `json:"image_query"`
}

// ActivitySuggestion is a named activity paired with a short reason.
type ActivitySuggestion struct {
	Name          string `json:"name"`
	Justification string `json:"justification"`
}

// DestinationWithActivities is an entry of the combined options list.
type DestinationWithActivities struct {
	Name          string               `json:"name"`
	Region        string               `json:"region"`
	Ranking       int                  `json:"ranking"`
	Justification string               `json:"justification"`
	ImageQuery    string               `json:"image_query"`
	Activities    []ActivitySuggestion `json:"activities"`
}

// Present returns nil for nil, empty or whitespace-only strings and a trimmed copy otherwise.
func Present(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	return Present(&s)
}

// ValueOr dereferences s, falling back to def when s is absent.
func ValueOr(s *string, def string) string {
	if v := Present(s); v != nil {
		return *v
	}
	return def
}

// ClampRanking keeps a model-provided ranking inside the 0..5 scale.
func ClampRanking(r int) int {
	switch {
	case r < 0:
		return 0
	case r > 5:
		return 5
	default:
		return r
	}
}

// VenueLocation is what a map lookup knows about a named venue.
type VenueLocation struct {
	Name              string  `json:"name"`
	Address           string  `json:"address"`
	BusinessStatus    string  `json:"business_status,omitempty"`
	Rating            float32 `json:"rating,omitempty"`
	TravelTimeMinutes *int    `json:"travel_time_minutes,omitempty"`
}
