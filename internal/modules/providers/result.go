package providers

import (
	"encoding/json"
	"strings"

	"wondura/internal/types"
)

// Status tags the outcome of one adapter lookup.
type Status string

const (
	StatusOK          Status = "ok"
	StatusFailed      Status = "failed"
	StatusUnavailable Status = "unavailable"
)

// Result is the uniform adapter outcome: a payload on success, a short reason on failure,
// or neither when the lookup never ran.
type Result struct {
	Provider string
	Status   Status
	Payload  any
	Reason   string
}

func Ok(provider string, payload any) Result {
	return Result{Provider: provider, Status: StatusOK, Payload: payload}
}

func Failed(provider, reason string) Result {
	return Result{Provider: provider, Status: StatusFailed, Reason: reason}
}

func Unavailable(provider string) Result {
	return Result{Provider: provider, Status: StatusUnavailable}
}

// ContextJSON renders the result for the generation context: the payload as JSON, a failure as
// {"error": reason}, and a skipped lookup as the bare word Unavailable.
func (r Result) ContextJSON() string {
	switch r.Status {
	case StatusOK:
		raw, err := json.Marshal(r.Payload)
		if err != nil {
			return failureJSON("unserializable payload")
		}
		return string(raw)
	case StatusFailed:
		return failureJSON(r.Reason)
	default:
		return "Unavailable"
	}
}

func failureJSON(reason string) string {
	raw, _ := json.Marshal(map[string]string{"error": reason})
	return string(raw)
}

// TripParams are the inputs every adapter derives its objective from.
type TripParams struct {
	Location   string
	Dates      string
	Activities string
	Dealmaker  string
	// Venue and Product name the thing the verification adapters check. Empty skips that check.
	Venue   string
	Product string
}

// ParamsFromExtracted applies the default location and dates and picks the first listed activity
// as the venue and price subject.
func ParamsFromExtracted(e types.ExtractedFields) TripParams {
	p := TripParams{
		Location:   types.ValueOr(e.Destination, "New Zealand"),
		Dates:      types.ValueOr(e.Date, "upcoming"),
		Activities: types.ValueOr(e.Activity, ""),
		Dealmaker:  types.ValueOr(e.DealMaker, ""),
	}
	if p.Activities != "" {
		first := strings.TrimSpace(strings.Split(p.Activities, ",")[0])
		p.Venue = first
		p.Product = first + " in " + p.Location
	}
	return p
}
