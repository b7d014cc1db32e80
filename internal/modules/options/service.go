// README: Options generators; single-shot ranked destination, activity and combined lists for the non-Details branches.
package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"wondura/internal/ai"
	"wondura/internal/locale"
	"wondura/internal/logger"
	"wondura/internal/metrics"
	"wondura/internal/prompts"
	"wondura/internal/types"
)

// ErrUnparsable is returned when the model answer holds no list of the expected shape.
var ErrUnparsable = errors.New("options: model output could not be parsed")

// Service wraps the three option prompts.
type Service struct {
	llm ai.LLMProvider
	set prompts.Set
	log logger.Logger
}

func NewService(llm ai.LLMProvider, set prompts.Set, log logger.Logger) *Service {
	return &Service{llm: llm, set: set, log: log}
}

type rankedDestination struct {
	Name          string  `json:"name"`
	Region        string  `json:"region"`
	Ranking       float64 `json:"ranking"`
	Justification string  `json:"justification"`
	ImageQuery    string  `json:"image_query"`
	Activities    []struct {
		Name          string `json:"name"`
		Justification string `json:"justification"`
	} `json:"activities"`
}

type rankedActivity struct {
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	SeasonalCheck string  `json:"seasonal_check"`
	Ranking       float64 `json:"ranking"`
	Justification string  `json:"justification"`
}

// Destinations ranks places for a known activity.
func (s *Service) Destinations(ctx context.Context, e types.ExtractedFields) ([]types.OptionItem, error) {
	msg := fmt.Sprintf(`
User wants destinations for:
- Activities: %s
- General location hint: %s
- When: %s
- Dealmaker: %s

Recommend 3 best destinations.
`,
		types.ValueOr(e.Activity, "Any activities"),
		types.ValueOr(e.Destination, "Anywhere in New Zealand"),
		types.ValueOr(e.Date, "Flexible"),
		types.ValueOr(e.DealMaker, "None specified"))

	text, err := s.generate(ctx, "destinations", s.set.Destinations, msg)
	if err != nil {
		return nil, err
	}
	list, err := s.decodeDestinations(ctx, "destinations", text)
	if err != nil {
		return nil, err
	}

	items := make([]types.OptionItem, 0, len(list))
	for _, d := range list {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		query := d.ImageQuery
		if strings.TrimSpace(query) == "" {
			query = strings.TrimSpace(name + " " + d.Region + " new zealand")
		}
		items = append(items, types.OptionItem{
			Name:          locale.ApplyMacrons(name),
			Subtext:       locale.ApplyMacrons(d.Region),
			Ranking:       ranking(d.Ranking),
			Justification: d.Justification,
			ImageQuery:    query,
		})
	}
	return items, nil
}

// Activities ranks things to do in a known destination.
func (s *Service) Activities(ctx context.Context, e types.ExtractedFields) ([]types.OptionItem, error) {
	msg := fmt.Sprintf(`
User wants activities in:
- Destination: %s
- Activity interests: %s
- When: %s
- Dealmaker: %s

Recommend 3 best activities.
`,
		types.ValueOr(e.Destination, "New Zealand"),
		types.ValueOr(e.Activity, "Any activities"),
		types.ValueOr(e.Date, "Flexible"),
		types.ValueOr(e.DealMaker, "None specified"))

	text, err := s.generate(ctx, "activities", s.set.Activities, msg)
	if err != nil {
		return nil, err
	}
	list, err := s.decodeActivities(ctx, "activities", text)
	if err != nil {
		return nil, err
	}

	items := make([]types.OptionItem, 0, len(list))
	for _, a := range list {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		items = append(items, types.OptionItem{
			Name:          locale.ApplyMacrons(name),
			Subtext:       locale.ApplyMacrons(a.Location),
			Ranking:       ranking(a.Ranking),
			Justification: a.Justification,
			ImageQuery:    fmt.Sprintf("%s %s new zealand", name, a.Location),
		})
	}
	return items, nil
}

// Both recommends destinations with activities when neither is settled.
func (s *Service) Both(ctx context.Context, e types.ExtractedFields) ([]types.DestinationWithActivities, error) {
	msg := fmt.Sprintf(`
User is looking for a complete trip:
- Location hint: %s
- Activity interests: %s
- When: %s
- Dealmaker: %s

Recommend 2 destinations with 2 activities each.
`,
		types.ValueOr(e.Destination, "Anywhere in New Zealand"),
		types.ValueOr(e.Activity, "Open to anything"),
		types.ValueOr(e.Date, "Flexible"),
		types.ValueOr(e.DealMaker, "None specified"))

	text, err := s.generate(ctx, "both", s.set.Both, msg)
	if err != nil {
		return nil, err
	}
	list, err := s.decodeDestinations(ctx, "both", text)
	if err != nil {
		return nil, err
	}

	items := make([]types.DestinationWithActivities, 0, len(list))
	for _, d := range list {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		acts := make([]types.ActivitySuggestion, 0, len(d.Activities))
		for _, a := range d.Activities {
			if strings.TrimSpace(a.Name) == "" {
				continue
			}
			acts = append(acts, types.ActivitySuggestion{Name: locale.ApplyMacrons(a.Name), Justification: a.Justification})
		}
		items = append(items, types.DestinationWithActivities{
			Name:          locale.ApplyMacrons(name),
			Region:        locale.ApplyMacrons(d.Region),
			Ranking:       ranking(d.Ranking),
			Justification: d.Justification,
			ImageQuery:    d.ImageQuery,
			Activities:    acts,
		})
	}
	return items, nil
}

func (s *Service) generate(ctx context.Context, purpose string, p prompts.Prompt, msg string) (string, error) {
	ctx, span := otel.Tracer("wondura/options").Start(ctx, "options."+purpose)
	defer span.End()
	span.SetAttributes(attribute.String("model", p.Model))

	start := time.Now()
	text, err := s.llm.Generate(ctx, p.System, msg, p.Options())
	metrics.GenerationDuration.WithLabelValues("options_" + purpose).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("options %s: %w", purpose, err)
	}
	return text, nil
}

func (s *Service) decodeDestinations(ctx context.Context, purpose, text string) ([]rankedDestination, error) {
	list, err := decodeList[rankedDestination](text, "destinations")
	if err != nil {
		return nil, s.unparsable(ctx, purpose, text)
	}
	return list, nil
}

func (s *Service) decodeActivities(ctx context.Context, purpose, text string) ([]rankedActivity, error) {
	list, err := decodeList[rankedActivity](text, "activities")
	if err != nil {
		return nil, s.unparsable(ctx, purpose, text)
	}
	return list, nil
}

func (s *Service) unparsable(ctx context.Context, purpose, text string) error {
	metrics.GenerationFallbacksTotal.WithLabelValues("options_" + purpose).Inc()
	logger.FromContext(ctx, s.log).Warn("options output unparsable", map[string]interface{}{"purpose": purpose, "output_len": len(text)})
	return fmt.Errorf("%w (%s)", ErrUnparsable, purpose)
}

// decodeList reads {"<key>": [...]} from text, or a bare array when the model drops the wrapper.
func decodeList[T any](text, key string) ([]T, error) {
	var wrapped map[string]json.RawMessage
	if err := ai.ExtractInto(text, &wrapped); err == nil {
		if raw, ok := wrapped[key]; ok {
			var items []T
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, err
			}
			return items, nil
		}
	}
	var items []T
	if err := ai.ExtractInto(text, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func ranking(r float64) int {
	return types.ClampRanking(int(math.Round(r)))
}
