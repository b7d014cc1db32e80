package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"wondura/internal/ai"
	"wondura/internal/locale"
	"wondura/internal/metrics"
	"wondura/internal/types"
)

const (
	fallbackCardTitle     = "Experience Recommendation"
	fallbackCardPractical = "Structured details were unavailable for this recommendation. Check with local operators before booking."
	fallbackSummaryRunes  = 200
)

// GenerateCards asks the model for experience cards from the assembled context.
// Only the model call can fail; an answer that holds no usable card becomes one summary card.
func (p *ExperiencePlanner) GenerateCards(ctx context.Context, userContext string) ([]types.ExperienceCard, error) {
	ctx, span := otel.Tracer("wondura/planner").Start(ctx, "planner.GenerateCards")
	defer span.End()
	span.SetAttributes(attribute.String("model", p.deps.CardPrompt.Model))

	start := time.Now()
	text, err := p.deps.LLM.Generate(ctx, p.deps.CardPrompt.System, userContext, p.deps.CardPrompt.Options())
	metrics.GenerationDuration.WithLabelValues("cards").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	cards := ParseCards(text)
	if len(cards) == 0 {
		metrics.GenerationFallbacksTotal.WithLabelValues("cards").Inc()
		p.logFor(ctx).Warn("card output unparsable, using summary card", map[string]interface{}{"output_len": len(text)})
		cards = []types.ExperienceCard{FallbackCard(text)}
	}
	span.SetAttributes(attribute.Int("cards", len(cards)))
	return cards, nil
}

// cardWire accepts the current field names and the older hook/context/insight layout.
type cardWire struct {
	CardTitle             string `json:"card_title"`
	ExperienceDescription string `json:"experience_description"`
	PracticalLogistics    string `json:"practical_logistics"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Hook        string `json:"hook"`
	Context     string `json:"context"`
	Insight     string `json:"insight"`
	Practical   string `json:"practical"`
	Consider    string `json:"consider"`
}

func (w cardWire) card() (types.ExperienceCard, bool) {
	title := firstNonBlank(w.CardTitle, w.Title, w.Hook)
	desc := firstNonBlank(w.ExperienceDescription, w.Description, joinNonBlank(" ", w.Context, w.Insight))
	practical := firstNonBlank(w.PracticalLogistics, joinNonBlank(" ", w.Practical, w.Consider))
	if title == "" || desc == "" {
		return types.ExperienceCard{}, false
	}
	return types.ExperienceCard{
		CardTitle:             locale.ApplyMacrons(title),
		ExperienceDescription: desc,
		PracticalLogistics:    practical,
	}, true
}

// ParseCards reads a card array, an object with a "cards" array, or a single card object.
// Items without a title or a description are skipped; model order is kept.
func ParseCards(text string) []types.ExperienceCard {
	raw, err := ai.ExtractRaw(text)
	if err != nil {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Cards []json.RawMessage `json:"cards"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Cards) > 0 {
			items = wrapped.Cards
		} else {
			items = []json.RawMessage{raw}
		}
	}

	cards := make([]types.ExperienceCard, 0, len(items))
	for _, item := range items {
		var w cardWire
		if err := json.Unmarshal(item, &w); err != nil {
			continue
		}
		if c, ok := w.card(); ok {
			cards = append(cards, c)
		}
	}
	return cards
}

// FallbackCard summarizes raw model text that could not be parsed.
func FallbackCard(raw string) types.ExperienceCard {
	summary := strings.TrimSpace(raw)
	if utf8.RuneCountInString(summary) > fallbackSummaryRunes {
		summary = string([]rune(summary)[:fallbackSummaryRunes]) + "..."
	}
	if summary == "" {
		summary = "We could not put together detailed recommendations this time."
	}
	return types.ExperienceCard{
		CardTitle:             fallbackCardTitle,
		ExperienceDescription: summary,
		PracticalLogistics:    fallbackCardPractical,
	}
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func joinNonBlank(sep string, vals ...string) string {
	var parts []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}
