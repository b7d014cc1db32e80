// README: Classifier; maps a user query onto a routing decision through the model, with a deterministic fallback.
package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"wondura/internal/ai"
	"wondura/internal/logger"
	"wondura/internal/metrics"
	"wondura/internal/prompts"
	"wondura/internal/types"
	"wondura/internal/validation"
)

// Clarity is the judgment of one dimension of the request.
type Clarity string

const (
	Clear Clarity = "CLEAR"
	Vague Clarity = "VAGUE"
	Blank Clarity = "BLANK"
)

// ParseClarity accepts the labels case-insensitively. Unknown labels report false.
func ParseClarity(s string) (Clarity, bool) {
	switch Clarity(strings.ToUpper(strings.TrimSpace(s))) {
	case Clear:
		return Clear, true
	case Vague:
		return Vague, true
	case Blank:
		return Blank, true
	}
	return "", false
}

// Route is the routing table. It depends only on the two judgments.
func Route(where, what Clarity) types.Routing {
	switch {
	case where == Clear && what == Clear:
		return types.RoutingDetails
	case what == Clear:
		return types.RoutingOptionsDestinations
	case where == Clear:
		return types.RoutingOptionsActivities
	case where == Blank && what == Blank:
		return types.RoutingUnknown
	default:
		return types.RoutingOptionsBoth
	}
}

// Decision sources, used as a metric label.
const (
	sourceModel    = "model"
	sourcePrepass  = "prepass"
	sourceFallback = "fallback"
)

// Service classifies queries. It holds no per-request state.
type Service struct {
	llm       ai.LLMProvider
	prompt    prompts.Prompt
	validator *validation.Validator
	log       logger.Logger
}

func NewService(llm ai.LLMProvider, prompt prompts.Prompt, validator *validation.Validator, log logger.Logger) *Service {
	return &Service{llm: llm, prompt: prompt, validator: validator, log: log}
}

// Classify never fails. Model errors and malformed output degrade to Options_Both with the
// user's own fields; a request with neither a destination nor an activity is Unknown without
// consulting the model.
func (s *Service) Classify(ctx context.Context, q types.UserQuery) types.RoutingDecision {
	ctx, span := otel.Tracer("wondura/classify").Start(ctx, "classify.Classify")
	defer span.End()

	log := logger.FromContext(ctx, s.log)
	q = q.Normalize()
	raw := rawExtracted(q)

	if q.Destination == nil && raw.Activity == nil {
		return s.finish(log, span, types.RoutingDecision{Routing: types.RoutingUnknown, Extracted: raw}, sourcePrepass)
	}

	start := time.Now()
	text, err := s.llm.Generate(ctx, s.prompt.System, userMessage(q, raw), s.prompt.Options())
	metrics.GenerationDuration.WithLabelValues("classify").Observe(time.Since(start).Seconds())
	if err != nil {
		log.WithError(err).Warn("classification call failed, using fallback", nil)
		return s.fallback(log, span, raw)
	}

	doc, err := ai.ExtractRaw(text)
	if err != nil {
		log.Warn("classification output had no JSON, using fallback", map[string]interface{}{"output": truncate(text, 300)})
		return s.fallback(log, span, raw)
	}
	out, err := s.validator.ClassifierOutput(doc)
	if err != nil {
		log.Warn("invalid classification response, using fallback", map[string]interface{}{
			"error":  err.Error(),
			"output": truncate(string(doc), 300),
		})
		return s.fallback(log, span, raw)
	}

	decision := out.RoutingDecision
	where, okWhere := ParseClarity(out.Where)
	what, okWhat := ParseClarity(out.What)
	if okWhere && okWhat {
		if routed := Route(where, what); routed != decision.Routing {
			log.Debug("routing recomputed from clarity labels", map[string]interface{}{
				"model_routing": decision.Routing, "routing": routed, "where": where, "what": what,
			})
			decision.Routing = routed
		}
	}
	// Unknown is reserved for requests with nothing in them, which the pre-pass already handled.
	if decision.Routing == types.RoutingUnknown {
		decision.Routing = types.RoutingOptionsBoth
	}
	return s.finish(log, span, decision, sourceModel)
}

func (s *Service) fallback(log logger.Logger, span trace.Span, raw types.ExtractedFields) types.RoutingDecision {
	metrics.GenerationFallbacksTotal.WithLabelValues("classify").Inc()
	return s.finish(log, span, types.RoutingDecision{Routing: types.RoutingOptionsBoth, Extracted: raw}, sourceFallback)
}

func (s *Service) finish(log logger.Logger, span trace.Span, d types.RoutingDecision, source string) types.RoutingDecision {
	metrics.ClassificationsTotal.WithLabelValues(string(d.Routing), source).Inc()
	span.SetAttributes(attribute.String("routing", string(d.Routing)), attribute.String("source", source))
	log.Info("query classified", map[string]interface{}{"routing": d.Routing, "source": source})
	return d
}

func rawExtracted(q types.UserQuery) types.ExtractedFields {
	var activity *string
	if acts := q.Activities(); len(acts) > 0 {
		activity = types.StringPtr(strings.Join(acts, ", "))
	}
	return types.ExtractedFields{
		Activity:    activity,
		Destination: q.Destination,
		Date:        q.Dates,
		DealMaker:   q.Dealmaker,
	}
}

func userMessage(q types.UserQuery, raw types.ExtractedFields) string {
	return fmt.Sprintf("Where: %s\nWhen: %s\nActivities: %s\nDealmaker: %s\n",
		types.ValueOr(q.Destination, "Not specified"),
		types.ValueOr(q.Dates, "Not specified"),
		types.ValueOr(raw.Activity, "Not specified"),
		types.ValueOr(q.Dealmaker, "Not specified"),
	)
}

// truncate cuts s to at most n runes for log fields.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
