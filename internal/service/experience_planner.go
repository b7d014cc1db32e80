package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"wondura/internal/ai"
	"wondura/internal/logger"
	"wondura/internal/metrics"
	"wondura/internal/modules/providers"
	"wondura/internal/prompts"
	"wondura/internal/stream"
	"wondura/internal/types"
)

// DefaultProviderTimeout bounds each provider lookup when none is configured.
const DefaultProviderTimeout = 25 * time.Second

var (
	// ErrNotOptionsRouting is returned by Options for a Details decision.
	ErrNotOptionsRouting = errors.New("planner: routing does not select an options list")
	// ErrInvalidRouting is returned for a decision whose label is outside the known set.
	ErrInvalidRouting = errors.New("planner: unknown routing")
)

// Phase is a step of one request. Phases only move forward.
type Phase string

const (
	PhaseValidating  Phase = "validating"
	PhaseClassifying Phase = "classifying"
	PhaseGathering   Phase = "gathering"
	PhaseGenerating  Phase = "generating"
	PhaseStreaming   Phase = "streaming"
	PhaseTerminal    Phase = "terminal"
)

var phaseRank = map[Phase]int{
	PhaseValidating:  0,
	PhaseClassifying: 1,
	PhaseGathering:   2,
	PhaseGenerating:  3,
	PhaseStreaming:   4,
	PhaseTerminal:    5,
}

// Classifier maps a raw query to a routing decision. It never fails.
type Classifier interface {
	Classify(ctx context.Context, q types.UserQuery) types.RoutingDecision
}

// OptionsGenerator produces the ranked lists for the non-Details branches.
type OptionsGenerator interface {
	Destinations(ctx context.Context, e types.ExtractedFields) ([]types.OptionItem, error)
	Activities(ctx context.Context, e types.ExtractedFields) ([]types.OptionItem, error)
	Both(ctx context.Context, e types.ExtractedFields) ([]types.DestinationWithActivities, error)
}

// PlannerDeps wires an ExperiencePlanner.
type PlannerDeps struct {
	Classifier Classifier
	Options    OptionsGenerator
	LLM        ai.LLMProvider
	CardPrompt prompts.Prompt
	// Adapters run on the Details branch. SearchEnabled false skips them all.
	Adapters        []providers.Adapter
	SearchEnabled   bool
	ProviderTimeout time.Duration
	Logger          logger.Logger
	// OnPhase, when set, observes every phase transition.
	OnPhase func(Phase)
}

// ExperiencePlanner orchestrates classification, provider fan-out, card generation and the event stream.
type ExperiencePlanner struct {
	deps PlannerDeps
}

func NewExperiencePlanner(deps PlannerDeps) *ExperiencePlanner {
	if deps.ProviderTimeout <= 0 {
		deps.ProviderTimeout = DefaultProviderTimeout
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	return &ExperiencePlanner{deps: deps}
}

// run is the per-request state. It is owned by a single goroutine.
type run struct {
	phase Phase
	log   logger.Logger
	hook  func(Phase)
}

func (p *ExperiencePlanner) newRun(start Phase, log logger.Logger) *run {
	r := &run{phase: start, log: log, hook: p.deps.OnPhase}
	if r.hook != nil {
		r.hook(start)
	}
	return r
}

func (r *run) enter(next Phase) {
	if phaseRank[next] <= phaseRank[r.phase] {
		r.log.Warn("ignoring backward phase transition", map[string]interface{}{"from": r.phase, "to": next})
		return
	}
	r.phase = next
	if r.hook != nil {
		r.hook(next)
	}
}

// StreamCards runs the Details pipeline for an already classified request: gather, generate, stream.
// It always finishes with exactly one terminal event and closes em, whatever happens inside.
func (p *ExperiencePlanner) StreamCards(ctx context.Context, d types.RoutingDecision, em stream.Emitter) {
	ctx, span := otel.Tracer("wondura/planner").Start(ctx, "planner.StreamCards")
	defer span.End()

	r := p.newRun(PhaseValidating, p.logFor(ctx).With(map[string]interface{}{"routing": d.Routing}))
	ctx = logger.WithContext(ctx, r.log)
	p.guard(ctx, r, em, func() error {
		if !d.Routing.Valid() {
			return fmt.Errorf("%w %q", ErrInvalidRouting, d.Routing)
		}
		r.enter(PhaseGathering)
		return p.cards(ctx, r, d, em)
	})
}

// Run is the whole pipeline for a raw query: classify, then either stream cards or emit one options event.
func (p *ExperiencePlanner) Run(ctx context.Context, q types.UserQuery, em stream.Emitter) {
	ctx, span := otel.Tracer("wondura/planner").Start(ctx, "planner.Run")
	defer span.End()

	r := p.newRun(PhaseValidating, p.logFor(ctx))
	p.guard(ctx, r, em, func() error {
		q = q.Normalize()
		r.enter(PhaseClassifying)
		d := p.deps.Classifier.Classify(ctx, q)
		span.SetAttributes(attribute.String("routing", string(d.Routing)))
		r.log = r.log.With(map[string]interface{}{"routing": d.Routing})
		ctx = logger.WithContext(ctx, r.log)

		if err := em.Emit(stream.KindStatus, stream.StatusPayload{Phase: "classified", Routing: d.Routing}); err != nil {
			return err
		}

		if d.Routing == types.RoutingDetails {
			r.enter(PhaseGathering)
			return p.cards(ctx, r, d, em)
		}

		r.enter(PhaseGenerating)
		payload, err := p.Options(ctx, d)
		if err != nil {
			return err
		}
		r.enter(PhaseStreaming)
		return em.Emit(stream.KindOptions, payload)
	})
}

// logFor returns the request-scoped logger carried by ctx, or the planner's own.
func (p *ExperiencePlanner) logFor(ctx context.Context) logger.Logger {
	return logger.FromContext(ctx, p.deps.Logger)
}

// guard converts a returned error or a panic into the terminal error event, emits done otherwise,
// and closes the stream on every path.
func (p *ExperiencePlanner) guard(ctx context.Context, r *run, em stream.Emitter, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("planner panic", map[string]interface{}{"panic": fmt.Sprint(rec)})
			_ = em.Emit(stream.KindError, stream.ErrorPayload{Error: "internal error"})
		}
		r.enter(PhaseTerminal)
		_ = em.Close()
	}()

	if err := fn(); err != nil {
		if errors.Is(err, stream.ErrClosed) {
			return
		}
		r.log.WithError(err).Error("request failed", nil)
		msg := err.Error()
		if ctx.Err() != nil {
			msg = "request cancelled"
		}
		_ = em.Emit(stream.KindError, stream.ErrorPayload{Error: msg})
		return
	}
	_ = em.Emit(stream.KindDone, nil)
}

func (p *ExperiencePlanner) cards(ctx context.Context, r *run, d types.RoutingDecision, em stream.Emitter) error {
	// 1. Gather provider data
	if err := em.Emit(stream.KindStatus, stream.StatusPayload{Phase: "searching", Tool: providers.NameWeather}); err != nil {
		return err
	}
	results := p.Gather(ctx, providers.ParamsFromExtracted(d.Extracted))

	// 2. Generate
	r.enter(PhaseGenerating)
	if err := em.Emit(stream.KindStatus, stream.StatusPayload{Phase: "generating"}); err != nil {
		return err
	}
	cards, err := p.GenerateCards(ctx, BuildGenerationContext(d.Extracted, results))
	if err != nil {
		return fmt.Errorf("card generation failed: %w", err)
	}

	// 3. Stream in model order
	r.enter(PhaseStreaming)
	for _, c := range cards {
		if err := em.Emit(stream.KindCard, c); err != nil {
			return err
		}
	}
	return nil
}

// Gather runs every adapter concurrently, each bounded by its own timeout, and returns one Result
// per adapter in adapter order. It returns only once every slot holds a result or a timeout marker.
func (p *ExperiencePlanner) Gather(ctx context.Context, params providers.TripParams) []providers.Result {
	ctx, span := otel.Tracer("wondura/planner").Start(ctx, "planner.Gather")
	defer span.End()

	results := make([]providers.Result, len(p.deps.Adapters))
	if !p.deps.SearchEnabled {
		for i, a := range p.deps.Adapters {
			results[i] = providers.Unavailable(a.Name())
			metrics.ProviderLookupsTotal.WithLabelValues(a.Name(), string(providers.StatusUnavailable)).Inc()
		}
		span.SetAttributes(attribute.Bool("search_enabled", false))
		return results
	}

	var g errgroup.Group
	for i, a := range p.deps.Adapters {
		i, a := i, a
		g.Go(func() error {
			results[i] = p.lookup(ctx, a, params)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *ExperiencePlanner) lookup(ctx context.Context, a providers.Adapter, params providers.TripParams) providers.Result {
	name := a.Name()
	ctx, span := otel.Tracer("wondura/planner").Start(ctx, "provider."+name)
	defer span.End()

	actx, cancel := context.WithTimeout(ctx, p.deps.ProviderTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan providers.Result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- providers.Failed(name, fmt.Sprintf("%s lookup crashed", title(name)))
			}
		}()
		done <- a.Lookup(actx, params)
	}()

	var res providers.Result
	outcome := ""
	select {
	case res = <-done:
		outcome = string(res.Status)
	case <-actx.Done():
		// The adapter's late answer lands in the buffered channel and is dropped.
		if ctx.Err() != nil {
			res = providers.Failed(name, fmt.Sprintf("%s lookup cancelled", title(name)))
			outcome = "cancelled"
		} else {
			res = providers.Failed(name, fmt.Sprintf("%s lookup timed out after %s", title(name), p.deps.ProviderTimeout))
			outcome = "timeout"
		}
	}

	metrics.ProviderLookupDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	metrics.ProviderLookupsTotal.WithLabelValues(name, outcome).Inc()
	if res.Status != providers.StatusOK {
		span.SetStatus(codes.Error, res.Reason)
		p.logFor(ctx).Warn("provider lookup failed", map[string]interface{}{"provider": name, "reason": res.Reason})
	}
	return res
}

// Options dispatches a non-Details decision to its generator.
// Options_Both and Unknown both use the combined generator.
func (p *ExperiencePlanner) Options(ctx context.Context, d types.RoutingDecision) (stream.OptionsPayload, error) {
	out := stream.OptionsPayload{Routing: d.Routing}
	var err error
	switch d.Routing {
	case types.RoutingOptionsDestinations:
		out.Options, err = p.deps.Options.Destinations(ctx, d.Extracted)
	case types.RoutingOptionsActivities:
		out.Options, err = p.deps.Options.Activities(ctx, d.Extracted)
	case types.RoutingOptionsBoth, types.RoutingUnknown:
		out.Destinations, err = p.deps.Options.Both(ctx, d.Extracted)
	default:
		return stream.OptionsPayload{}, ErrNotOptionsRouting
	}
	if err != nil {
		return stream.OptionsPayload{}, err
	}
	return out, nil
}

// BuildGenerationContext flattens the request and every provider result into the generation user turn.
func BuildGenerationContext(e types.ExtractedFields, results []providers.Result) string {
	var b strings.Builder
	b.WriteString("User Request:\n")
	fmt.Fprintf(&b, "- Destination: %s\n", types.ValueOr(e.Destination, "Not specified"))
	fmt.Fprintf(&b, "- When: %s\n", types.ValueOr(e.Date, "Flexible"))
	fmt.Fprintf(&b, "- Activities: %s\n", types.ValueOr(e.Activity, "Open to suggestions"))
	fmt.Fprintf(&b, "- Dealmaker: %s\n", types.ValueOr(e.DealMaker, "None specified"))
	b.WriteString("\n")
	for _, r := range results {
		fmt.Fprintf(&b, "Tool Data (%s): %s\n", title(r.Provider), r.ContextJSON())
	}
	return b.String()
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
