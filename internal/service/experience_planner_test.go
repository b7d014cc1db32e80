package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wondura/internal/ai"
	"wondura/internal/logger"
	"wondura/internal/modules/classify"
	"wondura/internal/modules/providers"
	"wondura/internal/prompts"
	"wondura/internal/stream"
	"wondura/internal/types"
	"wondura/internal/validation"
)

const threeCards = `Here are your cards:
` + "```json" + `
[
  {"card_title":"Skyline Gondola","experience_description":"Ride above Queenstown.","practical_logistics":"Open 9am-9pm."},
  {"card_title":"Lake Wakatipu cruise","experience_description":"TSS Earnslaw steamship.","practical_logistics":"Book ahead."},
  {"card_title":"Day trip to Wanaka","experience_description":"Over the Crown Range.","practical_logistics":"One hour drive."}
]
` + "```"

type fakeAdapter struct {
	name   string
	lookup func(ctx context.Context, p providers.TripParams) providers.Result
}

func (f fakeAdapter) Name() string { return f.name }

func (f fakeAdapter) Lookup(ctx context.Context, p providers.TripParams) providers.Result {
	return f.lookup(ctx, p)
}

func okAdapters(seen *sync.Map) []providers.Adapter {
	names := []string{
		providers.NameWeather, providers.NameEvents, providers.NameDining,
		providers.NameActivities, providers.NameVenue, providers.NamePrice,
	}
	out := make([]providers.Adapter, 0, len(names))
	for _, n := range names {
		n := n
		out = append(out, fakeAdapter{name: n, lookup: func(_ context.Context, p providers.TripParams) providers.Result {
			if seen != nil {
				seen.Store(n, p)
			}
			return providers.Ok(n, map[string]string{"source": n})
		}})
	}
	return out
}

type fakeOptions struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeOptions) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeOptions) Destinations(context.Context, types.ExtractedFields) ([]types.OptionItem, error) {
	f.record("destinations")
	return []types.OptionItem{{Name: "Wānaka", Ranking: 5}}, f.err
}

func (f *fakeOptions) Activities(context.Context, types.ExtractedFields) ([]types.OptionItem, error) {
	f.record("activities")
	return []types.OptionItem{{Name: "Bungy", Ranking: 4}}, f.err
}

func (f *fakeOptions) Both(context.Context, types.ExtractedFields) ([]types.DestinationWithActivities, error) {
	f.record("both")
	return []types.DestinationWithActivities{{Name: "Rotorua", Ranking: 4}}, f.err
}

type fixedClassifier types.RoutingDecision

func (f fixedClassifier) Classify(context.Context, types.UserQuery) types.RoutingDecision {
	return types.RoutingDecision(f)
}

type llmCall struct {
	mu   sync.Mutex
	msgs []string
}

func (c *llmCall) provider(answer string, err error) ai.LLMProvider {
	return ai.ProviderFunc(func(_ context.Context, _, msg string, _ ai.GenerateOptions) (string, error) {
		c.mu.Lock()
		c.msgs = append(c.msgs, msg)
		c.mu.Unlock()
		return answer, err
	})
}

func queenstownDecision() types.RoutingDecision {
	return types.RoutingDecision{
		Routing: types.RoutingDetails,
		Extracted: types.ExtractedFields{
			Activity:    types.StringPtr("gondola"),
			Destination: types.StringPtr("Queenstown"),
			Date:        types.StringPtr("March 2026"),
		},
	}
}

func newPlanner(t *testing.T, deps PlannerDeps) *ExperiencePlanner {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = logger.NewTestLogger(t)
	}
	if deps.CardPrompt.System == "" {
		deps.CardPrompt = prompts.Default().Cards
	}
	return NewExperiencePlanner(deps)
}

func TestStreamCards_Queenstown(t *testing.T) {
	var seen sync.Map
	var calls llmCall
	p := newPlanner(t, PlannerDeps{
		LLM:           calls.provider(threeCards, nil),
		Adapters:      okAdapters(&seen),
		SearchEnabled: true,
	})

	rec := stream.NewRecorder()
	p.StreamCards(context.Background(), queenstownDecision(), rec)

	assert.Equal(t, []stream.Kind{
		stream.KindStatus, stream.KindStatus,
		stream.KindCard, stream.KindCard, stream.KindCard,
		stream.KindDone,
	}, rec.Kinds())
	assert.Equal(t, 1, rec.CloseCount())

	var first stream.StatusPayload
	require.NoError(t, rec.Decode(0, &first))
	assert.Equal(t, "searching", first.Phase)
	assert.Equal(t, providers.NameWeather, first.Tool)

	var second stream.StatusPayload
	require.NoError(t, rec.Decode(1, &second))
	assert.Equal(t, "generating", second.Phase)

	var titles []string
	for i := 2; i < 5; i++ {
		var c types.ExperienceCard
		require.NoError(t, rec.Decode(i, &c))
		titles = append(titles, c.CardTitle)
	}
	assert.Equal(t, []string{"Skyline Gondola", "Lake Wakatipu cruise", "Day trip to Wānaka"}, titles)

	v, ok := seen.Load(providers.NameVenue)
	require.True(t, ok)
	assert.Equal(t, "Queenstown", v.(providers.TripParams).Location)

	require.Len(t, calls.msgs, 1)
	ctx := calls.msgs[0]
	assert.Contains(t, ctx, "- Destination: Queenstown")
	assert.Contains(t, ctx, "- Dealmaker: None specified")
	assert.Contains(t, ctx, `Tool Data (Weather): {"source":"weather"}`)
	assert.Contains(t, ctx, `Tool Data (Price): {"source":"price"}`)
}

func TestStreamCards_ModelErrorIsTerminal(t *testing.T) {
	var calls llmCall
	p := newPlanner(t, PlannerDeps{
		LLM:           calls.provider("", errors.New("quota exceeded")),
		Adapters:      okAdapters(nil),
		SearchEnabled: true,
	})

	rec := stream.NewRecorder()
	p.StreamCards(context.Background(), queenstownDecision(), rec)

	assert.Equal(t, []stream.Kind{stream.KindStatus, stream.KindStatus, stream.KindError}, rec.Kinds())
	assert.Equal(t, 1, rec.CloseCount())

	var payload stream.ErrorPayload
	require.NoError(t, rec.Decode(2, &payload))
	assert.Contains(t, payload.Error, "quota exceeded")
}

func TestStreamCards_UnparsableOutputYieldsSummaryCard(t *testing.T) {
	var calls llmCall
	p := newPlanner(t, PlannerDeps{
		LLM:           calls.provider("Sorry, I can only describe Queenstown in prose today.", nil),
		Adapters:      okAdapters(nil),
		SearchEnabled: true,
	})

	rec := stream.NewRecorder()
	p.StreamCards(context.Background(), queenstownDecision(), rec)

	assert.Equal(t, []stream.Kind{stream.KindStatus, stream.KindStatus, stream.KindCard, stream.KindDone}, rec.Kinds())
	var c types.ExperienceCard
	require.NoError(t, rec.Decode(2, &c))
	assert.Equal(t, "Experience Recommendation", c.CardTitle)
	assert.Contains(t, c.ExperienceDescription, "Queenstown in prose")
}

func TestStreamCards_SearchDisabled(t *testing.T) {
	var calls llmCall
	called := false
	adapters := []providers.Adapter{fakeAdapter{name: providers.NameWeather, lookup: func(context.Context, providers.TripParams) providers.Result {
		called = true
		return providers.Ok(providers.NameWeather, nil)
	}}}
	p := newPlanner(t, PlannerDeps{
		LLM:      calls.provider(threeCards, nil),
		Adapters: adapters,
	})

	rec := stream.NewRecorder()
	p.StreamCards(context.Background(), queenstownDecision(), rec)

	assert.False(t, called)
	assert.Equal(t, stream.KindDone, rec.Kinds()[len(rec.Kinds())-1])
	require.Len(t, calls.msgs, 1)
	assert.Contains(t, calls.msgs[0], "Tool Data (Weather): Unavailable")
}

func TestGather_TimeoutBoundsSlowAdapter(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	adapters := okAdapters(nil)
	adapters[1] = fakeAdapter{name: providers.NameEvents, lookup: func(context.Context, providers.TripParams) providers.Result {
		<-block
		return providers.Ok(providers.NameEvents, "late")
	}}
	p := newPlanner(t, PlannerDeps{Adapters: adapters, SearchEnabled: true, ProviderTimeout: 50 * time.Millisecond})

	start := time.Now()
	results := p.Gather(context.Background(), providers.TripParams{Location: "Queenstown"})
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, adapters[i].Name(), r.Provider, "results keep adapter order")
	}
	assert.Equal(t, providers.StatusFailed, results[1].Status)
	assert.Contains(t, results[1].Reason, "timed out")
	assert.Equal(t, providers.StatusOK, results[0].Status)
	assert.Equal(t, providers.StatusOK, results[5].Status)
}

func TestGather_CancelledRequestIsNotATimeout(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	adapters := okAdapters(nil)
	adapters[1] = fakeAdapter{name: providers.NameEvents, lookup: func(context.Context, providers.TripParams) providers.Result {
		<-block
		return providers.Ok(providers.NameEvents, "late")
	}}
	p := newPlanner(t, PlannerDeps{Adapters: adapters, SearchEnabled: true, ProviderTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	results := p.Gather(ctx, providers.TripParams{Location: "Queenstown"})
	require.Len(t, results, 6)
	assert.Equal(t, providers.StatusFailed, results[1].Status)
	assert.Equal(t, "Events lookup cancelled", results[1].Reason)
	assert.Equal(t, providers.StatusOK, results[0].Status)
}

func TestGather_PanickingAdapterIsIsolated(t *testing.T) {
	adapters := okAdapters(nil)
	adapters[2] = fakeAdapter{name: providers.NameDining, lookup: func(context.Context, providers.TripParams) providers.Result {
		panic("nil menu")
	}}
	p := newPlanner(t, PlannerDeps{Adapters: adapters, SearchEnabled: true})

	results := p.Gather(context.Background(), providers.TripParams{})
	require.Len(t, results, 6)
	assert.Equal(t, providers.StatusFailed, results[2].Status)
	assert.Equal(t, providers.StatusOK, results[3].Status)
}

func TestRun_DetailsPhasesMoveForward(t *testing.T) {
	var calls llmCall
	var phases []Phase
	p := newPlanner(t, PlannerDeps{
		Classifier:    fixedClassifier(queenstownDecision()),
		Options:       &fakeOptions{},
		LLM:           calls.provider(threeCards, nil),
		Adapters:      okAdapters(nil),
		SearchEnabled: true,
		OnPhase:       func(ph Phase) { phases = append(phases, ph) },
	})

	rec := stream.NewRecorder()
	p.Run(context.Background(), types.UserQuery{Destination: types.StringPtr("Queenstown")}, rec)

	assert.Equal(t, []Phase{PhaseValidating, PhaseClassifying, PhaseGathering, PhaseGenerating, PhaseStreaming, PhaseTerminal}, phases)
	kinds := rec.Kinds()
	assert.Equal(t, stream.KindStatus, kinds[0])
	assert.Equal(t, stream.KindDone, kinds[len(kinds)-1])

	var classified stream.StatusPayload
	require.NoError(t, rec.Decode(0, &classified))
	assert.Equal(t, "classified", classified.Phase)
	assert.Equal(t, types.RoutingDetails, classified.Routing)
}

func TestRun_BlankQueryUsesCombinedOptions(t *testing.T) {
	modelCalled := false
	llm := ai.ProviderFunc(func(context.Context, string, string, ai.GenerateOptions) (string, error) {
		modelCalled = true
		return "", errors.New("unexpected call")
	})
	opts := &fakeOptions{}
	p := newPlanner(t, PlannerDeps{
		Classifier: classify.NewService(llm, prompts.Default().Classifier, validation.MustNew(), logger.NewNoOpLogger()),
		Options:    opts,
		LLM:        llm,
	})

	rec := stream.NewRecorder()
	blank := "   "
	p.Run(context.Background(), types.UserQuery{Destination: &blank}, rec)

	assert.False(t, modelCalled)
	assert.Equal(t, []string{"both"}, opts.calls)
	assert.Equal(t, []stream.Kind{stream.KindStatus, stream.KindOptions, stream.KindDone}, rec.Kinds())

	var payload stream.OptionsPayload
	require.NoError(t, rec.Decode(1, &payload))
	assert.Equal(t, types.RoutingUnknown, payload.Routing)
	require.Len(t, payload.Destinations, 1)
	assert.Equal(t, "Rotorua", payload.Destinations[0].Name)
}

func TestRun_OptionsFailureIsTerminal(t *testing.T) {
	opts := &fakeOptions{err: errors.New("options: model output could not be parsed")}
	p := newPlanner(t, PlannerDeps{
		Classifier: fixedClassifier(types.RoutingDecision{Routing: types.RoutingOptionsActivities}),
		Options:    opts,
	})

	rec := stream.NewRecorder()
	p.Run(context.Background(), types.UserQuery{}, rec)

	assert.Equal(t, []string{"activities"}, opts.calls)
	assert.Equal(t, []stream.Kind{stream.KindStatus, stream.KindError}, rec.Kinds())
	assert.Equal(t, 1, rec.CloseCount())
}

type panickingClassifier struct{}

func (panickingClassifier) Classify(context.Context, types.UserQuery) types.RoutingDecision {
	panic("boom")
}

func TestRun_PanicBecomesErrorEvent(t *testing.T) {
	p := newPlanner(t, PlannerDeps{Classifier: panickingClassifier{}, Options: &fakeOptions{}})

	rec := stream.NewRecorder()
	require.NotPanics(t, func() {
		p.Run(context.Background(), types.UserQuery{}, rec)
	})

	assert.Equal(t, []stream.Kind{stream.KindError}, rec.Kinds())
	assert.Equal(t, 1, rec.CloseCount())
	var payload stream.ErrorPayload
	require.NoError(t, rec.Decode(0, &payload))
	assert.Equal(t, "internal error", payload.Error)
}

func TestOptions_Dispatch(t *testing.T) {
	cases := []struct {
		routing types.Routing
		call    string
	}{
		{types.RoutingOptionsDestinations, "destinations"},
		{types.RoutingOptionsActivities, "activities"},
		{types.RoutingOptionsBoth, "both"},
		{types.RoutingUnknown, "both"},
	}
	for _, tc := range cases {
		t.Run(string(tc.routing), func(t *testing.T) {
			opts := &fakeOptions{}
			p := newPlanner(t, PlannerDeps{Options: opts})
			payload, err := p.Options(context.Background(), types.RoutingDecision{Routing: tc.routing})
			require.NoError(t, err)
			assert.Equal(t, []string{tc.call}, opts.calls)
			assert.Equal(t, tc.routing, payload.Routing)
		})
	}

	p := newPlanner(t, PlannerDeps{Options: &fakeOptions{}})
	_, err := p.Options(context.Background(), types.RoutingDecision{Routing: types.RoutingDetails})
	assert.ErrorIs(t, err, ErrNotOptionsRouting)
}

func TestBuildGenerationContext_Defaults(t *testing.T) {
	got := BuildGenerationContext(types.ExtractedFields{}, []providers.Result{
		providers.Failed(providers.NameWeather, "Weather lookup timed out"),
		providers.Unavailable(providers.NameEvents),
	})

	lines := strings.Split(strings.TrimSpace(got), "\n")
	assert.Equal(t, []string{
		"User Request:",
		"- Destination: Not specified",
		"- When: Flexible",
		"- Activities: Open to suggestions",
		"- Dealmaker: None specified",
		"",
	}, lines[:6])
	assert.True(t, strings.HasPrefix(lines[6], "Tool Data (Weather): "))
	assert.Contains(t, lines[6], "timed out")
	assert.Equal(t, "Tool Data (Events): Unavailable", lines[7])
}

func TestStreamCards_UnknownRoutingLabelIsTerminal(t *testing.T) {
	var calls llmCall
	var phases []Phase
	var seen sync.Map
	p := newPlanner(t, PlannerDeps{
		LLM:           calls.provider(threeCards, nil),
		Adapters:      okAdapters(&seen),
		SearchEnabled: true,
		OnPhase:       func(ph Phase) { phases = append(phases, ph) },
	})

	d := queenstownDecision()
	d.Routing = "Sometimes"
	rec := stream.NewRecorder()
	p.StreamCards(context.Background(), d, rec)

	assert.Equal(t, []stream.Kind{stream.KindError}, rec.Kinds())
	var payload stream.ErrorPayload
	require.NoError(t, rec.Decode(0, &payload))
	assert.Contains(t, payload.Error, `unknown routing "Sometimes"`)
	assert.Equal(t, []Phase{PhaseValidating, PhaseTerminal}, phases)
	assert.Empty(t, calls.msgs)
	_, looked := seen.Load(providers.NameWeather)
	assert.False(t, looked)
}
