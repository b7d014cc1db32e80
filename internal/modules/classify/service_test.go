package classify

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wondura/internal/ai"
	"wondura/internal/logger"
	"wondura/internal/prompts"
	"wondura/internal/types"
	"wondura/internal/validation"
)

func newService(t *testing.T, llm ai.LLMProvider) *Service {
	t.Helper()
	return NewService(llm, prompts.Default().Classifier, validation.MustNew(), logger.NewTestLogger(t))
}

func staticLLM(text string, calls *int32) ai.LLMProvider {
	return ai.ProviderFunc(func(context.Context, string, string, ai.GenerateOptions) (string, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return text, nil
	})
}

func TestRouteTable(t *testing.T) {
	cases := []struct {
		where, what Clarity
		want        types.Routing
	}{
		{Clear, Clear, types.RoutingDetails},
		{Clear, Vague, types.RoutingOptionsActivities},
		{Clear, Blank, types.RoutingOptionsActivities},
		{Vague, Clear, types.RoutingOptionsDestinations},
		{Blank, Clear, types.RoutingOptionsDestinations},
		{Vague, Vague, types.RoutingOptionsBoth},
		{Vague, Blank, types.RoutingOptionsBoth},
		{Blank, Vague, types.RoutingOptionsBoth},
		{Blank, Blank, types.RoutingUnknown},
	}
	for _, tc := range cases {
		t.Run(string(tc.where)+"_"+string(tc.what), func(t *testing.T) {
			assert.Equal(t, tc.want, Route(tc.where, tc.what))
		})
	}
}

func TestParseClarity(t *testing.T) {
	c, ok := ParseClarity(" clear ")
	assert.True(t, ok)
	assert.Equal(t, Clear, c)

	_, ok = ParseClarity("somewhat")
	assert.False(t, ok)
}

func TestClassifyQueenstownDetails(t *testing.T) {
	var gotMsg string
	llm := ai.ProviderFunc(func(_ context.Context, system, msg string, opts ai.GenerateOptions) (string, error) {
		gotMsg = msg
		assert.Contains(t, system, "travel input classifier")
		assert.Equal(t, float32(0), opts.Temperature)
		return "```json\n" + `{"routing":"Details","where":"CLEAR","what":"CLEAR","extracted":{"activity":"hiking","destination":"Queenstown","date":"next weekend","deal_maker":null}}` + "\n```", nil
	})

	d := newService(t, llm).Classify(context.Background(), types.UserQuery{
		Destination: types.StringPtr("Queenstown"),
		Dates:       types.StringPtr("next weekend"),
		Activity1:   types.StringPtr("hiking"),
	})

	assert.Equal(t, types.RoutingDetails, d.Routing)
	assert.Equal(t, "Queenstown", *d.Extracted.Destination)
	assert.Equal(t, "hiking", *d.Extracted.Activity)
	assert.Nil(t, d.Extracted.DealMaker)
	assert.Equal(t, "Where: Queenstown\nWhen: next weekend\nActivities: hiking\nDealmaker: Not specified\n", gotMsg)
}

func TestClassifyRecomputesRoutingFromLabels(t *testing.T) {
	llm := staticLLM(`{"routing":"Details","where":"VAGUE","what":"CLEAR","extracted":{"activity":"wine tasting","destination":"North Island","date":null,"deal_maker":null}}`, nil)

	d := newService(t, llm).Classify(context.Background(), types.UserQuery{
		Destination: types.StringPtr("North Island"),
		Activity1:   types.StringPtr("wine tasting"),
	})
	assert.Equal(t, types.RoutingOptionsDestinations, d.Routing)
}

func TestClassifyAcceptsLowercaseLabels(t *testing.T) {
	llm := staticLLM(`{"routing":"Details","where":"clear","what":"vague","extracted":{"activity":"something fun","destination":"Napier","date":null,"deal_maker":null}}`, nil)

	d := newService(t, llm).Classify(context.Background(), types.UserQuery{
		Destination: types.StringPtr("Napier"),
		Activity1:   types.StringPtr("something fun"),
	})
	assert.Equal(t, types.RoutingOptionsActivities, d.Routing)
	assert.Equal(t, "Napier", *d.Extracted.Destination)
}

func TestClassifyNeverReturnsUnknownForNonBlankInput(t *testing.T) {
	llm := staticLLM(`{"routing":"Unknown","extracted":{"activity":null,"destination":"somewhere","date":null,"deal_maker":null}}`, nil)

	d := newService(t, llm).Classify(context.Background(), types.UserQuery{Destination: types.StringPtr("somewhere")})
	assert.Equal(t, types.RoutingOptionsBoth, d.Routing)
}

func TestClassifyFallbacks(t *testing.T) {
	query := types.UserQuery{
		Destination: types.StringPtr("Napier"),
		Dates:       types.StringPtr("March"),
		Activity1:   types.StringPtr("wine"),
		Activity3:   types.StringPtr("art deco"),
		Dealmaker:   types.StringPtr("  "),
	}
	want := types.ExtractedFields{
		Activity:    types.StringPtr("wine, art deco"),
		Destination: types.StringPtr("Napier"),
		Date:        types.StringPtr("March"),
	}

	cases := map[string]ai.LLMProvider{
		"call error": ai.ProviderFunc(func(context.Context, string, string, ai.GenerateOptions) (string, error) {
			return "", errors.New("quota")
		}),
		"prose":          staticLLM("I think this is a Details request.", nil),
		"bad enum":       staticLLM(`{"routing":"Maybe","extracted":{"activity":null,"destination":null,"date":null,"deal_maker":null}}`, nil),
		"missing fields": staticLLM(`{"routing":"Details","extracted":{"activity":"wine"}}`, nil),
		"wrong type":     staticLLM(`{"routing":"Details","extracted":{"activity":3,"destination":null,"date":null,"deal_maker":null}}`, nil),
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			d := newService(t, llm).Classify(context.Background(), query)
			assert.Equal(t, types.RoutingOptionsBoth, d.Routing)
			assert.Equal(t, want, d.Extracted)
		})
	}
}

func TestClassifyAllBlankSkipsModel(t *testing.T) {
	var calls int32
	svc := newService(t, staticLLM(`{}`, &calls))

	d := svc.Classify(context.Background(), types.UserQuery{
		Destination: types.StringPtr(" "),
		Dates:       types.StringPtr("summer"),
		Dealmaker:   types.StringPtr("cheap"),
	})

	assert.Equal(t, types.RoutingUnknown, d.Routing)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Equal(t, "summer", *d.Extracted.Date)
	assert.Equal(t, "cheap", *d.Extracted.DealMaker)
	assert.Nil(t, d.Extracted.Destination)
}

func TestClassifyIsIdempotent(t *testing.T) {
	var calls int32
	svc := newService(t, staticLLM(`{"routing":"Options_Activities","where":"CLEAR","what":"VAGUE","extracted":{"activity":"relaxing","destination":"Rotorua","date":null,"deal_maker":null}}`, &calls))
	q := types.UserQuery{Destination: types.StringPtr("Rotorua"), Activity1: types.StringPtr("relaxing")}

	first := svc.Classify(context.Background(), q)
	second := svc.Classify(context.Background(), q)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "each call queries the model afresh")
}

func TestUserMessageDefaults(t *testing.T) {
	msg := userMessage(types.UserQuery{}, types.ExtractedFields{})
	require.Equal(t, 4, strings.Count(msg, "Not specified"))
}

func TestTruncateKeepsWholeRunes(t *testing.T) {
	assert.Equal(t, "Wānaka", truncate("Wānaka", 6))
	assert.Equal(t, "Wā...", truncate("Wānaka", 2))
	assert.True(t, utf8.ValidString(truncate(strings.Repeat("ā", 400), 300)))
}
