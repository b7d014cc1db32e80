package options

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wondura/internal/ai"
	"wondura/internal/logger"
	"wondura/internal/prompts"
	"wondura/internal/types"
)

type capture struct {
	system, msg string
	opts        ai.GenerateOptions
}

func fakeLLM(answer string, c *capture) ai.LLMProvider {
	return ai.ProviderFunc(func(_ context.Context, system, msg string, opts ai.GenerateOptions) (string, error) {
		if c != nil {
			*c = capture{system: system, msg: msg, opts: opts}
		}
		return answer, nil
	})
}

func TestDestinations(t *testing.T) {
	var c capture
	svc := NewService(fakeLLM("Here you go:\n```json\n"+`{"destinations":[
		{"name":"Wanaka","region":"Otago","ranking":5,"justification":"Lakeside trails.","image_query":"lake wanaka"},
		{"name":"","region":"Nowhere","ranking":3},
		{"name":"Taupo","region":"Waikato","ranking":7.4,"justification":"Great lake."}
	]}`+"\n```", &c), prompts.Default(), logger.NewNoOpLogger())

	items, err := svc.Destinations(context.Background(), types.ExtractedFields{
		Activity:    types.StringPtr("hiking"),
		Destination: types.StringPtr("South Island"),
	})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, types.OptionItem{Name: "Wānaka", Subtext: "Otago", Ranking: 5, Justification: "Lakeside trails.", ImageQuery: "lake wanaka"}, items[0])
	assert.Equal(t, "Taupō", items[1].Name)
	assert.Equal(t, 5, items[1].Ranking, "ranking is clamped to the 0-5 scale")
	assert.Equal(t, "Taupo Waikato new zealand", items[1].ImageQuery)

	assert.Contains(t, c.msg, "- Activities: hiking")
	assert.Contains(t, c.msg, "- General location hint: South Island")
	assert.Contains(t, c.msg, "- When: Flexible")
	assert.Equal(t, float32(0.2), c.opts.Temperature)
	assert.Contains(t, c.system, "Geospatial")
}

func TestActivities(t *testing.T) {
	var c capture
	svc := NewService(fakeLLM(`{"activities":[{"name":"Mount Iron Track","location":"Wanaka","seasonal_check":"Valid","ranking":4,"justification":"Short climb."}]}`, &c),
		prompts.Default(), logger.NewNoOpLogger())

	items, err := svc.Activities(context.Background(), types.ExtractedFields{Destination: types.StringPtr("Wanaka")})
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "Wānaka", items[0].Subtext)
	assert.Equal(t, "Mount Iron Track Wanaka new zealand", items[0].ImageQuery)
	assert.Contains(t, c.msg, "- Activity interests: Any activities")
	assert.Contains(t, c.msg, "Recommend 3 best activities.")
}

func TestBoth(t *testing.T) {
	var c capture
	svc := NewService(fakeLLM(`{"destinations":[{"name":"Kaikoura","region":"Canterbury","ranking":-1,"justification":"Whales.","image_query":"kaikoura coast",
		"activities":[{"name":"Whale watching","justification":"Year round."},{"name":"","justification":"skip"}]}]}`, &c),
		prompts.Default(), logger.NewNoOpLogger())

	items, err := svc.Both(context.Background(), types.ExtractedFields{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "Kaikōura", items[0].Name)
	assert.Equal(t, 0, items[0].Ranking)
	assert.Equal(t, []types.ActivitySuggestion{{Name: "Whale watching", Justification: "Year round."}}, items[0].Activities)
	assert.Contains(t, c.msg, "- Location hint: Anywhere in New Zealand")
	assert.Contains(t, c.msg, "- Activity interests: Open to anything")
	assert.Equal(t, "gemini-1.5-flash", c.opts.Model)
}

func TestActivitiesAcceptsProseWrappedBareArray(t *testing.T) {
	svc := NewService(fakeLLM(`Here are my picks: [{"name":"Hobbiton","location":"Matamata","ranking":5,"justification":"Film set."}] Enjoy!`, nil),
		prompts.Default(), logger.NewNoOpLogger())

	items, err := svc.Activities(context.Background(), types.ExtractedFields{Destination: types.StringPtr("Waikato")})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Hobbiton", items[0].Name)
	assert.Equal(t, "Matamata", items[0].Subtext)
}

func TestUnparsableOutput(t *testing.T) {
	svc := NewService(fakeLLM("Sorry, I cannot help with that.", nil), prompts.Default(), logger.NewNoOpLogger())

	_, err := svc.Destinations(context.Background(), types.ExtractedFields{})
	assert.ErrorIs(t, err, ErrUnparsable)
}

func TestModelError(t *testing.T) {
	boom := errors.New("upstream 500")
	svc := NewService(ai.ProviderFunc(func(context.Context, string, string, ai.GenerateOptions) (string, error) {
		return "", boom
	}), prompts.Default(), logger.NewNoOpLogger())

	_, err := svc.Both(context.Background(), types.ExtractedFields{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrUnparsable))
}
