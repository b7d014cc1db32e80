package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routingProbe struct {
	Routing   string            `json:"routing"`
	Extracted map[string]string `json:"extracted"`
}

func TestExtractIntoFencedBlock(t *testing.T) {
	text := "Sure! Here is the result:\n```json\n{\"routing\":\"Details\",\"extracted\":{\"destination\":\"Queenstown\"}}\n```\nLet me know."

	var got routingProbe
	require.NoError(t, ExtractInto(text, &got))
	assert.Equal(t, "Details", got.Routing)
	assert.Equal(t, "Queenstown", got.Extracted["destination"])
}

func TestExtractIntoUnlabelledFence(t *testing.T) {
	text := "```\n[{\"name\":\"Rotorua\"}]\n```"

	var got []map[string]string
	require.NoError(t, ExtractInto(text, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Rotorua", got[0]["name"])
}

func TestExtractIntoBareSpan(t *testing.T) {
	text := `The answer is {"routing":"Unknown","extracted":{}} and that's all.`

	var got routingProbe
	require.NoError(t, ExtractInto(text, &got))
	assert.Equal(t, "Unknown", got.Routing)
}

func TestExtractIntoSkipsWrongShape(t *testing.T) {
	// The object candidate decodes badly into a slice; the array candidate must win.
	text := `{"note": "ignore"} [ {"name":"Kaikoura"} ]`

	var got []map[string]string
	require.NoError(t, ExtractInto(text, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Kaikoura", got[0]["name"])
}

func TestExtractIntoNoJSON(t *testing.T) {
	var got routingProbe
	err := ExtractInto("I could not find anything, sorry.", &got)
	assert.True(t, errors.Is(err, ErrNoJSON))
	assert.Empty(t, got.Routing)
}

func TestExtractIntoRejectsNonPointer(t *testing.T) {
	var got routingProbe
	assert.ErrorIs(t, ExtractInto(`{}`, got), ErrNoJSON)
}

func TestExtractRaw(t *testing.T) {
	raw, err := ExtractRaw("prefix ```json\n{\"a\":1}\n``` suffix")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))

	_, err = ExtractRaw("{not json")
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestExtractRawPrefersFirstOpeningBracket(t *testing.T) {
	raw, err := ExtractRaw(`Here you go: [{"card_title":"A"}] enjoy`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"card_title":"A"}]`, string(raw))

	raw, err = ExtractRaw(`Result: {"destinations":[{"name":"Rotorua"}]} done`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"destinations":[{"name":"Rotorua"}]}`, string(raw))
}

func TestProviderFunc(t *testing.T) {
	var p LLMProvider = ProviderFunc(func(_ context.Context, sys, msg string, opts GenerateOptions) (string, error) {
		return sys + "|" + msg + "|" + opts.Model, nil
	})
	out, err := p.Generate(context.Background(), "s", "m", GenerateOptions{Model: "x"})
	require.NoError(t, err)
	assert.Equal(t, "s|m|x", out)
}

func TestProviderConstructorsRequireKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), " ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewOpenAIProvider("", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
