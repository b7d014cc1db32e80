package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	set := Default()

	assert.Equal(t, "gemini-1.5-pro", set.Cards.Model)
	assert.Equal(t, float32(0.4), set.Cards.Temperature)
	assert.Equal(t, int32(4096), set.Cards.Options().MaxOutputTokens)
	assert.Equal(t, float32(0), set.Classifier.Temperature)
	assert.Contains(t, set.Cards.System, "card_title")
	assert.Contains(t, set.Both.System, "destinations")
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	set, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), set)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	body := "cards:\n  model: gemini-2.5-pro\n  temperature: 0.7\nclassifier:\n  system: classify please\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	set, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", set.Cards.Model)
	assert.Equal(t, float32(0.7), set.Cards.Temperature)
	// Untouched fields keep their defaults.
	assert.Equal(t, int32(4096), set.Cards.MaxOutputTokens)
	assert.Equal(t, Default().Cards.System, set.Cards.System)
	assert.Equal(t, "classify please", set.Classifier.System)
	assert.Equal(t, Default().Destinations, set.Destinations)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
