package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	prompt, err := Get(EvaluationFile, KeyPlanIdea)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Action: RetrieveSimilar")
	assert.Contains(t, prompt, "Action: NoRetrieve")
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_CachesFile(t *testing.T) {
	_, err := Get(EvaluationFile, KeyRankIdeas)
	require.NoError(t, err)

	cacheMu.RLock()
	_, cached := cache[EvaluationFile]
	cacheMu.RUnlock()
	assert.True(t, cached)
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get(EvaluationFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestList(t *testing.T) {
	keys, err := List(EvaluationFile)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyFinalize, KeyPlanIdea, KeyRankIdeas}, keys)

	_, err = List("nonexistent.json")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     map[string]string
		expected string
	}{
		{"single", "Hello {{.Name}}!", map[string]string{"Name": "team"}, "Hello team!"},
		{"repeated", "{{.A}} and {{.A}}", map[string]string{"A": "x"}, "x and x"},
		{"missing data keeps placeholder", "{{.A}} {{.B}}", map[string]string{"A": "1"}, "1 {{.B}}"},
		{"value not re-expanded", "{{.A}}", map[string]string{"A": "{{.B}}", "B": "no"}, "{{.B}}"},
		{"nil data", "{{.A}}", nil, "{{.A}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.template, tt.data))
		})
	}
}

func TestRender_AllPlaceholdersFilled(t *testing.T) {
	data := map[string]string{
		"DatasetMetrics":    "metrics",
		"Constraints":       "constraints",
		"IdeaText":          "idea",
		"AdditionalContext": "context",
		"Plan":              "plan",
		"TopN":              "3",
		"Evaluations":       "evals",
	}

	for _, key := range []string{KeyPlanIdea, KeyFinalize, KeyRankIdeas} {
		prompt, err := Render(EvaluationFile, key, data)
		require.NoError(t, err)
		assert.NotContains(t, prompt, "{{.", key)
	}
}
