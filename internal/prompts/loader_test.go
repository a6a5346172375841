package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownPrompts(t *testing.T) {
	keys := []string{"suggest-note", "synthesize-report"}
	for _, key := range keys {
		prompt, err := Get("assessment.json", key)
		require.NoError(t, err, "prompt %s should load", key)
		assert.NotEmpty(t, prompt)
	}
}

func TestGet_UnknownKey(t *testing.T) {
	_, err := Get("assessment.json", "does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGet_UnknownFile(t *testing.T) {
	_, err := Get("missing.json", "suggest-note")
	assert.Error(t, err)
}

func TestMustGet_PanicsOnMissing(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("assessment.json", "does-not-exist")
	})
}

func TestFormat(t *testing.T) {
	template := "Skill: {{.Skill}}, Score: {{.Score}}/{{.Max}}"
	got := Format(template, map[string]string{
		"Skill": "SQL",
		"Score": "4",
		"Max":   "5",
	})
	assert.Equal(t, "Skill: SQL, Score: 4/5", got)
}

func TestFormat_UnusedPlaceholdersLeftIntact(t *testing.T) {
	got := Format("{{.Known}} {{.Unknown}}", map[string]string{"Known": "x"})
	assert.Equal(t, "x {{.Unknown}}", got)
}
