package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/draftd/internal/provider"
)

func TestRuleAnalyzerCharacters(t *testing.T) {
	r := NewRuleAnalyzer()

	t.Run("speech context qualifies single occurrences", func(t *testing.T) {
		res, err := r.Analyze(context.Background(), "Maria whispered to John about the plan.", nil)
		require.NoError(t, err)
		assert.Contains(t, res.Characters, "Maria")
		assert.Contains(t, res.Characters, "John")
	})

	t.Run("repeated names qualify without context", func(t *testing.T) {
		res, err := r.Analyze(context.Background(), "Evander entered the hall. Evander bowed.", nil)
		require.NoError(t, err)
		assert.Contains(t, res.Characters, "Evander")
	})

	t.Run("single sentence-initial word is not a character", func(t *testing.T) {
		res, err := r.Analyze(context.Background(), "Suddenly the wind picked up across the empty moor.", nil)
		require.NoError(t, err)
		assert.Empty(t, res.Characters)
	})

	t.Run("project-known names qualify on first mention", func(t *testing.T) {
		pc := &provider.ProjectContext{Characters: []string{"Ilsa"}}
		res, err := r.Analyze(context.Background(), "Only later did Ilsa understand what the letter meant.", pc)
		require.NoError(t, err)
		assert.Contains(t, res.Characters, "Ilsa")
	})
}

func TestRuleAnalyzerCategories(t *testing.T) {
	r := NewRuleAnalyzer()

	tests := []struct {
		name    string
		content string
		field   func(Result) []string
		want    string
	}{
		{"betrayal theme", "He would betray them all before dawn.", func(r Result) []string { return r.Themes }, "betrayal"},
		{"love theme", "Her heart ached with a love she could not name.", func(r Result) []string { return r.Themes }, "love"},
		{"fear emotion", "She was terrified of what waited below.", func(r Result) []string { return r.Emotions }, "fear"},
		{"sadness emotion", "He wept over the unopened letters.", func(r Result) []string { return r.Emotions }, "sadness"},
		{"discovery plot", "They discover a hidden door behind the shelf.", func(r Result) []string { return r.PlotElements }, "discovery"},
		{"escape plot", "She fled through the orchard before the guards turned.", func(r Result) []string { return r.PlotElements }, "escape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Analyze(context.Background(), tt.content, nil)
			require.NoError(t, err)
			assert.Contains(t, tt.field(res), tt.want)
		})
	}
}

func TestRuleAnalyzerSemanticTags(t *testing.T) {
	r := NewRuleAnalyzer()

	t.Run("short length bucket", func(t *testing.T) {
		res, err := r.Analyze(context.Background(), "A brief line of text.", nil)
		require.NoError(t, err)
		assert.Contains(t, res.SemanticTags, "short")
	})

	t.Run("dialogue tag from quote pairs", func(t *testing.T) {
		res, err := r.Analyze(context.Background(), `"Stop," he muttered. "Not here."`, nil)
		require.NoError(t, err)
		assert.Contains(t, res.SemanticTags, "dialogue")
	})

	t.Run("time-specific tag", func(t *testing.T) {
		res, err := r.Analyze(context.Background(), "By morning the fog had lifted.", nil)
		require.NoError(t, err)
		assert.Contains(t, res.SemanticTags, "time-specific")
	})
}

func TestRuleAnalyzerNeverFails(t *testing.T) {
	r := NewRuleAnalyzer()

	res, err := r.Analyze(context.Background(), "zxqv", nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Characters)
	assert.NotNil(t, res.Themes)
	assert.NotNil(t, res.Emotions)
	assert.NotNil(t, res.PlotElements)
	assert.NotNil(t, res.SemanticTags)
}

func TestCleanSet(t *testing.T) {
	tests := []struct {
		name  string
		in    []string
		limit int
		want  []string
	}{
		{"trims and drops noise", []string{" Maria ", "-", "", "John."}, 10, []string{"Maria", "John"}},
		{"deduplicates", []string{"loss", "loss", "hope"}, 10, []string{"loss", "hope"}},
		{"caps cardinality", []string{"aa", "bb", "cc"}, 2, []string{"aa", "bb"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanSet(tt.in, tt.limit))
		})
	}
}
