package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/provider"
)

// fakeCompleter replays canned responses in order.
type fakeCompleter struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func TestLLMAnalyzer(t *testing.T) {
	t.Run("parses a structured response", func(t *testing.T) {
		fc := &fakeCompleter{responses: []string{
			`{"characters": ["Maria", "John"], "themes": ["betrayal"], "emotions": ["fear"], "plot_elements": [], "semantic_tags": ["dialogue"]}`,
		}}
		a := NewLLMAnalyzer(fc, zap.NewNop())

		res, err := a.Analyze(context.Background(), "Maria whispered to John.", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Maria", "John"}, res.Characters)
		assert.Equal(t, []string{"betrayal"}, res.Themes)
		assert.Equal(t, 1, fc.calls)
	})

	t.Run("retries once with the simplified prompt on malformed output", func(t *testing.T) {
		fc := &fakeCompleter{responses: []string{
			"I could not produce JSON, sorry.",
			`{"characters": ["Maria"], "themes": [], "emotions": [], "plot_elements": [], "semantic_tags": []}`,
		}}
		a := NewLLMAnalyzer(fc, zap.NewNop())

		res, err := a.Analyze(context.Background(), "text", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Maria"}, res.Characters)
		assert.Equal(t, 2, fc.calls)
	})

	t.Run("fails after both prompts are unparseable", func(t *testing.T) {
		fc := &fakeCompleter{responses: []string{"garbage", "more garbage"}}
		a := NewLLMAnalyzer(fc, zap.NewNop())

		_, err := a.Analyze(context.Background(), "text", nil)
		assert.ErrorIs(t, err, ErrMalformedResponse)
		assert.Equal(t, 2, fc.calls)
	})

	t.Run("provider errors are not retried", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("connection refused")}
		a := NewLLMAnalyzer(fc, zap.NewNop())

		_, err := a.Analyze(context.Background(), "text", nil)
		assert.Error(t, err)
		assert.Equal(t, 1, fc.calls)
	})

	t.Run("nil completer reports unavailable", func(t *testing.T) {
		a := NewLLMAnalyzer(nil, zap.NewNop())
		_, err := a.Analyze(context.Background(), "text", nil)
		assert.ErrorIs(t, err, provider.ErrUnavailable)
	})

	t.Run("oversized input is truncated", func(t *testing.T) {
		fc := &fakeCompleter{responses: []string{
			`{"characters": [], "themes": [], "emotions": [], "plot_elements": [], "semantic_tags": []}`,
		}}
		a := NewLLMAnalyzer(fc, zap.NewNop())

		long := make([]byte, maxAnalysisInput*2)
		for i := range long {
			long[i] = 'a'
		}
		_, err := a.Analyze(context.Background(), string(long), nil)
		require.NoError(t, err)
		require.Len(t, fc.prompts, 1)
		assert.Less(t, len(fc.prompts[0]), maxAnalysisInput+len(extractionPrompt))
	})
}

func TestParseAnalysis(t *testing.T) {
	t.Run("tolerates prose and code fences around the object", func(t *testing.T) {
		raw := "Here is the analysis:\n```json\n{\"characters\": [\"Maria\"], \"themes\": [\"loss\"]}\n```"
		res, err := parseAnalysis(raw)
		require.NoError(t, err)
		assert.Equal(t, []string{"Maria"}, res.Characters)
		assert.Equal(t, []string{"loss"}, res.Themes)
	})

	t.Run("ignores non-string array elements", func(t *testing.T) {
		res, err := parseAnalysis(`{"characters": ["Maria", 42, null], "themes": []}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"Maria"}, res.Characters)
	})

	t.Run("caps oversized lists", func(t *testing.T) {
		raw := `{"themes": ["t1","t2","t3","t4","t5","t6","t7","t8","t9","t0"]}`
		res, err := parseAnalysis(raw)
		require.NoError(t, err)
		assert.Len(t, res.Themes, 8)
	})

	t.Run("missing all fields is malformed", func(t *testing.T) {
		_, err := parseAnalysis(`{"unrelated": true}`)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("no object at all is malformed", func(t *testing.T) {
		_, err := parseAnalysis("plain text with no braces")
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}
