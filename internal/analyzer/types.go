// Package analyzer turns raw narrative text into structured signals:
// characters, themes, emotions, plot elements, and semantic tags.
//
// Extraction is a fallback chain: an AI-backed strategy is tried first and a
// deterministic rule-based strategy is always last. The AI path is never
// required for correctness, only for quality; the rule-based extractor is
// total and cannot fail.
package analyzer

import (
	"context"
	"strings"

	"github.com/inkwell-labs/draftd/internal/chunk"
	"github.com/inkwell-labs/draftd/internal/provider"
)

// trimSignal strips whitespace and stray list punctuation from an extracted
// entry.
func trimSignal(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'.,;:-*`)
}

// Result holds the extracted signal sets. Slices are always non-nil; a
// failed extraction yields empty sets, never nil.
type Result struct {
	Characters   []string `json:"characters"`
	Themes       []string `json:"themes"`
	Emotions     []string `json:"emotions"`
	PlotElements []string `json:"plot_elements"`
	SemanticTags []string `json:"semantic_tags"`
}

// EmptyResult returns a Result with empty, non-nil sets.
func EmptyResult() Result {
	return Result{
		Characters:   []string{},
		Themes:       []string{},
		Emotions:     []string{},
		PlotElements: []string{},
		SemanticTags: []string{},
	}
}

// normalize trims entries, drops single-character noise, and applies the
// per-set cardinality caps.
func (r *Result) normalize() {
	r.Characters = cleanSet(r.Characters, chunk.MaxCharacters)
	r.Themes = cleanSet(r.Themes, chunk.MaxThemes)
	r.Emotions = cleanSet(r.Emotions, chunk.MaxEmotions)
	r.PlotElements = cleanSet(r.PlotElements, chunk.MaxPlotElements)
	r.SemanticTags = cleanSet(r.SemanticTags, chunk.MaxSemanticTags)
}

// cleanSet trims entries, deduplicates, drops empty and single-character
// noise, and truncates to limit.
func cleanSet(in []string, limit int) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = trimSignal(v)
		if len(v) <= 1 {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// Analyzer is one extraction strategy. Strategies are tried in order; the
// first success wins.
type Analyzer interface {
	// Analyze extracts signals from content. projectCtx may be nil.
	Analyze(ctx context.Context, content string, projectCtx *provider.ProjectContext) (Result, error)

	// Name identifies the strategy in logs.
	Name() string
}
