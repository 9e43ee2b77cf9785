// Package retrieval executes natural-language queries over the chunk store,
// via a vector-similarity path with AI re-ranking or a deterministic lexical
// fallback when the embedding collaborator is unavailable or rate limited.
package retrieval

import (
	"errors"
	"fmt"
	"time"

	"github.com/inkwell-labs/draftd/internal/chunk"
)

// Search strategy labels, surfaced verbatim in the summary so callers and
// tests can assert which path executed.
const (
	StrategyVector  = "semantic vector search with AI ranking"
	StrategyLexical = "text-based search with keyword matching"
)

// Caller-visible errors. Provider failures never surface; they select the
// fallback path instead.
var (
	ErrEmptyQuery     = errors.New("search query cannot be empty")
	ErrInvalidOptions = errors.New("invalid search options")
)

// Defaults for unset options.
const (
	DefaultLimit         = 5
	DefaultMinImportance = 1.0
)

// Oversampling bounds for the vector path.
const (
	oversampleFactor = 6
	oversampleFloor  = 30
)

// Related-chunk discovery threshold and cap. The 0.30 threshold is a carried
// heuristic constant, paired with the 0.90 dedup threshold.
const (
	relatedThreshold = 0.30
	relatedMax       = 3
)

// TimeRange restricts results to chunks stamped within [From, To]. A zero
// bound is open.
type TimeRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// Options configures a search. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	ProjectID      string              `json:"project_id,omitempty"`
	UserID         string              `json:"user_id,omitempty"`
	ContentTypes   []chunk.ContentType `json:"content_types,omitempty"`
	Themes         []string            `json:"themes,omitempty"`
	Characters     []string            `json:"characters,omitempty"`
	TimeRange      *TimeRange          `json:"time_range,omitempty"`
	MinImportance  float64             `json:"min_importance,omitempty"`
	Limit          int                 `json:"limit,omitempty"`
	IncludeContext bool                `json:"include_context"`
}

// DefaultOptions returns the documented option defaults.
func DefaultOptions() Options {
	return Options{
		MinImportance:  DefaultMinImportance,
		Limit:          DefaultLimit,
		IncludeContext: true,
	}
}

// Validate rejects structurally invalid options. These are the only
// option-related failures surfaced to callers.
func (o *Options) Validate() error {
	if o.Limit < 0 {
		return fmt.Errorf("%w: limit must be non-negative, got %d", ErrInvalidOptions, o.Limit)
	}
	if o.MinImportance < 0 {
		return fmt.Errorf("%w: min_importance must be non-negative, got %.2f", ErrInvalidOptions, o.MinImportance)
	}
	return nil
}

// applyDefaults fills unset numeric fields.
func (o *Options) applyDefaults() {
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	if o.MinImportance == 0 {
		o.MinImportance = DefaultMinImportance
	}
}

// MatchedElements names which metadata of a chunk textually overlaps the
// query.
type MatchedElements struct {
	Characters []string `json:"characters,omitempty"`
	Themes     []string `json:"themes,omitempty"`
	Emotions   []string `json:"emotions,omitempty"`
}

// ScoredChunk is a returned chunk with its ranking scores and optional
// contextual enrichment.
type ScoredChunk struct {
	chunk.Chunk

	// Relevance is the 0-1 AI relevance score (vector path). Failures and
	// ties default to 0.5.
	Relevance float64 `json:"relevance,omitempty"`

	// LexicalScore is the keyword-match score (lexical path).
	LexicalScore float64 `json:"lexical_score,omitempty"`

	// Excerpt is a short extractive summary built from sentences containing
	// query terms, else the leading excerpt.
	Excerpt string `json:"excerpt,omitempty"`

	// Related holds excerpts of same-project chunks discovered by Jaccard
	// similarity.
	Related []string `json:"related,omitempty"`

	// Matched names the metadata elements overlapping the query.
	Matched MatchedElements `json:"matched,omitempty"`
}

// Insights carries query-level findings alongside the ranked chunks.
type Insights struct {
	QueryType  string   `json:"query_type,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Characters []string `json:"characters,omitempty"`
	Themes     []string `json:"themes,omitempty"`
	Notes      []string `json:"notes,omitempty"`
}

// Summary aggregates the result set.
type Summary struct {
	TotalResults    int      `json:"total_results"`
	TopCharacters   []string `json:"top_characters,omitempty"`
	TopThemes       []string `json:"top_themes,omitempty"`
	TopContentTypes []string `json:"top_content_types,omitempty"`
	KeyFindings     []string `json:"key_findings,omitempty"`
	SearchStrategy  string   `json:"search_strategy"`
}

// Result is the full search response.
type Result struct {
	Chunks   []ScoredChunk `json:"chunks"`
	Insights Insights      `json:"insights"`
	Summary  Summary       `json:"summary"`
}
