package retrieval

import (
	"sort"
	"strings"

	"github.com/inkwell-labs/draftd/internal/chunk"
)

// Lexical scoring weights.
const (
	fullQueryBonus     = 10.0
	termOccurrenceStep = 3.0
	characterMatch     = 5.0
	themeMatch         = 4.0
	tagMatch           = 2.0
	minTermLen         = 3
)

// queryTerms splits a query into lowercase terms of at least minTermLen
// characters.
func queryTerms(query string) []string {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		t = strings.Trim(t, `.,;:!?"'`)
		if len(t) >= minTermLen {
			terms = append(terms, t)
		}
	}
	return terms
}

// lexicalScore computes the keyword-match score of a chunk for a query.
// A chunk with no textual or metadata match scores zero and is excluded;
// the chunk's own importance is added only on top of an actual match, so
// importance alone cannot surface unrelated chunks.
func lexicalScore(c chunk.Chunk, query string, terms []string) float64 {
	lowerContent := strings.ToLower(c.Content)
	lowerQuery := strings.ToLower(strings.TrimSpace(query))

	score := 0.0
	if lowerQuery != "" && strings.Contains(lowerContent, lowerQuery) {
		score += fullQueryBonus
	}

	for _, term := range terms {
		if n := strings.Count(lowerContent, term); n > 0 {
			score += termOccurrenceStep * float64(n)
		}
		if containsFold(c.Characters, term) {
			score += characterMatch
		}
		if containsFold(c.Themes, term) {
			score += themeMatch
		}
		if containsFold(c.SemanticTags, term) {
			score += tagMatch
		}
	}

	if score == 0 {
		return 0
	}
	return score + c.Importance
}

// searchLexical runs the deterministic fallback path over already-filtered
// candidates: score, discard zeroes, stable sort descending so ties preserve
// store order, and keep the top limit.
func searchLexical(cands []chunk.Chunk, query string, limit int) []ScoredChunk {
	terms := queryTerms(query)

	scored := make([]ScoredChunk, 0, len(cands))
	for _, c := range cands {
		s := lexicalScore(c, query, terms)
		if s == 0 {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: c, LexicalScore: s})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].LexicalScore > scored[j].LexicalScore
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// containsFold reports whether set contains term case-insensitively, as a
// whole entry or entry substring.
func containsFold(set []string, term string) bool {
	for _, v := range set {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// matchesOptions applies the conjunctive option filters. An empty filter is
// a no-op, never "match nothing".
func matchesOptions(c chunk.Chunk, opts Options) bool {
	if opts.ProjectID != "" && c.ProjectID != opts.ProjectID {
		return false
	}
	if opts.UserID != "" && c.UserID != opts.UserID {
		return false
	}
	if len(opts.ContentTypes) > 0 && !containsType(opts.ContentTypes, c.ContentType) {
		return false
	}
	if len(opts.Themes) > 0 && !intersects(c.Themes, opts.Themes) {
		return false
	}
	if len(opts.Characters) > 0 && !intersects(c.Characters, opts.Characters) {
		return false
	}
	if c.Importance < opts.MinImportance {
		return false
	}
	if tr := opts.TimeRange; tr != nil {
		if !tr.From.IsZero() && c.Timestamp.Before(tr.From) {
			return false
		}
		if !tr.To.IsZero() && c.Timestamp.After(tr.To) {
			return false
		}
	}
	return true
}

func containsType(types []chunk.ContentType, t chunk.ContentType) bool {
	for _, ct := range types {
		if ct == t {
			return true
		}
	}
	return false
}

// intersects reports a case-insensitive non-empty intersection.
func intersects(set, wanted []string) bool {
	for _, w := range wanted {
		lw := strings.ToLower(w)
		for _, v := range set {
			if strings.ToLower(v) == lw {
				return true
			}
		}
	}
	return false
}
