package chunk

import (
	"strings"

	"go.uber.org/zap"
)

// DuplicateThreshold is the Jaccard similarity at or above which a new
// submission is treated as a re-save of an existing chunk. Carried over as a
// literal heuristic constant; not derived from a principled model.
const DuplicateThreshold = 0.90

// Deduplicator detects near-duplicate content against a project's existing
// chunks. Ingestion checks each split piece through it: writers repeatedly
// re-save overlapping drafts, and naive re-chunking would duplicate the
// index and skew importance scoring.
type Deduplicator struct {
	store  *Store
	logger *zap.Logger
}

// NewDeduplicator creates a deduplicator over the given store.
func NewDeduplicator(store *Store, logger *zap.Logger) *Deduplicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduplicator{store: store, logger: logger}
}

// FindDuplicate scans only the given project's chunks for content that is
// exactly equal after trimming and lower-casing, or whose whitespace-token
// Jaccard similarity meets DuplicateThreshold. On a hit it returns the
// store reference of the matching chunk.
func (d *Deduplicator) FindDuplicate(projectID, content string) (int, bool) {
	norm := normalizeContent(content)
	if norm == "" {
		return 0, false
	}
	tokens := tokenSet(norm)

	s := d.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ref := range s.byProject[projectID] {
		existing := normalizeContent(s.chunks[ref].Content)
		if existing == norm {
			d.logger.Debug("exact duplicate detected",
				zap.String("project_id", projectID),
				zap.Int("ref", ref),
			)
			return ref, true
		}
		if sim := jaccard(tokens, tokenSet(existing)); sim >= DuplicateThreshold {
			d.logger.Debug("near-duplicate detected",
				zap.String("project_id", projectID),
				zap.Int("ref", ref),
				zap.Float64("similarity", sim),
			)
			return ref, true
		}
	}
	return 0, false
}

// Jaccard returns the Jaccard similarity of the whitespace-tokenized word
// sets of two texts. It is shared by dedup and related-chunk discovery.
func Jaccard(a, b string) float64 {
	return jaccard(tokenSet(normalizeContent(a)), tokenSet(normalizeContent(b)))
}

func normalizeContent(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
