package retrieval

import (
	"strings"

	"github.com/inkwell-labs/draftd/internal/chunk"
)

// excerptLen bounds the extractive summary attached to an enriched result.
const excerptLen = 300

// enrich attaches the extractive summary, related-chunk excerpts and the
// matched-element breakdown to a result chunk. projectChunks is the scored
// chunk's own project set, snapshotted from the store.
func enrich(sc *ScoredChunk, terms []string, projectChunks []chunk.Chunk) {
	sc.Excerpt = extractiveSummary(sc.Content, terms)
	sc.Related = relatedExcerpts(sc.Chunk, projectChunks)
	sc.Matched = matchedElements(sc.Chunk, terms)
}

// extractiveSummary returns the sentences containing query terms, else the
// leading excerpt of the content.
func extractiveSummary(content string, terms []string) string {
	sentences := splitOnSentences(content)

	var picked []string
	total := 0
	for _, sent := range sentences {
		lower := strings.ToLower(sent)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				picked = append(picked, sent)
				total += len(sent)
				break
			}
		}
		if total >= excerptLen {
			break
		}
	}

	if len(picked) > 0 {
		return clip(strings.Join(picked, " "), excerptLen)
	}
	return clip(content, excerptLen)
}

// relatedExcerpts finds up to relatedMax same-project chunks whose content is
// Jaccard-similar above relatedThreshold, returning short excerpts.
func relatedExcerpts(c chunk.Chunk, projectChunks []chunk.Chunk) []string {
	type rel struct {
		sim     float64
		excerpt string
	}
	var rels []rel
	for _, other := range projectChunks {
		if other.ID == c.ID {
			continue
		}
		if sim := chunk.Jaccard(c.Content, other.Content); sim >= relatedThreshold {
			rels = append(rels, rel{sim: sim, excerpt: clip(other.Content, chunk.ContextExcerptLen)})
		}
	}

	// Highest similarity first.
	for i := 0; i < len(rels); i++ {
		for j := i + 1; j < len(rels); j++ {
			if rels[j].sim > rels[i].sim {
				rels[i], rels[j] = rels[j], rels[i]
			}
		}
	}

	var out []string
	for i := 0; i < len(rels) && i < relatedMax; i++ {
		out = append(out, rels[i].excerpt)
	}
	return out
}

// matchedElements names which of the chunk's metadata entries textually
// overlap the query terms.
func matchedElements(c chunk.Chunk, terms []string) MatchedElements {
	return MatchedElements{
		Characters: overlapping(c.Characters, terms),
		Themes:     overlapping(c.Themes, terms),
		Emotions:   overlapping(c.Emotions, terms),
	}
}

func overlapping(set, terms []string) []string {
	var out []string
	for _, v := range set {
		lv := strings.ToLower(v)
		for _, term := range terms {
			if strings.Contains(lv, term) || strings.Contains(term, lv) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

func splitOnSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
