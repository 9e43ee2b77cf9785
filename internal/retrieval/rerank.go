package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/provider"
)

// defaultRelevance is assigned to any candidate whose score could not be
// obtained from the provider.
const defaultRelevance = 0.5

// rankBonusWeight is the per-position weight of the deterministic tie-break
// bonus derived from original similarity rank.
const rankBonusWeight = 0.01

// maxExcerptForScoring bounds how much chunk text goes into a scoring prompt.
const maxExcerptForScoring = 800

const relevancePrompt = `On a scale from 0.0 to 1.0, how relevant is this passage to the query?
Respond with only the number.

Query: %s

Passage:
%s`

var numberPattern = regexp.MustCompile(`[01](?:\.\d+)?|\.\d+`)

// relevanceScorer requests a 0-1 relevance score per candidate from the
// completion collaborator. It never fails: malformed responses, provider
// errors, and an expired context all degrade to the default score, so a slow
// re-ranking call costs latency, not correctness.
type relevanceScorer struct {
	completer provider.Completer
	logger    *zap.Logger
}

type rankedCandidate struct {
	candidate candidate
	relevance float64
	final     float64
}

// candidate is a chunk surviving filtering, with its oversample rank.
type candidate struct {
	chunk      ScoredChunk
	sampleRank int
}

// scoreAll assigns relevance to every candidate. Once ctx is done, remaining
// candidates keep the default score and the best ordering computed so far is
// returned.
func (r *relevanceScorer) scoreAll(ctx context.Context, query string, cands []candidate) []rankedCandidate {
	ranked := make([]rankedCandidate, len(cands))
	for i, c := range cands {
		ranked[i] = rankedCandidate{candidate: c, relevance: defaultRelevance}
	}

	if r.completer != nil {
		for i := range ranked {
			if ctx.Err() != nil {
				r.logger.Debug("re-ranking deadline reached, keeping defaults for remainder",
					zap.Int("scored", i),
					zap.Int("total", len(ranked)),
				)
				break
			}
			ranked[i].relevance = r.scoreOne(ctx, query, ranked[i].candidate.chunk.Content)
		}
	}

	for i := range ranked {
		ranked[i].final = ranked[i].relevance + rankBonus(ranked[i].candidate.sampleRank)
	}

	// Relevance descending; the rank bonus makes the order deterministic.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].final > ranked[j].final
	})
	return ranked
}

func (r *relevanceScorer) scoreOne(ctx context.Context, query, content string) float64 {
	if len(content) > maxExcerptForScoring {
		content = content[:maxExcerptForScoring]
	}
	raw, err := r.completer.Complete(ctx, fmt.Sprintf(relevancePrompt, query, content))
	if err != nil {
		r.logger.Debug("relevance scoring failed, using default", zap.Error(err))
		return defaultRelevance
	}

	m := numberPattern.FindString(raw)
	if m == "" {
		return defaultRelevance
	}
	score, err := strconv.ParseFloat(m, 64)
	if err != nil || score < 0 || score > 1 {
		return defaultRelevance
	}
	return score
}

// rankBonus is the small decaying bonus by original similarity rank, used
// as a deterministic tie-break.
func rankBonus(rank int) float64 {
	return rankBonusWeight / float64(rank+1)
}
