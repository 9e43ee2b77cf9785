package retrieval

import (
	"fmt"
	"sort"
	"strings"
)

// topN caps the per-facet aggregation in the summary.
const topN = 5

// buildSummary aggregates the result set: totals, top characters, themes and
// content types, and key findings phrased as sentences.
func buildSummary(chunks []ScoredChunk, strategy string) Summary {
	s := Summary{
		TotalResults:   len(chunks),
		SearchStrategy: strategy,
	}

	chars := make(map[string]int)
	themes := make(map[string]int)
	types := make(map[string]int)
	for _, c := range chunks {
		for _, v := range c.Characters {
			chars[v]++
		}
		for _, v := range c.Themes {
			themes[v]++
		}
		types[string(c.ContentType)]++
	}

	s.TopCharacters = topKeys(chars, topN)
	s.TopThemes = topKeys(themes, topN)
	s.TopContentTypes = topKeys(types, topN)

	if len(chunks) > 0 {
		s.KeyFindings = append(s.KeyFindings,
			fmt.Sprintf("Found %d relevant passages.", len(chunks)))
		if len(s.TopCharacters) > 0 {
			s.KeyFindings = append(s.KeyFindings,
				fmt.Sprintf("Most mentioned characters: %s.", strings.Join(s.TopCharacters, ", ")))
		}
		if len(s.TopThemes) > 0 {
			s.KeyFindings = append(s.KeyFindings,
				fmt.Sprintf("Recurring themes: %s.", strings.Join(s.TopThemes, ", ")))
		}
	}
	return s
}

// topKeys returns up to n keys ordered by descending count, ties broken
// alphabetically for determinism.
func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// aggregateInsights collects character/theme aggregation over returned
// chunks for the insights block.
func aggregateInsights(chunks []ScoredChunk) ([]string, []string) {
	chars := make(map[string]int)
	themes := make(map[string]int)
	for _, c := range chunks {
		for _, v := range c.Characters {
			chars[v]++
		}
		for _, v := range c.Themes {
			themes[v]++
		}
	}
	return topKeys(chars, topN), topKeys(themes, topN)
}
