package analyzer

import (
	"strings"

	"github.com/inkwell-labs/draftd/internal/chunk"
)

// Importance scoring weights. Base is the neutral midpoint; signal-bearing
// chunks move up from it, never below 1 or above 10.
const (
	importanceBase          = 5.0
	importancePerCharacter  = 0.5
	importancePerEmotion    = 0.5
	importancePerPlot       = 0.5
	importanceCharacterMax  = 2.0
	importanceEmotionMax    = 1.5
	importancePlotMax       = 1.5
	importanceDialogueBonus = 0.5
)

// ClassifyContentType assigns a coarse genre to a chunk's text using
// dialogue-marker scoring and light structural cues.
func ClassifyContentType(content string) chunk.ContentType {
	lower := strings.ToLower(content)

	if strings.HasPrefix(strings.TrimSpace(lower), "note:") ||
		strings.HasPrefix(strings.TrimSpace(lower), "todo") ||
		strings.HasPrefix(strings.TrimSpace(lower), "- ") {
		return chunk.TypeNotes
	}

	// Two or more quote pairs, or a quote plus a speech verb, wins over
	// narrative.
	quoteCount := strings.Count(content, `"`) + strings.Count(content, "“") + strings.Count(content, "”")
	dialogueScore := quoteCount / 2
	if speechVerbAny.MatchString(lower) {
		dialogueScore++
	}
	if dialogueScore >= 2 {
		return chunk.TypeDialogue
	}

	return chunk.TypeNarrative
}

// ScoreImportance computes the 1-10 heuristic importance of a chunk from its
// extracted signals.
func ScoreImportance(content string, res Result) float64 {
	score := importanceBase

	score += minFloat(float64(len(res.Characters))*importancePerCharacter, importanceCharacterMax)
	score += minFloat(float64(len(res.Emotions))*importancePerEmotion, importanceEmotionMax)
	score += minFloat(float64(len(res.PlotElements))*importancePerPlot, importancePlotMax)
	if hasDialogueMarkers(content) {
		score += importanceDialogueBonus
	}

	if score < chunk.MinImportance {
		score = chunk.MinImportance
	}
	if score > chunk.MaxImportance {
		score = chunk.MaxImportance
	}
	return score
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
