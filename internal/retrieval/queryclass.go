package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/chunk"
	"github.com/inkwell-labs/draftd/internal/provider"
)

// Query classification buckets.
const (
	queryGeneral   = "general"
	queryCharacter = "character"
	queryTheme     = "theme"
	queryPlot      = "plot"
	querySetting   = "setting"
	queryDialogue  = "dialogue"
)

const classifyPrompt = `Classify this search query over narrative fiction.
Respond with only a JSON object:
{"type": one of "character"|"theme"|"plot"|"setting"|"dialogue"|"general", "keywords": [up to 5 key terms]}

Query: %s`

// queryAnalysis is the optional AI-backed classification of a query.
type queryAnalysis struct {
	Type     string
	Keywords []string
}

// classifyQuery asks the completion collaborator to bucket the query.
// Any failure yields the general bucket, which filters nothing.
func classifyQuery(ctx context.Context, completer provider.Completer, query string, logger *zap.Logger) queryAnalysis {
	general := queryAnalysis{Type: queryGeneral}
	if completer == nil {
		return general
	}

	raw, err := completer.Complete(ctx, fmt.Sprintf(classifyPrompt, query))
	if err != nil {
		logger.Debug("query classification failed", zap.Error(err))
		return general
	}

	obj := provider.ExtractJSONObject(raw)
	if obj == "" || !gjson.Valid(obj) {
		return general
	}
	parsed := gjson.Parse(obj)

	qa := queryAnalysis{Type: strings.ToLower(parsed.Get("type").String())}
	switch qa.Type {
	case queryCharacter, queryTheme, queryPlot, querySetting, queryDialogue:
	default:
		qa.Type = queryGeneral
	}
	for _, kw := range parsed.Get("keywords").Array() {
		if kw.Type == gjson.String && kw.String() != "" {
			qa.Keywords = append(qa.Keywords, kw.String())
		}
		if len(qa.Keywords) >= 5 {
			break
		}
	}
	return qa
}

// typeAgrees reports whether a chunk's content type agrees with a query
// bucket. Narrative and notes chunks are generic carriers and never
// disagree; only the specialized types reject mismatched buckets.
func typeAgrees(ct chunk.ContentType, queryType string) bool {
	if queryType == queryGeneral {
		return true
	}
	switch ct {
	case chunk.TypeNarrative, chunk.TypeNotes:
		return true
	case chunk.TypeCharacter:
		return queryType == queryCharacter
	case chunk.TypeTheme:
		return queryType == queryTheme
	case chunk.TypePlot:
		return queryType == queryPlot
	case chunk.TypeSetting:
		return queryType == querySetting
	case chunk.TypeDialogue:
		return queryType == queryDialogue || queryType == queryCharacter
	default:
		return true
	}
}
