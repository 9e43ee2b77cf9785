package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/provider"
)

// ErrMalformedResponse indicates the completion could not be parsed into the
// expected structure. It is absorbed by the fallback chain, never surfaced.
var ErrMalformedResponse = errors.New("malformed analysis response")

// maxAnalysisInput bounds how much text is sent per extraction prompt.
const maxAnalysisInput = 6000

const extractionPrompt = `Analyze the following narrative text and extract structured signals.
Respond with only a JSON object with these keys, each an array of short strings:
"characters" (named people, max 10), "themes" (max 8), "emotions" (max 8),
"plot_elements" (max 8), "semantic_tags" (max 10).

Text:
%s`

const simplifiedPrompt = `List the character names, themes and emotions in this text as JSON:
{"characters": [], "themes": [], "emotions": [], "plot_elements": [], "semantic_tags": []}

Text:
%s`

// LLMAnalyzer extracts signals by prompting the completion collaborator for
// a bounded JSON object. On a malformed first response it retries once with
// a simplified single-shot prompt before reporting failure to the chain.
type LLMAnalyzer struct {
	completer provider.Completer
	logger    *zap.Logger
}

// NewLLMAnalyzer creates the AI-backed extraction strategy.
func NewLLMAnalyzer(completer provider.Completer, logger *zap.Logger) *LLMAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMAnalyzer{completer: completer, logger: logger}
}

// Name implements Analyzer.
func (a *LLMAnalyzer) Name() string { return "llm" }

// Analyze runs the structured-extraction prompt and validates the parsed
// object. It fails (for the chain to fall through) when the provider errors
// or both prompts yield unparseable output.
func (a *LLMAnalyzer) Analyze(ctx context.Context, content string, projectCtx *provider.ProjectContext) (Result, error) {
	if a.completer == nil {
		return Result{}, provider.ErrUnavailable
	}
	if len(content) > maxAnalysisInput {
		content = content[:maxAnalysisInput]
	}

	res, err := a.prompt(ctx, fmt.Sprintf(extractionPrompt, content))
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, ErrMalformedResponse) {
		return Result{}, err
	}

	a.logger.Debug("structured extraction unparseable, retrying simplified prompt")
	res, err = a.prompt(ctx, fmt.Sprintf(simplifiedPrompt, content))
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (a *LLMAnalyzer) prompt(ctx context.Context, prompt string) (Result, error) {
	raw, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return Result{}, provider.ClassifyError(err)
	}
	return parseAnalysis(raw)
}

// parseAnalysis locates the JSON object inside a completion and validates
// every extracted list: strings only, trimmed, single-character noise
// dropped, capped to the documented maximum cardinalities.
func parseAnalysis(raw string) (Result, error) {
	obj := provider.ExtractJSONObject(raw)
	if obj == "" || !gjson.Valid(obj) {
		return Result{}, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	parsed := gjson.Parse(obj)
	if !parsed.IsObject() {
		return Result{}, fmt.Errorf("%w: top-level value is not an object", ErrMalformedResponse)
	}

	res := Result{
		Characters:   stringList(parsed.Get("characters")),
		Themes:       stringList(parsed.Get("themes")),
		Emotions:     stringList(parsed.Get("emotions")),
		PlotElements: stringList(parsed.Get("plot_elements")),
		SemanticTags: stringList(parsed.Get("semantic_tags")),
	}
	res.normalize()

	// A response carrying none of the expected fields is malformed, not an
	// empty analysis.
	if !parsed.Get("characters").Exists() && !parsed.Get("themes").Exists() &&
		!parsed.Get("emotions").Exists() && !parsed.Get("plot_elements").Exists() &&
		!parsed.Get("semantic_tags").Exists() {
		return Result{}, fmt.Errorf("%w: expected fields missing", ErrMalformedResponse)
	}
	return res, nil
}

// stringList converts a gjson array into a string slice, ignoring
// non-string elements.
func stringList(v gjson.Result) []string {
	if !v.IsArray() {
		return []string{}
	}
	var out []string
	for _, el := range v.Array() {
		if el.Type == gjson.String {
			out = append(out, el.String())
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

var _ Analyzer = (*LLMAnalyzer)(nil)
