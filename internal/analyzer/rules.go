package analyzer

import (
	"context"
	"regexp"
	"strings"

	"github.com/inkwell-labs/draftd/internal/provider"
)

// Word-count buckets for the length semantic tag.
const (
	shortChunkWords  = 50
	mediumChunkWords = 200
)

// keywordCategory maps a signal name to the keywords that trigger it. A
// category is emitted once any of its keywords occurs in the text.
type keywordCategory struct {
	name     string
	keywords []string
}

var themeCategories = []keywordCategory{
	{"love", []string{"love", "heart", "romance", "passion", "kiss"}},
	{"betrayal", []string{"betray", "deceive", "lie", "cheat", "backstab"}},
	{"revenge", []string{"revenge", "vengeance", "avenge", "retribution"}},
	{"power", []string{"power", "control", "throne", "rule", "dominion"}},
	{"death", []string{"death", "die", "dying", "kill", "grave", "funeral"}},
	{"friendship", []string{"friend", "loyal", "companion", "ally"}},
	{"family", []string{"family", "mother", "father", "brother", "sister", "daughter", "son"}},
	{"war", []string{"war", "battle", "soldier", "army", "siege"}},
	{"mystery", []string{"mystery", "secret", "hidden", "clue", "unknown"}},
	{"journey", []string{"journey", "travel", "quest", "voyage", "adventure"}},
	{"redemption", []string{"redeem", "redemption", "forgive", "atone"}},
	{"survival", []string{"survive", "survival", "endure", "starve"}},
}

var emotionCategories = []keywordCategory{
	{"fear", []string{"afraid", "fear", "terrified", "scared", "dread", "panic"}},
	{"joy", []string{"happy", "joy", "delight", "laugh", "smile", "cheer"}},
	{"sadness", []string{"sad", "tears", "cry", "wept", "grief", "sorrow", "mourn"}},
	{"anger", []string{"angry", "rage", "furious", "fury", "wrath"}},
	{"love", []string{"love", "adore", "cherish", "tender"}},
	{"surprise", []string{"surprised", "shocked", "astonished", "stunned"}},
	{"hope", []string{"hope", "hopeful", "wish", "dream"}},
	{"despair", []string{"despair", "hopeless", "defeated"}},
}

var plotCategories = []keywordCategory{
	{"conflict", []string{"fight", "argue", "confront", "clash", "struggle"}},
	{"discovery", []string{"found", "discover", "reveal", "realize", "uncover"}},
	{"escape", []string{"escape", "flee", "fled", "run away"}},
	{"meeting", []string{"met", "meeting", "encounter", "introduce"}},
	{"loss", []string{"lost", "gone", "missing", "vanish"}},
	{"transformation", []string{"change", "became", "transform", "turn into"}},
	{"pursuit", []string{"chase", "pursue", "hunt", "follow"}},
	{"reunion", []string{"reunite", "reunion", "return", "came back"}},
}

var actionKeywords = []string{"ran", "jumped", "grabbed", "struck", "threw", "rushed", "charged", "fought"}

var timeKeywords = []string{"yesterday", "tomorrow", "morning", "evening", "night", "dawn", "dusk", "winter", "summer", "later", "ago"}

// speechVerbs appear adjacent to character names in narrative prose.
var speechVerbs = `said|whispered|asked|replied|shouted|muttered|answered|cried|called|told|spoke|exclaimed|murmured`

var (
	capitalizedToken = regexp.MustCompile(`\b[A-Z][a-z]{1,}\b`)
	speechVerbAny    = regexp.MustCompile(`\b(?:` + speechVerbs + `)\b`)
	speechBefore     = regexp.MustCompile(`(?:` + speechVerbs + `)\s+(?:to\s+|at\s+)?$`)
	speechAfter      = regexp.MustCompile(`^\s*(?:` + speechVerbs + `)\b`)
	pronounNear      = regexp.MustCompile(`\b(?:he|she|they|his|her|their|him|them)\b`)
)

// sentence-initial words that are capitalized without being names.
var commonCapitalized = map[string]struct{}{
	"The": {}, "A": {}, "An": {}, "And": {}, "But": {}, "Or": {}, "So": {},
	"Then": {}, "When": {}, "While": {}, "After": {}, "Before": {}, "As": {},
	"It": {}, "He": {}, "She": {}, "They": {}, "We": {}, "You": {}, "I": {},
	"His": {}, "Her": {}, "Their": {}, "There": {}, "This": {}, "That": {},
	"In": {}, "On": {}, "At": {}, "By": {}, "With": {}, "From": {}, "To": {},
	"If": {}, "Not": {}, "No": {}, "Yes": {}, "What": {}, "Why": {}, "How": {},
	"Suddenly": {}, "Now": {}, "Once": {}, "Here": {}, "Where": {},
}

// RuleAnalyzer is the deterministic, total extraction strategy. It cannot
// fail and is always the last strategy in the chain.
type RuleAnalyzer struct{}

// NewRuleAnalyzer creates the rule-based extractor.
func NewRuleAnalyzer() *RuleAnalyzer {
	return &RuleAnalyzer{}
}

// Name implements Analyzer.
func (r *RuleAnalyzer) Name() string { return "rules" }

// Analyze extracts signals using fixed keyword tables and a capitalized-token
// heuristic for character names.
func (r *RuleAnalyzer) Analyze(_ context.Context, content string, projectCtx *provider.ProjectContext) (Result, error) {
	res := EmptyResult()
	lower := strings.ToLower(content)

	res.Characters = extractCharacters(content, projectCtx)
	res.Themes = matchCategories(lower, themeCategories)
	res.Emotions = matchCategories(lower, emotionCategories)
	res.PlotElements = matchCategories(lower, plotCategories)
	res.SemanticTags = semanticTags(content, lower)

	res.normalize()
	return res, nil
}

// extractCharacters finds capitalized tokens that look like character names.
// A token qualifies when it occurs at least twice, or once if the project
// already knows it, or once inside a speech/pronoun context window.
func extractCharacters(content string, projectCtx *provider.ProjectContext) []string {
	known := make(map[string]struct{})
	if projectCtx != nil {
		for _, c := range projectCtx.Characters {
			known[c] = struct{}{}
		}
	}

	counts := make(map[string]int)
	inSpeech := make(map[string]bool)
	var order []string

	for _, loc := range capitalizedToken.FindAllStringIndex(content, -1) {
		tok := content[loc[0]:loc[1]]
		if _, ok := commonCapitalized[tok]; ok {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++

		// Heuristic regex window around the token: a speech verb directly
		// before or after, or a pronoun within ~40 chars.
		before := content[maxInt(0, loc[0]-40):loc[0]]
		after := content[loc[1]:minInt(len(content), loc[1]+40)]
		if speechBefore.MatchString(before) || speechAfter.MatchString(after) ||
			pronounNear.MatchString(strings.ToLower(before)) || pronounNear.MatchString(strings.ToLower(after)) {
			inSpeech[tok] = true
		}
	}

	var out []string
	for _, tok := range order {
		_, isKnown := known[tok]
		if counts[tok] >= 2 || isKnown || inSpeech[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// matchCategories emits each category whose keywords occur in the lowercased
// text.
func matchCategories(lower string, categories []keywordCategory) []string {
	var out []string
	for _, cat := range categories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, cat.name)
				break
			}
		}
	}
	return out
}

// semanticTags derives coarse tags: a length bucket plus dialogue, action,
// descriptive and time-specific flags.
func semanticTags(content, lower string) []string {
	var tags []string

	words := len(strings.Fields(content))
	switch {
	case words < shortChunkWords:
		tags = append(tags, "short")
	case words < mediumChunkWords:
		tags = append(tags, "medium")
	default:
		tags = append(tags, "long")
	}

	if hasDialogueMarkers(content) {
		tags = append(tags, "dialogue")
	}
	if containsAny(lower, actionKeywords) {
		tags = append(tags, "action")
	}
	if containsAny(lower, []string{"seemed", "appeared", "looked like", "towering", "gleaming", "beautiful", "ancient", "vast"}) {
		tags = append(tags, "descriptive")
	}
	if containsAny(lower, timeKeywords) {
		tags = append(tags, "time-specific")
	}
	return tags
}

func hasDialogueMarkers(content string) bool {
	return strings.Count(content, `"`) >= 2 ||
		strings.Count(content, "“") >= 1 ||
		speechVerbAny.MatchString(strings.ToLower(content))
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var _ Analyzer = (*RuleAnalyzer)(nil)
