package chunk

import (
	"strings"
)

// DefaultChunkWords is the target word count per chunk.
const DefaultChunkWords = 200

// Piece is a split segment of a submission before metadata is attached.
type Piece struct {
	Content         string
	Index           int
	Total           int
	WordCount       int
	PreviousContext string
	NextContext     string
}

// Split divides a submission into sentence-boundary-aware word windows of
// roughly targetWords each, attaching trailing/leading excerpts of adjacent
// pieces. Short submissions produce a single piece.
func Split(content string, targetWords int) []Piece {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if targetWords <= 0 {
		targetWords = DefaultChunkWords
	}

	sentences := splitSentences(content)

	var segments []string
	var current []string
	words := 0
	for _, sent := range sentences {
		n := len(strings.Fields(sent))
		if words > 0 && words+n > targetWords {
			segments = append(segments, strings.Join(current, " "))
			current = current[:0]
			words = 0
		}
		current = append(current, sent)
		words += n
	}
	if len(current) > 0 {
		segments = append(segments, strings.Join(current, " "))
	}

	pieces := make([]Piece, len(segments))
	for i, seg := range segments {
		p := Piece{
			Content:   seg,
			Index:     i,
			Total:     len(segments),
			WordCount: len(strings.Fields(seg)),
		}
		if i > 0 {
			p.PreviousContext = tailExcerpt(segments[i-1], ContextExcerptLen)
		}
		if i < len(segments)-1 {
			p.NextContext = headExcerpt(segments[i+1], ContextExcerptLen)
		}
		pieces[i] = p
	}
	return pieces
}

// splitSentences breaks text on sentence-final punctuation, keeping the
// terminator with the sentence. Text without terminators comes back whole.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Treat as a boundary only when followed by whitespace or EOF,
			// so abbreviations mid-token do not split.
			if i == len(runes)-1 || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				if s := strings.TrimSpace(b.String()); s != "" {
					sentences = append(sentences, s)
				}
				b.Reset()
			}
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// tailExcerpt returns the last at most n characters of s, cut on a word
// boundary where possible.
func tailExcerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	excerpt := string(runes[len(runes)-n:])
	if idx := strings.IndexByte(excerpt, ' '); idx >= 0 && idx < len(excerpt)-1 {
		excerpt = excerpt[idx+1:]
	}
	return excerpt
}

// headExcerpt returns the first at most n characters of s, cut on a word
// boundary where possible.
func headExcerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	excerpt := string(runes[:n])
	if idx := strings.LastIndexByte(excerpt, ' '); idx > 0 {
		excerpt = excerpt[:idx]
	}
	return excerpt
}
