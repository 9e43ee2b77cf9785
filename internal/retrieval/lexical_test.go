package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/draftd/internal/chunk"
)

func lexChunk(id, content string, importance float64) chunk.Chunk {
	return chunk.Chunk{
		ID:         id,
		ProjectID:  "proj-1",
		Content:    content,
		Index:      0,
		Total:      1,
		Importance: importance,
		Timestamp:  time.Now(),
	}
}

func TestQueryTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"lowercases and drops short words", "The Dragon of Morn", []string{"the", "dragon", "morn"}},
		{"strips punctuation", `"dragon," she said!`, []string{"dragon", "she", "said"}},
		{"empty query", "  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, queryTerms(tt.query))
		})
	}
}

func TestLexicalScore(t *testing.T) {
	t.Run("zero without any match regardless of importance", func(t *testing.T) {
		c := lexChunk("a", "nothing relevant whatsoever", 10)
		assert.Zero(t, lexicalScore(c, "dragon", []string{"dragon"}))
	})

	t.Run("importance is added on top of a match", func(t *testing.T) {
		c := lexChunk("a", "the dragon circled the tower", 7)
		// full query (10) + one occurrence (3) + importance (7)
		assert.InDelta(t, 20.0, lexicalScore(c, "dragon", []string{"dragon"}), 1e-9)
	})

	t.Run("each occurrence counts", func(t *testing.T) {
		c := lexChunk("a", "dragon against dragon", 1)
		// full query (10) + two occurrences (6) + importance (1)
		assert.InDelta(t, 17.0, lexicalScore(c, "dragon", []string{"dragon"}), 1e-9)
	})

	t.Run("metadata matches score without content matches", func(t *testing.T) {
		c := lexChunk("a", "she stood at the window", 2)
		c.Characters = []string{"Maria"}
		c.Themes = []string{"betrayal"}
		c.SemanticTags = []string{"dialogue"}
		// character (5) + theme (4) + tag (2) + importance (2)
		got := lexicalScore(c, "maria betrayal dialogue", []string{"maria", "betrayal", "dialogue"})
		assert.InDelta(t, 13.0, got, 1e-9)
	})
}

func TestSearchLexical(t *testing.T) {
	t.Run("orders by score and drops non-matches", func(t *testing.T) {
		cands := []chunk.Chunk{
			lexChunk("low", "a dragon appears once here", 1),
			lexChunk("none", "completely unrelated prose", 9),
			lexChunk("high", "dragon after dragon after dragon", 1),
		}

		got := searchLexical(cands, "dragon", 10)
		require.Len(t, got, 2)
		assert.Equal(t, "high", got[0].ID)
		assert.Equal(t, "low", got[1].ID)
		assert.Greater(t, got[0].LexicalScore, got[1].LexicalScore)
	})

	t.Run("ties preserve candidate order", func(t *testing.T) {
		cands := []chunk.Chunk{
			lexChunk("first", "the dragon waits", 3),
			lexChunk("second", "the dragon sleeps", 3),
		}

		got := searchLexical(cands, "dragon", 10)
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].ID)
		assert.Equal(t, "second", got[1].ID)
	})

	t.Run("caps at limit", func(t *testing.T) {
		var cands []chunk.Chunk
		for i := 0; i < 8; i++ {
			cands = append(cands, lexChunk("x", "dragon sighting", 1))
		}
		got := searchLexical(cands, "dragon", 3)
		assert.Len(t, got, 3)
	})
}

func TestMatchesOptions(t *testing.T) {
	base := lexChunk("a", "some content", 5)
	base.UserID = "user-1"
	base.ContentType = chunk.TypeNarrative
	base.Themes = []string{"loss"}
	base.Characters = []string{"Maria"}
	base.Timestamp = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		opts Options
		want bool
	}{
		{"empty options match everything", Options{}, true},
		{"project filter matches", Options{ProjectID: "proj-1"}, true},
		{"project filter rejects", Options{ProjectID: "proj-2"}, false},
		{"user filter rejects", Options{UserID: "user-2"}, false},
		{"content type matches", Options{ContentTypes: []chunk.ContentType{chunk.TypeNarrative}}, true},
		{"content type rejects", Options{ContentTypes: []chunk.ContentType{chunk.TypeDialogue}}, false},
		{"theme intersection matches case-insensitively", Options{Themes: []string{"LOSS"}}, true},
		{"theme intersection rejects", Options{Themes: []string{"revenge"}}, false},
		{"character intersection matches", Options{Characters: []string{"Maria"}}, true},
		{"min importance rejects", Options{MinImportance: 6}, false},
		{"time range includes", Options{TimeRange: &TimeRange{
			From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		}}, true},
		{"time range excludes", Options{TimeRange: &TimeRange{
			To: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesOptions(base, tt.opts))
		})
	}
}
