package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Run("short text yields a single piece", func(t *testing.T) {
		pieces := Split("A short scene. Nothing more.", 200)
		require.Len(t, pieces, 1)
		assert.Equal(t, 0, pieces[0].Index)
		assert.Equal(t, 1, pieces[0].Total)
		assert.Equal(t, 5, pieces[0].WordCount)
		assert.Empty(t, pieces[0].PreviousContext)
		assert.Empty(t, pieces[0].NextContext)
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		assert.Nil(t, Split("   ", 200))
	})

	t.Run("long text splits on sentence boundaries", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 30; i++ {
			b.WriteString("The harbor lights flickered across the water as night fell slowly. ")
		}
		pieces := Split(b.String(), 50)
		require.Greater(t, len(pieces), 1)

		for i, p := range pieces {
			assert.Equal(t, i, p.Index)
			assert.Equal(t, len(pieces), p.Total)
			// sentences stay whole
			assert.True(t, strings.HasSuffix(p.Content, "."), "piece should end at a sentence boundary")
		}
	})

	t.Run("adjacent pieces carry context excerpts", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 20; i++ {
			b.WriteString("Maria walked along the shore thinking about everything she had lost. ")
		}
		pieces := Split(b.String(), 30)
		require.Greater(t, len(pieces), 2)

		assert.Empty(t, pieces[0].PreviousContext)
		assert.NotEmpty(t, pieces[0].NextContext)
		mid := pieces[1]
		assert.NotEmpty(t, mid.PreviousContext)
		assert.NotEmpty(t, mid.NextContext)
		assert.LessOrEqual(t, len(mid.PreviousContext), ContextExcerptLen)
		assert.LessOrEqual(t, len(mid.NextContext), ContextExcerptLen)
		last := pieces[len(pieces)-1]
		assert.Empty(t, last.NextContext)
	})

	t.Run("zero target falls back to default", func(t *testing.T) {
		pieces := Split("One sentence only.", 0)
		require.Len(t, pieces, 1)
	})
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic terminators",
			text: "First here. Second there! Third where?",
			want: []string{"First here.", "Second there!", "Third where?"},
		},
		{
			name: "no terminator returns whole text",
			text: "an unfinished fragment with no ending",
			want: []string{"an unfinished fragment with no ending"},
		},
		{
			name: "dotted abbreviation mid-token does not split",
			text: "Visit example.com for details. Then leave.",
			want: []string{"Visit example.com for details.", "Then leave."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSentences(tt.text))
		})
	}
}

func TestExcerpts(t *testing.T) {
	t.Run("short strings pass through", func(t *testing.T) {
		assert.Equal(t, "short", tailExcerpt("short", 150))
		assert.Equal(t, "short", headExcerpt("short", 150))
	})

	t.Run("long strings are clipped on word boundaries", func(t *testing.T) {
		long := strings.Repeat("word ", 100)
		tail := tailExcerpt(long, 150)
		head := headExcerpt(long, 150)
		assert.LessOrEqual(t, len(tail), 150)
		assert.LessOrEqual(t, len(head), 150)
		assert.False(t, strings.HasPrefix(tail, "ord"), "tail should start on a word boundary")
	})
}
