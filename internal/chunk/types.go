// Package chunk provides the chunk data model and the in-memory chunk store
// with its project index and near-duplicate detection.
package chunk

import (
	"errors"
	"fmt"
	"time"
)

// Common errors.
var (
	ErrEmptyContent   = errors.New("chunk content cannot be empty")
	ErrEmptyProjectID = errors.New("project ID cannot be empty")
	ErrInvalidRef     = errors.New("invalid chunk reference")
)

// ContentType is the coarse genre of a chunk's text.
type ContentType string

// Recognized content types.
const (
	TypeNarrative ContentType = "narrative"
	TypeDialogue  ContentType = "dialogue"
	TypeNotes     ContentType = "notes"
	TypeCharacter ContentType = "character"
	TypePlot      ContentType = "plot"
	TypeSetting   ContentType = "setting"
	TypeTheme     ContentType = "theme"
)

// Metadata set caps. Merges union into these sets but never grow them past
// the cap, so repeated re-saves of overlapping drafts cannot bloat the index.
const (
	MaxCharacters   = 10
	MaxThemes       = 8
	MaxEmotions     = 8
	MaxPlotElements = 8
	MaxSemanticTags = 10
)

// Importance bounds.
const (
	MinImportance = 1.0
	MaxImportance = 10.0
)

// ContextExcerptLen bounds the previous/next context excerpts attached to a
// chunk.
const ContextExcerptLen = 150

// Chunk is an immutable unit of stored text plus mutable metadata. A chunk
// belongs to exactly one project and one original submission (DocumentID).
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	ProjectID  string `json:"project_id"`
	UserID     string `json:"user_id,omitempty"`

	Content     string      `json:"content"`
	ContentType ContentType `json:"content_type"`
	Index       int         `json:"chunk_index"`
	Total       int         `json:"total_chunks"`
	WordCount   int         `json:"word_count"`

	Characters   []string `json:"characters,omitempty"`
	Themes       []string `json:"themes,omitempty"`
	Emotions     []string `json:"emotions,omitempty"`
	PlotElements []string `json:"plot_elements,omitempty"`
	SemanticTags []string `json:"semantic_tags,omitempty"`

	Importance float64 `json:"importance"`

	PreviousContext string `json:"previous_context,omitempty"`
	NextContext     string `json:"next_context,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the chunk's structural invariants.
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return ErrEmptyContent
	}
	if c.ProjectID == "" {
		return ErrEmptyProjectID
	}
	if c.Index < 0 || c.Total <= 0 || c.Index >= c.Total {
		return fmt.Errorf("chunk index %d out of range [0,%d)", c.Index, c.Total)
	}
	if c.WordCount < 0 {
		return fmt.Errorf("word count must be non-negative, got %d", c.WordCount)
	}
	if c.Importance < MinImportance || c.Importance > MaxImportance {
		return fmt.Errorf("importance %.2f outside [%.1f,%.1f]", c.Importance, MinImportance, MaxImportance)
	}
	return nil
}

// MetadataPatch is a partial metadata update applied on duplicate detection.
type MetadataPatch struct {
	Characters   []string
	Themes       []string
	Emotions     []string
	PlotElements []string
	SemanticTags []string
}

// Stats summarizes a project's stored chunks.
type Stats struct {
	ProjectID     string `json:"project_id"`
	ChunkCount    int    `json:"chunk_count"`
	DocumentCount int    `json:"document_count"`
	TotalWords    int    `json:"total_words"`
	Characters    int    `json:"characters"`
	Themes        int    `json:"themes"`
}
