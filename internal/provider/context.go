package provider

import (
	"context"
	"sync"
)

// Set cardinality caps for the slowly-changing project profile. Signal sets
// are only ever extended, never overwritten, so the caps bound growth.
const (
	maxContextCharacters = 50
	maxContextThemes     = 30
	maxContextPlotPoints = 30
	maxContextSettings   = 20
)

// ProjectContext is the aggregate profile of a project, owned by the external
// project-persistence collaborator. The engine only reads it and proposes
// merges.
type ProjectContext struct {
	Characters   []string `json:"characters"`
	Themes       []string `json:"themes"`
	PlotPoints   []string `json:"plot_points"`
	Settings     []string `json:"settings"`
	WritingStyle string   `json:"writing_style,omitempty"`
	Tone         string   `json:"tone,omitempty"`
	WordCount    int      `json:"word_count"`
}

// ContextStore is the narrow read/propose-merge contract against the project
// persistence collaborator.
type ContextStore interface {
	// GetContext returns the project profile, or nil if none exists yet.
	GetContext(ctx context.Context, projectID string) (*ProjectContext, error)

	// MergeContext unions partial into the stored profile. Existing signal
	// set entries are never removed or overwritten, only extended up to the
	// per-set cap.
	MergeContext(ctx context.Context, projectID string, partial ProjectContext) error
}

// Merge unions partial into pc in place, respecting the per-set caps.
// Scalar fields are only filled when currently empty; word count accumulates.
func (pc *ProjectContext) Merge(partial ProjectContext) {
	pc.Characters = mergeCapped(pc.Characters, partial.Characters, maxContextCharacters)
	pc.Themes = mergeCapped(pc.Themes, partial.Themes, maxContextThemes)
	pc.PlotPoints = mergeCapped(pc.PlotPoints, partial.PlotPoints, maxContextPlotPoints)
	pc.Settings = mergeCapped(pc.Settings, partial.Settings, maxContextSettings)
	if pc.WritingStyle == "" {
		pc.WritingStyle = partial.WritingStyle
	}
	if pc.Tone == "" {
		pc.Tone = partial.Tone
	}
	pc.WordCount += partial.WordCount
}

// mergeCapped appends entries from add that are not already present in base,
// preserving base order, stopping at limit total entries.
func mergeCapped(base, add []string, limit int) []string {
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	out := base
	for _, v := range add {
		if len(out) >= limit {
			break
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// MemoryContextStore is an in-memory ContextStore, used when no external
// project persistence is wired and in tests.
type MemoryContextStore struct {
	mu       sync.RWMutex
	profiles map[string]*ProjectContext
}

// NewMemoryContextStore creates an empty in-memory context store.
func NewMemoryContextStore() *MemoryContextStore {
	return &MemoryContextStore{profiles: make(map[string]*ProjectContext)}
}

// GetContext returns a copy of the stored profile, or nil if none exists.
func (m *MemoryContextStore) GetContext(_ context.Context, projectID string) (*ProjectContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pc, ok := m.profiles[projectID]
	if !ok {
		return nil, nil
	}
	cp := *pc
	cp.Characters = append([]string(nil), pc.Characters...)
	cp.Themes = append([]string(nil), pc.Themes...)
	cp.PlotPoints = append([]string(nil), pc.PlotPoints...)
	cp.Settings = append([]string(nil), pc.Settings...)
	return &cp, nil
}

// MergeContext unions partial into the stored profile, creating it if absent.
func (m *MemoryContextStore) MergeContext(_ context.Context, projectID string, partial ProjectContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pc, ok := m.profiles[projectID]
	if !ok {
		pc = &ProjectContext{}
		m.profiles[projectID] = pc
	}
	pc.Merge(partial)
	return nil
}

// Delete removes a project's profile. No-op if absent.
func (m *MemoryContextStore) Delete(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, projectID)
}

var _ ContextStore = (*MemoryContextStore)(nil)
