package chunk

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// timeNow is a variable for testing purposes (allows mocking time).
var timeNow = time.Now

var storeTracer = otel.Tracer("draftd.chunk.store")

// Store holds chunks and a project->chunk-index mapping, protected by a
// single reader-writer lock. Ingestion and deletion take exclusive access;
// lookups take shared access. The project index is always consistent with
// the chunk slice: no dangling indices, no chunk missing from its project's
// set.
type Store struct {
	mu        sync.RWMutex
	chunks    []Chunk
	byProject map[string][]int
	byID      map[string]int
	logger    *zap.Logger
}

// NewStore creates an empty chunk store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		byProject: make(map[string][]int),
		byID:      make(map[string]int),
		logger:    logger,
	}
}

// Append validates and stores chunks, updating the project index. It returns
// the store-wide index of each appended chunk, usable as a chunk reference.
func (s *Store) Append(ctx context.Context, chunks []Chunk) ([]int, error) {
	_, span := storeTracer.Start(ctx, "Store.Append")
	defer span.End()
	span.SetAttributes(attribute.Int("chunk_count", len(chunks)))

	if len(chunks) == 0 {
		return nil, nil
	}
	for i := range chunks {
		if err := chunks[i].Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	refs := make([]int, len(chunks))
	for i, c := range chunks {
		ref := len(s.chunks)
		s.chunks = append(s.chunks, c)
		s.byProject[c.ProjectID] = append(s.byProject[c.ProjectID], ref)
		if c.ID != "" {
			s.byID[c.ID] = ref
		}
		refs[i] = ref
	}

	span.SetStatus(codes.Ok, "success")
	s.logger.Debug("appended chunks",
		zap.Int("count", len(chunks)),
		zap.String("project_id", chunks[0].ProjectID),
	)
	return refs, nil
}

// ByProject returns copies of all live chunks belonging to a project, in
// insertion order. Unknown projects yield an empty slice, not an error.
func (s *Store) ByProject(projectID string) []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := s.byProject[projectID]
	out := make([]Chunk, 0, len(refs))
	for _, ref := range refs {
		out = append(out, s.chunks[ref])
	}
	return out
}

// Get returns a copy of the chunk at ref.
func (s *Store) Get(ref int) (Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ref < 0 || ref >= len(s.chunks) || s.chunks[ref].ProjectID == "" {
		return Chunk{}, ErrInvalidRef
	}
	return s.chunks[ref], nil
}

// RemoveProject deletes all chunks of a project and its index entry. It
// returns the number of removed chunks. Calling it on a project with zero
// chunks is a no-op.
func (s *Store) RemoveProject(ctx context.Context, projectID string) int {
	_, span := storeTracer.Start(ctx, "Store.RemoveProject")
	defer span.End()
	span.SetAttributes(attribute.String("project_id", projectID))

	s.mu.Lock()
	defer s.mu.Unlock()

	refs, ok := s.byProject[projectID]
	if !ok {
		span.SetStatus(codes.Ok, "no-op")
		return 0
	}

	// Tombstone removed slots so refs held by other projects stay stable.
	for _, ref := range refs {
		if id := s.chunks[ref].ID; id != "" {
			delete(s.byID, id)
		}
		s.chunks[ref] = Chunk{}
	}
	delete(s.byProject, projectID)

	span.SetAttributes(attribute.Int("removed", len(refs)))
	span.SetStatus(codes.Ok, "success")
	s.logger.Info("removed project chunks",
		zap.String("project_id", projectID),
		zap.Int("count", len(refs)),
	)
	return len(refs)
}

// MergeMetadata unions patch into the chunk's metadata sets (capped) and
// refreshes its timestamp. This is the only mutation chunks undergo after
// creation.
func (s *Store) MergeMetadata(ref int, patch MetadataPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ref < 0 || ref >= len(s.chunks) || s.chunks[ref].ProjectID == "" {
		return ErrInvalidRef
	}

	c := &s.chunks[ref]
	c.Characters = unionCapped(c.Characters, patch.Characters, MaxCharacters)
	c.Themes = unionCapped(c.Themes, patch.Themes, MaxThemes)
	c.Emotions = unionCapped(c.Emotions, patch.Emotions, MaxEmotions)
	c.PlotElements = unionCapped(c.PlotElements, patch.PlotElements, MaxPlotElements)
	c.SemanticTags = unionCapped(c.SemanticTags, patch.SemanticTags, MaxSemanticTags)
	c.Timestamp = timeNow()
	return nil
}

// ByID returns a copy of the chunk with the given ID.
func (s *Store) ByID(id string) (Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, ok := s.byID[id]
	if !ok {
		return Chunk{}, false
	}
	return s.chunks[ref], true
}

// Stats aggregates counts for a project. Unknown projects yield zero counts.
func (s *Store) Stats(projectID string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{ProjectID: projectID}
	docs := make(map[string]struct{})
	chars := make(map[string]struct{})
	themes := make(map[string]struct{})

	for _, ref := range s.byProject[projectID] {
		c := s.chunks[ref]
		st.ChunkCount++
		st.TotalWords += c.WordCount
		docs[c.DocumentID] = struct{}{}
		for _, ch := range c.Characters {
			chars[ch] = struct{}{}
		}
		for _, th := range c.Themes {
			themes[th] = struct{}{}
		}
	}
	st.DocumentCount = len(docs)
	st.Characters = len(chars)
	st.Themes = len(themes)
	return st
}

// All returns a point-in-time copy of every live chunk, for persistence
// snapshots. The copy is taken under the read lock.
func (s *Store) All() []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		if c.ProjectID == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Len returns the number of live chunks across all projects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, refs := range s.byProject {
		n += len(refs)
	}
	return n
}

// Projects returns the IDs of all projects with at least one chunk.
func (s *Store) Projects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.byProject))
	for id := range s.byProject {
		out = append(out, id)
	}
	return out
}

// unionCapped appends entries of add missing from base, up to limit total.
func unionCapped(base, add []string, limit int) []string {
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	out := base
	for _, v := range add {
		if len(out) >= limit {
			break
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
