// Package service wires the ingestion and query flows: dedup check, analysis,
// chunking, storage, vector indexing, context merge proposals and snapshots.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/analyzer"
	"github.com/inkwell-labs/draftd/internal/chunk"
	"github.com/inkwell-labs/draftd/internal/persist"
	"github.com/inkwell-labs/draftd/internal/provider"
	"github.com/inkwell-labs/draftd/internal/retrieval"
)

var serviceTracer = otel.Tracer("draftd.service")

// IngestMetadata carries caller-supplied attributes of a submission.
type IngestMetadata struct {
	UserID      string
	ContentType chunk.ContentType // empty means classify automatically
}

// IngestResult reports what an ingestion did.
type IngestResult struct {
	DocumentID   string `json:"document_id"`
	ChunkCount   int    `json:"chunk_count"`
	Deduplicated bool   `json:"deduplicated"`
}

// Service exposes the engine's public operations to the API layer.
type Service struct {
	store    *chunk.Store
	dedup    *chunk.Deduplicator
	analyzer *analyzer.Service
	engine   *retrieval.Engine
	index    *retrieval.Index
	persist  *persist.Adapter
	contexts provider.ContextStore
	metrics  *Metrics
	logger   *zap.Logger

	chunkWords int
}

// Config holds service construction parameters. Index, Persist, Contexts and
// Metrics may be nil.
type Config struct {
	Store      *chunk.Store
	Dedup      *chunk.Deduplicator
	Analyzer   *analyzer.Service
	Engine     *retrieval.Engine
	Index      *retrieval.Index
	Persist    *persist.Adapter
	Contexts   provider.ContextStore
	Metrics    *Metrics
	Logger     *zap.Logger
	ChunkWords int
}

// New creates the service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	words := cfg.ChunkWords
	if words <= 0 {
		words = chunk.DefaultChunkWords
	}
	return &Service{
		store:      cfg.Store,
		dedup:      cfg.Dedup,
		analyzer:   cfg.Analyzer,
		engine:     cfg.Engine,
		index:      cfg.Index,
		persist:    cfg.Persist,
		contexts:   cfg.Contexts,
		metrics:    cfg.Metrics,
		logger:     logger,
		chunkWords: words,
	}
}

// Ingest analyzes, chunks and stores a submission for a project. The
// duplicate check runs per split piece, against the project's stored chunks:
// a re-saved document splits into the same pieces it did the first time, so
// every piece matches and the whole submission collapses into metadata
// merges. Pieces with no stored counterpart become new chunks.
func (s *Service) Ingest(ctx context.Context, projectID, content string, meta IngestMetadata) (*IngestResult, error) {
	ctx, span := serviceTracer.Start(ctx, "Service.Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("project_id", projectID))

	content = strings.TrimSpace(content)
	if content == "" {
		span.SetStatus(codes.Error, chunk.ErrEmptyContent.Error())
		return nil, chunk.ErrEmptyContent
	}
	if projectID == "" {
		span.SetStatus(codes.Error, chunk.ErrEmptyProjectID.Error())
		return nil, chunk.ErrEmptyProjectID
	}

	projectCtx := s.projectContext(ctx, projectID)

	docID := uuid.New().String()
	pieces := chunk.Split(content, s.chunkWords)

	var fresh []chunk.Chunk
	merged := 0
	mergedDoc := ""
	for _, p := range pieces {
		res := s.analyzer.Analyze(ctx, projectID, p.Content, projectCtx)

		if ref, ok := s.dedup.FindDuplicate(projectID, p.Content); ok {
			if err := s.store.MergeMetadata(ref, chunk.MetadataPatch{
				Characters:   res.Characters,
				Themes:       res.Themes,
				Emotions:     res.Emotions,
				PlotElements: res.PlotElements,
				SemanticTags: res.SemanticTags,
			}); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			if existing, err := s.store.Get(ref); err == nil && mergedDoc == "" {
				mergedDoc = existing.DocumentID
			}
			merged++
			continue
		}

		ct := meta.ContentType
		if ct == "" {
			ct = analyzer.ClassifyContentType(p.Content)
		}
		fresh = append(fresh, chunk.Chunk{
			ID:              uuid.New().String(),
			DocumentID:      docID,
			ProjectID:       projectID,
			UserID:          meta.UserID,
			Content:         p.Content,
			ContentType:     ct,
			Index:           p.Index,
			Total:           p.Total,
			WordCount:       p.WordCount,
			Characters:      res.Characters,
			Themes:          res.Themes,
			Emotions:        res.Emotions,
			PlotElements:    res.PlotElements,
			SemanticTags:    res.SemanticTags,
			Importance:      analyzer.ScoreImportance(p.Content, res),
			PreviousContext: p.PreviousContext,
			NextContext:     p.NextContext,
			Timestamp:       timeNow(),
		})
	}

	if len(fresh) == 0 {
		s.metrics.observeIngest(true, 0)
		span.SetAttributes(attribute.Bool("deduplicated", true), attribute.Int("merged", merged))
		span.SetStatus(codes.Ok, "deduplicated")
		s.logger.Info("duplicate submission merged",
			zap.String("project_id", projectID),
			zap.String("document_id", mergedDoc),
			zap.Int("merged", merged),
		)
		return &IngestResult{DocumentID: mergedDoc, Deduplicated: true}, nil
	}

	if _, err := s.store.Append(ctx, fresh); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Index registration and the context merge call out to collaborators, so
	// they run after the store mutation, never under its lock. Failures are
	// absorbed: the submission stays searchable on the lexical path. The
	// snapshot runs off the request path; the adapter serializes writers.
	if s.index != nil {
		if err := s.index.Add(ctx, fresh); err != nil {
			s.logger.Warn("vector indexing failed", zap.Error(err))
		}
	}
	s.proposeContextMerge(ctx, projectID, fresh)
	go s.snapshot()

	s.metrics.observeIngest(false, len(fresh))
	span.SetAttributes(attribute.Int("chunks", len(fresh)), attribute.Int("merged", merged))
	span.SetStatus(codes.Ok, "success")
	s.logger.Info("document ingested",
		zap.String("project_id", projectID),
		zap.String("document_id", docID),
		zap.Int("chunks", len(fresh)),
		zap.Int("merged", merged),
	)
	return &IngestResult{DocumentID: docID, ChunkCount: len(fresh)}, nil
}

// Search delegates to the retrieval engine.
func (s *Service) Search(ctx context.Context, query string, opts retrieval.Options) (*retrieval.Result, error) {
	return s.engine.Search(ctx, query, opts)
}

// Stats returns aggregate counts for a project. Unknown projects yield zero
// counts, not an error: "no documents yet" is a valid terminal state.
func (s *Service) Stats(projectID string) chunk.Stats {
	return s.store.Stats(projectID)
}

// DeleteProject removes a project's chunks, its index entries and its cached
// analyses.
func (s *Service) DeleteProject(ctx context.Context, projectID string) int {
	ctx, span := serviceTracer.Start(ctx, "Service.DeleteProject")
	defer span.End()
	span.SetAttributes(attribute.String("project_id", projectID))

	removed := s.store.RemoveProject(ctx, projectID)
	if s.index != nil {
		if err := s.index.RemoveProject(ctx, projectID); err != nil {
			s.logger.Warn("removing project from index failed", zap.Error(err))
		}
	}
	s.analyzer.InvalidateProject(projectID)
	s.snapshot()

	span.SetAttributes(attribute.Int("removed", removed))
	span.SetStatus(codes.Ok, "success")
	return removed
}

// Snapshot persists the store now. Used on shutdown.
func (s *Service) Snapshot() {
	s.snapshot()
}

// Restore loads the last snapshot into the store and index. Failures start
// empty.
func (s *Service) Restore(ctx context.Context) int {
	if s.persist == nil {
		return 0
	}
	var reindexer persist.Reindexer
	if s.index != nil {
		reindexer = s.index
	}
	n, err := s.persist.Restore(ctx, s.store, reindexer)
	if err != nil {
		s.logger.Warn("restore failed, starting empty", zap.Error(err))
		return 0
	}
	return n
}

// AIEnabled reports whether the vector index, and with it the AI-backed
// search path, is configured.
func (s *Service) AIEnabled() bool {
	return s.index != nil
}

// ChunkCount reports the store size, for health reporting.
func (s *Service) ChunkCount() int {
	return s.store.Len()
}

func (s *Service) projectContext(ctx context.Context, projectID string) *provider.ProjectContext {
	if s.contexts == nil {
		return nil
	}
	pc, err := s.contexts.GetContext(ctx, projectID)
	if err != nil {
		s.logger.Debug("project context unavailable", zap.Error(err))
		return nil
	}
	return pc
}

// proposeContextMerge extends the project profile with the new chunks'
// signals. The profile's existing sets are only ever extended, never
// overwritten.
func (s *Service) proposeContextMerge(ctx context.Context, projectID string, chunks []chunk.Chunk) {
	if s.contexts == nil {
		return
	}
	partial := provider.ProjectContext{}
	for _, c := range chunks {
		partial.Characters = append(partial.Characters, c.Characters...)
		partial.Themes = append(partial.Themes, c.Themes...)
		partial.PlotPoints = append(partial.PlotPoints, c.PlotElements...)
		partial.WordCount += c.WordCount
	}
	if err := s.contexts.MergeContext(ctx, projectID, partial); err != nil {
		s.logger.Warn("context merge proposal failed", zap.Error(err))
	}
}

func (s *Service) snapshot() {
	if s.persist == nil {
		return
	}
	if err := s.persist.Snapshot(s.store); err != nil {
		// Persistence IO errors never fail the operation; in-memory state
		// remains authoritative.
		s.logger.Warn("snapshot failed", zap.Error(err))
	}
}
