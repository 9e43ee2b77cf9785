package retrieval

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/chunk"
	"github.com/inkwell-labs/draftd/internal/provider"
)

var indexTracer = otel.Tracer("draftd.retrieval.index")

// indexCollection is the single chromem collection backing the index.
const indexCollection = "draftd_chunks"

// Hit is one nearest-neighbour result from the index.
type Hit struct {
	ChunkID    string
	Similarity float32
	Rank       int
}

// Index is the brute-force vector index over stored chunks, backed by an
// in-memory chromem-go collection. Embedding calls go to the external
// collaborator and are always issued outside the chunk store lock.
type Index struct {
	coll     *chromem.Collection
	embedder provider.Embedder
	logger   *zap.Logger
}

// NewIndex creates an empty in-memory index. embedder must be non-nil; a
// deployment without an embedder runs without an index and searches take the
// lexical path.
func NewIndex(embedder provider.Embedder, logger *zap.Logger) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("creating index: %w", provider.ErrUnavailable)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db := chromem.NewDB()
	embedFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	}
	coll, err := db.CreateCollection(indexCollection, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	return &Index{coll: coll, embedder: embedder, logger: logger}, nil
}

// Add embeds and registers chunks. Chunks are embedded one by one so a
// rate-limit mid-batch loses only the remainder; already-registered chunks
// stay searchable.
func (ix *Index) Add(ctx context.Context, chunks []chunk.Chunk) error {
	ctx, span := indexTracer.Start(ctx, "Index.Add")
	defer span.End()
	span.SetAttributes(attribute.Int("chunk_count", len(chunks)))

	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		vec, err := ix.embedder.Embed(ctx, c.Content)
		if err != nil {
			err = provider.ClassifyError(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if len(docs) > 0 {
				if addErr := ix.coll.AddDocuments(ctx, docs, 1); addErr != nil {
					ix.logger.Warn("partial index add failed", zap.Error(addErr))
				}
			}
			return fmt.Errorf("embedding chunk %s: %w", c.ID, err)
		}
		docs = append(docs, chromem.Document{
			ID:      c.ID,
			Content: c.Content,
			Metadata: map[string]string{
				"project_id": c.ProjectID,
			},
			Embedding: vec,
		})
	}

	if err := ix.coll.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding documents to index: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	ix.logger.Debug("indexed chunks", zap.Int("count", len(docs)))
	return nil
}

// Query returns the k nearest chunk IDs for an already-embedded query.
// Project scoping happens in the engine after oversampling; chromem rejects
// nResults larger than the filtered document count, so the index stays
// filter-free.
func (ix *Index) Query(ctx context.Context, queryVec []float32, k int) ([]Hit, error) {
	ctx, span := indexTracer.Start(ctx, "Index.Query")
	defer span.End()
	span.SetAttributes(attribute.Int("k", k))

	count := ix.coll.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := ix.coll.QueryEmbedding(ctx, queryVec, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying index: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{ChunkID: r.ID, Similarity: r.Similarity, Rank: i}
	}

	span.SetAttributes(attribute.Int("hits", len(hits)))
	span.SetStatus(codes.Ok, "success")
	return hits, nil
}

// RemoveProject drops all indexed chunks of a project.
func (ix *Index) RemoveProject(ctx context.Context, projectID string) error {
	ctx, span := indexTracer.Start(ctx, "Index.RemoveProject")
	defer span.End()
	span.SetAttributes(attribute.String("project_id", projectID))

	if err := ix.coll.Delete(ctx, map[string]string{"project_id": projectID}, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("removing project from index: %w", err)
	}
	span.SetStatus(codes.Ok, "success")
	return nil
}

// Len reports the number of indexed chunks.
func (ix *Index) Len() int {
	return ix.coll.Count()
}
