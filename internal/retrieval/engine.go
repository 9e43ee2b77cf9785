package retrieval

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/chunk"
	"github.com/inkwell-labs/draftd/internal/provider"
)

var engineTracer = otel.Tracer("draftd.retrieval.engine")

// Engine executes queries over the chunk store. Strategy selection happens
// per call: the vector path runs when the embedding collaborator is
// configured and its first call succeeds; rate limiting, unavailability or
// any other provider failure selects the lexical fallback for that call
// only, so transient failures never disable semantic search for the process
// lifetime.
type Engine struct {
	store     *chunk.Store
	index     *Index
	embedder  provider.Embedder
	completer provider.Completer
	metrics   *Metrics
	logger    *zap.Logger
}

// NewEngine creates a retrieval engine. index, embedder, completer and
// metrics may each be nil; a nil embedder or index pins every search to the
// lexical path.
func NewEngine(store *chunk.Store, index *Index, embedder provider.Embedder, completer provider.Completer, metrics *Metrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:     store,
		index:     index,
		embedder:  embedder,
		completer: completer,
		metrics:   metrics,
		logger:    logger,
	}
}

// Search runs a query with the given options. It fails only on an empty
// query or structurally invalid options; provider failures degrade to the
// lexical path.
func (e *Engine) Search(ctx context.Context, query string, opts Options) (*Result, error) {
	ctx, span := engineTracer.Start(ctx, "Engine.Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		span.SetStatus(codes.Error, ErrEmptyQuery.Error())
		return nil, ErrEmptyQuery
	}
	if err := opts.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	opts.applyDefaults()

	span.SetAttributes(
		attribute.String("project_id", opts.ProjectID),
		attribute.Int("limit", opts.Limit),
	)

	var res *Result
	if e.embedder == nil || e.index == nil {
		res = e.searchLexicalPath(query, opts, "embedding collaborator not configured")
	} else {
		var reason string
		res, reason = e.searchVectorPath(ctx, query, opts)
		if res == nil {
			e.metrics.observeFallback()
			res = e.searchLexicalPath(query, opts, reason)
		}
	}

	e.metrics.observeSearch(res.Summary.SearchStrategy, res.Summary.TotalResults)
	span.SetAttributes(
		attribute.String("strategy", res.Summary.SearchStrategy),
		attribute.Int("results", res.Summary.TotalResults),
	)
	span.SetStatus(codes.Ok, "success")
	return res, nil
}

// searchVectorPath runs oversampled similarity search, filtering, optional
// query classification, AI re-ranking and context enrichment. A nil result
// with a reason means the caller should take the lexical path.
func (e *Engine) searchVectorPath(ctx context.Context, query string, opts Options) (*Result, string) {
	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		err = provider.ClassifyError(err)
		e.logger.Warn("query embedding failed, taking lexical path",
			zap.Error(err),
			zap.Bool("rate_limited", provider.IsRateLimited(err)),
		)
		return nil, "embedding failed"
	}

	k := opts.Limit * oversampleFactor
	if k < oversampleFloor {
		k = oversampleFloor
	}
	hits, err := e.index.Query(ctx, queryVec, k)
	if err != nil {
		e.logger.Warn("index query failed, taking lexical path", zap.Error(err))
		return nil, "index query failed"
	}

	// Hard project boundary plus the conjunctive option filters.
	var cands []candidate
	for _, hit := range hits {
		c, ok := e.store.ByID(hit.ChunkID)
		if !ok {
			continue
		}
		if opts.ProjectID != "" && c.ProjectID != opts.ProjectID {
			continue
		}
		if !matchesOptions(c, opts) {
			continue
		}
		cands = append(cands, candidate{
			chunk:      ScoredChunk{Chunk: c},
			sampleRank: hit.Rank,
		})
	}

	qa := classifyQuery(ctx, e.completer, query, e.logger)
	if qa.Type != queryGeneral {
		kept := cands[:0]
		for _, c := range cands {
			if typeAgrees(c.chunk.ContentType, qa.Type) {
				kept = append(kept, c)
			}
		}
		cands = kept
	}

	scorer := &relevanceScorer{completer: e.completer, logger: e.logger}
	ranked := scorer.scoreAll(ctx, query, cands)

	terms := queryTerms(query)
	for _, kw := range qa.Keywords {
		if len(kw) >= minTermLen {
			terms = append(terms, strings.ToLower(kw))
		}
	}

	chunks := make([]ScoredChunk, 0, opts.Limit)
	projectCache := make(map[string][]chunk.Chunk)
	for _, r := range ranked {
		if len(chunks) >= opts.Limit {
			break
		}
		sc := r.candidate.chunk
		sc.Relevance = r.relevance
		if opts.IncludeContext {
			siblings, ok := projectCache[sc.ProjectID]
			if !ok {
				siblings = e.store.ByProject(sc.ProjectID)
				projectCache[sc.ProjectID] = siblings
			}
			enrich(&sc, terms, siblings)
		}
		chunks = append(chunks, sc)
	}

	chars, themes := aggregateInsights(chunks)
	return &Result{
		Chunks: chunks,
		Insights: Insights{
			QueryType:  qa.Type,
			Keywords:   qa.Keywords,
			Characters: chars,
			Themes:     themes,
		},
		Summary: buildSummary(chunks, StrategyVector),
	}, ""
}

// searchLexicalPath runs the deterministic fallback over the chunk store.
// Its insights are limited to aggregation plus a note naming the strategy:
// the engine never claims AI-ranked relevance it did not perform.
func (e *Engine) searchLexicalPath(query string, opts Options, reason string) *Result {
	var cands []chunk.Chunk
	if opts.ProjectID != "" {
		cands = e.store.ByProject(opts.ProjectID)
	} else {
		cands = e.store.All()
	}

	filtered := cands[:0]
	for _, c := range cands {
		if matchesOptions(c, opts) {
			filtered = append(filtered, c)
		}
	}

	chunks := searchLexical(filtered, query, opts.Limit)

	chars, themes := aggregateInsights(chunks)
	return &Result{
		Chunks: chunks,
		Insights: Insights{
			Characters: chars,
			Themes:     themes,
			Notes: []string{
				"results ranked by keyword matching (" + reason + "); AI relevance ranking was not performed",
			},
		},
		Summary: buildSummary(chunks, StrategyLexical),
	}
}
