package analyzer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/provider"
)

var serviceTracer = otel.Tracer("draftd.analyzer")

// Service runs the ordered strategy chain with cache-checked memoization.
// The last strategy in the chain is total, so Analyze never returns an error
// for non-empty input; provider failures degrade quality, not correctness.
type Service struct {
	chain  []Analyzer
	cache  *Cache
	logger *zap.Logger
}

// NewService builds the analyzer service. completer may be nil, in which
// case only the rule-based strategy runs.
func NewService(completer provider.Completer, cache *Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewCache(0)
	}

	var chain []Analyzer
	if completer != nil {
		chain = append(chain, NewLLMAnalyzer(completer, logger.Named("llm")))
	}
	chain = append(chain, NewRuleAnalyzer())

	return &Service{chain: chain, cache: cache, logger: logger}
}

// Analyze extracts signals from content, consulting the cache first.
// projectCtx may be nil. Empty content yields an empty result.
func (s *Service) Analyze(ctx context.Context, projectID, content string, projectCtx *provider.ProjectContext) Result {
	ctx, span := serviceTracer.Start(ctx, "Service.Analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("project_id", projectID),
		attribute.Int("content_len", len(content)),
	)

	if content == "" {
		span.SetStatus(codes.Ok, "empty input")
		return EmptyResult()
	}

	key := Key(projectID, content)
	if res, ok := s.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		span.SetStatus(codes.Ok, "cache hit")
		return res
	}

	var res Result
	for _, a := range s.chain {
		var err error
		res, err = a.Analyze(ctx, content, projectCtx)
		if err == nil {
			span.SetAttributes(attribute.String("strategy", a.Name()))
			break
		}
		span.RecordError(err)
		s.logger.Debug("extraction strategy failed, falling through",
			zap.String("strategy", a.Name()),
			zap.Error(err),
		)
	}

	s.cache.Put(key, projectID, res)
	span.SetStatus(codes.Ok, "success")
	return res
}

// InvalidateProject drops cached analyses for a deleted project.
func (s *Service) InvalidateProject(projectID string) {
	s.cache.InvalidateProject(projectID)
}

// CacheLen reports the current cache size, for stats and tests.
func (s *Service) CacheLen() int {
	return s.cache.Len()
}
