package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/analyzer"
	"github.com/inkwell-labs/draftd/internal/chunk"
	"github.com/inkwell-labs/draftd/internal/config"
	"github.com/inkwell-labs/draftd/internal/logging"
	"github.com/inkwell-labs/draftd/internal/persist"
	"github.com/inkwell-labs/draftd/internal/provider"
	"github.com/inkwell-labs/draftd/internal/retrieval"
	"github.com/inkwell-labs/draftd/internal/server"
	"github.com/inkwell-labs/draftd/internal/service"
)

// runServe initializes all dependencies and blocks until a shutdown signal.
//
//  1. Loads and validates configuration
//  2. Initializes the logger
//  3. Builds the embedding/completion collaborators (optional)
//  4. Wires store, analyzer, index, engine, and persistence
//  5. Restores the last snapshot
//  6. Starts the HTTP server and snapshots on shutdown
func runServe(ctx context.Context) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting draftd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("provider_configured", cfg.Provider.Model != ""),
	)

	embedder, completer, err := buildProviders(cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing providers: %w", err)
	}

	store := chunk.NewStore(logger)
	dedup := chunk.NewDeduplicator(store, logger)

	cache := analyzer.NewCache(cfg.Analysis.CacheCapacity)
	analysis := analyzer.NewService(completer, cache, logger)

	var index *retrieval.Index
	if embedder != nil {
		index, err = retrieval.NewIndex(embedder, logger)
		if err != nil {
			return fmt.Errorf("initializing vector index: %w", err)
		}
	}

	searchMetrics := retrieval.NewMetrics(prometheus.DefaultRegisterer)
	engine := retrieval.NewEngine(store, index, embedder, completer, searchMetrics, logger)

	adapter, err := persist.NewAdapter(cfg.Persistence.Dir, logger)
	if err != nil {
		return fmt.Errorf("initializing persistence: %w", err)
	}

	svc := service.New(service.Config{
		Store:      store,
		Dedup:      dedup,
		Analyzer:   analysis,
		Engine:     engine,
		Index:      index,
		Persist:    adapter,
		Contexts:   provider.NewMemoryContextStore(),
		Metrics:    service.NewMetrics(prometheus.DefaultRegisterer),
		Logger:     logger,
		ChunkWords: cfg.Analysis.ChunkWords,
	})

	restored := svc.Restore(ctx)
	logger.Info("restored snapshot", zap.Int("chunks", restored))

	srv, err := server.NewServer(svc, logger, &server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sigCtx.Done():
	}

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", zap.Error(err))
	}

	svc.Snapshot()
	logger.Info("shutdown complete")
	return nil
}

// buildProviders creates the rate-limited embedding and completion
// collaborators. Both are nil when no model is configured; the service then
// runs rule-based analysis and lexical search only.
func buildProviders(cfg *config.Config, logger *zap.Logger) (provider.Embedder, provider.Completer, error) {
	if cfg.Provider.Model == "" {
		logger.Info("no provider model configured, running in rule-based mode")
		return nil, nil, nil
	}

	opts := []openai.Option{
		openai.WithModel(cfg.Provider.Model),
	}
	if cfg.Provider.APIKey.IsSet() {
		opts = append(opts, openai.WithToken(cfg.Provider.APIKey.Value()))
	}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.Provider.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating openai client: %w", err)
	}

	langEmbedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	embedder, err := provider.NewLangchainEmbedder(langEmbedder)
	if err != nil {
		return nil, nil, err
	}
	completer, err := provider.NewLangchainCompleter(llm)
	if err != nil {
		return nil, nil, err
	}

	return provider.NewRateLimitedEmbedder(embedder, cfg.Provider.RPS, cfg.Provider.Burst),
		provider.NewRateLimitedCompleter(completer, cfg.Provider.RPS, cfg.Provider.Burst),
		nil
}
