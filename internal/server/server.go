// Package server provides the HTTP API for draftd.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/inkwell-labs/draftd/internal/chunk"
	"github.com/inkwell-labs/draftd/internal/retrieval"
	"github.com/inkwell-labs/draftd/internal/service"
)

// Server provides HTTP endpoints for draftd.
type Server struct {
	echo    *echo.Echo
	service *service.Service
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(svc *service.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8380,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		service: svc,
		logger:  logger,
		config:  cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/projects/:id/documents", s.handleIngest)
	v1.POST("/search", s.handleSearch)
	v1.GET("/projects/:id/stats", s.handleStats)
	v1.DELETE("/projects/:id", s.handleDeleteProject)
}

// IngestRequest is the request body for POST /api/v1/projects/:id/documents.
type IngestRequest struct {
	Content     string `json:"content"`
	UserID      string `json:"user_id,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// SearchRequest is the request body for POST /api/v1/search.
type SearchRequest struct {
	Query          string               `json:"query"`
	ProjectID      string               `json:"project_id,omitempty"`
	UserID         string               `json:"user_id,omitempty"`
	ContentTypes   []chunk.ContentType  `json:"content_types,omitempty"`
	Themes         []string             `json:"themes,omitempty"`
	Characters     []string             `json:"characters,omitempty"`
	TimeRange      *retrieval.TimeRange `json:"time_range,omitempty"`
	MinImportance  float64              `json:"min_importance,omitempty"`
	Limit          int                  `json:"limit,omitempty"`
	IncludeContext *bool                `json:"include_context,omitempty"`
}

// DeleteResponse is the response body for DELETE /api/v1/projects/:id.
type DeleteResponse struct {
	ProjectID     string `json:"project_id"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Chunks    int    `json:"chunks"`
	AIEnabled bool   `json:"ai_enabled"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Chunks:    s.service.ChunkCount(),
		AIEnabled: s.service.AIEnabled(),
	})
}

// handleIngest accepts a document for chunking and analysis.
func (s *Server) handleIngest(c echo.Context) error {
	projectID := c.Param("id")

	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid ingest request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.service.Ingest(c.Request().Context(), projectID, req.Content, service.IngestMetadata{
		UserID:      req.UserID,
		ContentType: chunk.ContentType(req.ContentType),
	})
	if err != nil {
		if errors.Is(err, chunk.ErrEmptyContent) || errors.Is(err, chunk.ErrEmptyProjectID) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("ingest failed", zap.String("project_id", projectID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "ingest failed")
	}

	return c.JSON(http.StatusCreated, result)
}

// handleSearch runs a retrieval query.
func (s *Server) handleSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid search request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	opts := retrieval.Options{
		ProjectID:      req.ProjectID,
		UserID:         req.UserID,
		ContentTypes:   req.ContentTypes,
		Themes:         req.Themes,
		Characters:     req.Characters,
		TimeRange:      req.TimeRange,
		MinImportance:  req.MinImportance,
		Limit:          req.Limit,
		IncludeContext: req.IncludeContext == nil || *req.IncludeContext,
	}

	result, err := s.service.Search(c.Request().Context(), req.Query, opts)
	if err != nil {
		if errors.Is(err, retrieval.ErrEmptyQuery) || errors.Is(err, retrieval.ErrInvalidOptions) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		s.logger.Error("search failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, result)
}

// handleStats returns aggregate counts for a project.
func (s *Server) handleStats(c echo.Context) error {
	projectID := c.Param("id")
	return c.JSON(http.StatusOK, s.service.Stats(projectID))
}

// handleDeleteProject removes all chunks for a project.
func (s *Server) handleDeleteProject(c echo.Context) error {
	projectID := c.Param("id")
	removed := s.service.DeleteProject(c.Request().Context(), projectID)
	return c.JSON(http.StatusOK, DeleteResponse{
		ProjectID:     projectID,
		ChunksRemoved: removed,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
