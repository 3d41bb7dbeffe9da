// Package api exposes the HTTP surface: pipeline runs with progress
// streaming, signal reads, usage introspection, and ops endpoints.
package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
	"CrowdPulse/internal/pipeline"
	"CrowdPulse/internal/service/cache"
	"CrowdPulse/internal/usage"
	"CrowdPulse/pkg/logger"
)

// Handler wires the API routes to the pipeline and stores.
type Handler struct {
	orch       *pipeline.Orchestrator
	posts      repository.PostStore
	sentiments repository.SentimentStore
	markets    repository.MarketStore
	signals    repository.SignalStore
	ledger     *usage.Ledger
	mode       models.DataMode
	log        *logger.Logger
	sigCache   *cache.TTL[[]models.DivergenceSignal]
}

// NewHandler creates the API handler.
func NewHandler(
	orch *pipeline.Orchestrator,
	posts repository.PostStore,
	sentiments repository.SentimentStore,
	markets repository.MarketStore,
	signals repository.SignalStore,
	ledger *usage.Ledger,
	mode models.DataMode,
	log *logger.Logger,
) *Handler {
	return &Handler{
		orch:       orch,
		posts:      posts,
		sentiments: sentiments,
		markets:    markets,
		signals:    signals,
		ledger:     ledger,
		mode:       mode,
		log:        log,
		sigCache:   cache.NewTTL[[]models.DivergenceSignal](30 * time.Second),
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")

	v1.GET("/health", h.health)
	v1.GET("/stats", h.stats)

	v1.POST("/pipeline/run", h.runPipeline)
	v1.GET("/pipeline/run/stream", h.runPipelineSSE)
	v1.GET("/pipeline/ws", h.runPipelineWS)

	v1.GET("/signals", h.latestSignals)
	v1.GET("/signals/history", h.signalHistory)

	v1.GET("/usage", h.usageSummary)
	v1.POST("/usage/reset", h.resetUsage)

	v1.GET("/logs", h.recentLogs)
}
