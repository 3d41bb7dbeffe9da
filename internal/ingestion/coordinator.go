// Package ingestion coordinates collection across sources. Sources are
// isolated from each other: a collector failure is reported in its result
// row and never blocks the remaining sources.
package ingestion

import (
	"context"
	"time"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
	"CrowdPulse/internal/domain/service"
	"CrowdPulse/pkg/logger"
)

// quota is the slice of the usage ledger the coordinator needs.
type quota interface {
	TryRecord(service string, amount int, callerID string) bool
	IsBlocked(service, callerID string) bool
}

// Coordinator runs every configured collector and persists what comes back
// after two-phase dedup: batch-local first, then against the store.
type Coordinator struct {
	collectors []service.SourceCollector
	units      map[models.SourceKind][]string
	posts      repository.PostStore
	quota      quota
	log        *logger.Logger
	metrics    repository.Metrics
	mode       models.DataMode
	now        func() time.Time
}

// Option configures the coordinator.
type Option func(*Coordinator)

// WithMetrics publishes ingestion counters.
func WithMetrics(m repository.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator creates the ingestion coordinator.
func NewCoordinator(
	collectors []service.SourceCollector,
	units map[models.SourceKind][]string,
	posts repository.PostStore,
	q quota,
	mode models.DataMode,
	log *logger.Logger,
	opts ...Option,
) *Coordinator {
	c := &Coordinator{
		collectors: collectors,
		units:      units,
		posts:      posts,
		quota:      q,
		log:        log,
		metrics:    repository.NopMetrics{},
		mode:       mode,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run ingests every source in order and returns one result row per source.
func (c *Coordinator) Run(ctx context.Context) []models.IngestResult {
	results := make([]models.IngestResult, 0, len(c.collectors))
	for _, col := range c.collectors {
		results = append(results, c.runSource(ctx, col))
	}
	return results
}

// Ingest runs a single source by kind. Unknown kinds come back as
// not-configured.
func (c *Coordinator) Ingest(ctx context.Context, kind models.SourceKind) models.IngestResult {
	for _, col := range c.collectors {
		if col.Kind() == kind {
			return c.runSource(ctx, col)
		}
	}
	return models.IngestResult{Source: kind, Reason: models.SkipNotConfigured}
}

func (c *Coordinator) runSource(ctx context.Context, col service.SourceCollector) models.IngestResult {
	kind := col.Kind()
	res := models.IngestResult{Source: kind}

	units := c.units[kind]
	if len(units) == 0 {
		res.Reason = models.SkipNotConfigured
		c.log.Info("source not configured, skipping", logger.String("source", string(kind)))
		return res
	}

	svc := string(kind)
	if c.quota.IsBlocked(svc, "") {
		res.Reason = models.SkipQuotaExceeded
		c.log.Warn("source quota exhausted, skipping", logger.String("source", string(kind)))
		return res
	}

	// the gate burns one quota unit per channel/video/query/subreddit
	gate := func() bool { return c.quota.TryRecord(svc, 1, "") }

	candidates, err := col.Fetch(ctx, units, gate)
	if err != nil {
		res.Reason = models.SkipTransportError
		res.Err = err.Error()
		c.metrics.RecordError("collector_" + svc)
		c.log.Error("collector failed",
			logger.String("source", string(kind)),
			logger.Error(err))
		return res
	}

	res.Stored, res.Skipped = c.persist(ctx, kind, candidates)
	c.metrics.RecordPostsIngested(svc, res.Stored)
	c.metrics.RecordPostsSkipped(svc, res.Skipped)
	c.log.Info("source ingested",
		logger.String("source", string(kind)),
		logger.Int("stored", res.Stored),
		logger.Int("skipped", res.Skipped))
	return res
}

// persist stores candidates with per-record isolation: a failed insert is
// logged and skipped without touching the rest of the batch.
func (c *Coordinator) persist(ctx context.Context, kind models.SourceKind, candidates []models.RawPostCandidate) (stored, skipped int) {
	if len(candidates) == 0 {
		return 0, 0
	}

	ids := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		ids = append(ids, cand.SourceID)
	}
	existing, err := c.posts.ExistingSourceIDs(ctx, ids)
	if err != nil {
		c.log.Error("dedup lookup failed, relying on unique index",
			logger.String("source", string(kind)),
			logger.Error(err))
		existing = map[string]bool{}
	}

	seen := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		if existing[cand.SourceID] || seen[cand.SourceID] {
			skipped++
			continue
		}
		seen[cand.SourceID] = true

		post := &models.SocialPost{
			Source:     cand.Source,
			SourceID:   cand.SourceID,
			RawText:    cand.Text,
			Author:     cand.Author,
			PostedAt:   cand.PostedAt.UTC(),
			IngestedAt: c.now().UTC(),
			DataSource: c.mode,
		}
		if err := c.posts.Insert(ctx, post); err != nil {
			skipped++
			c.metrics.RecordError("post_insert")
			c.log.Warn("post insert failed",
				logger.String("source_id", cand.SourceID),
				logger.Error(err))
			continue
		}
		stored++
	}
	return stored, skipped
}
