package repository

import (
	"context"
	"time"

	"CrowdPulse/internal/domain/models"
)

// PostStore persists raw social posts. The ingestion coordinator is the sole
// writer; scoring may backfill symbol and cleaned text once.
type PostStore interface {
	Insert(ctx context.Context, post *models.SocialPost) error
	ExistingSourceIDs(ctx context.Context, sourceIDs []string) (map[string]bool, error)
	Unscored(ctx context.Context, mode models.DataMode, limit int) ([]models.SocialPost, error)
	BackfillEnrichment(ctx context.Context, postID uint, symbol, cleanedText string) error
	Count(ctx context.Context) (int64, error)
}

// SentimentStore persists scored sentiment, one record per post.
type SentimentStore interface {
	Insert(ctx context.Context, rec *models.SentimentRecord) error
	InWindow(ctx context.Context, symbol string, since time.Time, mode models.DataMode) ([]models.SentimentRecord, error)
	Count(ctx context.Context) (int64, error)
}

// MarketStore persists daily market bars, upserted by symbol and date.
type MarketStore interface {
	Upsert(ctx context.Context, bar *models.MarketBar) error
	Since(ctx context.Context, symbol string, since time.Time) ([]models.MarketBar, error)
	Count(ctx context.Context) (int64, error)
}

// SignalStore persists computed divergence signals, append-only.
type SignalStore interface {
	Insert(ctx context.Context, sig *models.DivergenceSignal) error
	LatestPerSymbol(ctx context.Context, mode models.DataMode) ([]models.DivergenceSignal, error)
	History(ctx context.Context, symbol string, limit int) ([]models.DivergenceSignal, error)
	Count(ctx context.Context) (int64, error)
}

// UsageLogStore appends audit rows for recorded/blocked external calls.
// Best-effort: the ledger stays authoritative even if an append fails.
type UsageLogStore interface {
	Append(ctx context.Context, entry *models.UsageLogEntry) error
}

// Metrics abstracts the metrics backend.
type Metrics interface {
	RecordPostsIngested(source string, n int)
	RecordPostsSkipped(source string, n int)
	RecordQuotaBlocked(service string)
	RecordScored(scorer string, n int)
	RecordSignal(direction string)
	RecordError(kind string)
	RecordStageDuration(stage string, seconds float64)
	RecordUsagePercent(scopeKey string, pct float64)
}

// NopMetrics discards all measurements. Used where metrics are optional and
// in tests.
type NopMetrics struct{}

func (NopMetrics) RecordPostsIngested(string, int)     {}
func (NopMetrics) RecordPostsSkipped(string, int)      {}
func (NopMetrics) RecordQuotaBlocked(string)           {}
func (NopMetrics) RecordScored(string, int)            {}
func (NopMetrics) RecordSignal(string)                 {}
func (NopMetrics) RecordError(string)                  {}
func (NopMetrics) RecordStageDuration(string, float64) {}
func (NopMetrics) RecordUsagePercent(string, float64)  {}
