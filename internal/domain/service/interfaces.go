package service

import (
	"context"
	"time"

	"CrowdPulse/internal/domain/models"
)

// QuotaGate is consulted by a collector before each unit of work (channel,
// video, query, subreddit). It returns false once the daily quota for the
// collector's service is exhausted; the collector must then stop issuing
// external calls and return what it already has.
type QuotaGate func() bool

// SourceCollector fetches raw post candidates from one external source.
// Implementations live at the edge; the core only sees this interface.
type SourceCollector interface {
	Kind() models.SourceKind
	Fetch(ctx context.Context, units []string, gate QuotaGate) ([]models.RawPostCandidate, error)
}

// SentimentScorer scores a batch of texts. Output is order-preserving and
// same-length by contract; violations are handled by the router's
// retry/degrade policy.
type SentimentScorer interface {
	Name() string
	ScoreBatch(ctx context.Context, texts []string) ([]models.ScoreResult, error)
}

// MarketFetcher retrieves daily bars for the configured symbols.
type MarketFetcher interface {
	FetchBars(ctx context.Context, symbols []string, lookback time.Duration) ([]models.MarketBar, error)
}

// SignalPublisher pushes computed signals to an external bus. Optional.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, sig *models.DivergenceSignal) error
}
