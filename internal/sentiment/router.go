package sentiment

import (
	"context"
	"time"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
	"CrowdPulse/internal/domain/service"
	"CrowdPulse/pkg/logger"
)

const geminiService = "gemini"

// quotaRecorder is the slice of the usage ledger the router needs.
type quotaRecorder interface {
	TryRecord(service string, amount int, callerID string) bool
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithRetries overrides the retry policy.
func WithRetries(max int, backoffBase time.Duration) RouterOption {
	return func(r *Router) {
		r.maxRetries = max
		r.backoffBase = backoffBase
	}
}

// WithRouterMetrics publishes scored and error counters.
func WithRouterMetrics(m repository.Metrics) RouterOption {
	return func(r *Router) { r.metrics = m }
}

// Router partitions each batch by language. Hinglish texts go to the primary
// while its quota holds and its replies honor the batch contract; English
// texts always go to the fallback, which handles them well without spending
// external quota. A failed or quota-blocked primary downgrades its share of
// the batch to the fallback; when the fallback fails too, the affected items
// degrade to neutral results so scoring never blocks the pipeline.
type Router struct {
	primary     service.SentimentScorer // nil when unconfigured
	fallback    service.SentimentScorer
	quota       quotaRecorder
	log         *logger.Logger
	metrics     repository.Metrics
	maxRetries  int
	backoffBase time.Duration
}

// NewRouter creates the scorer router. primary may be nil.
func NewRouter(primary, fallback service.SentimentScorer, quota quotaRecorder, log *logger.Logger, opts ...RouterOption) *Router {
	r := &Router{
		primary:     primary,
		fallback:    fallback,
		quota:       quota,
		log:         log,
		metrics:     repository.NopMetrics{},
		maxRetries:  3,
		backoffBase: time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Name() string { return "router" }

// ScoreBatch scores one batch. The returned slice is always the same length
// as texts and in the same order; the error is always nil because failure
// degrades rather than propagates.
func (r *Router) ScoreBatch(ctx context.Context, texts []string) ([]models.ScoreResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([]models.ScoreResult, len(texts))

	var mixedIdx, plainIdx []int
	for i, text := range texts {
		if r.primary != nil && ClassifyLanguage(text) == LangHinglish {
			mixedIdx = append(mixedIdx, i)
		} else {
			plainIdx = append(plainIdx, i)
		}
	}

	if len(mixedIdx) > 0 {
		scored := false
		// one ledger unit per primary sub-batch, checked and recorded
		// atomically
		if r.quota.TryRecord(geminiService, 1, "") {
			if res, err := r.scoreWith(ctx, r.primary, pick(texts, mixedIdx)); err == nil {
				place(out, mixedIdx, res)
				r.metrics.RecordScored(r.primary.Name(), len(res))
				scored = true
			} else {
				r.log.Warn("primary scorer failed, downgrading to fallback",
					logger.String("scorer", r.primary.Name()),
					logger.Int("texts", len(mixedIdx)),
					logger.Error(err))
				r.metrics.RecordError("scorer_primary")
			}
		} else {
			r.log.Warn("primary scorer quota exhausted, downgrading to fallback",
				logger.Int("texts", len(mixedIdx)))
		}
		if !scored {
			plainIdx = append(plainIdx, mixedIdx...)
		}
	}

	if len(plainIdx) > 0 {
		if res, err := r.scoreWith(ctx, r.fallback, pick(texts, plainIdx)); err == nil {
			place(out, plainIdx, res)
			r.metrics.RecordScored(r.fallback.Name(), len(res))
		} else {
			r.log.Error("fallback scorer failed, degrading",
				logger.Int("texts", len(plainIdx)),
				logger.Error(err))
			r.metrics.RecordError("scorer_fallback")
			place(out, plainIdx, degradedResults(len(plainIdx)))
			r.metrics.RecordScored("degraded", len(plainIdx))
		}
	}
	return out, nil
}

// pick gathers the texts at the given indices into a sub-batch.
func pick(texts []string, idx []int) []string {
	sub := make([]string, len(idx))
	for i, j := range idx {
		sub[i] = texts[j]
	}
	return sub
}

// place scatters sub-batch results back to their original positions.
func place(out []models.ScoreResult, idx []int, res []models.ScoreResult) {
	for i, j := range idx {
		out[j] = res[i]
	}
}

// scoreWith retries a scorer with exponential backoff. Transport failures and
// contract violations are retried alike.
func (r *Router) scoreWith(ctx context.Context, scorer service.SentimentScorer, texts []string) ([]models.ScoreResult, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, r.backoffBase<<(attempt-1)); err != nil {
				return nil, err
			}
		}
		out, err := scorer.ScoreBatch(ctx, texts)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func degradedResults(n int) []models.ScoreResult {
	out := make([]models.ScoreResult, n)
	for i := range out {
		out[i] = models.ScoreResult{Label: models.LabelNeutral, Confidence: 0, Scorer: "degraded"}
	}
	return out
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
