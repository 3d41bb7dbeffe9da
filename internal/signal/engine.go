package signal

import (
	"context"
	"fmt"
	"time"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
	"CrowdPulse/internal/domain/service"
	"CrowdPulse/pkg/logger"
	"CrowdPulse/pkg/util"
)

// minPostsForSignal is the emission gate: below this, no signal row is
// produced at all rather than a low-confidence one.
const minPostsForSignal = 2

// Params tunes the engine.
type Params struct {
	Lookback       time.Duration
	VelocityWindow time.Duration
	IdealPosts     int
}

// Engine computes and persists one divergence signal per symbol per cycle.
type Engine struct {
	sentiments repository.SentimentStore
	markets    repository.MarketStore
	signals    repository.SignalStore
	publisher  service.SignalPublisher // nil when publishing is disabled
	params     Params
	mode       models.DataMode
	log        *logger.Logger
	metrics    repository.Metrics
	now        func() time.Time
}

// Option configures the engine.
type Option func(*Engine)

// WithPublisher pushes each stored signal to the bus as well.
func WithPublisher(p service.SignalPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics publishes signal counters.
func WithMetrics(m repository.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates the signal engine.
func NewEngine(
	sentiments repository.SentimentStore,
	markets repository.MarketStore,
	signals repository.SignalStore,
	params Params,
	mode models.DataMode,
	log *logger.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		sentiments: sentiments,
		markets:    markets,
		signals:    signals,
		params:     params,
		mode:       mode,
		log:        log,
		metrics:    repository.NopMetrics{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeAll computes signals for every symbol. Symbols below the emission
// gate are skipped silently; per-symbol store errors are logged and do not
// stop the remaining symbols.
func (e *Engine) ComputeAll(ctx context.Context, symbols []string) ([]models.DivergenceSignal, error) {
	out := make([]models.DivergenceSignal, 0, len(symbols))
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		sig, err := e.ComputeSymbol(ctx, symbol)
		if err != nil {
			e.log.Error("signal computation failed",
				logger.String("symbol", symbol),
				logger.Error(err))
			e.metrics.RecordError("signal_compute")
			continue
		}
		if sig != nil {
			out = append(out, *sig)
		}
	}
	return out, nil
}

// ComputeSymbol computes, stores, and optionally publishes one signal.
// Returns (nil, nil) when the symbol is below the emission gate.
func (e *Engine) ComputeSymbol(ctx context.Context, symbol string) (*models.DivergenceSignal, error) {
	now := e.now().UTC()
	since := now.Add(-e.params.Lookback)

	recs, err := e.sentiments.InWindow(ctx, symbol, since, e.mode)
	if err != nil {
		return nil, fmt.Errorf("load sentiment window: %w", err)
	}
	if len(recs) < minPostsForSignal {
		e.log.Debug("below emission gate, no signal",
			logger.String("symbol", symbol),
			logger.Int("posts", len(recs)))
		return nil, nil
	}

	// divergence runs over daily series, so look further back than the
	// sentiment window to get enough overlapping days
	bars, err := e.markets.Since(ctx, symbol, util.TruncateDay(now.AddDate(0, 0, -14)))
	if err != nil {
		return nil, fmt.Errorf("load market bars: %w", err)
	}

	vals := make([]float64, len(recs))
	discussion := make(map[string]int)
	for i, rec := range recs {
		vals[i] = scoreValue(rec)
		discussion[util.DayKey(rec.ObservedAt)]++
	}

	// days without a delivery figure are excluded outright: total volume is
	// a different unit and mixing it in would fabricate divergence
	delivery := make(map[string]int64)
	for _, bar := range bars {
		if bar.DeliveryVolume == nil {
			continue
		}
		delivery[util.DayKey(bar.Date)] = *bar.DeliveryVolume
	}

	divScore, ok := Divergence(discussion, delivery)
	if !ok {
		e.log.Debug("too few overlapping days, no signal",
			logger.String("symbol", symbol),
			logger.Int("posts", len(recs)))
		return nil, nil
	}
	direction := Classify(divScore)

	certainty := ModelCertainty(recs)
	sufficiency := DataSufficiency(len(recs), e.params.IdealPosts)
	consistency := SignalConsistency(recs)

	sig := &models.DivergenceSignal{
		Symbol:            symbol,
		Timestamp:         now,
		SentimentAvg:      mean(vals),
		DiscussionVolume:  len(recs),
		SentimentVelocity: Velocity(recs, e.params.VelocityWindow),
		VelocityWindowMin: int(e.params.VelocityWindow.Minutes()),
		DivergenceScore:   divScore,
		Direction:         direction,
		Confidence:        Confidence(certainty, sufficiency, consistency),
		ModelCertainty:    certainty,
		DataSufficiency:   sufficiency,
		SignalConsistency: consistency,
		DataSource:        e.mode,
	}

	if err := e.signals.Insert(ctx, sig); err != nil {
		return nil, fmt.Errorf("store signal: %w", err)
	}
	e.metrics.RecordSignal(string(direction))

	if e.publisher != nil {
		if err := e.publisher.PublishSignal(ctx, sig); err != nil {
			// the stored row is the source of truth, the bus is best effort
			e.log.Warn("signal publish failed",
				logger.String("symbol", symbol),
				logger.Error(err))
			e.metrics.RecordError("signal_publish")
		}
	}

	e.log.Info("signal computed",
		logger.String("symbol", symbol),
		logger.String("direction", string(direction)),
		logger.Float64("divergence", divScore),
		logger.Float64("confidence", sig.Confidence))
	return sig, nil
}
