package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
	"CrowdPulse/internal/domain/service"
	"CrowdPulse/internal/sentiment"
	"CrowdPulse/pkg/logger"
)

// ErrRunInProgress is returned when a run is requested while another is
// active. One run at a time per process.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// ingestor runs collection across all sources.
type ingestor interface {
	Run(ctx context.Context) []models.IngestResult
}

// signalComputer computes signals for the given symbols.
type signalComputer interface {
	ComputeAll(ctx context.Context, symbols []string) ([]models.DivergenceSignal, error)
}

// RunSummary is the final report of one pipeline run.
type RunSummary struct {
	Mode         models.DataMode           `json:"mode"`
	StartedAt    time.Time                 `json:"started_at"`
	FinishedAt   time.Time                 `json:"finished_at"`
	Ingest       []models.IngestResult     `json:"ingest"`
	BarsUpserted int                       `json:"bars_upserted"`
	PostsScored  int                       `json:"posts_scored"`
	Signals      []models.DivergenceSignal `json:"signals"`
	Errors       []string                  `json:"errors,omitempty"`
}

// Params tunes the orchestrator.
type Params struct {
	Symbols        []string
	Mode           models.DataMode
	MarketLookback time.Duration
	ScoreBatchSize int
	ScoreLimit     int
}

// Orchestrator drives one pipeline cycle stage by stage. A stage failure is
// recorded and the run moves on: a dead source or a down scorer must still
// produce a terminal done event with whatever data survived.
type Orchestrator struct {
	mu sync.Mutex

	ingest     ingestor
	fetcher    service.MarketFetcher
	markets    repository.MarketStore
	posts      repository.PostStore
	sentiments repository.SentimentStore
	scorer     service.SentimentScorer
	engine     signalComputer
	params     Params
	log        *logger.Logger
	metrics    repository.Metrics
	now        func() time.Time
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithMetrics publishes stage durations.
func WithMetrics(m repository.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates the pipeline orchestrator.
func NewOrchestrator(
	ingest ingestor,
	fetcher service.MarketFetcher,
	markets repository.MarketStore,
	posts repository.PostStore,
	sentiments repository.SentimentStore,
	scorer service.SentimentScorer,
	engine signalComputer,
	params Params,
	log *logger.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		ingest:     ingest,
		fetcher:    fetcher,
		markets:    markets,
		posts:      posts,
		sentiments: sentiments,
		scorer:     scorer,
		engine:     engine,
		params:     params,
		log:        log,
		metrics:    repository.NopMetrics{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Running reports whether a run is currently active. Advisory only: Run
// itself is the arbiter.
func (o *Orchestrator) Running() bool {
	if o.mu.TryLock() {
		o.mu.Unlock()
		return false
	}
	return true
}

// Run executes one full cycle, streaming progress to sink. Exactly one
// terminal event with Done=true is emitted, run outcome notwithstanding.
func (o *Orchestrator) Run(ctx context.Context, sink ProgressSink) (*RunSummary, error) {
	return o.RunStages(ctx, sink, nil)
}

// RunStages executes a subset of stages by name, in pipeline order. A nil or
// empty selection runs everything. Used by the CLI runner.
func (o *Orchestrator) RunStages(ctx context.Context, sink ProgressSink, only map[string]bool) (*RunSummary, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	em := newEmitter(sink, o.now)
	summary := &RunSummary{Mode: o.params.Mode, StartedAt: o.now().UTC()}

	em.emit(models.StageStart, 0, fmt.Sprintf("pipeline run started in %s mode", o.params.Mode))

	stages := []struct {
		name     string
		progress int
		run      func(context.Context, *RunSummary) error
	}{
		{models.StageIngestion, 25, o.stageIngest},
		{models.StageMarket, 45, o.stageMarket},
		{models.StageScoring, 75, o.stageScore},
		{models.StageSignals, 95, o.stageSignals},
	}

	for _, stage := range stages {
		if len(only) > 0 && !only[stage.name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			summary.Errors = append(summary.Errors, err.Error())
			break
		}

		start := o.now()
		err := stage.run(ctx, summary)
		o.metrics.RecordStageDuration(stage.name, o.now().Sub(start).Seconds())

		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", stage.name, err))
			o.log.Error("pipeline stage failed",
				logger.String("stage", stage.name),
				logger.Error(err))
			em.emit(models.StageError, stage.progress, fmt.Sprintf("%s failed: %v", stage.name, err))
			continue
		}
		em.emit(stage.name, stage.progress, stageMessage(stage.name, summary))
	}

	summary.FinishedAt = o.now().UTC()
	if len(summary.Errors) > 0 {
		em.finish(fmt.Sprintf("run finished with %d error(s)", len(summary.Errors)))
	} else {
		em.finish("run complete")
	}
	return summary, ctx.Err()
}

func stageMessage(stage string, s *RunSummary) string {
	switch stage {
	case models.StageIngestion:
		stored := 0
		for _, r := range s.Ingest {
			stored += r.Stored
		}
		return fmt.Sprintf("ingested %d posts from %d sources", stored, len(s.Ingest))
	case models.StageMarket:
		return fmt.Sprintf("upserted %d market bars", s.BarsUpserted)
	case models.StageScoring:
		return fmt.Sprintf("scored %d posts", s.PostsScored)
	case models.StageSignals:
		return fmt.Sprintf("computed %d signals", len(s.Signals))
	default:
		return stage
	}
}

func (o *Orchestrator) stageIngest(ctx context.Context, s *RunSummary) error {
	s.Ingest = o.ingest.Run(ctx)
	return nil
}

func (o *Orchestrator) stageMarket(ctx context.Context, s *RunSummary) error {
	bars, err := o.fetcher.FetchBars(ctx, o.params.Symbols, o.params.MarketLookback)
	if err != nil {
		return err
	}
	for i := range bars {
		if err := o.markets.Upsert(ctx, &bars[i]); err != nil {
			o.log.Warn("bar upsert failed",
				logger.String("symbol", bars[i].Symbol),
				logger.Error(err))
			continue
		}
		s.BarsUpserted++
	}
	return nil
}

// stageScore cleans, tags, and scores every unscored post in batches. The
// scorer degrades rather than fails, so an error here is a store problem.
func (o *Orchestrator) stageScore(ctx context.Context, s *RunSummary) error {
	posts, err := o.posts.Unscored(ctx, o.params.Mode, o.params.ScoreLimit)
	if err != nil {
		return fmt.Errorf("load unscored posts: %w", err)
	}
	if len(posts) == 0 {
		return nil
	}

	batchSize := o.params.ScoreBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	for start := 0; start < len(posts); start += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := posts[start:min(start+batchSize, len(posts))]

		texts := make([]string, len(batch))
		for i := range batch {
			cleaned := sentiment.CleanText(batch[i].RawText)
			symbol := batch[i].Symbol
			if symbol == "" {
				symbol = sentiment.ExtractSymbol(cleaned, o.params.Symbols)
			}
			if err := o.posts.BackfillEnrichment(ctx, batch[i].ID, symbol, cleaned); err != nil {
				o.log.Warn("enrichment backfill failed",
					logger.Int("post_id", int(batch[i].ID)),
					logger.Error(err))
			}
			batch[i].Symbol = symbol
			batch[i].CleanedText = cleaned
			texts[i] = cleaned
		}

		results, err := o.scorer.ScoreBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("score batch: %w", err)
		}

		scoredAt := o.now().UTC()
		for i, res := range results {
			rec := &models.SentimentRecord{
				PostID:     batch[i].ID,
				Symbol:     batch[i].Symbol,
				Label:      res.Label,
				Score:      res.Confidence,
				Scorer:     res.Scorer,
				ObservedAt: batch[i].PostedAt,
				ScoredAt:   scoredAt,
				DataSource: o.params.Mode,
			}
			if err := o.sentiments.Insert(ctx, rec); err != nil {
				o.log.Warn("sentiment insert failed",
					logger.Int("post_id", int(batch[i].ID)),
					logger.Error(err))
				continue
			}
			s.PostsScored++
		}
	}
	return nil
}

func (o *Orchestrator) stageSignals(ctx context.Context, s *RunSummary) error {
	sigs, err := o.engine.ComputeAll(ctx, o.params.Symbols)
	if err != nil {
		return err
	}
	s.Signals = sigs
	return nil
}
