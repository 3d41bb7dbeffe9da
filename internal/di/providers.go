package di

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
	"CrowdPulse/internal/domain/service"
	"CrowdPulse/internal/handler/api"
	"CrowdPulse/internal/ingestion"
	"CrowdPulse/internal/market"
	"CrowdPulse/internal/pipeline"
	internalrepo "CrowdPulse/internal/repository"
	"CrowdPulse/internal/sentiment"
	"CrowdPulse/internal/service/collectors"
	"CrowdPulse/internal/service/jobs"
	"CrowdPulse/internal/service/publisher"
	"CrowdPulse/internal/signal"
	"CrowdPulse/internal/usage"
	"CrowdPulse/pkg/config"
	pkgkafka "CrowdPulse/pkg/kafka"
	"CrowdPulse/pkg/logger"
	"CrowdPulse/pkg/metrics"
	"CrowdPulse/pkg/queue"
	"CrowdPulse/pkg/server"
)

// ProvideLogger creates the application logger with the ops log collector
// attached.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	log.AttachCollector(200)
	return log, nil
}

// ProvideDB opens the sqlite database and migrates the schema.
func ProvideDB(cfg *config.Config) (*gorm.DB, error) {
	return internalrepo.Open(cfg.Storage.Path)
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when
// metrics are disabled.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NopMetrics{}
	}
	return metrics.New()
}

// ProvideMode parses the configured pipeline mode.
func ProvideMode(cfg *config.Config) models.DataMode {
	return models.DataMode(cfg.Pipeline.Mode)
}

func ProvidePostStore(db *gorm.DB) repository.PostStore {
	return internalrepo.NewPostStore(db)
}

func ProvideSentimentStore(db *gorm.DB) repository.SentimentStore {
	return internalrepo.NewSentimentStore(db)
}

func ProvideMarketStore(db *gorm.DB) repository.MarketStore {
	return internalrepo.NewMarketStore(db)
}

func ProvideSignalStore(db *gorm.DB) repository.SignalStore {
	return internalrepo.NewSignalStore(db)
}

func ProvideUsageLogStore(db *gorm.DB) repository.UsageLogStore {
	return internalrepo.NewUsageLogStore(db)
}

// ProvideCredentialStore creates the per-caller credential registry.
func ProvideCredentialStore() *collectors.CredentialStore {
	return collectors.NewCredentialStore()
}

// ProvideLedger creates the usage ledger with persistence, audit rows, and
// metrics.
func ProvideLedger(
	cfg *config.Config,
	creds *collectors.CredentialStore,
	audit repository.UsageLogStore,
	m repository.Metrics,
	log *logger.Logger,
) *usage.Ledger {
	always := make(map[string]bool, len(cfg.Usage.AlwaysGlobal))
	for _, svc := range cfg.Usage.AlwaysGlobal {
		always[svc] = true
	}
	return usage.NewLedger(usage.Limits{
		Global:       cfg.Usage.GlobalLimits,
		PerUser:      cfg.Usage.PerUserLimits,
		AlwaysGlobal: always,
	}, creds.Resolver(), cfg.Usage.StateFile, log,
		usage.WithAudit(audit),
		usage.WithMetrics(m))
}

// ProvideCollectors builds the source collectors: simulators in test mode,
// bridge-backed ones in live mode.
func ProvideCollectors(cfg *config.Config, mode models.DataMode, log *logger.Logger) []service.SourceCollector {
	if mode == models.ModeTest {
		days := int(cfg.Pipeline.Lookback.Hours()/24) + 1
		out := make([]service.SourceCollector, 0, len(models.AllSources))
		for _, kind := range models.AllSources {
			out = append(out, pipeline.NewSimCollector(kind, cfg.Market.Symbols, days, nil))
		}
		return out
	}

	out := make([]service.SourceCollector, 0, len(models.AllSources))
	for _, kind := range models.AllSources {
		out = append(out, collectors.NewBridgeCollector(kind, cfg.Sources.BridgeURL, cfg.Sources.Timeout, cfg.Sources.MaxPerUnit, log))
	}
	return out
}

// ProvideUnits maps each source to its configured units.
func ProvideUnits(cfg *config.Config, mode models.DataMode) map[models.SourceKind][]string {
	if mode == models.ModeTest {
		// simulators need one unit per source to pass the quota gate
		return map[models.SourceKind][]string{
			models.SourceTelegram: {"sim"},
			models.SourceYouTube:  {"sim"},
			models.SourceTwitter:  {"sim"},
			models.SourceReddit:   {"sim"},
		}
	}
	return map[models.SourceKind][]string{
		models.SourceTelegram: cfg.Sources.TelegramChannels,
		models.SourceYouTube:  cfg.Sources.YouTubeVideos,
		models.SourceTwitter:  cfg.Sources.TwitterQueries,
		models.SourceReddit:   cfg.Sources.RedditSubreddits,
	}
}

// ProvideCoordinator creates the ingestion coordinator.
func ProvideCoordinator(
	cols []service.SourceCollector,
	units map[models.SourceKind][]string,
	posts repository.PostStore,
	ledger *usage.Ledger,
	mode models.DataMode,
	m repository.Metrics,
	log *logger.Logger,
) *ingestion.Coordinator {
	return ingestion.NewCoordinator(cols, units, posts, ledger, mode, log, ingestion.WithMetrics(m))
}

// ProvideMarketFetcher creates the bar fetcher: simulated in test mode.
func ProvideMarketFetcher(cfg *config.Config, mode models.DataMode, ledger *usage.Ledger, m repository.Metrics, log *logger.Logger) service.MarketFetcher {
	if mode == models.ModeTest {
		return pipeline.NewSimMarketFetcher(nil)
	}
	return market.NewFetcher(cfg.Market.Endpoint, cfg.Market.Timeout, ledger, log, m)
}

// ProvideScorer creates the sentiment scorer: the sim scorer in test mode, a
// Gemini-primary router with the local fallback in live mode.
func ProvideScorer(cfg *config.Config, mode models.DataMode, ledger *usage.Ledger, m repository.Metrics, log *logger.Logger) service.SentimentScorer {
	if mode == models.ModeTest {
		return pipeline.SimScorer{}
	}

	var primary service.SentimentScorer
	if cfg.Scorer.GeminiAPIKey != "" {
		primary = sentiment.NewGeminiScorer(cfg.Scorer.GeminiAPIKey, cfg.Scorer.GeminiModel, cfg.Scorer.Timeout)
	}
	fallback := sentiment.NewLocalScorer(cfg.Scorer.LocalURL, cfg.Scorer.Timeout)

	return sentiment.NewRouter(primary, fallback, ledger, log,
		sentiment.WithRetries(cfg.Scorer.MaxRetries, cfg.Scorer.BackoffBase),
		sentiment.WithRouterMetrics(m))
}

// ProvideSignalPublisher creates the Kafka signal publisher when enabled.
// Returns nil publisher and nil closer when disabled.
func ProvideSignalPublisher(cfg *config.Config) (*publisher.KafkaPublisher, error) {
	if !cfg.Publisher.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Publisher.Brokers),
		pkgkafka.WithCompression(cfg.Publisher.Compression),
		pkgkafka.WithRequiredAcks(cfg.Publisher.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Publisher.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return publisher.NewKafkaPublisher(producer, cfg.Publisher.Topic), nil
}

// ProvideEngine creates the signal engine.
func ProvideEngine(
	cfg *config.Config,
	sentiments repository.SentimentStore,
	markets repository.MarketStore,
	signals repository.SignalStore,
	pub *publisher.KafkaPublisher,
	mode models.DataMode,
	m repository.Metrics,
	log *logger.Logger,
) *signal.Engine {
	opts := []signal.Option{signal.WithMetrics(m)}
	if pub != nil {
		opts = append(opts, signal.WithPublisher(pub))
	}
	return signal.NewEngine(sentiments, markets, signals, signal.Params{
		Lookback:       cfg.Pipeline.Lookback,
		VelocityWindow: cfg.Pipeline.VelocityWindow,
		IdealPosts:     cfg.Pipeline.IdealPostThreshold,
	}, mode, log, opts...)
}

// ProvideOrchestrator creates the pipeline orchestrator.
func ProvideOrchestrator(
	cfg *config.Config,
	coord *ingestion.Coordinator,
	fetcher service.MarketFetcher,
	markets repository.MarketStore,
	posts repository.PostStore,
	sentiments repository.SentimentStore,
	scorer service.SentimentScorer,
	engine *signal.Engine,
	mode models.DataMode,
	m repository.Metrics,
	log *logger.Logger,
) *pipeline.Orchestrator {
	return pipeline.NewOrchestrator(coord, fetcher, markets, posts, sentiments, scorer, engine, pipeline.Params{
		Symbols:        cfg.Market.Symbols,
		Mode:           mode,
		MarketLookback: cfg.Market.Lookback,
		ScoreBatchSize: cfg.Scorer.BatchSize,
		ScoreLimit:     cfg.Pipeline.ScoreBatchLimit,
	}, log, pipeline.WithMetrics(m))
}

// ProvideHandler creates the API handler.
func ProvideHandler(
	orch *pipeline.Orchestrator,
	posts repository.PostStore,
	sentiments repository.SentimentStore,
	markets repository.MarketStore,
	signals repository.SignalStore,
	ledger *usage.Ledger,
	mode models.DataMode,
	log *logger.Logger,
) *api.Handler {
	return api.NewHandler(orch, posts, sentiments, markets, signals, ledger, mode, log)
}

// ProvideScheduler creates the redis-locked scheduler with the pipeline job
// registered, or nil when scheduling is disabled.
func ProvideScheduler(cfg *config.Config, orch *pipeline.Orchestrator, log *logger.Logger) (*queue.Scheduler, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	sched, err := queue.NewScheduler(&queue.SchedulerConfig{
		Addr:     cfg.Scheduler.Addr,
		Password: cfg.Scheduler.Password,
		DB:       cfg.Scheduler.DB,
		Interval: cfg.Scheduler.Interval,
		LockTTL:  30 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	sched.Register(jobs.NewPipelineJob(orch, log))
	sched.OnError(func(job string, err error) {
		log.Error("scheduled job failed", logger.String("job", job), logger.Error(err))
	})
	return sched, nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler *api.Handler,
	sched *queue.Scheduler,
	pub *publisher.KafkaPublisher,
	log *logger.Logger,
) *server.App {
	// a nil *KafkaPublisher must stay nil as an interface
	var p server.Publisher
	if pub != nil {
		p = pub
	}
	return server.New(cfg, handler, sched, p, log)
}
