// Command pipeline runs pipeline stages from the terminal, without the HTTP
// server. Useful for cron-less deployments and local debugging.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"CrowdPulse/internal/di"
	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
	"CrowdPulse/internal/usage"
	"CrowdPulse/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	runAll := flag.Bool("all", false, "run every stage")
	runIngest := flag.Bool("ingest", false, "run the ingestion stage")
	runMarket := flag.Bool("market", false, "run the market data stage")
	runScore := flag.Bool("score", false, "run the sentiment scoring stage")
	runSignals := flag.Bool("signals", false, "run the signal computation stage")
	seed := flag.Bool("seed", false, "seed the database from the simulators (forces test mode)")
	showStatus := flag.Bool("status", false, "print store row counts and exit")
	showUsage := flag.Bool("usage", false, "print the API usage summary and exit")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *seed {
		cfg.Pipeline.Mode = string(models.ModeTest)
	}

	if err := run(cfg, selection{
		all:     *runAll || *seed,
		ingest:  *runIngest,
		market:  *runMarket,
		score:   *runScore,
		signals: *runSignals,
		status:  *showStatus,
		usage:   *showUsage,
	}); err != nil {
		log.Printf("pipeline error: %v", err)
		os.Exit(1)
	}
}

type selection struct {
	all     bool
	ingest  bool
	market  bool
	score   bool
	signals bool
	status  bool
	usage   bool
}

func (s selection) stages() map[string]bool {
	if s.all {
		return nil
	}
	out := map[string]bool{}
	if s.ingest {
		out[models.StageIngestion] = true
	}
	if s.market {
		out[models.StageMarket] = true
	}
	if s.score {
		out[models.StageScoring] = true
	}
	if s.signals {
		out[models.StageSignals] = true
	}
	return out
}

func run(cfg *config.Config, sel selection) error {
	logg, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	m := di.ProvideMetrics(cfg)
	mode := di.ProvideMode(cfg)

	db, err := di.ProvideDB(cfg)
	if err != nil {
		return err
	}
	posts := di.ProvidePostStore(db)
	sentiments := di.ProvideSentimentStore(db)
	markets := di.ProvideMarketStore(db)
	signals := di.ProvideSignalStore(db)
	usageLogs := di.ProvideUsageLogStore(db)

	creds := di.ProvideCredentialStore()
	ledger := di.ProvideLedger(cfg, creds, usageLogs, m, logg)

	if sel.status {
		return printStatus(posts, sentiments, markets, signals)
	}
	if sel.usage {
		printUsage(ledger)
		return nil
	}

	stages := sel.stages()
	if !sel.all && len(stages) == 0 {
		flag.Usage()
		return fmt.Errorf("nothing to do: pass --all or at least one stage flag")
	}

	coord := di.ProvideCoordinator(
		di.ProvideCollectors(cfg, mode, logg),
		di.ProvideUnits(cfg, mode),
		posts, ledger, mode, m, logg,
	)
	fetcher := di.ProvideMarketFetcher(cfg, mode, ledger, m, logg)
	scorer := di.ProvideScorer(cfg, mode, ledger, m, logg)
	engine := di.ProvideEngine(cfg, sentiments, markets, signals, nil, mode, m, logg)
	orch := di.ProvideOrchestrator(cfg, coord, fetcher, markets, posts, sentiments, scorer, engine, mode, m, logg)

	summary, err := orch.RunStages(context.Background(), func(ev models.ProgressEvent) {
		fmt.Printf("[%3d%%] %-10s %s\n", ev.Progress, ev.Stage, ev.Message)
	}, stages)
	if err != nil {
		return err
	}
	if len(summary.Errors) > 0 {
		return fmt.Errorf("run finished with errors: %s", strings.Join(summary.Errors, "; "))
	}
	return nil
}

func printStatus(posts repository.PostStore, sentiments repository.SentimentStore, markets repository.MarketStore, signals repository.SignalStore) error {
	ctx := context.Background()
	rows := []struct {
		name  string
		count func(context.Context) (int64, error)
	}{
		{"posts", posts.Count},
		{"sentiment records", sentiments.Count},
		{"market bars", markets.Count},
		{"signals", signals.Count},
	}
	for _, r := range rows {
		n, err := r.count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", r.name, err)
		}
		fmt.Printf("%-20s %d\n", r.name, n)
	}
	return nil
}

// printUsage renders each service's quota as a bar, fullest first.
func printUsage(ledger *usage.Ledger) {
	summary := ledger.Summary("")
	services := make([]string, 0, len(summary))
	for svc := range summary {
		services = append(services, svc)
	}
	sort.Slice(services, func(i, j int) bool {
		return summary[services[i]].PercentUsed > summary[services[j]].PercentUsed
	})

	for _, svc := range services {
		s := summary[svc]
		filled := int(s.PercentUsed / 10)
		if filled > 10 {
			filled = 10
		}
		bar := strings.Repeat("#", filled) + strings.Repeat(".", 10-filled)
		fmt.Printf("%-10s [%s] %d/%d (%.1f%%) %s\n", svc, bar, s.Used, s.Limit, s.PercentUsed, s.Scope)
	}
}
