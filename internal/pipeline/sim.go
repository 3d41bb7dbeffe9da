package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/service"
	"CrowdPulse/pkg/util"
)

// Test mode swaps the external edge for deterministic simulators: same
// collectors, same stores, same math, synthetic data. Source ids are derived
// from (symbol, day, index), so re-running a day dedups to a no-op.

var simPhrases = map[models.SentimentLabel][]string{
	models.LabelPositive: {
		"%s breakout confirmed, volumes picking up",
		"%s results beat estimates, upgrading targets",
		"bhai %s me tezi hai, abhi entry lo",
		"%s delivery numbers strong, accumulating",
	},
	models.LabelNegative: {
		"%s breaking support, exit before it slides",
		"%s promoter pledge rising, red flag",
		"%s me mandi lag rahi hai bhai, nikal lo",
		"heavy selling in %s, operators dumping",
	},
	models.LabelNeutral: {
		"%s trading sideways, waiting for direction",
		"any views on %s before results?",
		"%s volumes average today, nothing special",
	},
}

func simSeed(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return int64(h.Sum64())
}

// SimCollector fabricates posts for one source kind. Post count per symbol
// ramps up over the lookback days so the divergence math has a trend to find.
type SimCollector struct {
	kind    models.SourceKind
	symbols []string
	days    int
	now     func() time.Time
}

// NewSimCollector creates a simulated collector.
func NewSimCollector(kind models.SourceKind, symbols []string, days int, now func() time.Time) *SimCollector {
	if now == nil {
		now = time.Now
	}
	if days < 3 {
		days = 3
	}
	return &SimCollector{kind: kind, symbols: symbols, days: days, now: now}
}

func (c *SimCollector) Kind() models.SourceKind { return c.kind }

func (c *SimCollector) Fetch(ctx context.Context, units []string, gate service.QuotaGate) ([]models.RawPostCandidate, error) {
	var out []models.RawPostCandidate
	for range units {
		if !gate() {
			return out, nil
		}
	}

	end := c.now().UTC()
	for _, symbol := range c.symbols {
		for day := 0; day < c.days; day++ {
			date := end.AddDate(0, 0, day-(c.days-1))
			rng := rand.New(rand.NewSource(simSeed(string(c.kind), symbol, util.DayKey(date))))

			// chatter grows toward today
			count := 2 + day*3 + rng.Intn(3)
			for i := 0; i < count; i++ {
				label := simLabel(rng, day, c.days)
				phrases := simPhrases[label]
				out = append(out, models.RawPostCandidate{
					Source:   c.kind,
					SourceID: fmt.Sprintf("%s_sim_%s_%s_%d", c.kind, strings.ToLower(symbol), util.DayKey(date), i),
					Text:     fmt.Sprintf(phrases[rng.Intn(len(phrases))], symbol),
					Author:   fmt.Sprintf("sim_user_%d", rng.Intn(40)),
					PostedAt: util.TruncateDay(date).Add(time.Duration(9*60+rng.Intn(390)) * time.Minute),
				})
			}
		}
	}
	return out, nil
}

// simLabel skews positive as the day approaches today: simulated hype.
func simLabel(rng *rand.Rand, day, days int) models.SentimentLabel {
	p := rng.Float64()
	posShare := 0.35 + 0.4*float64(day)/float64(days-1)
	switch {
	case p < posShare:
		return models.LabelPositive
	case p < posShare+0.25:
		return models.LabelNegative
	default:
		return models.LabelNeutral
	}
}

// SimMarketFetcher fabricates daily bars with delivery volume thinning out
// toward today, the mirror image of the chatter ramp.
type SimMarketFetcher struct {
	now func() time.Time
}

// NewSimMarketFetcher creates a simulated bar fetcher.
func NewSimMarketFetcher(now func() time.Time) *SimMarketFetcher {
	if now == nil {
		now = time.Now
	}
	return &SimMarketFetcher{now: now}
}

func (f *SimMarketFetcher) FetchBars(ctx context.Context, symbols []string, lookback time.Duration) ([]models.MarketBar, error) {
	days := int(lookback.Hours()/24) + 1
	if days < 3 {
		days = 3
	}
	end := util.TruncateDay(f.now().UTC())

	var out []models.MarketBar
	for _, symbol := range symbols {
		rng := rand.New(rand.NewSource(simSeed("market", symbol)))
		base := 500 + rng.Float64()*2500

		for day := 0; day < days; day++ {
			date := end.AddDate(0, 0, day-(days-1))
			drift := base * (1 + (rng.Float64()-0.5)*0.04)
			volume := int64(800_000 - day*60_000 + rng.Intn(50_000))
			deliveryPct := 35 + rng.Float64()*25
			delivery := int64(float64(volume) * deliveryPct / 100)

			out = append(out, models.MarketBar{
				Symbol:         symbol,
				Date:           date,
				Open:           drift * 0.995,
				High:           drift * 1.012,
				Low:            drift * 0.987,
				Close:          drift,
				Volume:         volume,
				DeliveryVolume: &delivery,
				DeliveryPct:    &deliveryPct,
				DataSource:     models.ModeTest,
			})
		}
	}
	return out, nil
}

// SimScorer labels posts by the phrasing the simulator itself used. No
// network, fully deterministic.
type SimScorer struct{}

func (SimScorer) Name() string { return "sim" }

var simPositiveWords = []string{"breakout", "beat", "tezi", "strong", "accumulating", "upgrading"}
var simNegativeWords = []string{"support", "pledge", "mandi", "selling", "dumping", "exit"}

func (SimScorer) ScoreBatch(ctx context.Context, texts []string) ([]models.ScoreResult, error) {
	out := make([]models.ScoreResult, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		res := models.ScoreResult{Label: models.LabelNeutral, Confidence: 0.55, Scorer: "sim"}
		for _, w := range simPositiveWords {
			if strings.Contains(lower, w) {
				res = models.ScoreResult{Label: models.LabelPositive, Confidence: 0.85, Scorer: "sim"}
				break
			}
		}
		if res.Label == models.LabelNeutral {
			for _, w := range simNegativeWords {
				if strings.Contains(lower, w) {
					res = models.ScoreResult{Label: models.LabelNegative, Confidence: 0.85, Scorer: "sim"}
					break
				}
			}
		}
		out[i] = res
	}
	return out, nil
}
