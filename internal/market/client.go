// Package market fetches daily bars with delivery data through the data
// bridge. Every symbol fetch consumes one unit of the market quota.
package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/repository"
	pkghttp "CrowdPulse/pkg/http"
	"CrowdPulse/pkg/logger"
)

const marketService = "market"

// quota is the slice of the usage ledger the fetcher needs.
type quota interface {
	TryRecord(service string, amount int, callerID string) bool
}

// Fetcher retrieves daily bars from the bridge, one request per symbol.
type Fetcher struct {
	client   *pkghttp.Client
	endpoint string
	quota    quota
	log      *logger.Logger
	metrics  repository.Metrics
}

// NewFetcher creates the bridge-backed bar fetcher.
func NewFetcher(endpoint string, timeout time.Duration, q quota, log *logger.Logger, m repository.Metrics) *Fetcher {
	if m == nil {
		m = repository.NopMetrics{}
	}
	return &Fetcher{
		client:   pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		endpoint: strings.TrimSuffix(endpoint, "/"),
		quota:    q,
		log:      log,
		metrics:  m,
	}
}

type barRow struct {
	Date           string   `json:"date"`
	Open           float64  `json:"open"`
	High           float64  `json:"high"`
	Low            float64  `json:"low"`
	Close          float64  `json:"close"`
	Volume         int64    `json:"volume"`
	DeliveryVolume *int64   `json:"delivery_volume"`
	DeliveryPct    *float64 `json:"delivery_pct"`
}

type barsResponse struct {
	Symbol string   `json:"symbol"`
	Bars   []barRow `json:"bars"`
}

// FetchBars fetches bars for each symbol. A quota block or a failed request
// skips that symbol and moves on; the error returned is non-nil only when
// every symbol failed.
func (f *Fetcher) FetchBars(ctx context.Context, symbols []string, lookback time.Duration) ([]models.MarketBar, error) {
	days := int(lookback.Hours()/24) + 1
	var out []models.MarketBar
	var lastErr error
	failed := 0

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if !f.quota.TryRecord(marketService, 1, "") {
			f.log.Warn("market quota exhausted, skipping remaining symbols",
				logger.String("symbol", symbol))
			break
		}

		bars, err := f.fetchSymbol(ctx, symbol, days)
		if err != nil {
			f.log.Warn("market fetch failed",
				logger.String("symbol", symbol),
				logger.Error(err))
			f.metrics.RecordError("market_fetch")
			lastErr = err
			failed++
			continue
		}
		out = append(out, bars...)
	}

	if len(out) == 0 && failed == len(symbols) && lastErr != nil {
		return nil, fmt.Errorf("all market fetches failed: %w", lastErr)
	}
	return out, nil
}

func (f *Fetcher) fetchSymbol(ctx context.Context, symbol string, days int) ([]models.MarketBar, error) {
	var resp barsResponse
	err := f.client.GetJSON(ctx, f.endpoint+"/market/bars", map[string][]string{
		"symbol": {symbol},
		"days":   {strconv.Itoa(days)},
	}, &resp)
	if err != nil {
		return nil, err
	}

	bars := make([]models.MarketBar, 0, len(resp.Bars))
	for _, row := range resp.Bars {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			f.log.Warn("skipping bar with bad date",
				logger.String("symbol", symbol),
				logger.String("date", row.Date))
			continue
		}
		bars = append(bars, models.MarketBar{
			Symbol:         symbol,
			Date:           date.UTC(),
			Open:           row.Open,
			High:           row.High,
			Low:            row.Low,
			Close:          row.Close,
			Volume:         row.Volume,
			DeliveryVolume: row.DeliveryVolume,
			DeliveryPct:    row.DeliveryPct,
			DataSource:     models.ModeLive,
		})
	}
	return bars, nil
}
