// Package collectors implements the source collectors. Live collection goes
// through the data bridge, an HTTP sidecar that owns the platform sessions
// and API keys; this process only ever talks JSON over localhost.
package collectors

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/domain/service"
	pkghttp "CrowdPulse/pkg/http"
	"CrowdPulse/pkg/logger"
	"CrowdPulse/pkg/util"
)

// BridgeCollector fetches posts for one source kind from the bridge. The
// quota gate is consulted before every unit (channel, video, query,
// subreddit) so a mid-run quota exhaustion stops cleanly with partial data.
type BridgeCollector struct {
	kind       models.SourceKind
	client     *pkghttp.Client
	baseURL    string
	maxPerUnit int
	log        *logger.Logger
}

// NewBridgeCollector creates a collector for one source kind.
func NewBridgeCollector(kind models.SourceKind, baseURL string, timeout time.Duration, maxPerUnit int, log *logger.Logger) *BridgeCollector {
	return &BridgeCollector{
		kind:       kind,
		client:     pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		maxPerUnit: maxPerUnit,
		log:        log,
	}
}

func (c *BridgeCollector) Kind() models.SourceKind { return c.kind }

type bridgePost struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Author   string `json:"author"`
	PostedAt string `json:"posted_at"`
}

type bridgeResponse struct {
	Posts []bridgePost `json:"posts"`
}

// Fetch collects from each unit in order. A unit-level request failure is
// logged and skipped; the fetch errors only when every unit failed. Stopping
// at the gate is not an error: the coordinator sees the quota state itself.
func (c *BridgeCollector) Fetch(ctx context.Context, units []string, gate service.QuotaGate) ([]models.RawPostCandidate, error) {
	var out []models.RawPostCandidate
	var lastErr error
	failed := 0

	for _, unit := range units {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if !gate() {
			c.log.Warn("quota gate closed, stopping collection",
				logger.String("source", string(c.kind)),
				logger.String("unit", unit))
			break
		}

		posts, err := c.fetchUnit(ctx, unit)
		if err != nil {
			c.log.Warn("unit fetch failed",
				logger.String("source", string(c.kind)),
				logger.String("unit", unit),
				logger.Error(err))
			lastErr = err
			failed++
			continue
		}
		out = append(out, posts...)
	}

	if len(out) == 0 && failed == len(units) && lastErr != nil {
		return nil, fmt.Errorf("%s: all units failed: %w", c.kind, lastErr)
	}
	return out, nil
}

func (c *BridgeCollector) fetchUnit(ctx context.Context, unit string) ([]models.RawPostCandidate, error) {
	var resp bridgeResponse
	err := c.client.GetJSON(ctx, fmt.Sprintf("%s/collect/%s", c.baseURL, c.kind), map[string][]string{
		"unit":  {unit},
		"limit": {strconv.Itoa(c.maxPerUnit)},
	}, &resp)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	out := make([]models.RawPostCandidate, 0, len(resp.Posts))
	for _, p := range resp.Posts {
		if p.ID == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}
		out = append(out, models.RawPostCandidate{
			Source:   c.kind,
			SourceID: fmt.Sprintf("%s_%s", c.kind, p.ID),
			Text:     p.Text,
			Author:   p.Author,
			PostedAt: util.ParseTimeDefault(p.PostedAt, now),
		})
	}
	return out, nil
}
