package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CrowdPulse/internal/domain/models"
	pkghttp "CrowdPulse/pkg/http"
)

// LocalScorer calls a local model service over HTTP. Fallback when Gemini is
// unconfigured, over quota, or failing.
type LocalScorer struct {
	client  *pkghttp.Client
	baseURL string
}

// NewLocalScorer creates the local model scorer.
func NewLocalScorer(baseURL string, timeout time.Duration) *LocalScorer {
	return &LocalScorer{
		client:  pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (l *LocalScorer) Name() string { return "local" }

type localScoreRequest struct {
	Texts []string `json:"texts"`
}

type localScoreResponse struct {
	Results []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

func (l *LocalScorer) ScoreBatch(ctx context.Context, texts []string) ([]models.ScoreResult, error) {
	var resp localScoreResponse
	err := l.client.PostJSON(ctx, l.baseURL+"/score/batch", localScoreRequest{Texts: texts}, &resp)
	if err != nil {
		return nil, fmt.Errorf("local scorer request: %w", err)
	}

	if len(resp.Results) != len(texts) {
		return nil, fmt.Errorf("%w: got %d results for %d texts", ErrBadResponse, len(resp.Results), len(texts))
	}

	out := make([]models.ScoreResult, len(resp.Results))
	for i, r := range resp.Results {
		label := models.SentimentLabel(strings.ToLower(strings.TrimSpace(r.Label)))
		switch label {
		case models.LabelPositive, models.LabelNegative, models.LabelNeutral:
		default:
			return nil, fmt.Errorf("%w: unknown label %q", ErrBadResponse, r.Label)
		}
		conf := r.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		out[i] = models.ScoreResult{Label: label, Confidence: conf, Scorer: l.Name()}
	}
	return out, nil
}
