package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"CrowdPulse/internal/domain/models"
	pkghttp "CrowdPulse/pkg/http"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// ErrBadResponse marks a scorer reply that parsed but violated the batch
// contract (wrong length, unknown label). Retryable.
var ErrBadResponse = errors.New("malformed scorer response")

const geminiPrompt = `You are a financial sentiment classifier for Indian stock market social media posts. Posts may be in English, Hindi, or Hinglish (romanized Hindi mixed with English).

Classify each numbered text below as "positive", "negative", or "neutral" with a confidence between 0 and 1.

Respond with ONLY a JSON array, one object per text in the same order:
[{"label": "positive", "confidence": 0.9}, ...]

Texts:
%s`

// GeminiScorer scores batches through the Gemini generateContent API. One
// batch is one API call regardless of batch size.
type GeminiScorer struct {
	client *pkghttp.Client
	apiKey string
	model  string
}

// NewGeminiScorer creates the Gemini-backed scorer.
func NewGeminiScorer(apiKey, model string, timeout time.Duration) *GeminiScorer {
	return &GeminiScorer{
		client: pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		apiKey: apiKey,
		model:  model,
	}
}

func (g *GeminiScorer) Name() string { return "gemini" }

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig geminiGenConfig  `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiScorer) ScoreBatch(ctx context.Context, texts []string) ([]models.ScoreResult, error) {
	var sb strings.Builder
	for i, t := range texts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, t)
	}

	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: fmt.Sprintf(geminiPrompt, sb.String())}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:      0.1,
			ResponseMimeType: "application/json",
		},
	}

	var resp geminiResponse
	err := g.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodPost,
		URL:         fmt.Sprintf(geminiEndpoint, g.model),
		Headers:     map[string]string{"Content-Type": "application/json"},
		QueryParams: map[string][]string{"key": {g.apiKey}},
		Body:        req,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrBadResponse)
	}

	return parseScorerJSON(resp.Candidates[0].Content.Parts[0].Text, len(texts), g.Name())
}

// parseScorerJSON decodes a JSON array of label/confidence pairs and enforces
// the batch contract: same length, known labels, confidence in [0,1].
func parseScorerJSON(raw string, want int, scorer string) ([]models.ScoreResult, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(parsed) != want {
		return nil, fmt.Errorf("%w: got %d results for %d texts", ErrBadResponse, len(parsed), want)
	}

	out := make([]models.ScoreResult, len(parsed))
	for i, p := range parsed {
		label := models.SentimentLabel(strings.ToLower(strings.TrimSpace(p.Label)))
		switch label {
		case models.LabelPositive, models.LabelNegative, models.LabelNeutral:
		default:
			return nil, fmt.Errorf("%w: unknown label %q", ErrBadResponse, p.Label)
		}
		conf := p.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		out[i] = models.ScoreResult{Label: label, Confidence: conf, Scorer: scorer}
	}
	return out, nil
}
