package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"CrowdPulse/internal/domain/models"
	"CrowdPulse/internal/usage"
	"CrowdPulse/pkg/logger"
)

type fakeScorer struct {
	name    string
	calls   int
	got     [][]string
	results []models.ScoreResult
	errs    []error // one per call; nil past the end
}

func (f *fakeScorer) Name() string { return f.name }

func (f *fakeScorer) ScoreBatch(ctx context.Context, texts []string) ([]models.ScoreResult, error) {
	f.calls++
	f.got = append(f.got, texts)
	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return nil, f.errs[f.calls-1]
	}
	if f.results != nil {
		return f.results, nil
	}
	out := make([]models.ScoreResult, len(texts))
	for i := range out {
		out[i] = models.ScoreResult{Label: models.LabelPositive, Confidence: 0.8, Scorer: f.name}
	}
	return out, nil
}

// two lexicon hits each, so ClassifyLanguage sees them as hinglish
var hinglishTexts = []string{
	"bhai ye stock tezi me hai",
	"aaj bahut munafa hoga",
}

func geminiLedger(t *testing.T, limit int) *usage.Ledger {
	t.Helper()
	return usage.NewLedger(usage.Limits{Global: map[string]int{"gemini": limit}}, nil, "", logger.Nop())
}

func fastRetries() RouterOption {
	return WithRetries(2, time.Millisecond)
}

func TestRouterUsesPrimaryWithinQuota(t *testing.T) {
	primary := &fakeScorer{name: "gemini"}
	fallback := &fakeScorer{name: "local"}
	r := NewRouter(primary, fallback, geminiLedger(t, 10), logger.Nop(), fastRetries())

	out, err := r.ScoreBatch(context.Background(), hinglishTexts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].Scorer != "gemini" {
		t.Fatalf("expected primary results, got %+v", out)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback should not be called")
	}
}

func TestRouterSplitsBatchByLanguage(t *testing.T) {
	primary := &fakeScorer{name: "gemini"}
	fallback := &fakeScorer{name: "local"}
	r := NewRouter(primary, fallback, geminiLedger(t, 10), logger.Nop(), fastRetries())

	texts := []string{
		"RELIANCE looking strong after results",
		hinglishTexts[0],
		"volume drying up on TCS",
		"शेयर बाजार में तेजी", // Devanagari is decisive
	}
	out, err := r.ScoreBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(out))
	}
	for _, i := range []int{0, 2} {
		if out[i].Scorer != "local" {
			t.Fatalf("english text %d scored by %s, want local", i, out[i].Scorer)
		}
	}
	for _, i := range []int{1, 3} {
		if out[i].Scorer != "gemini" {
			t.Fatalf("hinglish text %d scored by %s, want gemini", i, out[i].Scorer)
		}
	}
	if len(primary.got) != 1 || len(primary.got[0]) != 2 {
		t.Fatalf("primary must see exactly the hinglish texts, got %v", primary.got)
	}
	if len(fallback.got) != 1 || len(fallback.got[0]) != 2 {
		t.Fatalf("fallback must see exactly the english texts, got %v", fallback.got)
	}
}

func TestRouterEnglishNeverReachesPrimary(t *testing.T) {
	primary := &fakeScorer{name: "gemini"}
	fallback := &fakeScorer{name: "local"}
	r := NewRouter(primary, fallback, geminiLedger(t, 10), logger.Nop(), fastRetries())

	out, err := r.ScoreBatch(context.Background(), []string{
		"buying the dip on HDFCBANK",
		"delivery numbers look weak today",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.calls != 0 {
		t.Fatalf("primary must not see english-only batches")
	}
	for i, res := range out {
		if res.Scorer != "local" {
			t.Fatalf("result %d scored by %s, want local", i, res.Scorer)
		}
	}
}

func TestRouterQuotaExhaustedRoutesToFallback(t *testing.T) {
	primary := &fakeScorer{name: "gemini"}
	fallback := &fakeScorer{name: "local"}
	r := NewRouter(primary, fallback, geminiLedger(t, 0), logger.Nop(), fastRetries())

	texts := make([]string, 10)
	for i := range texts {
		texts[i] = hinglishTexts[i%2]
	}
	out, err := r.ScoreBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 10 {
		t.Fatalf("expected 10 results, got %d", len(out))
	}
	for i, res := range out {
		if res.Scorer != "local" {
			t.Fatalf("result %d scored by %s, want local", i, res.Scorer)
		}
	}
	if primary.calls != 0 {
		t.Fatalf("primary must not be called once quota is gone")
	}
}

func TestRouterNilPrimaryGoesStraightToFallback(t *testing.T) {
	fallback := &fakeScorer{name: "local"}
	r := NewRouter(nil, fallback, geminiLedger(t, 10), logger.Nop(), fastRetries())

	out, err := r.ScoreBatch(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Scorer != "local" {
		t.Fatalf("expected fallback, got %s", out[0].Scorer)
	}
}

func TestRouterRetriesPrimaryThenSucceeds(t *testing.T) {
	primary := &fakeScorer{name: "gemini", errs: []error{errors.New("transient")}}
	fallback := &fakeScorer{name: "local"}
	r := NewRouter(primary, fallback, geminiLedger(t, 10), logger.Nop(), fastRetries())

	out, err := r.ScoreBatch(context.Background(), hinglishTexts[:1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.calls != 2 {
		t.Fatalf("expected one retry, got %d calls", primary.calls)
	}
	if out[0].Scorer != "gemini" {
		t.Fatalf("expected primary result after retry, got %s", out[0].Scorer)
	}
}

func TestRouterDegradesWhenBothFail(t *testing.T) {
	boom := errors.New("down")
	primary := &fakeScorer{name: "gemini", errs: []error{boom, boom, boom}}
	fallback := &fakeScorer{name: "local", errs: []error{boom, boom, boom}}
	r := NewRouter(primary, fallback, geminiLedger(t, 10), logger.Nop(), fastRetries())

	texts := []string{hinglishTexts[0], hinglishTexts[1], "plain english post"}
	out, err := r.ScoreBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("degraded batch must not error: %v", err)
	}
	if len(out) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(out))
	}
	for i, res := range out {
		if res.Label != models.LabelNeutral || res.Confidence != 0 || res.Scorer != "degraded" {
			t.Fatalf("result %d not degraded: %+v", i, res)
		}
	}
}

func TestRouterEmptyBatch(t *testing.T) {
	r := NewRouter(nil, &fakeScorer{name: "local"}, geminiLedger(t, 10), logger.Nop())
	out, err := r.ScoreBatch(context.Background(), nil)
	if err != nil || out != nil {
		t.Fatalf("empty batch should be a no-op, got %v, %v", out, err)
	}
}

func TestParseScorerJSONContract(t *testing.T) {
	// fenced output is tolerated
	raw := "```json\n[{\"label\": \"Positive\", \"confidence\": 1.4}]\n```"
	out, err := parseScorerJSON(raw, 1, "gemini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].Label != models.LabelPositive || out[0].Confidence != 1 {
		t.Fatalf("expected normalized result, got %+v", out[0])
	}

	if _, err := parseScorerJSON(`[{"label": "positive", "confidence": 0.5}]`, 2, "gemini"); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("length mismatch must be ErrBadResponse, got %v", err)
	}
	if _, err := parseScorerJSON(`[{"label": "bullish", "confidence": 0.5}]`, 1, "gemini"); !errors.Is(err, ErrBadResponse) {
		t.Fatalf("unknown label must be ErrBadResponse, got %v", err)
	}
}
