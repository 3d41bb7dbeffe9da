package signal

import (
	"math"
	"testing"
	"time"

	"CrowdPulse/internal/domain/models"
)

func rec(label models.SentimentLabel, score float64, at time.Time) models.SentimentRecord {
	return models.SentimentRecord{Label: label, Score: score, ObservedAt: at}
}

func TestVelocityFlatIsNeutral(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var recs []models.SentimentRecord
	for h := 0; h < 4; h++ {
		recs = append(recs, rec(models.LabelPositive, 0.6, base.Add(time.Duration(h)*time.Hour)))
	}
	if v := Velocity(recs, time.Hour); v != 50 {
		t.Fatalf("flat sentiment must be 50, got %v", v)
	}
}

func TestVelocityTooFewWindowsIsNeutral(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	recs := []models.SentimentRecord{
		rec(models.LabelPositive, 0.9, base),
		rec(models.LabelNegative, 0.9, base.Add(10*time.Minute)),
	}
	if v := Velocity(recs, time.Hour); v != 50 {
		t.Fatalf("single window must be 50, got %v", v)
	}
}

func TestVelocityAccelerationScoresHigh(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	// window means 0.0, 0.1, 0.5: the last jump is the biggest
	recs := []models.SentimentRecord{
		rec(models.LabelNeutral, 0, base),
		rec(models.LabelPositive, 0.1, base.Add(time.Hour)),
		rec(models.LabelPositive, 0.5, base.Add(2*time.Hour)),
	}
	if v := Velocity(recs, time.Hour); v != 100 {
		t.Fatalf("strongest recent rise must be 100, got %v", v)
	}
}

func TestVelocityDecelerationScoresLow(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	recs := []models.SentimentRecord{
		rec(models.LabelPositive, 0.8, base),
		rec(models.LabelPositive, 0.7, base.Add(time.Hour)),
		rec(models.LabelPositive, 0.2, base.Add(2*time.Hour)),
	}
	if v := Velocity(recs, time.Hour); v != 0 {
		t.Fatalf("strongest recent drop must be 0, got %v", v)
	}
}

func TestDivergenceRisingChatterFallingDelivery(t *testing.T) {
	discussion := map[string]int{"2026-03-02": 10, "2026-03-03": 20, "2026-03-04": 30}
	delivery := map[string]int64{"2026-03-02": 100, "2026-03-03": 90, "2026-03-04": 80}

	score, ok := Divergence(discussion, delivery)
	if !ok {
		t.Fatalf("three overlapping days must be enough")
	}
	if score < divergenceThreshold {
		t.Fatalf("expected hype-grade divergence, got %v", score)
	}
	if Classify(score) != models.DirectionHype {
		t.Fatalf("expected hype, got %s", Classify(score))
	}
}

func TestDivergenceNeedsOverlap(t *testing.T) {
	discussion := map[string]int{"2026-03-02": 10, "2026-03-03": 20}
	delivery := map[string]int64{"2026-03-04": 100, "2026-03-05": 90}
	if _, ok := Divergence(discussion, delivery); ok {
		t.Fatalf("disjoint days must not produce a score")
	}

	one := map[string]int64{"2026-03-02": 100}
	if _, ok := Divergence(discussion, one); ok {
		t.Fatalf("one overlapping day must not produce a score")
	}
}

func TestDivergenceFlatSeries(t *testing.T) {
	discussion := map[string]int{"2026-03-02": 10, "2026-03-03": 10, "2026-03-04": 10}
	delivery := map[string]int64{"2026-03-02": 100, "2026-03-03": 100, "2026-03-04": 100}
	score, ok := Divergence(discussion, delivery)
	if !ok || score != 0 {
		t.Fatalf("flat series must yield 0, got %v (ok=%v)", score, ok)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  models.DivergenceDirection
	}{
		{1.5, models.DirectionHype},
		{-1.5, models.DirectionPanic},
		{1.4999, models.DirectionNeutral},
		{-1.4999, models.DirectionNeutral},
		{0, models.DirectionNeutral},
		{3.2, models.DirectionHype},
	}
	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestConfidenceWeights(t *testing.T) {
	if c := Confidence(1, 1, 1); c != 1.0 {
		t.Fatalf("Confidence(1,1,1) = %v, want 1.0", c)
	}
	if c := Confidence(0, 0, 0); c != 0.0 {
		t.Fatalf("Confidence(0,0,0) = %v, want 0.0", c)
	}
	if c := Confidence(1, 0, 0); math.Abs(c-0.4) > 1e-9 {
		t.Fatalf("certainty weight should be 0.4, got %v", c)
	}
	if c := Confidence(0, 1, 0); math.Abs(c-0.3) > 1e-9 {
		t.Fatalf("sufficiency weight should be 0.3, got %v", c)
	}
}

func TestDataSufficiency(t *testing.T) {
	if s := DataSufficiency(50, 100); s != 0.5 {
		t.Fatalf("expected 0.5, got %v", s)
	}
	if s := DataSufficiency(250, 100); s != 1.0 {
		t.Fatalf("sufficiency must cap at 1, got %v", s)
	}
	if s := DataSufficiency(0, 100); s != 0 {
		t.Fatalf("expected 0, got %v", s)
	}
}

func TestSignalConsistency(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// consistency counts labels, not scores: two positives agree fully no
	// matter how far apart their confidences are
	agree := []models.SentimentRecord{
		rec(models.LabelPositive, 0.9, at),
		rec(models.LabelPositive, 0.3, at),
	}
	if c := SignalConsistency(agree); c != 1.0 {
		t.Fatalf("unanimous labels must score 1, got %v", c)
	}

	split := []models.SentimentRecord{
		rec(models.LabelPositive, 1.0, at),
		rec(models.LabelNegative, 1.0, at),
	}
	if c := SignalConsistency(split); c != 0.5 {
		t.Fatalf("even two-way split must score 0.5, got %v", c)
	}

	majority := []models.SentimentRecord{
		rec(models.LabelPositive, 0.8, at),
		rec(models.LabelPositive, 0.8, at),
		rec(models.LabelNegative, 0.8, at),
		rec(models.LabelNeutral, 0.8, at),
	}
	if c := SignalConsistency(majority); c != 0.5 {
		t.Fatalf("2-of-4 majority must score 0.5, got %v", c)
	}

	if c := SignalConsistency(nil); c != 0 {
		t.Fatalf("no posts must score 0, got %v", c)
	}
}
