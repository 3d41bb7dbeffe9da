package signal

import (
	"sort"
	"time"

	"CrowdPulse/internal/domain/models"
)

// neutralVelocity is returned whenever the data cannot express a trend: too
// few windows, or no spread between window-to-window changes.
const neutralVelocity = 50.0

// scoreValue maps a sentiment record onto [-1, 1]: confidence signed by
// label, neutral pinned at zero.
func scoreValue(rec models.SentimentRecord) float64 {
	switch rec.Label {
	case models.LabelPositive:
		return rec.Score
	case models.LabelNegative:
		return -rec.Score
	default:
		return 0
	}
}

// Velocity measures how fast sentiment is moving. Records are bucketed into
// fixed windows, window means are diffed, and the latest diff is min-max
// scaled against the run of diffs onto [0, 100]. 50 is neutral: no movement
// or not enough windows to tell.
func Velocity(recs []models.SentimentRecord, window time.Duration) float64 {
	if window <= 0 {
		window = time.Hour
	}

	buckets := make(map[int64][]float64)
	for _, rec := range recs {
		key := rec.ObservedAt.UTC().Truncate(window).Unix()
		buckets[key] = append(buckets[key], scoreValue(rec))
	}
	if len(buckets) < 2 {
		return neutralVelocity
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	means := make([]float64, len(keys))
	for i, k := range keys {
		means[i] = mean(buckets[k])
	}

	diffs := make([]float64, len(means)-1)
	for i := 1; i < len(means); i++ {
		diffs[i-1] = means[i] - means[i-1]
	}

	lo, hi := diffs[0], diffs[0]
	for _, d := range diffs[1:] {
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	if hi == lo {
		return neutralVelocity
	}
	return (diffs[len(diffs)-1] - lo) / (hi - lo) * 100
}
