package signal

import "CrowdPulse/internal/domain/models"

// Confidence weights. Certainty dominates because a signal built on scores
// the model itself doubts is worth little regardless of volume.
const (
	weightCertainty   = 0.4
	weightSufficiency = 0.3
	weightConsistency = 0.3
)

// Confidence combines the three sub-scores into [0, 1].
func Confidence(certainty, sufficiency, consistency float64) float64 {
	return clamp01(weightCertainty*certainty +
		weightSufficiency*sufficiency +
		weightConsistency*consistency)
}

// ModelCertainty is the mean scorer confidence across the window. Degraded
// records carry zero confidence and pull this down, which is the point.
func ModelCertainty(recs []models.SentimentRecord) float64 {
	if len(recs) == 0 {
		return 0
	}
	sum := 0.0
	for _, rec := range recs {
		sum += rec.Score
	}
	return clamp01(sum / float64(len(recs)))
}

// DataSufficiency is the post count relative to the ideal threshold, capped
// at 1.
func DataSufficiency(count, ideal int) float64 {
	if ideal <= 0 || count <= 0 {
		return 0
	}
	return clamp01(float64(count) / float64(ideal))
}

// SignalConsistency measures agreement between scored posts: the share held
// by the most frequent label. 1 when every post carries the same label,
// 1/3-ish when the labels are evenly split.
func SignalConsistency(recs []models.SentimentRecord) float64 {
	if len(recs) == 0 {
		return 0
	}
	counts := make(map[models.SentimentLabel]int, 3)
	best := 0
	for _, rec := range recs {
		counts[rec.Label]++
		if counts[rec.Label] > best {
			best = counts[rec.Label]
		}
	}
	return float64(best) / float64(len(recs))
}
