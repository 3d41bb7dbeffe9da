package signal

import (
	"sort"

	"CrowdPulse/internal/domain/models"
)

// divergenceThreshold splits the z-score difference into directions. The
// boundary itself counts as divergent.
const divergenceThreshold = 1.5

// minOverlapDays is the minimum number of days both series must cover before
// a divergence score means anything.
const minOverlapDays = 2

// Divergence compares how much people talk about a symbol with how much
// stock actually changes hands. Both daily series are standardized and the
// score is z(discussion) - z(delivery) on the most recent shared day. A
// positive score means chatter outruns delivery (hype); a negative one means
// delivery outruns chatter (panic or quiet accumulation).
//
// discussion maps day key to post count, delivery maps day key to delivered
// volume. Fewer than two overlapping days makes the score meaningless; ok is
// false and the caller must not emit.
func Divergence(discussion map[string]int, delivery map[string]int64) (score float64, ok bool) {
	days := make([]string, 0, len(discussion))
	for day := range discussion {
		if _, ok := delivery[day]; ok {
			days = append(days, day)
		}
	}
	if len(days) < minOverlapDays {
		return 0, false
	}
	sort.Strings(days)

	disc := make([]float64, len(days))
	del := make([]float64, len(days))
	for i, day := range days {
		disc[i] = float64(discussion[day])
		del[i] = float64(delivery[day])
	}

	zd := zscores(disc)
	zv := zscores(del)
	return zd[len(zd)-1] - zv[len(zv)-1], true
}

// Classify maps a divergence score to a direction.
func Classify(score float64) models.DivergenceDirection {
	switch {
	case score >= divergenceThreshold:
		return models.DirectionHype
	case score <= -divergenceThreshold:
		return models.DirectionPanic
	default:
		return models.DirectionNeutral
	}
}
