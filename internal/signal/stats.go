// Package signal computes the divergence signal: sentiment aggregates,
// velocity, the discussion-vs-delivery divergence score, and confidence.
package signal

import "math"

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// zscores standardizes xs. A zero spread yields all zeros rather than NaNs.
func zscores(xs []float64) []float64 {
	out := make([]float64, len(xs))
	sd := stddev(xs)
	if sd == 0 {
		return out
	}
	m := mean(xs)
	for i, x := range xs {
		out[i] = (x - m) / sd
	}
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
