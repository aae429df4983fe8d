package filter

import "math"

// MeanStdDev returns the mean and population standard deviation of the
// values. Sums are accumulated in float64. An empty slice yields (0, 0).
func MeanStdDev(values []float32) (mean, stddev float32) {
	if len(values) == 0 {
		return 0, 0
	}

	n := float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	m := sum / n

	sq := 0.0
	for _, v := range values {
		d := float64(v) - m
		sq += d * d
	}

	return float32(m), float32(math.Sqrt(sq / n))
}

// HysteresisThresholds derives the weak/strong edge thresholds used by the
// threshold edge detector: mean ± one standard deviation of the
// luminance, with low clamped to ≥ 0 and high clamped to ≤ 1.
func HysteresisThresholds(luminance []float32) (low, high float32) {
	mean, std := MeanStdDev(luminance)
	low = max(mean-std, 0)
	high = min(mean+std, 1)
	return low, high
}
