package state

import "math"

// AddMetric adds two costs, saturating to INF.
func AddMetric(a, b float64) float64 {
	if math.IsInf(a, 1) || math.IsInf(b, 1) {
		return INF
	}
	return a + b
}

// ValidDelay reports whether d can be used as a link delay.
func ValidDelay(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d >= 0
}
