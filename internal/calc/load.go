package calc

import "math"

// EMA decay constants for the load accumulators: 7-day acute ("fatigue") and
// 42-day chronic ("fitness") time constants.
const (
	acuteDecay   = 2.0 / (7.0 + 1.0)
	chronicDecay = 2.0 / (42.0 + 1.0)

	// Banister gender coefficient (male default).
	trimpB = 1.92
)

// SessionTRIMP computes a Banister training impulse for one activity:
// duration (min) x HR reserve ratio x e^(b x ratio). Returns 0 when heart-rate
// data is missing or the reserve is degenerate.
func SessionTRIMP(durationSec, avgHR, maxHR, restingHR int) float64 {
	if avgHR <= 0 || maxHR <= restingHR {
		return 0
	}
	ratio := float64(avgHR-restingHR) / float64(maxHR-restingHR)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	minutes := float64(durationSec) / 60.0
	return minutes * ratio * math.Exp(trimpB*ratio)
}

// FoldLoad folds one session load into the acute and chronic exponential
// moving averages.
func FoldLoad(acute, chronic, sessionLoad float64) (newAcute, newChronic float64) {
	newAcute = acute + acuteDecay*(sessionLoad-acute)
	newChronic = chronic + chronicDecay*(sessionLoad-chronic)
	return newAcute, newChronic
}
