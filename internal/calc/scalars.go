// Package calc holds the pure biometric formulas of the engine: scalar
// derivation from field-test results, heart-rate zone computation and the
// per-discipline zone-to-absolute policy bands. No side effects, no I/O.
package calc

import (
	"math"
	"time"

	"tripeak/training-engine/internal/domain"
)

// CSSFrom400m derives critical swim speed (sec per 100m) from a 400m time
// trial: quarter of the total time plus a fixed 3-second drift allowance.
func CSSFrom400m(time400mSec float64) float64 {
	return time400mSec/4 + 3.0
}

// FTPFrom20MinPower derives functional threshold power (watts) from the
// average power of a 20-minute test.
func FTPFrom20MinPower(avgPower20Min float64) int {
	return int(math.Round(avgPower20Min * 0.95))
}

// ThresholdPaceFromMile derives threshold run pace (sec per mile) from a
// 1-mile time trial.
func ThresholdPaceFromMile(time1MileSec float64) int {
	return int(math.Round(time1MileSec * 1.15))
}

// Age returns completed years between dateOfBirth and asOf.
func Age(dateOfBirth, asOf time.Time) int {
	years := asOf.Year() - dateOfBirth.Year()
	anniversary := dateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(asOf) {
		years--
	}
	return years
}

// MaxHeartRate resolves the max-HR baseline: a user-provided value wins,
// otherwise 220 minus age. With neither available the formula cannot run and
// the caller gets ErrComputation.
func MaxHeartRate(userProvided int, dateOfBirth *time.Time, asOf time.Time) (int, error) {
	if userProvided > 0 {
		return userProvided, nil
	}
	if dateOfBirth != nil {
		return 220 - Age(*dateOfBirth, asOf), nil
	}
	return 0, domain.Computationf("max heart rate requires a provided value or a date of birth")
}
