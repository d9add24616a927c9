package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Biometrics holds the three engine scalars plus heart-rate baselines for one
// user. A zero value for any field means "not recorded yet" — a missing scalar
// degrades that discipline's workouts to zone-only targets rather than failing.
// Mutated only by the scalar-calculator pipeline (manual entry or a
// calibration-test result).
type Biometrics struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"` // one document per user

	CriticalSwimSpeed        float64 `bson:"criticalSwimSpeed,omitempty" json:"criticalSwimSpeed,omitempty"`               // sec per 100m
	FunctionalThresholdPower int     `bson:"functionalThresholdPower,omitempty" json:"functionalThresholdPower,omitempty"` // watts
	ThresholdRunPace         int     `bson:"thresholdRunPace,omitempty" json:"thresholdRunPace,omitempty"`                 // sec per mile

	MaxHeartRate     int `bson:"maxHeartRate,omitempty" json:"maxHeartRate,omitempty"`         // bpm
	RestingHeartRate int `bson:"restingHeartRate,omitempty" json:"restingHeartRate,omitempty"` // bpm

	RecordedAt time.Time `bson:"recordedAt" json:"recordedAt"`
}

// HasCSS reports whether the swim scalar is present.
func (b *Biometrics) HasCSS() bool { return b != nil && b.CriticalSwimSpeed > 0 }

// HasFTP reports whether the bike scalar is present.
func (b *Biometrics) HasFTP() bool { return b != nil && b.FunctionalThresholdPower > 0 }

// HasThresholdPace reports whether the run scalar is present.
func (b *Biometrics) HasThresholdPace() bool { return b != nil && b.ThresholdRunPace > 0 }

// Complete reports whether all three discipline scalars are recorded. Used to
// flip onboarding to COMPLETED after calibration.
func (b *Biometrics) Complete() bool {
	return b.HasCSS() && b.HasFTP() && b.HasThresholdPace()
}

// ScalarFor returns the scalar for a discipline, with ok=false when absent.
func (b *Biometrics) ScalarFor(d Discipline) (float64, bool) {
	if b == nil {
		return 0, false
	}
	switch d {
	case DisciplineSwim:
		return b.CriticalSwimSpeed, b.HasCSS()
	case DisciplineBike:
		return float64(b.FunctionalThresholdPower), b.HasFTP()
	case DisciplineRun:
		return float64(b.ThresholdRunPace), b.HasThresholdPace()
	}
	return 0, false
}

// HeartRateZoneMethod selects the zone formula.
type HeartRateZoneMethod string

const (
	ZoneMethodStandard HeartRateZoneMethod = "standard" // pct of max HR
	ZoneMethodKarvonen HeartRateZoneMethod = "karvonen" // pct of HR reserve, anchored at resting
)

// HeartRateZone is one of the five derived HR bands for a user. All five rows
// are recomputed together whenever max or resting heart rate changes.
type HeartRateZone struct {
	ID     primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID  `bson:"userId" json:"userId"`
	Zone   int                 `bson:"zone" json:"zone"` // 1..5
	MinBPM int                 `bson:"minBpm" json:"minBpm"`
	MaxBPM int                 `bson:"maxBpm" json:"maxBpm"`
	Method HeartRateZoneMethod `bson:"method" json:"method"`
}
