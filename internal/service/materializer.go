package service

import (
	"math"
	"time"

	"tripeak/training-engine/internal/calc"
	"tripeak/training-engine/internal/domain"
)

// MaterializeWorkout binds one template to a user's scalars: every step's
// coefficient becomes an absolute target (coefficient x scalar x intensity,
// rounded to the discipline's unit). volumeFactor scales step durations per
// the phase's volume modifier.
//
// Degradation rule: a step whose scalar is absent becomes a zone-only target
// instead of failing the whole materialization. The produced structure is
// immutable; callers persist it on the workout.
func MaterializeWorkout(tmpl *domain.WorkoutTemplate, bio *domain.Biometrics, zones []domain.HeartRateZone, intensity, volumeFactor float64, now time.Time) *domain.CalculatedStructure {
	if intensity <= 0 {
		intensity = 1.0
	}
	if volumeFactor <= 0 {
		volumeFactor = 1.0
	}

	structure := &domain.CalculatedStructure{
		Steps:          make([]domain.MaterializedStep, 0, len(tmpl.Steps)),
		MaterializedAt: now.UTC(),
	}
	for _, step := range tmpl.Steps {
		m := materializeStep(step, tmpl.Discipline, bio, zones, intensity)
		m.DurationSeconds = int(math.Round(float64(step.DurationSeconds) * volumeFactor))
		structure.Steps = append(structure.Steps, m)
		structure.TotalDurationSeconds += m.DurationSeconds
	}
	return structure
}

func materializeStep(step domain.TemplateStep, discipline domain.Discipline, bio *domain.Biometrics, zones []domain.HeartRateZone, intensity float64) domain.MaterializedStep {
	m := domain.MaterializedStep{
		Name:      step.Name,
		Kind:      step.Target.Kind,
		TargetRPE: step.TargetRPE,
	}

	switch step.Target.Kind {
	case domain.TargetPercentFtp:
		if bio.HasFTP() {
			w := roundInt(step.Target.Percent * float64(bio.FunctionalThresholdPower) * intensity)
			m.TargetWatts = &w
		} else {
			degradeToZone(&m, nearestBikeZone(step.Target.Percent))
		}

	case domain.TargetPercentCss:
		if bio.HasCSS() {
			p := roundInt(step.Target.Percent * bio.CriticalSwimSpeed * intensity)
			m.TargetSwimPace = &p
		} else {
			degradeToZone(&m, nearestSwimZone(step.Target.Percent))
		}

	case domain.TargetPercentPace:
		if bio.HasThresholdPace() {
			p := roundInt(step.Target.Percent * float64(bio.ThresholdRunPace) * intensity)
			m.TargetPaceSec = &p
		} else {
			degradeToZone(&m, nearestRunZone(step.Target.Percent))
		}

	case domain.TargetZone:
		m.Zone = step.Target.Zone
		bindZoneAbsolutes(&m, step.Target.Zone, discipline, bio, zones, intensity)
	}
	return m
}

// bindZoneAbsolutes attaches absolute numbers to a zone step where scalars
// allow; a zone step with no scalar stays zone-only by design. The absolute
// comes from the fixed zone-to-scalar policy bands, in the discipline's unit.
func bindZoneAbsolutes(m *domain.MaterializedStep, zone int, discipline domain.Discipline, bio *domain.Biometrics, zones []domain.HeartRateZone, intensity float64) {
	switch discipline {
	case domain.DisciplineBike:
		if bio.HasFTP() {
			if w, ok := calc.BikeZoneWatts(zone, float64(bio.FunctionalThresholdPower), intensity); ok {
				m.TargetWatts = &w
			}
		}
	case domain.DisciplineRun:
		if bio.HasThresholdPace() {
			if p, ok := calc.RunZonePace(zone, float64(bio.ThresholdRunPace), intensity); ok {
				m.TargetPaceSec = &p
			}
		}
	case domain.DisciplineSwim:
		if bio.HasCSS() {
			if p, ok := calc.SwimZonePace(zone, bio.CriticalSwimSpeed, intensity); ok {
				m.TargetSwimPace = &p
			}
		}
	}
	if bpm, ok := calc.ZoneMidBPM(zones, zone); ok {
		b := bpm
		m.TargetBPM = &b
	}
}

// degradeToZone converts a scalar-relative step into the documented zone-only
// fallback.
func degradeToZone(m *domain.MaterializedStep, zone int) {
	m.Kind = domain.TargetZone
	m.Zone = zone
}

// nearestBikeZone maps an FTP fraction to the closest zone band.
func nearestBikeZone(pct float64) int {
	return nearestZone(pct, calc.BikeZonePctFTP)
}

// nearestSwimZone maps a CSS pace multiplier to the closest zone band (larger
// multiplier = slower = lower zone).
func nearestSwimZone(pct float64) int {
	return nearestZone(pct, calc.SwimZonePctCSS)
}

// nearestRunZone maps a threshold-pace fraction to a zone. Run coefficients
// near or under 1.0 are threshold-and-up work; above it, progressively easier.
func nearestRunZone(pct float64) int {
	switch {
	case pct <= 0.95:
		return 5
	case pct <= 1.0:
		return 4
	case pct <= 1.1:
		return 3
	case pct <= 1.2:
		return 2
	default:
		return 1
	}
}

func nearestZone(pct float64, bands [5]float64) int {
	best, bestDiff := 1, math.MaxFloat64
	for i, b := range bands {
		if d := math.Abs(pct - b); d < bestDiff {
			best, bestDiff = i+1, d
		}
	}
	return best
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
