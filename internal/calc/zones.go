package calc

import (
	"math"

	"tripeak/training-engine/internal/domain"
)

// Heart-rate zone bands as fractions. Applied to max HR (standard) or to HR
// reserve anchored at resting HR (Karvonen). Policy constants, not derived.
var hrZoneBands = [5]struct{ Low, High float64 }{
	{0.50, 0.60}, // Z1
	{0.60, 0.75}, // Z2
	{0.75, 0.85}, // Z3
	{0.85, 0.95}, // Z4
	{0.95, 1.00}, // Z5
}

// BikeZonePctFTP maps zone 1..5 to a fraction of FTP. Policy constants.
var BikeZonePctFTP = [5]float64{0.55, 0.75, 0.90, 1.05, 1.20}

// SwimZonePctCSS maps zone 1..5 to a pace multiplier on CSS (sec/100m, so a
// larger multiplier is slower). Spread across 85-125% of CSS. Policy
// constants.
var SwimZonePctCSS = [5]float64{1.25, 1.15, 1.05, 0.95, 0.85}

// runZoneEdge is one boundary of a run pace zone: either a seconds offset
// added to threshold pace or (when Pct is nonzero) a multiplier on it.
type runZoneEdge struct {
	OffsetSec int
	Pct       float64
}

// RunZoneBands brackets threshold pace with fixed offsets, slower edge first
// (larger offset = slower pace). The fast end of Z4 and both edges of Z5 are
// percentage-based. Policy constants.
var RunZoneBands = [5]struct{ Slow, Fast runZoneEdge }{
	{runZoneEdge{OffsetSec: 150}, runZoneEdge{OffsetSec: 120}}, // Z1
	{runZoneEdge{OffsetSec: 90}, runZoneEdge{OffsetSec: 60}},   // Z2
	{runZoneEdge{OffsetSec: 45}, runZoneEdge{OffsetSec: 20}},   // Z3
	{runZoneEdge{OffsetSec: 0}, runZoneEdge{Pct: 0.95}},        // Z4
	{runZoneEdge{Pct: 0.95}, runZoneEdge{Pct: 0.85}},           // Z5
}

func (e runZoneEdge) paceSec(thresholdPace float64) float64 {
	if e.Pct != 0 {
		return thresholdPace * e.Pct
	}
	return thresholdPace + float64(e.OffsetSec)
}

// HeartRateZones computes the five HR bands for a user. Karvonen is selected
// automatically when a resting HR is present; otherwise the standard
// pct-of-max formula applies. maxHR must be positive.
func HeartRateZones(maxHR, restingHR int) ([]domain.HeartRateZone, error) {
	if maxHR <= 0 {
		return nil, domain.Computationf("heart-rate zones require a max heart rate")
	}
	method := domain.ZoneMethodStandard
	if restingHR > 0 {
		method = domain.ZoneMethodKarvonen
	}
	zones := make([]domain.HeartRateZone, 0, 5)
	for i, band := range hrZoneBands {
		var lo, hi float64
		if method == domain.ZoneMethodKarvonen {
			reserve := float64(maxHR - restingHR)
			lo = reserve*band.Low + float64(restingHR)
			hi = reserve*band.High + float64(restingHR)
		} else {
			lo = float64(maxHR) * band.Low
			hi = float64(maxHR) * band.High
		}
		zones = append(zones, domain.HeartRateZone{
			Zone:   i + 1,
			MinBPM: int(math.Round(lo)),
			MaxBPM: int(math.Round(hi)),
			Method: method,
		})
	}
	return zones, nil
}

// ZoneMidBPM returns the midpoint bpm of a zone band, used when a zone step
// materializes to an absolute heart-rate target.
func ZoneMidBPM(zones []domain.HeartRateZone, zone int) (int, bool) {
	for _, z := range zones {
		if z.Zone == zone {
			return (z.MinBPM + z.MaxBPM) / 2, true
		}
	}
	return 0, false
}

// BikeZoneWatts converts a zone target to absolute watts from FTP.
func BikeZoneWatts(zone int, ftp float64, intensity float64) (int, bool) {
	if zone < 1 || zone > 5 || ftp <= 0 {
		return 0, false
	}
	return int(math.Round(BikeZonePctFTP[zone-1] * ftp * intensity)), true
}

// SwimZonePace converts a zone target to absolute sec/100m from CSS.
func SwimZonePace(zone int, css float64, intensity float64) (int, bool) {
	if zone < 1 || zone > 5 || css <= 0 {
		return 0, false
	}
	return int(math.Round(SwimZonePctCSS[zone-1] * css * intensity)), true
}

// RunZonePace converts a zone target to absolute sec/mile: the midpoint of
// the zone's bracketing edges around threshold pace.
func RunZonePace(zone int, thresholdPace float64, intensity float64) (int, bool) {
	if zone < 1 || zone > 5 || thresholdPace <= 0 {
		return 0, false
	}
	band := RunZoneBands[zone-1]
	mid := (band.Slow.paceSec(thresholdPace) + band.Fast.paceSec(thresholdPace)) / 2
	return int(math.Round(mid * intensity)), true
}
