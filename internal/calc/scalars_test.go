package calc

import (
	"errors"
	"testing"
	"time"

	"tripeak/training-engine/internal/domain"
)

func TestCSSFrom400m(t *testing.T) {
	tests := []struct {
		name     string
		time400m float64
		want     float64
	}{
		{"100s per 100m swimmer", 400, 103.0},
		{"six-minute swimmer", 360, 93.0},
		{"slow swimmer", 520, 133.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CSSFrom400m(tt.time400m); got != tt.want {
				t.Errorf("CSSFrom400m(%v) = %v, want %v", tt.time400m, got, tt.want)
			}
		})
	}
}

func TestFTPFrom20MinPower(t *testing.T) {
	tests := []struct {
		name  string
		power float64
		want  int
	}{
		{"263W test effort", 263, 250},
		{"round up", 211, 200}, // 200.45 rounds down
		{"exact", 300, 285},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FTPFrom20MinPower(tt.power); got != tt.want {
				t.Errorf("FTPFrom20MinPower(%v) = %d, want %d", tt.power, got, tt.want)
			}
		})
	}
}

func TestThresholdPaceFromMile(t *testing.T) {
	tests := []struct {
		name     string
		mileTime float64
		want     int
	}{
		{"seven-minute miler", 420, 483},
		{"five-minute miler", 300, 345},
		{"rounding", 421, 484}, // 484.15
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ThresholdPaceFromMile(tt.mileTime); got != tt.want {
				t.Errorf("ThresholdPaceFromMile(%v) = %d, want %d", tt.mileTime, got, tt.want)
			}
		})
	}
}

func TestMaxHeartRate(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	dob := time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC) // 36 at asOf

	t.Run("provided value wins", func(t *testing.T) {
		got, err := MaxHeartRate(192, &dob, asOf)
		if err != nil || got != 192 {
			t.Errorf("MaxHeartRate(192, dob) = %d, %v, want 192, nil", got, err)
		}
	})

	t.Run("derived from age", func(t *testing.T) {
		got, err := MaxHeartRate(0, &dob, asOf)
		if err != nil || got != 184 {
			t.Errorf("MaxHeartRate(0, dob) = %d, %v, want 184, nil", got, err)
		}
	})

	t.Run("birthday not yet reached", func(t *testing.T) {
		late := time.Date(1990, 12, 31, 0, 0, 0, 0, time.UTC)
		got, err := MaxHeartRate(0, &late, asOf)
		if err != nil || got != 185 { // still 35
			t.Errorf("MaxHeartRate(0, lateDob) = %d, %v, want 185, nil", got, err)
		}
	})

	t.Run("neither available", func(t *testing.T) {
		_, err := MaxHeartRate(0, nil, asOf)
		if !errors.Is(err, domain.ErrComputation) {
			t.Errorf("MaxHeartRate(0, nil) error = %v, want ErrComputation", err)
		}
	})
}

func TestHeartRateZones(t *testing.T) {
	t.Run("standard when resting HR absent", func(t *testing.T) {
		zones, err := HeartRateZones(200, 0)
		if err != nil {
			t.Fatalf("HeartRateZones(200, 0) error: %v", err)
		}
		if len(zones) != 5 {
			t.Fatalf("got %d zones, want 5", len(zones))
		}
		if zones[0].Method != domain.ZoneMethodStandard {
			t.Errorf("method = %q, want standard", zones[0].Method)
		}
		// Z1 = 50-60% of 200
		if zones[0].MinBPM != 100 || zones[0].MaxBPM != 120 {
			t.Errorf("Z1 = [%d,%d], want [100,120]", zones[0].MinBPM, zones[0].MaxBPM)
		}
		// Z5 = 95-100%
		if zones[4].MinBPM != 190 || zones[4].MaxBPM != 200 {
			t.Errorf("Z5 = [%d,%d], want [190,200]", zones[4].MinBPM, zones[4].MaxBPM)
		}
	})

	t.Run("karvonen when resting HR present", func(t *testing.T) {
		zones, err := HeartRateZones(200, 50)
		if err != nil {
			t.Fatalf("HeartRateZones(200, 50) error: %v", err)
		}
		if zones[0].Method != domain.ZoneMethodKarvonen {
			t.Errorf("method = %q, want karvonen", zones[0].Method)
		}
		// Z1 = (200-50)*0.50+50 .. (200-50)*0.60+50
		if zones[0].MinBPM != 125 || zones[0].MaxBPM != 140 {
			t.Errorf("Z1 = [%d,%d], want [125,140]", zones[0].MinBPM, zones[0].MaxBPM)
		}
	})

	t.Run("missing max HR", func(t *testing.T) {
		_, err := HeartRateZones(0, 50)
		if !errors.Is(err, domain.ErrComputation) {
			t.Errorf("HeartRateZones(0, 50) error = %v, want ErrComputation", err)
		}
	})
}

func TestZoneToAbsolute(t *testing.T) {
	t.Run("bike zone watts", func(t *testing.T) {
		got, ok := BikeZoneWatts(4, 250, 1.0)
		if !ok || got != 263 { // 105% of 250 = 262.5 rounds up
			t.Errorf("BikeZoneWatts(4, 250, 1.0) = %d, %v, want 263, true", got, ok)
		}
	})
	t.Run("swim zone pace slower in low zones", func(t *testing.T) {
		z1, _ := SwimZonePace(1, 100, 1.0)
		z5, _ := SwimZonePace(5, 100, 1.0)
		if z1 != 125 || z5 != 85 {
			t.Errorf("SwimZonePace Z1/Z5 = %d/%d, want 125/85", z1, z5)
		}
	})
	t.Run("run zone pace ordering", func(t *testing.T) {
		prev := 1 << 30
		for zone := 1; zone <= 5; zone++ {
			pace, ok := RunZonePace(zone, 483, 1.0)
			if !ok {
				t.Fatalf("RunZonePace(%d) not ok", zone)
			}
			if pace >= prev {
				t.Errorf("RunZonePace(%d) = %d, not faster than zone %d (%d)", zone, pace, zone-1, prev)
			}
			prev = pace
		}
	})
	t.Run("out of range zone", func(t *testing.T) {
		if _, ok := BikeZoneWatts(6, 250, 1.0); ok {
			t.Error("BikeZoneWatts(6) ok, want false")
		}
	})
}

func TestSessionTRIMPAndFold(t *testing.T) {
	t.Run("no HR data yields zero", func(t *testing.T) {
		if got := SessionTRIMP(3600, 0, 190, 50); got != 0 {
			t.Errorf("SessionTRIMP without HR = %v, want 0", got)
		}
	})
	t.Run("harder sessions load more", func(t *testing.T) {
		easy := SessionTRIMP(3600, 120, 190, 50)
		hard := SessionTRIMP(3600, 170, 190, 50)
		if easy <= 0 || hard <= easy {
			t.Errorf("TRIMP easy=%v hard=%v, want 0 < easy < hard", easy, hard)
		}
	})
	t.Run("fold moves averages toward the session", func(t *testing.T) {
		acute, chronic := FoldLoad(0, 0, 80)
		if acute != 80*acuteDecay || chronic != 80*chronicDecay {
			t.Errorf("FoldLoad(0,0,80) = %v, %v", acute, chronic)
		}
		if acute <= chronic {
			t.Errorf("acute %v should react faster than chronic %v", acute, chronic)
		}
	})
}
