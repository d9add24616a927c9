package templates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tripeak/training-engine/internal/domain"
)

const libraryJSON = `{
  "version": 1,
  "templates": [
    {
      "id": "bike-threshold-2x20-v2",
      "name": "2x20 at Threshold",
      "discipline": "bike",
      "difficultyTier": 2,
      "priorityLevel": 2,
      "version": 2,
      "steps": [
        { "name": "warmup", "target": { "kind": "targetZone", "zone": 2 }, "targetRpe": 3, "durationSeconds": 900 },
        { "name": "interval 1", "target": { "kind": "percentFtp", "percent": 1.0 }, "targetRpe": 7, "durationSeconds": 1200 }
      ]
    },
    {
      "id": "run-recovery-jog-v1",
      "name": "Recovery Jog",
      "discipline": "run",
      "difficultyTier": 1,
      "priorityLevel": 3,
      "version": 1,
      "steps": [
        { "name": "easy jog", "target": { "kind": "targetZone", "zone": 1 }, "targetRpe": 2, "durationSeconds": 1800 }
      ]
    },
    {
      "id": "run-threshold-3x10-v1",
      "name": "3x10 at Threshold",
      "discipline": "run",
      "difficultyTier": 2,
      "priorityLevel": 2,
      "version": 1,
      "steps": [
        { "name": "intervals", "target": { "kind": "percentTp", "percent": 1.0 }, "targetRpe": 7, "durationSeconds": 1800 }
      ]
    }
  ]
}`

func writeLibraryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing library file: %v", err)
	}
	return path
}

func TestFileSourceLoadsLibrary(t *testing.T) {
	path := writeLibraryFile(t, libraryJSON)

	lib, err := FromSource(context.Background(), NewFileSource(path))
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}
	if lib.Len() != 3 {
		t.Fatalf("Len = %d, want 3", lib.Len())
	}

	tmpl, err := lib.Get("bike-threshold-2x20-v2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tmpl.Discipline != domain.DisciplineBike || tmpl.Version != 2 {
		t.Errorf("template = %s v%d, want bike v2", tmpl.Discipline, tmpl.Version)
	}
	if len(tmpl.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(tmpl.Steps))
	}
	if got := tmpl.Steps[1].Target; got.Kind != domain.TargetPercentFtp || got.Percent != 1.0 {
		t.Errorf("step target = %+v, want percentFtp 1.0", got)
	}
}

func TestFileSourceRejectsEmptyLibrary(t *testing.T) {
	path := writeLibraryFile(t, `{"version": 1, "templates": []}`)

	_, err := FromSource(context.Background(), NewFileSource(path))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestNewLibraryRejectsDuplicateIDs(t *testing.T) {
	pool := []domain.WorkoutTemplate{
		{ID: "a", Discipline: domain.DisciplineRun},
		{ID: "a", Discipline: domain.DisciplineBike},
	}
	if _, err := NewLibrary(pool); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestLibrarySelectAndRecoveryPool(t *testing.T) {
	path := writeLibraryFile(t, libraryJSON)
	lib, err := FromSource(context.Background(), NewFileSource(path))
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}

	runT2 := lib.Select(domain.DisciplineRun, 2)
	if len(runT2) != 1 || runT2[0].ID != "run-threshold-3x10-v1" {
		t.Errorf("Select(run, 2) = %v", runT2)
	}
	if got := lib.Select(domain.DisciplineSwim, 1); len(got) != 0 {
		t.Errorf("Select(swim, 1) = %v, want empty", got)
	}

	pool := lib.RecoveryPool(domain.DisciplineRun)
	if len(pool) != 1 || pool[0].ID != "run-recovery-jog-v1" {
		t.Errorf("RecoveryPool(run) = %v", pool)
	}
	if got := lib.RecoveryPool(domain.DisciplineBike); len(got) != 0 {
		t.Errorf("RecoveryPool(bike) = %v, want empty", got)
	}
}
