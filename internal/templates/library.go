package templates

import (
	"context"
	"sort"

	"tripeak/training-engine/internal/domain"
)

// Source loads the versioned, read-only template library from wherever it is
// published (a local file in development, an S3 object in production).
type Source interface {
	Load(ctx context.Context) ([]domain.WorkoutTemplate, error)
}

// Library is an in-memory index over the loaded template pool. Read-only
// after construction.
type Library struct {
	byID      map[string]domain.WorkoutTemplate
	templates []domain.WorkoutTemplate
}

// NewLibrary builds a library from a loaded template pool, rejecting
// duplicate ids.
func NewLibrary(pool []domain.WorkoutTemplate) (*Library, error) {
	lib := &Library{byID: make(map[string]domain.WorkoutTemplate, len(pool))}
	for _, t := range pool {
		if t.ID == "" {
			return nil, domain.Validationf("template without id")
		}
		if _, dup := lib.byID[t.ID]; dup {
			return nil, domain.Validationf("duplicate template id %q", t.ID)
		}
		lib.byID[t.ID] = t
		lib.templates = append(lib.templates, t)
	}
	// Stable ordering keeps plan generation deterministic for a given pool.
	sort.Slice(lib.templates, func(i, j int) bool { return lib.templates[i].ID < lib.templates[j].ID })
	return lib, nil
}

// FromSource loads a source and indexes it.
func FromSource(ctx context.Context, src Source) (*Library, error) {
	pool, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	return NewLibrary(pool)
}

// Get returns a template by id.
func (l *Library) Get(id string) (domain.WorkoutTemplate, error) {
	t, ok := l.byID[id]
	if !ok {
		return domain.WorkoutTemplate{}, domain.NotFoundf("template %q", id)
	}
	return t, nil
}

// Select returns the templates for a discipline at a difficulty tier, in
// stable id order.
func (l *Library) Select(d domain.Discipline, difficultyTier int) []domain.WorkoutTemplate {
	var out []domain.WorkoutTemplate
	for _, t := range l.templates {
		if t.Discipline == d && t.DifficultyTier == difficultyTier {
			out = append(out, t)
		}
	}
	return out
}

// RecoveryPool returns low-intensity templates (zone 1-2 only, recovery
// priority) for a discipline; used for calibration-week filler days and
// adaptation demotions.
func (l *Library) RecoveryPool(d domain.Discipline) []domain.WorkoutTemplate {
	var out []domain.WorkoutTemplate
	for _, t := range l.templates {
		if t.Discipline != d || t.PriorityLevel != domain.PriorityRecovery {
			continue
		}
		if z := t.MaxZone(); z == 0 || z <= 2 {
			out = append(out, t)
		}
	}
	return out
}

// Len reports the pool size.
func (l *Library) Len() int { return len(l.templates) }
