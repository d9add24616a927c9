package service

// In-memory repository fakes shared by the service tests. They implement
// just enough of the repository contracts to exercise the services without a
// database.

import (
	"context"
	"sort"
	"time"

	"tripeak/training-engine/internal/domain"
	"tripeak/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

// add seeds a user the way the external auth service would provision one.
func (r *fakeUserRepo) add(u *domain.User) primitive.ObjectID {
	if u.ID == primitive.NilObjectID {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	r.users[u.ID] = &cp
	return u.ID
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

type fakeBioRepo struct {
	byUser map[primitive.ObjectID]*domain.Biometrics
}

func newFakeBioRepo() *fakeBioRepo {
	return &fakeBioRepo{byUser: make(map[primitive.ObjectID]*domain.Biometrics)}
}

func (r *fakeBioRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.Biometrics, error) {
	b, ok := r.byUser[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBioRepo) Upsert(_ context.Context, bio *domain.Biometrics) error {
	cp := *bio
	r.byUser[bio.UserID] = &cp
	return nil
}

type fakeZoneRepo struct {
	byUser map[primitive.ObjectID][]domain.HeartRateZone
}

func newFakeZoneRepo() *fakeZoneRepo {
	return &fakeZoneRepo{byUser: make(map[primitive.ObjectID][]domain.HeartRateZone)}
}

func (r *fakeZoneRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.HeartRateZone, error) {
	return append([]domain.HeartRateZone(nil), r.byUser[userID]...), nil
}

func (r *fakeZoneRepo) ReplaceForUser(_ context.Context, userID primitive.ObjectID, zones []domain.HeartRateZone) error {
	r.byUser[userID] = append([]domain.HeartRateZone(nil), zones...)
	return nil
}

type fakePlanRepo struct {
	plans map[primitive.ObjectID]*domain.TrainingPlan
}

func newFakePlanRepo() *fakePlanRepo {
	return &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.TrainingPlan)}
}

func (r *fakePlanRepo) Create(_ context.Context, p *domain.TrainingPlan) (primitive.ObjectID, error) {
	if p.ID == primitive.NilObjectID {
		p.ID = primitive.NewObjectID()
	}
	cp := *p
	r.plans[p.ID] = &cp
	return p.ID, nil
}

func (r *fakePlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) GetActiveByUserID(_ context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	for _, p := range r.plans {
		if p.UserID == userID && p.Status == domain.PlanActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakePlanRepo) ListActive(_ context.Context) ([]domain.TrainingPlan, error) {
	var out []domain.TrainingPlan
	for _, p := range r.plans {
		if p.Status == domain.PlanActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (r *fakePlanRepo) Update(_ context.Context, p *domain.TrainingPlan) error {
	if _, ok := r.plans[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *fakePlanRepo) ArchiveActiveForUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	var n int64
	for _, p := range r.plans {
		if p.UserID == userID && p.Status == domain.PlanActive {
			p.Status = domain.PlanArchived
			n++
		}
	}
	return n, nil
}

type fakeWorkoutRepo struct {
	workouts map[primitive.ObjectID]*domain.Workout
}

func newFakeWorkoutRepo() *fakeWorkoutRepo {
	return &fakeWorkoutRepo{workouts: make(map[primitive.ObjectID]*domain.Workout)}
}

func (r *fakeWorkoutRepo) CreateMany(_ context.Context, workouts []domain.Workout) error {
	for i := range workouts {
		w := workouts[i]
		if w.ID == primitive.NilObjectID {
			w.ID = primitive.NewObjectID()
		}
		r.workouts[w.ID] = &w
	}
	return nil
}

func (r *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	w, ok := r.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWorkoutRepo) Update(_ context.Context, w *domain.Workout) error {
	cur, ok := r.workouts[w.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Status == domain.WorkoutCompleted {
		return repository.ErrUpdateFailed
	}
	cp := *w
	r.workouts[w.ID] = &cp
	return nil
}

func (r *fakeWorkoutRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.workouts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.workouts, id)
	return nil
}

func (r *fakeWorkoutRepo) planned(planID primitive.ObjectID, keep func(*domain.Workout) bool) []domain.Workout {
	var out []domain.Workout
	for _, w := range r.workouts {
		if w.PlanID == planID && w.Status == domain.WorkoutPlanned && keep(w) {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (r *fakeWorkoutRepo) ListPlannedBefore(_ context.Context, planID primitive.ObjectID, day time.Time) ([]domain.Workout, error) {
	return r.planned(planID, func(w *domain.Workout) bool {
		return w.ScheduledDate.Before(day)
	}), nil
}

func (r *fakeWorkoutRepo) ListPlannedBetween(_ context.Context, planID primitive.ObjectID, from, to time.Time) ([]domain.Workout, error) {
	return r.planned(planID, func(w *domain.Workout) bool {
		return !w.ScheduledDate.Before(from) && w.ScheduledDate.Before(to)
	}), nil
}

func (r *fakeWorkoutRepo) ListPlannedByPriority(_ context.Context, planID primitive.ObjectID, priority int, day time.Time, limit int) ([]domain.Workout, error) {
	out := r.planned(planID, func(w *domain.Workout) bool {
		return w.PriorityLevel == priority && !w.ScheduledDate.Before(day)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeWorkoutRepo) ListPlannedFromWeek(_ context.Context, planID primitive.ObjectID, week int) ([]domain.Workout, error) {
	return r.planned(planID, func(w *domain.Workout) bool {
		return w.Week >= week
	}), nil
}

type fakeActivityRepo struct {
	entries []domain.ActivityLog
}

func (r *fakeActivityRepo) Create(_ context.Context, e *domain.ActivityLog) (primitive.ObjectID, error) {
	if e.ID == primitive.NilObjectID {
		e.ID = primitive.NewObjectID()
	}
	r.entries = append(r.entries, *e)
	return e.ID, nil
}

func (r *fakeActivityRepo) GetByWorkoutID(_ context.Context, workoutID primitive.ObjectID) (*domain.ActivityLog, error) {
	for i := range r.entries {
		if r.entries[i].WorkoutID == workoutID {
			cp := r.entries[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeFeedbackRepo struct {
	entries []domain.FeedbackLog
}

func (r *fakeFeedbackRepo) Create(_ context.Context, e *domain.FeedbackLog) (primitive.ObjectID, error) {
	if e.ID == primitive.NilObjectID {
		e.ID = primitive.NewObjectID()
	}
	r.entries = append(r.entries, *e)
	return e.ID, nil
}

type fakeAdaptationLogRepo struct {
	entries []domain.AdaptationLog
}

func (r *fakeAdaptationLogRepo) Create(_ context.Context, e *domain.AdaptationLog) (primitive.ObjectID, error) {
	if e.ID == primitive.NilObjectID {
		e.ID = primitive.NewObjectID()
	}
	r.entries = append(r.entries, *e)
	return e.ID, nil
}

func (r *fakeAdaptationLogRepo) ListByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.AdaptationLog, error) {
	var out []domain.AdaptationLog
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeStateRepo enforces the same optimistic versioning as the mongo
// implementation; conflictsBeforeSuccess simulates lost races.
type fakeStateRepo struct {
	states map[primitive.ObjectID]*domain.UserTrainingState

	conflictsBeforeSuccess int
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[primitive.ObjectID]*domain.UserTrainingState)}
}

func (r *fakeStateRepo) GetOrCreate(_ context.Context, userID primitive.ObjectID) (*domain.UserTrainingState, error) {
	if s, ok := r.states[userID]; ok {
		cp := *s
		return &cp, nil
	}
	s := &domain.UserTrainingState{ID: primitive.NewObjectID(), UserID: userID, Version: 1}
	r.states[userID] = s
	cp := *s
	return &cp, nil
}

func (r *fakeStateRepo) UpdateVersioned(_ context.Context, state *domain.UserTrainingState) error {
	if r.conflictsBeforeSuccess > 0 {
		r.conflictsBeforeSuccess--
		return repository.ErrVersionConflict
	}
	cur, ok := r.states[state.UserID]
	if !ok || cur.Version != state.Version {
		return repository.ErrVersionConflict
	}
	cp := *state
	cp.Version++
	r.states[state.UserID] = &cp
	state.Version = cp.Version
	return nil
}

type fakeLocker struct {
	held     map[primitive.ObjectID]string
	acquired int
	released int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[primitive.ObjectID]string)}
}

func (l *fakeLocker) Acquire(_ context.Context, userID primitive.ObjectID, owner string, _ time.Duration) error {
	if cur, ok := l.held[userID]; ok && cur != owner {
		return repository.ErrLockHeld
	}
	l.held[userID] = owner
	l.acquired++
	return nil
}

func (l *fakeLocker) Release(_ context.Context, userID primitive.ObjectID, owner string) error {
	if l.held[userID] == owner {
		delete(l.held, userID)
	}
	l.released++
	return nil
}

type fakeNotifier struct {
	adaptations  int
	calibrations int
}

func (n *fakeNotifier) NotifyAdaptationTriggered(context.Context, primitive.ObjectID) { n.adaptations++ }
func (n *fakeNotifier) NotifyCalibrationComplete(context.Context, primitive.ObjectID) { n.calibrations++ }
