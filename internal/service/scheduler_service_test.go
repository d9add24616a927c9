package service

import (
	"context"
	"testing"
	"time"

	"tripeak/training-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type schedulerFixture struct {
	plans    *fakePlanRepo
	workouts *fakeWorkoutRepo
	locker   *fakeLocker
	svc      *schedulerService

	userID primitive.ObjectID
	planID primitive.ObjectID
	start  time.Time
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	f := &schedulerFixture{
		plans:    newFakePlanRepo(),
		workouts: newFakeWorkoutRepo(),
		locker:   newFakeLocker(),
		userID:   primitive.NewObjectID(),
		start:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), // a Monday
	}
	svc := NewSchedulerService(f.plans, f.workouts, f.locker, testPlanConfig())
	f.svc = svc.(*schedulerService)
	f.svc.now = func() time.Time { return f.start.AddDate(0, 0, 8) }
	f.svc.sleep = func(time.Duration) {}

	plan := &domain.TrainingPlan{
		UserID:       f.userID,
		StartDate:    f.start,
		CurrentWeek:  1,
		CurrentPhase: domain.PhaseBase,
		TotalWeeks:   16,
		Status:       domain.PlanActive,
	}
	id, err := f.plans.Create(context.Background(), plan)
	if err != nil {
		t.Fatalf("creating plan: %v", err)
	}
	f.planID = id
	return f
}

// addWorkout schedules a planned workout daysFromStart days into the plan.
func (f *schedulerFixture) addWorkout(t *testing.T, daysFromStart, priority int, d domain.Discipline) primitive.ObjectID {
	t.Helper()
	w := domain.Workout{
		ID:              primitive.NewObjectID(),
		PlanID:          f.planID,
		UserID:          f.userID,
		Name:            "session",
		Discipline:      d,
		ScheduledDate:   f.start.AddDate(0, 0, daysFromStart),
		Week:            daysFromStart/7 + 1,
		PriorityLevel:   priority,
		Status:          domain.WorkoutPlanned,
		IntensityScalar: 1.0,
	}
	if err := f.workouts.CreateMany(context.Background(), []domain.Workout{w}); err != nil {
		t.Fatalf("creating workout: %v", err)
	}
	return w.ID
}

func (f *schedulerFixture) sweep(t *testing.T, daysFromStart int) *SweepReport {
	t.Helper()
	report, err := f.svc.RunDailySweep(context.Background(), f.start.AddDate(0, 0, daysFromStart))
	if err != nil {
		t.Fatalf("RunDailySweep: %v", err)
	}
	return report
}

func TestSweepDeletesMissedRecoverySession(t *testing.T) {
	f := newSchedulerFixture(t)
	id := f.addWorkout(t, 2, domain.PriorityRecovery, domain.DisciplineRun)

	report := f.sweep(t, 4)
	if report.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", report.Deleted)
	}
	if _, err := f.workouts.GetByID(context.Background(), id); err == nil {
		t.Error("missed recovery session still exists")
	}
}

func TestSweepSwapsImportantMissedIntoToday(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	missed := f.addWorkout(t, 2, domain.PriorityKeySession, domain.DisciplineBike)
	displaced := f.addWorkout(t, 4, domain.PriorityInterval, domain.DisciplineBike)
	f.addWorkout(t, 7, domain.PriorityInterval, domain.DisciplineBike) // next bike session

	today := 4
	report := f.sweep(t, today)
	if report.Swapped != 1 {
		t.Fatalf("Swapped = %d, want 1", report.Swapped)
	}

	m, err := f.workouts.GetByID(ctx, missed)
	if err != nil {
		t.Fatalf("fetching missed workout: %v", err)
	}
	if want := f.start.AddDate(0, 0, today); !m.ScheduledDate.Equal(want) {
		t.Errorf("missed workout now on %s, want today %s", m.ScheduledDate, want)
	}
	if m.Status != domain.WorkoutPlanned {
		t.Errorf("missed workout status = %s, want planned", m.Status)
	}

	// The displaced session lands on the next open day before its discipline
	// comes up again (day 5 or 6; the next bike session is day 7).
	d, err := f.workouts.GetByID(ctx, displaced)
	if err != nil {
		t.Fatalf("fetching displaced workout: %v", err)
	}
	got := int(d.ScheduledDate.Sub(f.start).Hours() / 24)
	if got <= today || got >= 7 {
		t.Errorf("displaced workout on day %d, want an open day between %d and 7", got, today)
	}
}

func TestSweepDropsDisplacedWhenNoOpenDay(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	missed := f.addWorkout(t, 2, domain.PriorityKeySession, domain.DisciplineBike)
	displaced := f.addWorkout(t, 4, domain.PriorityInterval, domain.DisciplineBike)
	// The very next day already has the next bike session: no open slot.
	f.addWorkout(t, 5, domain.PriorityInterval, domain.DisciplineBike)

	report := f.sweep(t, 4)
	if report.Swapped != 1 || report.Deleted != 1 {
		t.Fatalf("Swapped/Deleted = %d/%d, want 1/1", report.Swapped, report.Deleted)
	}
	if _, err := f.workouts.GetByID(ctx, displaced); err == nil {
		t.Error("displaced workout still exists with no open day")
	}
	m, _ := f.workouts.GetByID(ctx, missed)
	if !m.ScheduledDate.Equal(f.start.AddDate(0, 0, 4)) {
		t.Errorf("missed workout not moved to today: %s", m.ScheduledDate)
	}
}

func TestSweepDeletesMissedIntervalWhenTodayHasInterval(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()
	missed := f.addWorkout(t, 2, domain.PriorityInterval, domain.DisciplineRun)
	today := f.addWorkout(t, 4, domain.PriorityInterval, domain.DisciplineBike)

	report := f.sweep(t, 4)
	if report.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", report.Deleted)
	}
	if _, err := f.workouts.GetByID(ctx, missed); err == nil {
		t.Error("missed interval session still exists")
	}
	if w, _ := f.workouts.GetByID(ctx, today); w == nil || w.Status != domain.WorkoutPlanned {
		t.Error("today's interval session was touched")
	}
}

func TestSweepMarksMissedWhenTodayOutranksIt(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	// Missed interval, today holds a more important key session.
	missed := f.addWorkout(t, 2, domain.PriorityInterval, domain.DisciplineRun)
	todayKey := f.addWorkout(t, 4, domain.PriorityKeySession, domain.DisciplineBike)

	report := f.sweep(t, 4)
	if report.MarkedMissed != 1 {
		t.Errorf("MarkedMissed = %d, want 1", report.MarkedMissed)
	}
	w, err := f.workouts.GetByID(ctx, missed)
	if err != nil {
		t.Fatalf("fetching missed workout: %v", err)
	}
	if w.Status != domain.WorkoutMissed {
		t.Errorf("missed workout status = %s, want missed", w.Status)
	}
	today, _ := f.workouts.GetByID(ctx, todayKey)
	if today.Status != domain.WorkoutPlanned || !today.ScheduledDate.Equal(f.start.AddDate(0, 0, 4)) {
		t.Error("today's key session was touched")
	}
}

func TestSweepMarksMissedOnEmptyDay(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	// A missed key session with nothing scheduled today stays where it was,
	// as a terminal record.
	missed := f.addWorkout(t, 2, domain.PriorityKeySession, domain.DisciplineSwim)

	report := f.sweep(t, 4)
	if report.MarkedMissed != 1 {
		t.Errorf("MarkedMissed = %d, want 1", report.MarkedMissed)
	}
	w, err := f.workouts.GetByID(ctx, missed)
	if err != nil {
		t.Fatalf("fetching workout: %v", err)
	}
	if w.Status != domain.WorkoutMissed {
		t.Errorf("status = %s, want missed", w.Status)
	}
	if !w.ScheduledDate.Equal(f.start.AddDate(0, 0, 2)) {
		t.Errorf("missed workout moved to %s", w.ScheduledDate)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newSchedulerFixture(t)
	f.addWorkout(t, 2, domain.PriorityRecovery, domain.DisciplineRun)
	f.addWorkout(t, 3, domain.PriorityKeySession, domain.DisciplineSwim)

	first := f.sweep(t, 8)
	if first.Deleted != 1 || first.MarkedMissed != 1 {
		t.Fatalf("first run Deleted/MarkedMissed = %d/%d, want 1/1", first.Deleted, first.MarkedMissed)
	}

	second := f.sweep(t, 8)
	if second.Deleted != 0 || second.MarkedMissed != 0 || second.Swapped != 0 {
		t.Errorf("second run changed things: %+v", second)
	}
}

func TestSweepAdvancesWeekAndPhase(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	// Day 35 of a 16-week plan: week 6, BUILD (BASE covers weeks 1-4).
	f.sweep(t, 35)
	plan, err := f.plans.GetByID(ctx, f.planID)
	if err != nil {
		t.Fatalf("fetching plan: %v", err)
	}
	if plan.CurrentWeek != 6 {
		t.Errorf("CurrentWeek = %d, want 6", plan.CurrentWeek)
	}
	if plan.CurrentPhase != domain.PhaseBuild {
		t.Errorf("CurrentPhase = %s, want BUILD", plan.CurrentPhase)
	}
}

func TestSweepCompletesFinishedPlan(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	report := f.sweep(t, 16*7+1)
	if report.PlansCompleted != 1 {
		t.Errorf("PlansCompleted = %d, want 1", report.PlansCompleted)
	}
	plan, _ := f.plans.GetByID(ctx, f.planID)
	if plan.Status != domain.PlanCompleted {
		t.Errorf("plan status = %s, want completed", plan.Status)
	}
}

func TestSweepSkipsLockedUserAndProcessesOthers(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	otherUser := primitive.NewObjectID()
	otherPlan := &domain.TrainingPlan{
		UserID:       otherUser,
		StartDate:    f.start,
		CurrentWeek:  1,
		CurrentPhase: domain.PhaseBase,
		TotalWeeks:   16,
		Status:       domain.PlanActive,
	}
	if _, err := f.plans.Create(ctx, otherPlan); err != nil {
		t.Fatalf("creating second plan: %v", err)
	}
	f.locker.held[f.userID] = "another-instance"

	report := f.sweep(t, 8)
	if report.PlansProcessed != 1 {
		t.Errorf("PlansProcessed = %d, want 1", report.PlansProcessed)
	}
	if report.PlansSkipped != 1 {
		t.Errorf("PlansSkipped = %d, want 1", report.PlansSkipped)
	}
}
