package service

import (
	"context"
	"errors"
	"log"
	"time"

	"tripeak/training-engine/internal/config"
	"tripeak/training-engine/internal/domain"
	"tripeak/training-engine/internal/repository"

	"github.com/google/uuid"
)

const (
	sweepLockTTL      = 5 * time.Minute
	sweepRetryBackoff = 2 * time.Second
	// How far ahead the sweep looks for an open day when relocating a
	// displaced workout.
	relocationWindowDays = 14
)

// SweepReport summarizes one rescheduler run.
type SweepReport struct {
	RunAt          time.Time
	PlansProcessed int
	PlansSkipped   int // lock held elsewhere or per-plan failure
	PlansCompleted int

	MarkedMissed int
	Deleted      int
	Swapped      int
}

// SchedulerService is the daily rescheduler: it reconciles overdue workouts
// through the priority gates and advances each plan's week and phase.
type SchedulerService interface {
	RunDailySweep(ctx context.Context, asOf time.Time) (*SweepReport, error)
}

type schedulerService struct {
	planRepo    repository.PlanRepository
	workoutRepo repository.WorkoutRepository
	locker      repository.UserLocker
	policy      config.PlanConfig
	now         func() time.Time
	sleep       func(time.Duration)
}

// NewSchedulerService creates a new instance of schedulerService.
func NewSchedulerService(
	planRepo repository.PlanRepository,
	workoutRepo repository.WorkoutRepository,
	locker repository.UserLocker,
	policy config.PlanConfig,
) SchedulerService {
	return &schedulerService{
		planRepo:    planRepo,
		workoutRepo: workoutRepo,
		locker:      locker,
		policy:      policy,
		now:         time.Now,
		sleep:       time.Sleep,
	}
}

// RunDailySweep reconciles every active plan. Per-plan failures are logged
// and skipped so one broken plan cannot stall the rest; a transient failure
// gets one retry after a short backoff. The sweep is idempotent: a second run
// on the same day finds nothing left to reconcile.
func (s *schedulerService) RunDailySweep(ctx context.Context, asOf time.Time) (*SweepReport, error) {
	today := domain.DayOf(asOf)
	report := &SweepReport{RunAt: s.now().UTC()}

	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Daily sweep starting for %d active plans (day %s)", len(plans), today.Format("2006-01-02"))

	for i := range plans {
		plan := &plans[i]
		err := s.sweepPlan(ctx, plan, today, report)
		if err != nil && !errors.Is(err, repository.ErrLockHeld) {
			s.sleep(sweepRetryBackoff)
			err = s.sweepPlan(ctx, plan, today, report)
		}
		if err != nil {
			if errors.Is(err, repository.ErrLockHeld) {
				log.Printf("INFO: Sweep skipping plan %s: user lock held elsewhere", plan.ID.Hex())
			} else {
				log.Printf("ERROR: Sweep failed for plan %s: %v", plan.ID.Hex(), err)
			}
			report.PlansSkipped++
			continue
		}
		report.PlansProcessed++
	}

	log.Printf("INFO: Daily sweep done: %d processed, %d skipped, %d missed, %d deleted, %d swapped",
		report.PlansProcessed, report.PlansSkipped, report.MarkedMissed, report.Deleted, report.Swapped)
	return report, nil
}

func (s *schedulerService) sweepPlan(ctx context.Context, plan *domain.TrainingPlan, today time.Time, report *SweepReport) error {
	owner := uuid.NewString()
	if err := s.locker.Acquire(ctx, plan.UserID, owner, sweepLockTTL); err != nil {
		return err
	}
	defer func() {
		if err := s.locker.Release(ctx, plan.UserID, owner); err != nil {
			log.Printf("WARN: Failed to release sweep lock for user %s: %v", plan.UserID.Hex(), err)
		}
	}()

	if err := s.reconcileOverdue(ctx, plan, today, report); err != nil {
		return err
	}
	return s.advancePlan(ctx, plan, today, report)
}

// reconcileOverdue runs every overdue planned workout through the priority
// gates, oldest first.
func (s *schedulerService) reconcileOverdue(ctx context.Context, plan *domain.TrainingPlan, today time.Time, report *SweepReport) error {
	overdue, err := s.workoutRepo.ListPlannedBefore(ctx, plan.ID, today)
	if err != nil {
		return err
	}
	for i := range overdue {
		if err := s.reconcileWorkout(ctx, plan, &overdue[i], today, report); err != nil {
			return err
		}
	}
	return nil
}

// reconcileWorkout applies the gate policy to one overdue workout:
//
//  1. A missed recovery session is dropped; recovering it has no value.
//  2. A missed workout more important than today's least important session
//     takes that session's slot; the displaced session relocates to the next
//     open day before its discipline comes up again, or is dropped.
//  3. Two interval sessions never stack; the missed one is dropped.
//  4. Anything else is marked missed for the record and never revisited.
func (s *schedulerService) reconcileWorkout(ctx context.Context, plan *domain.TrainingPlan, missed *domain.Workout, today time.Time, report *SweepReport) error {
	// Gate 1: recovery sessions are not worth recovering.
	if missed.PriorityLevel == domain.PriorityRecovery {
		report.Deleted++
		return s.deleteWorkout(ctx, missed)
	}

	todayWorkouts, err := s.workoutRepo.ListPlannedBetween(ctx, plan.ID, today, today.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	displaced := leastImportant(todayWorkouts)

	// Gate 2: the missed workout outranks something scheduled today.
	if displaced != nil && missed.PriorityLevel < displaced.PriorityLevel {
		return s.swapIntoToday(ctx, plan, missed, displaced, today, report)
	}

	// Gate 3: stacking two interval sessions trades recovery for injury risk.
	if displaced != nil && missed.PriorityLevel == domain.PriorityInterval && displaced.PriorityLevel == domain.PriorityInterval {
		report.Deleted++
		return s.deleteWorkout(ctx, missed)
	}

	// Fallback: keep the record, close the case.
	missed.Status = domain.WorkoutMissed
	if err := s.workoutRepo.Update(ctx, missed); err != nil {
		return err
	}
	report.MarkedMissed++
	return nil
}

// swapIntoToday moves the missed workout onto today and relocates the
// displaced session to the next day with nothing scheduled, as long as that
// day comes before the displaced discipline's next planned session. No such
// day means the displaced session is dropped.
func (s *schedulerService) swapIntoToday(ctx context.Context, plan *domain.TrainingPlan, missed, displaced *domain.Workout, today time.Time, report *SweepReport) error {
	upcoming, err := s.workoutRepo.ListPlannedBetween(ctx, plan.ID, today, today.AddDate(0, 0, relocationWindowDays))
	if err != nil {
		return err
	}

	occupied := make(map[time.Time]bool, len(upcoming))
	nextSameDiscipline := time.Time{}
	for i := range upcoming {
		w := &upcoming[i]
		occupied[domain.DayOf(w.ScheduledDate)] = true
		if w.ID != displaced.ID && w.Discipline == displaced.Discipline &&
			(nextSameDiscipline.IsZero() || w.ScheduledDate.Before(nextSameDiscipline)) {
			nextSameDiscipline = domain.DayOf(w.ScheduledDate)
		}
	}

	relocation := time.Time{}
	for d := 1; d < relocationWindowDays; d++ {
		day := today.AddDate(0, 0, d)
		if !nextSameDiscipline.IsZero() && !day.Before(nextSameDiscipline) {
			break
		}
		if !occupied[day] {
			relocation = day
			break
		}
	}

	if relocation.IsZero() {
		report.Deleted++
		if err := s.deleteWorkout(ctx, displaced); err != nil {
			return err
		}
	} else {
		displaced.ScheduledDate = relocation
		if err := s.workoutRepo.Update(ctx, displaced); err != nil {
			return err
		}
	}

	missed.ScheduledDate = today
	if err := s.workoutRepo.Update(ctx, missed); err != nil {
		return err
	}
	report.Swapped++
	return nil
}

func (s *schedulerService) deleteWorkout(ctx context.Context, w *domain.Workout) error {
	log.Printf("INFO: Sweep dropping workout %s (%q, priority %d)", w.ID.Hex(), w.Name, w.PriorityLevel)
	return s.workoutRepo.Delete(ctx, w.ID)
}

// advancePlan moves CurrentWeek and CurrentPhase to match the calendar, and
// completes the plan once the last week has passed.
func (s *schedulerService) advancePlan(ctx context.Context, plan *domain.TrainingPlan, today time.Time, report *SweepReport) error {
	days := int(today.Sub(domain.DayOf(plan.StartDate)).Hours() / 24)
	week := days/7 + 1
	if week < 1 {
		week = 1
	}

	if week > plan.TotalWeeks {
		plan.Status = domain.PlanCompleted
		plan.CurrentWeek = plan.TotalWeeks
		report.PlansCompleted++
		log.Printf("INFO: Plan %s completed after week %d", plan.ID.Hex(), plan.TotalWeeks)
		return s.planRepo.Update(ctx, plan)
	}

	phase := allocatePhases(plan.TotalWeeks, s.policy.PhaseProportions)[week-1]
	if week == plan.CurrentWeek && phase == plan.CurrentPhase {
		return nil
	}
	plan.CurrentWeek = week
	plan.CurrentPhase = phase
	return s.planRepo.Update(ctx, plan)
}

// leastImportant picks the session with the highest priority number; nil for
// an empty day.
func leastImportant(workouts []domain.Workout) *domain.Workout {
	var pick *domain.Workout
	for i := range workouts {
		if pick == nil || workouts[i].PriorityLevel > pick.PriorityLevel {
			pick = &workouts[i]
		}
	}
	return pick
}
