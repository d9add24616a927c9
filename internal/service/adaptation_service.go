package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tripeak/training-engine/internal/calc"
	"tripeak/training-engine/internal/config"
	"tripeak/training-engine/internal/domain"
	"tripeak/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdaptationService owns the per-user fatigue state: strike accrual, the
// two-strike plan adjustment, and the training-load accumulators.
type AdaptationService interface {
	// RecordStrike adds one fatigue strike attributed to originWorkoutID and
	// returns whether an adaptation fired as a result. A single workout can
	// contribute at most one strike, which the caller enforces by invoking
	// this at most once per originating event.
	RecordStrike(ctx context.Context, userID, originWorkoutID primitive.ObjectID, reason string) (bool, error)
	// RecordCompletionLoad folds one completed session into the acute and
	// chronic load averages.
	RecordCompletionLoad(ctx context.Context, userID primitive.ObjectID, durationSeconds, avgHeartRate int) error
	GetState(ctx context.Context, userID primitive.ObjectID) (*domain.UserTrainingState, error)
	ListAdaptations(ctx context.Context, userID primitive.ObjectID) ([]domain.AdaptationLog, error)
}

type adaptationService struct {
	stateRepo   repository.TrainingStateRepository
	planRepo    repository.PlanRepository
	workoutRepo repository.WorkoutRepository
	bioRepo     repository.BiometricsRepository
	adaptRepo   repository.AdaptationLogRepository
	cfg         config.AdaptationConfig
	notifier    Notifier
	now         func() time.Time
}

// NewAdaptationService creates a new instance of adaptationService.
func NewAdaptationService(
	stateRepo repository.TrainingStateRepository,
	planRepo repository.PlanRepository,
	workoutRepo repository.WorkoutRepository,
	bioRepo repository.BiometricsRepository,
	adaptRepo repository.AdaptationLogRepository,
	cfg config.AdaptationConfig,
	notifier Notifier,
) AdaptationService {
	return &adaptationService{
		stateRepo:   stateRepo,
		planRepo:    planRepo,
		workoutRepo: workoutRepo,
		bioRepo:     bioRepo,
		adaptRepo:   adaptRepo,
		cfg:         cfg,
		notifier:    notifier,
		now:         time.Now,
	}
}

// mutateState applies fn to the user's training state under optimistic
// concurrency, retrying once on a version conflict.
func (s *adaptationService) mutateState(ctx context.Context, userID primitive.ObjectID, fn func(*domain.UserTrainingState) error) (*domain.UserTrainingState, error) {
	for attempt := 0; attempt < 2; attempt++ {
		state, err := s.stateRepo.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := fn(state); err != nil {
			return nil, err
		}
		state.UpdatedAt = s.now().UTC()
		err = s.stateRepo.UpdateVersioned(ctx, state)
		if err == nil {
			return state, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
		log.Printf("WARN: Training-state version conflict for user %s (attempt %d)", userID.Hex(), attempt+1)
	}
	return nil, domain.Conflictf("training state for user %s changed concurrently", userID.Hex())
}

func (s *adaptationService) RecordStrike(ctx context.Context, userID, originWorkoutID primitive.ObjectID, reason string) (bool, error) {
	adapted := false
	var strikesAtTrigger int

	_, err := s.mutateState(ctx, userID, func(state *domain.UserTrainingState) error {
		now := s.now().UTC()
		state.CurrentFatigueStrikes++
		state.LastStrikeDate = &now

		if !adapted && state.CurrentFatigueStrikes < domain.MaxFatigueStrikes {
			return nil
		}

		// Threshold reached: soften the upcoming plan, reset the counter. The
		// plan adjustment only runs on the first attempt; a retry after a
		// version conflict must not soften the same workouts twice.
		if !adapted {
			strikesAtTrigger = state.CurrentFatigueStrikes
			affected, actions, err := s.softenUpcomingWorkouts(ctx, userID)
			if err != nil {
				return err
			}
			entry := &domain.AdaptationLog{
				UserID:             userID,
				TriggerReason:      reason,
				StrikesAtTrigger:   strikesAtTrigger,
				AffectedWorkoutIDs: affected,
				ActionsTaken:       actions,
				CreatedAt:          now,
			}
			if _, err := s.adaptRepo.Create(ctx, entry); err != nil {
				return err
			}
			adapted = true
		}
		state.CurrentFatigueStrikes = 0
		state.LastAdaptationDate = &now
		state.TotalAdaptations++
		return nil
	})
	if err != nil {
		return false, err
	}

	if adapted {
		log.Printf("INFO: Adaptation triggered for user %s (origin workout %s, reason %s)",
			userID.Hex(), originWorkoutID.Hex(), reason)
		s.notifier.NotifyAdaptationTriggered(ctx, userID)
	}
	return adapted, nil
}

// softenUpcomingWorkouts applies the two-part adjustment: the next interval
// sessions get their intensity reduced, the next key session gets halved and
// demoted to easy zones. Finding fewer candidates than configured is not an
// error; the shortfall is recorded in the actions.
func (s *adaptationService) softenUpcomingWorkouts(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, []string, error) {
	plan, err := s.planRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, []string{"no active plan, no workouts adjusted"}, nil
		}
		return nil, nil, err
	}
	today := domain.DayOf(s.now())

	var affected []primitive.ObjectID
	var actions []string

	intervals, err := s.workoutRepo.ListPlannedByPriority(ctx, plan.ID, domain.PriorityInterval, today, s.cfg.IntervalCount)
	if err != nil {
		return nil, nil, err
	}
	for i := range intervals {
		w := &intervals[i]
		w.IntensityScalar *= s.cfg.IntensityFactor
		scaleStructureIntensity(w.Structure, s.cfg.IntensityFactor)
		w.WasAdapted = true
		if err := s.workoutRepo.Update(ctx, w); err != nil {
			return nil, nil, err
		}
		affected = append(affected, w.ID)
		actions = append(actions, fmt.Sprintf("reduced intensity of %q to %.2f", w.Name, w.IntensityScalar))
	}
	if len(intervals) < s.cfg.IntervalCount {
		actions = append(actions, fmt.Sprintf("only %d of %d interval sessions available to adjust", len(intervals), s.cfg.IntervalCount))
	}

	keys, err := s.workoutRepo.ListPlannedByPriority(ctx, plan.ID, domain.PriorityKeySession, today, 1)
	if err != nil {
		return nil, nil, err
	}
	if len(keys) == 0 {
		actions = append(actions, "no key session available to adjust")
	}
	for i := range keys {
		w := &keys[i]
		halveAndDemote(w.Structure)
		w.WasAdapted = true
		if err := s.workoutRepo.Update(ctx, w); err != nil {
			return nil, nil, err
		}
		affected = append(affected, w.ID)
		actions = append(actions, fmt.Sprintf("halved %q and demoted it to recovery zones", w.Name))
	}
	return affected, actions, nil
}

// scaleStructureIntensity rescales every bound absolute target in place.
// Targets are linear in the intensity scalar, so rescaling matches what a
// fresh materialization at the new scalar would produce.
func scaleStructureIntensity(structure *domain.CalculatedStructure, factor float64) {
	if structure == nil {
		return
	}
	scale := func(p *int) {
		if p != nil {
			*p = roundInt(float64(*p) * factor)
		}
	}
	for i := range structure.Steps {
		step := &structure.Steps[i]
		scale(step.TargetWatts)
		scale(step.TargetPaceSec)
		scale(step.TargetSwimPace)
	}
}

// halveAndDemote converts a key session into half-duration easy work: every
// step becomes a zone-only target capped at zone 2 with its absolutes
// dropped.
func halveAndDemote(structure *domain.CalculatedStructure) {
	if structure == nil {
		return
	}
	total := 0
	for i := range structure.Steps {
		step := &structure.Steps[i]
		step.DurationSeconds /= 2
		step.Kind = domain.TargetZone
		if step.Zone < 1 || step.Zone > 2 {
			step.Zone = 2
		}
		step.TargetWatts = nil
		step.TargetPaceSec = nil
		step.TargetSwimPace = nil
		step.TargetBPM = nil
		total += step.DurationSeconds
	}
	structure.TotalDurationSeconds = total
}

func (s *adaptationService) RecordCompletionLoad(ctx context.Context, userID primitive.ObjectID, durationSeconds, avgHeartRate int) error {
	bio, err := s.bioRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	maxHR, restingHR := 0, 0
	if bio != nil {
		maxHR, restingHR = bio.MaxHeartRate, bio.RestingHeartRate
	}
	sessionLoad := calc.SessionTRIMP(durationSeconds, avgHeartRate, maxHR, restingHR)
	if sessionLoad == 0 {
		return nil
	}

	_, err = s.mutateState(ctx, userID, func(state *domain.UserTrainingState) error {
		state.AcuteLoad, state.ChronicLoad = calc.FoldLoad(state.AcuteLoad, state.ChronicLoad, sessionLoad)
		return nil
	})
	return err
}

func (s *adaptationService) GetState(ctx context.Context, userID primitive.ObjectID) (*domain.UserTrainingState, error) {
	return s.stateRepo.GetOrCreate(ctx, userID)
}

func (s *adaptationService) ListAdaptations(ctx context.Context, userID primitive.ObjectID) ([]domain.AdaptationLog, error) {
	return s.adaptRepo.ListByUserID(ctx, userID)
}
