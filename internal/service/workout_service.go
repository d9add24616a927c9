package service

import (
	"context"
	"errors"
	"log"
	"time"

	"tripeak/training-engine/internal/domain"
	"tripeak/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletionInput carries the actuals of a finished session plus optional
// subjective feedback.
type CompletionInput struct {
	DurationSeconds int
	DistanceMeters  float64
	AvgHeartRate    int
	Source          string

	// Feedback is optional; when present it is evaluated against the
	// prescription and may earn a fatigue strike.
	Rating   domain.FeedbackRating
	RPEScore int
}

// WorkoutService handles the athlete-facing workout lifecycle events.
type WorkoutService interface {
	GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, input CompletionInput) (*domain.Workout, error)
	SkipWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, reason domain.SkipReason) (*domain.Workout, error)
}

type workoutService struct {
	workoutRepo  repository.WorkoutRepository
	activityRepo repository.ActivityLogRepository
	feedbackRepo repository.FeedbackLogRepository
	adaptation   AdaptationService
	rpeTolerance int
	now          func() time.Time
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	workoutRepo repository.WorkoutRepository,
	activityRepo repository.ActivityLogRepository,
	feedbackRepo repository.FeedbackLogRepository,
	adaptation AdaptationService,
	rpeTolerance int,
) WorkoutService {
	return &workoutService{
		workoutRepo:  workoutRepo,
		activityRepo: activityRepo,
		feedbackRepo: feedbackRepo,
		adaptation:   adaptation,
		rpeTolerance: rpeTolerance,
		now:          time.Now,
	}
}

// ownedWorkout loads the workout and verifies it belongs to the caller.
// Someone else's workout reads as not-found, not forbidden.
func (s *workoutService) ownedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	w, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundf("workout %s", workoutID.Hex())
		}
		return nil, err
	}
	if w.UserID != userID {
		return nil, domain.NotFoundf("workout %s", workoutID.Hex())
	}
	return w, nil
}

func (s *workoutService) GetWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	return s.ownedWorkout(ctx, userID, workoutID)
}

// CompleteWorkout flips the workout to completed, records the actuals, folds
// the session into the load averages and evaluates feedback for a fatigue
// strike. Completion is terminal: a completed workout is never mutated again.
func (s *workoutService) CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, input CompletionInput) (*domain.Workout, error) {
	if input.DurationSeconds <= 0 {
		return nil, domain.Validationf("completion requires a positive duration")
	}

	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.Terminal() {
		return nil, domain.Conflictf("workout %s is already %s", workoutID.Hex(), workout.Status)
	}

	// 1. Terminal status first; the repository refuses updates to completed
	// workouts, so this also wins any race with the sweep.
	workout.Status = domain.WorkoutCompleted
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, domain.Conflictf("workout %s was modified concurrently", workoutID.Hex())
		}
		return nil, err
	}

	// 2. Record the actuals.
	activity := &domain.ActivityLog{
		WorkoutID:       workout.ID,
		UserID:          userID,
		DurationSeconds: input.DurationSeconds,
		DistanceMeters:  input.DistanceMeters,
		AvgHeartRate:    input.AvgHeartRate,
		Source:          input.Source,
		RecordedAt:      s.now().UTC(),
	}
	activityID, err := s.activityRepo.Create(ctx, activity)
	if err != nil {
		return nil, err
	}

	// 3. Load accumulators; a failure here must not undo the completion.
	if err := s.adaptation.RecordCompletionLoad(ctx, userID, input.DurationSeconds, input.AvgHeartRate); err != nil {
		log.Printf("WARN: Failed to fold session load for user %s: %v", userID.Hex(), err)
	}

	// 4. Optional feedback: at most one strike per completion, regardless of
	// how many criteria the feedback trips.
	if input.Rating != "" || input.RPEScore > 0 {
		if err := s.recordFeedback(ctx, workout, activityID, input); err != nil {
			return nil, err
		}
	}
	return workout, nil
}

// recordFeedback persists the feedback entry and forwards a single strike to
// the adaptation engine when the session reads as excessive fatigue: an
// explicit "harder" rating, or a reported RPE beyond the prescribed RPE by
// more than the tolerance.
func (s *workoutService) recordFeedback(ctx context.Context, workout *domain.Workout, activityID primitive.ObjectID, input CompletionInput) error {
	targetRPE := prescribedRPE(workout)

	strike := input.Rating == domain.RatingHarder
	if !strike && input.RPEScore > 0 && targetRPE > 0 && input.RPEScore > targetRPE+s.rpeTolerance {
		strike = true
	}

	entry := &domain.FeedbackLog{
		ActivityLogID:   activityID,
		WorkoutID:       workout.ID,
		UserID:          workout.UserID,
		Rating:          input.Rating,
		RPEScore:        input.RPEScore,
		TargetRPE:       targetRPE,
		TriggeredStrike: strike,
		CreatedAt:       s.now().UTC(),
	}
	if _, err := s.feedbackRepo.Create(ctx, entry); err != nil {
		return err
	}

	if strike {
		if _, err := s.adaptation.RecordStrike(ctx, workout.UserID, workout.ID, "negative completion feedback"); err != nil {
			return err
		}
	}
	return nil
}

// prescribedRPE is the highest per-step RPE of the prescription; zero when
// the structure carries no RPE guidance.
func prescribedRPE(workout *domain.Workout) int {
	if workout.Structure == nil {
		return 0
	}
	max := 0
	for _, step := range workout.Structure.Steps {
		if step.TargetRPE > max {
			max = step.TargetRPE
		}
	}
	return max
}

// SkipWorkout flips the workout to skipped. Fatigue-type reasons forward a
// strike; logistical ones do not.
func (s *workoutService) SkipWorkout(ctx context.Context, userID, workoutID primitive.ObjectID, reason domain.SkipReason) (*domain.Workout, error) {
	switch reason {
	case domain.SkipTooTired, domain.SkipSick, domain.SkipNoTime, domain.SkipOther:
	default:
		return nil, domain.Validationf("unknown skip reason %q", reason)
	}

	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.Terminal() || workout.Status == domain.WorkoutSkipped {
		return nil, domain.Conflictf("workout %s is already %s", workoutID.Hex(), workout.Status)
	}

	workout.Status = domain.WorkoutSkipped
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, domain.Conflictf("workout %s was modified concurrently", workoutID.Hex())
		}
		return nil, err
	}

	if reason.CountsAsFatigue() {
		if _, err := s.adaptation.RecordStrike(ctx, userID, workout.ID, "skipped: "+string(reason)); err != nil {
			return nil, err
		}
	}
	return workout, nil
}
