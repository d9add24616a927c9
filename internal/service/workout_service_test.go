package service

import (
	"context"
	"errors"
	"testing"

	"tripeak/training-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutFixture struct {
	adaptation *adaptationFixture
	workouts   *fakeWorkoutRepo
	activities *fakeActivityRepo
	feedback   *fakeFeedbackRepo
	svc        WorkoutService

	userID primitive.ObjectID
}

func newWorkoutFixture(t *testing.T) *workoutFixture {
	t.Helper()
	af := newAdaptationFixture(t)
	f := &workoutFixture{
		adaptation: af,
		workouts:   af.workouts,
		activities: &fakeActivityRepo{},
		feedback:   &fakeFeedbackRepo{},
		userID:     af.userID,
	}
	f.svc = NewWorkoutService(f.workouts, f.activities, f.feedback, af.svc, testAdaptationConfig().RPETolerance)
	f.svc.(*workoutService).now = af.svc.now
	return f
}

func TestCompleteWorkoutRecordsActivity(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	id := f.adaptation.addWorkout(t, 0, domain.PriorityInterval, 250)

	w, err := f.svc.CompleteWorkout(ctx, f.userID, id, CompletionInput{
		DurationSeconds: 1230,
		AvgHeartRate:    152,
		Source:          "manual",
	})
	if err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}
	if w.Status != domain.WorkoutCompleted {
		t.Errorf("status = %s, want completed", w.Status)
	}

	if len(f.activities.entries) != 1 {
		t.Fatalf("activity entries = %d, want 1", len(f.activities.entries))
	}
	entry := f.activities.entries[0]
	if entry.WorkoutID != id || entry.DurationSeconds != 1230 || entry.AvgHeartRate != 152 {
		t.Errorf("activity entry = %+v", entry)
	}
}

func TestCompleteWorkoutIsTerminal(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	id := f.adaptation.addWorkout(t, 0, domain.PriorityInterval, 250)

	if _, err := f.svc.CompleteWorkout(ctx, f.userID, id, CompletionInput{DurationSeconds: 600}); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if _, err := f.svc.CompleteWorkout(ctx, f.userID, id, CompletionInput{DurationSeconds: 600}); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("second completion: err = %v, want conflict", err)
	}
	if _, err := f.svc.SkipWorkout(ctx, f.userID, id, domain.SkipNoTime); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("skip after completion: err = %v, want conflict", err)
	}
}

func TestCompleteWorkoutRejectsForeignWorkout(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	id := f.adaptation.addWorkout(t, 0, domain.PriorityInterval, 250)

	_, err := f.svc.CompleteWorkout(ctx, primitive.NewObjectID(), id, CompletionInput{DurationSeconds: 600})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign workout: err = %v, want not found", err)
	}
}

func TestCompleteWorkoutFeedbackStrikes(t *testing.T) {
	tests := []struct {
		name       string
		input      CompletionInput
		wantStrike bool
	}{
		{
			name:       "harder rating strikes",
			input:      CompletionInput{DurationSeconds: 600, Rating: domain.RatingHarder},
			wantStrike: true,
		},
		{
			name:       "rpe far above target strikes",
			input:      CompletionInput{DurationSeconds: 600, Rating: domain.RatingSame, RPEScore: 10},
			wantStrike: true,
		},
		{
			name:       "rpe within tolerance does not strike",
			input:      CompletionInput{DurationSeconds: 600, Rating: domain.RatingSame, RPEScore: 9},
			wantStrike: false,
		},
		{
			name:       "harder rating with high rpe is still one strike",
			input:      CompletionInput{DurationSeconds: 600, Rating: domain.RatingHarder, RPEScore: 10},
			wantStrike: true,
		},
		{
			name:       "easier rating does not strike",
			input:      CompletionInput{DurationSeconds: 600, Rating: domain.RatingEasier, RPEScore: 3},
			wantStrike: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkoutFixture(t)
			ctx := context.Background()
			// Template RPE is 7, tolerance 2: a strike needs RPE > 9.
			id := f.adaptation.addWorkout(t, 0, domain.PriorityInterval, 250)

			if _, err := f.svc.CompleteWorkout(ctx, f.userID, id, tt.input); err != nil {
				t.Fatalf("CompleteWorkout: %v", err)
			}

			if len(f.feedback.entries) != 1 {
				t.Fatalf("feedback entries = %d, want 1", len(f.feedback.entries))
			}
			if got := f.feedback.entries[0].TriggeredStrike; got != tt.wantStrike {
				t.Errorf("TriggeredStrike = %v, want %v", got, tt.wantStrike)
			}

			state, _ := f.adaptation.states.GetOrCreate(ctx, f.userID)
			wantStrikes := 0
			if tt.wantStrike {
				wantStrikes = 1
			}
			if state.CurrentFatigueStrikes != wantStrikes {
				t.Errorf("strikes = %d, want %d", state.CurrentFatigueStrikes, wantStrikes)
			}
		})
	}
}

func TestCompleteWorkoutWithoutFeedbackLogsNothing(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	id := f.adaptation.addWorkout(t, 0, domain.PriorityInterval, 250)

	if _, err := f.svc.CompleteWorkout(ctx, f.userID, id, CompletionInput{DurationSeconds: 600}); err != nil {
		t.Fatalf("CompleteWorkout: %v", err)
	}
	if len(f.feedback.entries) != 0 {
		t.Errorf("feedback entries = %d, want 0", len(f.feedback.entries))
	}
}

func TestSkipWorkoutFatigueReasonsStrike(t *testing.T) {
	tests := []struct {
		reason     domain.SkipReason
		wantStrike bool
	}{
		{domain.SkipTooTired, true},
		{domain.SkipSick, true},
		{domain.SkipNoTime, false},
		{domain.SkipOther, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			f := newWorkoutFixture(t)
			ctx := context.Background()
			id := f.adaptation.addWorkout(t, 0, domain.PriorityInterval, 250)

			w, err := f.svc.SkipWorkout(ctx, f.userID, id, tt.reason)
			if err != nil {
				t.Fatalf("SkipWorkout: %v", err)
			}
			if w.Status != domain.WorkoutSkipped {
				t.Errorf("status = %s, want skipped", w.Status)
			}

			state, _ := f.adaptation.states.GetOrCreate(ctx, f.userID)
			wantStrikes := 0
			if tt.wantStrike {
				wantStrikes = 1
			}
			if state.CurrentFatigueStrikes != wantStrikes {
				t.Errorf("strikes = %d, want %d", state.CurrentFatigueStrikes, wantStrikes)
			}
		})
	}
}

func TestSkipWorkoutUnknownReason(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	id := f.adaptation.addWorkout(t, 0, domain.PriorityInterval, 250)

	if _, err := f.svc.SkipWorkout(ctx, f.userID, id, "bored"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestTwoFatigueSkipsTriggerAdaptation(t *testing.T) {
	f := newWorkoutFixture(t)
	ctx := context.Background()
	a := f.adaptation.addWorkout(t, 0, domain.PriorityInterval, 250)
	b := f.adaptation.addWorkout(t, 0, domain.PriorityInterval, 250)
	future := f.adaptation.addWorkout(t, 2, domain.PriorityInterval, 250)

	if _, err := f.svc.SkipWorkout(ctx, f.userID, a, domain.SkipTooTired); err != nil {
		t.Fatalf("first skip: %v", err)
	}
	if _, err := f.svc.SkipWorkout(ctx, f.userID, b, domain.SkipSick); err != nil {
		t.Fatalf("second skip: %v", err)
	}

	if f.adaptation.notifier.adaptations != 1 {
		t.Errorf("adaptation notifications = %d, want 1", f.adaptation.notifier.adaptations)
	}
	w, _ := f.workouts.GetByID(ctx, future)
	if !w.WasAdapted {
		t.Error("upcoming interval session was not softened")
	}
}
