package repository

import (
	"context"
	"time"

	"tripeak/training-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound        = RepositoryError("not found")
	ErrUpdateFailed    = RepositoryError("update failed")
	ErrDeleteFailed    = RepositoryError("delete failed")
	ErrVersionConflict = RepositoryError("version conflict")
	ErrLockHeld        = RepositoryError("lock already held")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
// Provisioning happens in the external auth service, which owns the users
// collection; this engine only reads profiles and updates onboarding state.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// BiometricsRepository stores the one-per-user scalar record.
type BiometricsRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Biometrics, error)
	Upsert(ctx context.Context, bio *domain.Biometrics) error
}

// HeartRateZoneRepository stores the five derived zone rows per user. Zones
// are always replaced as a set when max/resting HR change.
type HeartRateZoneRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.HeartRateZone, error)
	ReplaceForUser(ctx context.Context, userID primitive.ObjectID, zones []domain.HeartRateZone) error
}

// PlanRepository defines the interface for interacting with training plans.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)
	GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error)
	ListActive(ctx context.Context) ([]domain.TrainingPlan, error)
	Update(ctx context.Context, plan *domain.TrainingPlan) error
	// ArchiveActiveForUser flips any active plan of the user to archived and
	// returns how many were affected.
	ArchiveActiveForUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}

// WorkoutRepository defines the interface for interacting with workout data.
// Date parameters are UTC-midnight days; range queries are [from, to).
type WorkoutRepository interface {
	CreateMany(ctx context.Context, workouts []domain.Workout) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	Update(ctx context.Context, workout *domain.Workout) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// ListPlannedBefore returns still-planned workouts scheduled strictly
	// before day, oldest first. The sweep's "missed" candidates.
	ListPlannedBefore(ctx context.Context, planID primitive.ObjectID, day time.Time) ([]domain.Workout, error)
	// ListPlannedBetween returns still-planned workouts in [from, to),
	// ordered by date.
	ListPlannedBetween(ctx context.Context, planID primitive.ObjectID, from, to time.Time) ([]domain.Workout, error)
	// ListPlannedByPriority returns the next still-planned workouts of a
	// priority level scheduled on or after day, ordered by date, at most
	// limit of them.
	ListPlannedByPriority(ctx context.Context, planID primitive.ObjectID, priority int, day time.Time, limit int) ([]domain.Workout, error)
	// ListPlannedFromWeek returns still-planned workouts of the plan from the
	// given 1-based week onward.
	ListPlannedFromWeek(ctx context.Context, planID primitive.ObjectID, week int) ([]domain.Workout, error)
}

// ActivityLogRepository stores completion actuals.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) (primitive.ObjectID, error)
	GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) (*domain.ActivityLog, error)
}

// FeedbackLogRepository stores append-only subjective feedback.
type FeedbackLogRepository interface {
	Create(ctx context.Context, entry *domain.FeedbackLog) (primitive.ObjectID, error)
}

// AdaptationLogRepository stores the append-only adaptation audit trail.
type AdaptationLogRepository interface {
	Create(ctx context.Context, entry *domain.AdaptationLog) (primitive.ObjectID, error)
	ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.AdaptationLog, error)
}

// TrainingStateRepository stores the per-user singleton engine state. Updates
// are guarded by the Version field; a stale version yields
// ErrVersionConflict.
type TrainingStateRepository interface {
	GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*domain.UserTrainingState, error)
	UpdateVersioned(ctx context.Context, state *domain.UserTrainingState) error
}

// UserLocker serializes per-user engine work (plan creation, adaptation,
// sweep reconciliation). Leases expire so a crashed holder cannot wedge a
// user forever.
type UserLocker interface {
	// Acquire takes the user lease for owner, failing with ErrLockHeld when
	// another live owner has it.
	Acquire(ctx context.Context, userID primitive.ObjectID, owner string, ttl time.Duration) error
	Release(ctx context.Context, userID primitive.ObjectID, owner string) error
}
