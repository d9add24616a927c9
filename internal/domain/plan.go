package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingPhase is one of the four periodization blocks, always allocated in
// the fixed order BASE -> BUILD -> PEAK -> TAPER.
type TrainingPhase string

const (
	PhaseBase  TrainingPhase = "BASE"
	PhaseBuild TrainingPhase = "BUILD"
	PhasePeak  TrainingPhase = "PEAK"
	PhaseTaper TrainingPhase = "TAPER"
)

// PlanStatus is the lifecycle state of a training plan.
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanArchived  PlanStatus = "archived"
)

// TrainingPlan is a user's multi-week schedule. At most one plan per user is
// active at any time; the plan generator archives the prior active plan in the
// same unit of work that creates a new one.
type TrainingPlan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	RaceDate     *time.Time         `bson:"raceDate,omitempty" json:"raceDate,omitempty"`
	StartDate    time.Time          `bson:"startDate" json:"startDate"` // UTC midnight of day 1
	CurrentPhase TrainingPhase      `bson:"currentPhase" json:"currentPhase"`
	CurrentWeek  int                `bson:"currentWeek" json:"currentWeek"` // 1-based
	TotalWeeks   int                `bson:"totalWeeks" json:"totalWeeks"`
	VolumeTier   int                `bson:"volumeTier" json:"volumeTier"` // 1..3
	Status       PlanStatus         `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DayOf normalizes a timestamp to UTC midnight. Scheduled dates and sweep
// cutoffs are always compared at day granularity.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
