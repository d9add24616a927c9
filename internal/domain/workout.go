package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutStatus is the lifecycle state of a scheduled session.
type WorkoutStatus string

const (
	WorkoutPlanned   WorkoutStatus = "planned"
	WorkoutCompleted WorkoutStatus = "completed" // terminal, never mutated afterwards
	WorkoutMissed    WorkoutStatus = "missed"    // terminal, set by the priority sweep fallback
	WorkoutSkipped   WorkoutStatus = "skipped"
)

// Priority levels rank training value for the rescheduler's gate policy.
const (
	PriorityKeySession = 1 // long / key session, highest training value
	PriorityInterval   = 2 // interval or threshold work
	PriorityRecovery   = 3 // recovery or easy session, lowest value
)

// MaterializedStep is one step of a workout with its absolute target bound.
// Absolute fields are pointers: a nil absolute with a nonzero Zone is the
// documented zone-only degradation when the needed scalar is absent.
type MaterializedStep struct {
	Name            string     `bson:"name,omitempty" json:"name,omitempty"`
	Kind            TargetKind `bson:"kind" json:"kind"`
	Zone            int        `bson:"zone,omitempty" json:"zone,omitempty"`
	TargetWatts     *int       `bson:"targetWatts,omitempty" json:"targetWatts,omitempty"`
	TargetPaceSec   *int       `bson:"targetPaceSec,omitempty" json:"targetPaceSec,omitempty"`     // sec/mile (run)
	TargetSwimPace  *int       `bson:"targetSwimPace,omitempty" json:"targetSwimPace,omitempty"`   // sec/100m (swim)
	TargetBPM       *int       `bson:"targetBpm,omitempty" json:"targetBpm,omitempty"`
	TargetRPE       int        `bson:"targetRpe,omitempty" json:"targetRpe,omitempty"`
	DurationSeconds int        `bson:"durationSeconds" json:"durationSeconds"`
}

// CalculatedStructure is the immutable materialized form of a workout: the
// template's steps with absolute per-step targets injected.
type CalculatedStructure struct {
	Steps                []MaterializedStep `bson:"steps" json:"steps"`
	TotalDurationSeconds int                `bson:"totalDurationSeconds" json:"totalDurationSeconds"`
	MaterializedAt       time.Time          `bson:"materializedAt" json:"materializedAt"`
}

// Workout is one scheduled session inside a plan. Created by the plan
// generator (or the calibration-week generator); mutated by completion/skip
// events, the adaptation engine (intensity/duration) and the priority sweep
// (status/date). Never mutated once completed.
type Workout struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PlanID     primitive.ObjectID `bson:"planId" json:"planId"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"` // denormalized for sweep queries
	TemplateID string             `bson:"templateId" json:"templateId"`
	Name       string             `bson:"name" json:"name"`
	Discipline Discipline         `bson:"discipline" json:"discipline"`

	ScheduledDate time.Time     `bson:"scheduledDate" json:"scheduledDate"` // UTC midnight
	Week          int           `bson:"week" json:"week"`                   // 1-based plan week
	Phase         TrainingPhase `bson:"phase" json:"phase"`

	PriorityLevel     int                  `bson:"priorityLevel" json:"priorityLevel"` // 1..3
	Status            WorkoutStatus        `bson:"status" json:"status"`
	IntensityScalar   float64              `bson:"intensityScalar" json:"intensityScalar"` // default 1.0
	WasAdapted        bool                 `bson:"wasAdapted" json:"wasAdapted"`
	IsCalibrationTest bool                 `bson:"isCalibrationTest" json:"isCalibrationTest"`
	Structure         *CalculatedStructure `bson:"calculatedStructure,omitempty" json:"calculatedStructure,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Terminal reports whether the workout can no longer be mutated or
// rescheduled.
func (w *Workout) Terminal() bool {
	return w.Status == WorkoutCompleted || w.Status == WorkoutMissed
}
