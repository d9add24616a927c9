package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxFatigueStrikes is the trigger threshold of the adaptation engine. The
// counter never persists at this value: reaching it fires an adaptation and
// resets to zero inside the same unit of work.
const MaxFatigueStrikes = 2

// UserTrainingState is the singleton per-user mutable engine state. All
// transitions go through the adaptation engine, guarded by the Version field
// (optimistic concurrency) rather than any in-process singleton.
type UserTrainingState struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`

	CurrentFatigueStrikes int        `bson:"currentFatigueStrikes" json:"currentFatigueStrikes"` // 0..1 at rest
	LastStrikeDate        *time.Time `bson:"lastStrikeDate,omitempty" json:"lastStrikeDate,omitempty"`
	LastAdaptationDate    *time.Time `bson:"lastAdaptationDate,omitempty" json:"lastAdaptationDate,omitempty"`
	TotalAdaptations      int        `bson:"totalAdaptations" json:"totalAdaptations"`

	// Acute/chronic load are exponentially weighted session-load averages
	// (7-day and 42-day constants), folded in on workout completion.
	AcuteLoad   float64 `bson:"acuteLoad" json:"acuteLoad"`
	ChronicLoad float64 `bson:"chronicLoad" json:"chronicLoad"`

	Version   int64     `bson:"version" json:"version"` // optimistic-concurrency guard
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
