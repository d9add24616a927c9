package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityLog records the actuals of one completed workout.
type ActivityLog struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID       primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	DurationSeconds int                `bson:"durationSeconds" json:"durationSeconds"`
	DistanceMeters  float64            `bson:"distanceMeters,omitempty" json:"distanceMeters,omitempty"`
	AvgHeartRate    int                `bson:"avgHeartRate,omitempty" json:"avgHeartRate,omitempty"`
	Source          string             `bson:"source,omitempty" json:"source,omitempty"` // e.g. "manual", "import"
	RecordedAt      time.Time          `bson:"recordedAt" json:"recordedAt"`
}

// FeedbackRating is the athlete's subjective comparison against the
// prescription.
type FeedbackRating string

const (
	RatingEasier FeedbackRating = "easier"
	RatingSame   FeedbackRating = "same"
	RatingHarder FeedbackRating = "harder"
)

// SkipReason is the declared cause of a skipped workout. Fatigue-type reasons
// feed the adaptation engine's strike counter.
type SkipReason string

const (
	SkipTooTired SkipReason = "too_tired"
	SkipSick     SkipReason = "sick"
	SkipNoTime   SkipReason = "no_time"
	SkipOther    SkipReason = "other"
)

// CountsAsFatigue reports whether the reason earns a fatigue strike.
func (r SkipReason) CountsAsFatigue() bool {
	return r == SkipTooTired || r == SkipSick
}

// FeedbackLog is the append-only subjective record attached to one activity.
type FeedbackLog struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActivityLogID   primitive.ObjectID `bson:"activityLogId" json:"activityLogId"`
	WorkoutID       primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Rating          FeedbackRating     `bson:"rating" json:"rating"`
	RPEScore        int                `bson:"rpeScore,omitempty" json:"rpeScore,omitempty"`
	TargetRPE       int                `bson:"targetRpe,omitempty" json:"targetRpe,omitempty"`
	TriggeredStrike bool               `bson:"triggeredStrike" json:"triggeredStrike"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// AdaptationLog is the append-only audit record of one adaptation event.
type AdaptationLog struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID   `bson:"userId" json:"userId"`
	TriggerReason      string               `bson:"triggerReason" json:"triggerReason"`
	StrikesAtTrigger   int                  `bson:"strikesAtTrigger" json:"strikesAtTrigger"`
	AffectedWorkoutIDs []primitive.ObjectID `bson:"affectedWorkoutIds" json:"affectedWorkoutIds"`
	ActionsTaken       []string             `bson:"actionsTaken" json:"actionsTaken"`
	CreatedAt          time.Time            `bson:"createdAt" json:"createdAt"`
}
