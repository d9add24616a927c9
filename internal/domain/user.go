package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CalibrationMethod describes how a user's biometric scalars are established.
type CalibrationMethod string

const (
	CalibrationManual CalibrationMethod = "manual"           // scalars entered directly at onboarding
	CalibrationWeek   CalibrationMethod = "calibration_week" // week 1 of the plan runs field tests
)

// OnboardingStatus tracks how far a user is through initial setup.
type OnboardingStatus string

const (
	OnboardingPending             OnboardingStatus = "PENDING"
	OnboardingAwaitingCalibration OnboardingStatus = "AWAITING_CALIBRATION"
	OnboardingCompleted           OnboardingStatus = "COMPLETED"
)

// ExperienceLevel is the self-reported athlete category used to derive a
// volume tier when the user has not picked one explicitly.
type ExperienceLevel string

const (
	ExperienceFinisher   ExperienceLevel = "finisher"
	ExperienceCompetitor ExperienceLevel = "competitor"
)

// User represents an athlete. Authentication and session issuance live in an
// external collaborator; this record only carries what the plan engine needs.
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email             string             `bson:"email" json:"email"` // Should be unique
	Name              string             `bson:"name" json:"name"`
	CalibrationMethod CalibrationMethod  `bson:"calibrationMethod" json:"calibrationMethod"`
	OnboardingStatus  OnboardingStatus   `bson:"onboardingStatus" json:"onboardingStatus"`
	ExperienceLevel   ExperienceLevel    `bson:"experienceLevel,omitempty" json:"experienceLevel,omitempty"`

	// TrainingVolumeTier is 1..3 when chosen explicitly, 0 when the plan
	// generator should derive it from ExperienceLevel.
	TrainingVolumeTier int `bson:"trainingVolumeTier,omitempty" json:"trainingVolumeTier,omitempty"`

	DateOfBirth *time.Time `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty"`
	Gender      string     `bson:"gender,omitempty" json:"gender,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UsesCalibrationWeek reports whether week 1 of a new plan should run field
// tests instead of regular sessions.
func (u *User) UsesCalibrationWeek() bool {
	return u.CalibrationMethod == CalibrationWeek
}
