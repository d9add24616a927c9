// Package notification is the client side of the external notification
// collaborator. Every call is fire-and-forget: a delivery failure is logged
// and never rolls back the engine transaction that requested it.
package notification

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier is the outbound contract consumed by the engine services.
type Notifier interface {
	NotifyAdaptationTriggered(ctx context.Context, userID primitive.ObjectID)
	NotifyCalibrationComplete(ctx context.Context, userID primitive.ObjectID)
}

// logNotifier is the fallback when no delivery transport is configured: it
// records the request and drops it.
type logNotifier struct{}

// NewLogNotifier creates the logging no-op notifier.
func NewLogNotifier() Notifier {
	return logNotifier{}
}

func (logNotifier) NotifyAdaptationTriggered(_ context.Context, userID primitive.ObjectID) {
	log.Printf("INFO: notification (adaptation triggered) for user %s dropped: no transport configured", userID.Hex())
}

func (logNotifier) NotifyCalibrationComplete(_ context.Context, userID primitive.ObjectID) {
	log.Printf("INFO: notification (calibration complete) for user %s dropped: no transport configured", userID.Hex())
}
