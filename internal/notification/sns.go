package notification

import (
	"context"
	"encoding/json"
	"log"
	"time"

	appcfg "tripeak/training-engine/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const publishTimeout = 5 * time.Second

// snsNotifier publishes notification requests to an SNS topic consumed by
// the external delivery service.
type snsNotifier struct {
	client   *awssns.Client
	topicARN string
}

// message is the published payload. MessageID lets the delivery side
// deduplicate retried publishes.
type message struct {
	MessageID string `json:"messageId"`
	Event     string `json:"event"`
	UserID    string `json:"userId"`
	SentAt    string `json:"sentAt"`
}

// NewSNSNotifier creates the SNS-backed notifier.
func NewSNSNotifier(cfg appcfg.NotificationConfig) (Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}
	log.Printf("SNS notifier initialized for topic %s", cfg.TopicARN)
	return &snsNotifier{
		client:   awssns.NewFromConfig(awsCfg),
		topicARN: cfg.TopicARN,
	}, nil
}

func (n *snsNotifier) publish(ctx context.Context, event string, userID primitive.ObjectID) {
	payload, err := json.Marshal(message{
		MessageID: uuid.NewString(),
		Event:     event,
		UserID:    userID.Hex(),
		SentAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("ERROR: Failed to encode %s notification for user %s: %v", event, userID.Hex(), err)
		return
	}

	// Detach from the caller's transaction context: the engine must not wait
	// on, or fail with, delivery.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	_, err = n.client.Publish(pubCtx, &awssns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		log.Printf("ERROR: Failed to publish %s notification for user %s: %v", event, userID.Hex(), err)
	}
}

func (n *snsNotifier) NotifyAdaptationTriggered(ctx context.Context, userID primitive.ObjectID) {
	n.publish(ctx, "adaptation_triggered", userID)
}

func (n *snsNotifier) NotifyCalibrationComplete(ctx context.Context, userID primitive.ObjectID) {
	n.publish(ctx, "calibration_complete", userID)
}
