package mongo

import (
	"context"
	"errors"
	"time"

	"tripeak/training-engine/internal/domain"
	"tripeak/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	activityLogCollectionName   = "activity_logs"
	feedbackLogCollectionName   = "feedback_logs"
	adaptationLogCollectionName = "adaptation_logs"
)

// The three append-only log collections share one file: their repositories
// are insert-plus-query with no mutation paths.

// mongoActivityLogRepository implements repository.ActivityLogRepository.
type mongoActivityLogRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityLogRepository creates a new ActivityLog repository.
func NewMongoActivityLogRepository(db *mongo.Database) repository.ActivityLogRepository {
	return &mongoActivityLogRepository{
		collection: db.Collection(activityLogCollectionName),
	}
}

// Create appends one activity record.
func (r *mongoActivityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) (primitive.ObjectID, error) {
	if entry.WorkoutID == primitive.NilObjectID || entry.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("activity log requires workoutId and userId")
	}
	entry.ID = primitive.NewObjectID()
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return primitive.NilObjectID, err
	}
	return entry.ID, nil
}

// GetByWorkoutID returns the activity recorded for a workout.
func (r *mongoActivityLogRepository) GetByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) (*domain.ActivityLog, error) {
	var entry domain.ActivityLog
	err := r.collection.FindOne(ctx, bson.M{"workoutId": workoutID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// mongoFeedbackLogRepository implements repository.FeedbackLogRepository.
type mongoFeedbackLogRepository struct {
	collection *mongo.Collection
}

// NewMongoFeedbackLogRepository creates a new FeedbackLog repository.
func NewMongoFeedbackLogRepository(db *mongo.Database) repository.FeedbackLogRepository {
	return &mongoFeedbackLogRepository{
		collection: db.Collection(feedbackLogCollectionName),
	}
}

// Create appends one feedback record.
func (r *mongoFeedbackLogRepository) Create(ctx context.Context, entry *domain.FeedbackLog) (primitive.ObjectID, error) {
	if entry.WorkoutID == primitive.NilObjectID || entry.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("feedback log requires workoutId and userId")
	}
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return primitive.NilObjectID, err
	}
	return entry.ID, nil
}

// mongoAdaptationLogRepository implements repository.AdaptationLogRepository.
type mongoAdaptationLogRepository struct {
	collection *mongo.Collection
}

// NewMongoAdaptationLogRepository creates a new AdaptationLog repository.
func NewMongoAdaptationLogRepository(db *mongo.Database) repository.AdaptationLogRepository {
	return &mongoAdaptationLogRepository{
		collection: db.Collection(adaptationLogCollectionName),
	}
}

// Create appends one adaptation audit record.
func (r *mongoAdaptationLogRepository) Create(ctx context.Context, entry *domain.AdaptationLog) (primitive.ObjectID, error) {
	if entry.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("adaptation log requires userId")
	}
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return primitive.NilObjectID, err
	}
	return entry.ID, nil
}

// ListByUserID returns a user's adaptation history, newest first.
func (r *mongoAdaptationLogRepository) ListByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.AdaptationLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.AdaptationLog
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureLogIndexes creates the append-only collections' indexes.
func EnsureLogIndexes(ctx context.Context, db *mongo.Database) {
	_, _ = db.Collection(activityLogCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "workoutId", Value: 1}}, Options: options.Index()},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "recordedAt", Value: -1}}, Options: options.Index()},
	})
	_, _ = db.Collection(feedbackLogCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index()},
	})
	_, _ = db.Collection(adaptationLogCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index()},
	})
}
