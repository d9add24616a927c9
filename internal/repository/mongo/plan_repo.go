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

const planCollectionName = "training_plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new TrainingPlan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.TotalWeeks <= 0 {
		return primitive.NilObjectID, errors.New("plan requires userId and totalWeeks")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan by id.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	var plan domain.TrainingPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetActiveByUserID returns the user's single active plan.
func (r *mongoPlanRepository) GetActiveByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	var plan domain.TrainingPlan
	filter := bson.M{"userId": userID, "status": domain.PlanActive}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListActive returns every active plan; the daily sweep iterates these.
func (r *mongoPlanRepository) ListActive(ctx context.Context) ([]domain.TrainingPlan, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": domain.PlanActive})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []domain.TrainingPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Update persists mutable plan fields (status, current week/phase).
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.TrainingPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}
	updateDoc := bson.M{
		"$set": bson.M{
			"currentPhase": plan.CurrentPhase,
			"currentWeek":  plan.CurrentWeek,
			"status":       plan.Status,
			"updatedAt":    time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID}, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ArchiveActiveForUser flips any active plan of the user to archived,
// preserving the one-active-plan invariant before a new plan is inserted.
func (r *mongoPlanRepository) ArchiveActiveForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := bson.M{"userId": userID, "status": domain.PlanActive}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":    domain.PlanArchived,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateMany(ctx, filter, updateDoc)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// The active-plan lookup and the one-active invariant both hit this.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
