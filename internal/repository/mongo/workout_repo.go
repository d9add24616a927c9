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

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new Workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// CreateMany inserts a generated batch of workouts (a whole plan's worth).
func (r *mongoWorkoutRepository) CreateMany(ctx context.Context, workouts []domain.Workout) error {
	if len(workouts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(workouts))
	for i := range workouts {
		w := &workouts[i]
		if w.PlanID == primitive.NilObjectID || w.UserID == primitive.NilObjectID {
			return errors.New("workout requires planId and userId")
		}
		if w.ID == primitive.NilObjectID {
			w.ID = primitive.NewObjectID()
		}
		w.CreatedAt = now
		w.UpdatedAt = now
		docs = append(docs, *w)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// GetByID retrieves a single workout by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// Update persists the mutable workout fields. Completed workouts are
// immutable; the filter refuses to touch them.
func (r *mongoWorkoutRepository) Update(ctx context.Context, workout *domain.Workout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("workout ID is required for update")
	}
	filter := bson.M{
		"_id":    workout.ID,
		"status": bson.M{"$ne": domain.WorkoutCompleted},
	}
	updateDoc := bson.M{
		"$set": bson.M{
			"scheduledDate":       workout.ScheduledDate,
			"status":              workout.Status,
			"intensityScalar":     workout.IntensityScalar,
			"wasAdapted":          workout.WasAdapted,
			"calculatedStructure": workout.Structure,
			"updatedAt":           time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either missing or already completed.
		var existing domain.Workout
		if ferr := r.collection.FindOne(ctx, bson.M{"_id": workout.ID}).Decode(&existing); ferr == nil {
			return repository.ErrUpdateFailed
		}
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a workout (the sweep's gate-1 and gate-3 outcomes).
func (r *mongoWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWorkoutRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Workout, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workouts []domain.Workout
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

var dateAscending = bson.D{{Key: "scheduledDate", Value: 1}, {Key: "priorityLevel", Value: 1}}

// ListPlannedBefore returns still-planned workouts scheduled strictly before
// day, oldest first.
func (r *mongoWorkoutRepository) ListPlannedBefore(ctx context.Context, planID primitive.ObjectID, day time.Time) ([]domain.Workout, error) {
	filter := bson.M{
		"planId":        planID,
		"status":        domain.WorkoutPlanned,
		"scheduledDate": bson.M{"$lt": day},
	}
	return r.find(ctx, filter, options.Find().SetSort(dateAscending))
}

// ListPlannedBetween returns still-planned workouts in [from, to).
func (r *mongoWorkoutRepository) ListPlannedBetween(ctx context.Context, planID primitive.ObjectID, from, to time.Time) ([]domain.Workout, error) {
	filter := bson.M{
		"planId":        planID,
		"status":        domain.WorkoutPlanned,
		"scheduledDate": bson.M{"$gte": from, "$lt": to},
	}
	return r.find(ctx, filter, options.Find().SetSort(dateAscending))
}

// ListPlannedByPriority returns the next still-planned workouts of a priority
// level on or after day, date order, at most limit.
func (r *mongoWorkoutRepository) ListPlannedByPriority(ctx context.Context, planID primitive.ObjectID, priority int, day time.Time, limit int) ([]domain.Workout, error) {
	filter := bson.M{
		"planId":        planID,
		"status":        domain.WorkoutPlanned,
		"priorityLevel": priority,
		"scheduledDate": bson.M{"$gte": day},
	}
	opts := options.Find().SetSort(dateAscending)
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

// ListPlannedFromWeek returns still-planned workouts from a plan week onward.
func (r *mongoWorkoutRepository) ListPlannedFromWeek(ctx context.Context, planID primitive.ObjectID, week int) ([]domain.Workout, error) {
	filter := bson.M{
		"planId": planID,
		"status": domain.WorkoutPlanned,
		"week":   bson.M{"$gte": week},
	}
	return r.find(ctx, filter, options.Find().SetSort(dateAscending))
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// The sweep's missed/today scans and the adaptation candidate
			// queries all filter on these.
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "status", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "week", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
