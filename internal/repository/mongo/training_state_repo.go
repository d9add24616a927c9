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

const trainingStateCollectionName = "user_training_states"

// mongoTrainingStateRepository implements repository.TrainingStateRepository.
// The per-user singleton row is guarded by optimistic versioning: every write
// filters on the version it read and bumps it.
type mongoTrainingStateRepository struct {
	collection *mongo.Collection
}

// NewMongoTrainingStateRepository creates a new UserTrainingState repository.
func NewMongoTrainingStateRepository(db *mongo.Database) repository.TrainingStateRepository {
	return &mongoTrainingStateRepository{
		collection: db.Collection(trainingStateCollectionName),
	}
}

// GetOrCreate returns the user's state row, inserting the zero state on first
// touch.
func (r *mongoTrainingStateRepository) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*domain.UserTrainingState, error) {
	if userID == primitive.NilObjectID {
		return nil, errors.New("training state requires a userId")
	}
	var state domain.UserTrainingState
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&state)
	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	state = domain.UserTrainingState{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Version:   1,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := r.collection.InsertOne(ctx, state); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Concurrent first touch; read the winner.
			if ferr := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&state); ferr == nil {
				return &state, nil
			}
		}
		return nil, err
	}
	return &state, nil
}

// UpdateVersioned writes the state only if nobody else has written since it
// was read. A stale version surfaces as ErrVersionConflict for the caller to
// re-read and retry.
func (r *mongoTrainingStateRepository) UpdateVersioned(ctx context.Context, state *domain.UserTrainingState) error {
	if state.ID == primitive.NilObjectID {
		return errors.New("training state ID is required for update")
	}
	filter := bson.M{"_id": state.ID, "version": state.Version}
	updateDoc := bson.M{
		"$set": bson.M{
			"currentFatigueStrikes": state.CurrentFatigueStrikes,
			"lastStrikeDate":        state.LastStrikeDate,
			"lastAdaptationDate":    state.LastAdaptationDate,
			"totalAdaptations":      state.TotalAdaptations,
			"acuteLoad":             state.AcuteLoad,
			"chronicLoad":           state.ChronicLoad,
			"updatedAt":             time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrVersionConflict
	}
	state.Version++
	return nil
}

// EnsureTrainingStateIndexes creates necessary indexes. Call during startup.
func EnsureTrainingStateIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
