package mongo

import (
	"context"
	"errors"
	"time"

	"tripeak/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const lockCollectionName = "user_locks"

// mongoUserLocker implements repository.UserLocker as a lease document per
// user. A lease is free when absent or expired; acquisition is a single
// conditional upsert so two engine instances can never both win.
type mongoUserLocker struct {
	collection *mongo.Collection
}

type lockDoc struct {
	UserID    primitive.ObjectID `bson:"_id"`
	Owner     string             `bson:"owner"`
	ExpiresAt time.Time          `bson:"expiresAt"`
}

// NewMongoUserLocker creates a new per-user lock provider.
func NewMongoUserLocker(db *mongo.Database) repository.UserLocker {
	return &mongoUserLocker{
		collection: db.Collection(lockCollectionName),
	}
}

// Acquire takes the user lease for owner, failing with ErrLockHeld when a
// live lease belongs to someone else.
func (l *mongoUserLocker) Acquire(ctx context.Context, userID primitive.ObjectID, owner string, ttl time.Duration) error {
	if owner == "" {
		return errors.New("lock owner token is required")
	}
	now := time.Now().UTC()
	filter := bson.M{
		"_id": userID,
		"$or": []bson.M{
			{"owner": owner},                          // re-entrant for the same owner
			{"expiresAt": bson.M{"$lte": now}},        // expired lease is free
		},
	}
	updateDoc := bson.M{
		"$set": lockDoc{UserID: userID, Owner: owner, ExpiresAt: now.Add(ttl)},
	}
	opts := options.Update().SetUpsert(true)
	_, err := l.collection.UpdateOne(ctx, filter, updateDoc, opts)
	if err != nil {
		// A live lease makes the upsert collide on _id.
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrLockHeld
		}
		return err
	}
	return nil
}

// Release frees the lease if owner still holds it. Releasing a lost or
// expired lease is a no-op.
func (l *mongoUserLocker) Release(ctx context.Context, userID primitive.ObjectID, owner string) error {
	_, err := l.collection.DeleteOne(ctx, bson.M{"_id": userID, "owner": owner})
	return err
}
