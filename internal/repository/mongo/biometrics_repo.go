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
	biometricsCollectionName = "biometrics"
	hrZoneCollectionName     = "heart_rate_zones"
)

// mongoBiometricsRepository implements repository.BiometricsRepository.
type mongoBiometricsRepository struct {
	collection *mongo.Collection
}

// NewMongoBiometricsRepository creates a new Biometrics repository.
func NewMongoBiometricsRepository(db *mongo.Database) repository.BiometricsRepository {
	return &mongoBiometricsRepository{
		collection: db.Collection(biometricsCollectionName),
	}
}

// GetByUserID retrieves the single biometrics document of a user.
func (r *mongoBiometricsRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Biometrics, error) {
	var bio domain.Biometrics
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&bio)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &bio, nil
}

// Upsert writes the user's biometrics, creating the document on first write.
// Only nonzero scalar fields are set so a calibration result for one
// discipline never clears the others.
func (r *mongoBiometricsRepository) Upsert(ctx context.Context, bio *domain.Biometrics) error {
	if bio.UserID == primitive.NilObjectID {
		return errors.New("biometrics requires a userId")
	}
	set := bson.M{
		"userId":     bio.UserID,
		"recordedAt": time.Now().UTC(),
	}
	if bio.CriticalSwimSpeed > 0 {
		set["criticalSwimSpeed"] = bio.CriticalSwimSpeed
	}
	if bio.FunctionalThresholdPower > 0 {
		set["functionalThresholdPower"] = bio.FunctionalThresholdPower
	}
	if bio.ThresholdRunPace > 0 {
		set["thresholdRunPace"] = bio.ThresholdRunPace
	}
	if bio.MaxHeartRate > 0 {
		set["maxHeartRate"] = bio.MaxHeartRate
	}
	if bio.RestingHeartRate > 0 {
		set["restingHeartRate"] = bio.RestingHeartRate
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"userId": bio.UserID}, bson.M{"$set": set}, opts)
	return err
}

// EnsureBiometricsIndexes creates necessary indexes. Call during startup.
func EnsureBiometricsIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}

// mongoHeartRateZoneRepository implements repository.HeartRateZoneRepository.
type mongoHeartRateZoneRepository struct {
	collection *mongo.Collection
}

// NewMongoHeartRateZoneRepository creates a new HeartRateZone repository.
func NewMongoHeartRateZoneRepository(db *mongo.Database) repository.HeartRateZoneRepository {
	return &mongoHeartRateZoneRepository{
		collection: db.Collection(hrZoneCollectionName),
	}
}

// GetByUserID returns the user's five zone rows ordered by zone number.
func (r *mongoHeartRateZoneRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.HeartRateZone, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "zone", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var zones []domain.HeartRateZone
	if err = cursor.All(ctx, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

// ReplaceForUser swaps the full zone set. Zones are derived data; replacing
// the set wholesale keeps them consistent with the current HR baselines.
func (r *mongoHeartRateZoneRepository) ReplaceForUser(ctx context.Context, userID primitive.ObjectID, zones []domain.HeartRateZone) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID}); err != nil {
		return err
	}
	if len(zones) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(zones))
	for _, z := range zones {
		z.ID = primitive.NewObjectID()
		z.UserID = userID
		docs = append(docs, z)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}
