package record

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the record collection in the document store.
const CollectionName = "Patient_data"

type repoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(coll *mongo.Collection) Repository {
	return &repoMongo{coll: coll}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func (r *repoMongo) Insert(ctx context.Context, rec *Record) (string, error) {
	res, err := r.coll.InsertOne(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("inserting record: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	rec.ID = oid
	return oid.Hex(), nil
}

func (r *repoMongo) GetByID(ctx context.Context, id string) (*Record, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var rec Record
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding record: %w", err)
	}
	return &rec, nil
}

func (r *repoMongo) Replace(ctx context.Context, id string, rec *Record) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	// $set of the clinical fields only; _id and user_id stay untouched so
	// an update can never reassign ownership.
	update := bson.M{"$set": bson.M{
		"id":                rec.ExternalID,
		"gender":            rec.Gender,
		"age":               rec.Age,
		"hypertension":      rec.Hypertension,
		"heart_disease":     rec.HeartDisease,
		"ever_married":      rec.EverMarried,
		"work_type":         rec.WorkType,
		"Residence_type":    rec.ResidenceType,
		"avg_glucose_level": rec.AvgGlucoseLevel,
		"bmi":               rec.BMI,
		"smoking_status":    rec.SmokingStatus,
		"stroke":            rec.Stroke,
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoMongo) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoMongo) list(ctx context.Context, filter bson.M, limit, offset int) ([]*Record, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSkip(int64(offset)).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer cur.Close(ctx)

	records := []*Record{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return records, nil
}

func (r *repoMongo) ListAll(ctx context.Context, limit, offset int) ([]*Record, error) {
	return r.list(ctx, bson.M{}, limit, offset)
}

func (r *repoMongo) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*Record, error) {
	return r.list(ctx, bson.M{"user_id": ownerID}, limit, offset)
}

func (r *repoMongo) DeleteByOwner(ctx context.Context, ownerID int64) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("purging records: %w", err)
	}
	return res.DeletedCount, nil
}
