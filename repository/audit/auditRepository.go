package auditrepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"propertyhub/model"
)

const collection = "audit_logs"

// Query selects history for one entity type, optionally one entity.
type Query struct {
	EntityType string
	EntityID   *int64
	Limit      int64
	Offset     int64
}

type Repo interface {
	Insert(ctx context.Context, e *model.AuditEntry) error
	List(ctx context.Context, q Query) ([]model.AuditEntry, int64, error)
}

type mongoRepo struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) Repo {
	return &mongoRepo{coll: db.Collection(collection)}
}

// EnsureIndexes creates the lookup index used by List.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *mongoRepo) Insert(ctx context.Context, e *model.AuditEntry) error {
	res, err := r.coll.InsertOne(ctx, e)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		e.ID = id
	}
	return nil
}

func (r *mongoRepo) List(ctx context.Context, q Query) ([]model.AuditEntry, int64, error) {
	filter := bson.M{}
	if q.EntityType != "" {
		filter["entity_type"] = q.EntityType
	}
	if q.EntityID != nil {
		filter["entity_id"] = *q.EntityID
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(q.Offset).
		SetLimit(q.Limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find audit entries: %w", err)
	}
	defer cur.Close(ctx)

	out := []model.AuditEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode audit entries: %w", err)
	}
	return out, total, nil
}
