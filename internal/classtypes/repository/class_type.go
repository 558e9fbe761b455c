package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	classtypeerrors "corealign/internal/classtypes/errors"
	"corealign/pkg/config"
	"corealign/pkg/model"
)

const CollectionName = "Class_types"

type ClassTypeRepository interface {
	Create(ctx context.Context, ct *model.ClassType) error
	FindByID(ctx context.Context, id string) (*model.ClassType, error)
	FindAll(ctx context.Context) ([]*model.ClassType, error)
	Update(ctx context.Context, id string, ct *model.ClassType) error
	SetActive(ctx context.Context, id string, active bool) error
}

type mongoClassTypeRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoClassTypeRepository(cfg *config.Config) ClassTypeRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoClassTypeRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoClassTypeRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoClassTypeRepository) Create(ctx context.Context, ct *model.ClassType) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ct.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, ct)
	if err != nil {
		return fmt.Errorf("failed to create class type: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		ct.ID = oid.Hex()
	}
	return nil
}

func (r *mongoClassTypeRepository) FindByID(ctx context.Context, id string) (*model.ClassType, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", classtypeerrors.ErrInvalidID, id)
	}

	var ct model.ClassType
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&ct)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, classtypeerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find class type: %w", err)
	}
	return &ct, nil
}

func (r *mongoClassTypeRepository) FindAll(ctx context.Context) ([]*model.ClassType, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find class types: %w", err)
	}
	defer cursor.Close(ctx)

	var classTypes []*model.ClassType
	if err = cursor.All(ctx, &classTypes); err != nil {
		return nil, fmt.Errorf("failed to decode class types: %w", err)
	}
	return classTypes, nil
}

// Update rewrites the mutable fields. The exclusive key is deliberately
// not part of the update: changing it would orphan existing lock rows.
func (r *mongoClassTypeRepository) Update(ctx context.Context, id string, ct *model.ClassType) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", classtypeerrors.ErrInvalidID, id)
	}

	update := bson.M{"$set": bson.M{
		"name":         ct.Name,
		"capacity":     ct.Capacity,
		"active":       ct.Active,
		"min_bookings": ct.MinBookings,
		"cutoff_hours": ct.CutoffHours,
		"duration_min": ct.DurationMin,
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update class type: %w", err)
	}
	if result.MatchedCount == 0 {
		return classtypeerrors.ErrNotFound
	}
	return nil
}

func (r *mongoClassTypeRepository) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", classtypeerrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"active": active}})
	if err != nil {
		return fmt.Errorf("failed to update class type active flag: %w", err)
	}
	if result.MatchedCount == 0 {
		return classtypeerrors.ErrNotFound
	}
	return nil
}
