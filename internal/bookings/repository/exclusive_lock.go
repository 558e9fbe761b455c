package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	bookingerrors "corealign/internal/bookings/errors"
	"corealign/pkg/config"
	"corealign/pkg/model"
)

const LockCollectionName = "Exclusive_locks"

// ExclusiveLockRepository persists per-bucket ownership rows. The
// unique index on (exclusive_key, date_key, bucket) is the only
// synchronization primitive: Insert either wins the bucket or reports
// ErrBucketHeld, and the lock manager decides what the holder means.
type ExclusiveLockRepository interface {
	Insert(ctx context.Context, lock *model.ExclusiveLockBucket) error
	FindOwner(ctx context.Context, exclusiveKey, dateKey string, bucket int) (string, error)
	DeleteOwned(ctx context.Context, exclusiveKey, dateKey, classTypeID string, buckets []int) error
}

type mongoExclusiveLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoExclusiveLockRepository(cfg *config.Config) ExclusiveLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoExclusiveLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoExclusiveLockRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoExclusiveLockRepository) Insert(ctx context.Context, lock *model.ExclusiveLockBucket) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingerrors.ErrBucketHeld
		}
		return fmt.Errorf("failed to insert lock bucket: %w", err)
	}
	return nil
}

// FindOwner returns the class type holding the bucket, or "" when the
// bucket is free (e.g. the holder released between our insert attempt
// and this lookup).
func (r *mongoExclusiveLockRepository) FindOwner(ctx context.Context, exclusiveKey, dateKey string, bucket int) (string, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"exclusive_key": exclusiveKey,
		"date_key":      dateKey,
		"bucket":        bucket,
	}

	var lock model.ExclusiveLockBucket
	err := r.collection.FindOne(ctx, filter).Decode(&lock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", fmt.Errorf("failed to find lock bucket owner: %w", err)
	}
	return lock.ClassTypeID, nil
}

// DeleteOwned removes the given buckets only where this class type is
// the owner, so a rollback can never evict a competitor's locks.
func (r *mongoExclusiveLockRepository) DeleteOwned(ctx context.Context, exclusiveKey, dateKey, classTypeID string, buckets []int) error {
	if len(buckets) == 0 {
		return nil
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"exclusive_key": exclusiveKey,
		"date_key":      dateKey,
		"class_type_id": classTypeID,
		"bucket":        bson.M{"$in": buckets},
	}

	if _, err := r.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete lock buckets: %w", err)
	}
	return nil
}
