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

	sloterrors "corealign/internal/slots/errors"
	"corealign/pkg/config"
	"corealign/pkg/model"
)

const CollectionName = "Slots"

// SlotRepository persists slots. ReserveSeat and ReleaseSeat are the
// only two code paths that ever move booked_count; both are single
// conditional updates so the capacity invariant holds under concurrency.
type SlotRepository interface {
	Create(ctx context.Context, slot *model.Slot) error
	FindByID(ctx context.Context, id string) (*model.Slot, error)
	FindExact(ctx context.Context, classTypeID, dateKey string, startMin, endMin int) (*model.Slot, error)
	FindByDate(ctx context.Context, dateKey string) ([]*model.Slot, error)
	FindUnderbooked(ctx context.Context, classTypeID string, minBookings int, from, to SlotInstant) ([]*model.Slot, error)
	ReserveSeat(ctx context.Context, slotID, classTypeID string, capacity int) (*model.Slot, error)
	ReleaseSeat(ctx context.Context, slotID string) error
	Cancel(ctx context.Context, slotID string) (bool, error)
	Delete(ctx context.Context, slotID string) error
}

// SlotInstant is a point on the studio calendar for range queries.
type SlotInstant struct {
	DateKey string
	Minute  int
}

type mongoSlotRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSlotRepository(cfg *config.Config) SlotRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSlotRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoSlotRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoSlotRepository) Create(ctx context.Context, slot *model.Slot) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	slot.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, slot)
	if err != nil {
		// The unique slot identity index turns concurrent duplicate
		// generation into "already exists", never two slot documents.
		if mongo.IsDuplicateKeyError(err) {
			return sloterrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create slot: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		slot.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSlotRepository) FindByID(ctx context.Context, id string) (*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, id)
	}

	var slot model.Slot
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sloterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	return &slot, nil
}

func (r *mongoSlotRepository) FindExact(ctx context.Context, classTypeID, dateKey string, startMin, endMin int) (*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"class_type_id": classTypeID,
		"date_key":      dateKey,
		"start_min":     startMin,
		"end_min":       endMin,
	}

	var slot model.Slot
	err := r.collection.FindOne(ctx, filter).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sloterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find slot: %w", err)
	}
	return &slot, nil
}

func (r *mongoSlotRepository) FindByDate(ctx context.Context, dateKey string) ([]*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_min", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"date_key": dateKey}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.Slot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}
	return slots, nil
}

func (r *mongoSlotRepository) FindUnderbooked(ctx context.Context, classTypeID string, minBookings int, from, to SlotInstant) ([]*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"class_type_id": classTypeID,
		"cancelled":     false,
		"booked_count":  bson.M{"$lt": minBookings},
		"$or":           instantRange(from, to),
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find underbooked slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.Slot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode slots: %w", err)
	}
	return slots, nil
}

// instantRange matches slots whose (date_key, start_min) falls in the
// inclusive window [from, to]. Date keys sort lexicographically.
func instantRange(from, to SlotInstant) []bson.M {
	if from.DateKey == to.DateKey {
		return []bson.M{{
			"date_key":  from.DateKey,
			"start_min": bson.M{"$gte": from.Minute, "$lte": to.Minute},
		}}
	}
	return []bson.M{
		{"date_key": from.DateKey, "start_min": bson.M{"$gte": from.Minute}},
		{"date_key": bson.M{"$gt": from.DateKey, "$lt": to.DateKey}},
		{"date_key": to.DateKey, "start_min": bson.M{"$lte": to.Minute}},
	}
}

// ReserveSeat claims one seat with a single conditional increment. The
// filter is the whole capacity contract: live slot, right class type,
// seats remaining. Nil slot (no error) means the guard failed and the
// caller lost the race.
func (r *mongoSlotRepository) ReserveSeat(ctx context.Context, slotID, classTypeID string, capacity int) (*model.Slot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, slotID)
	}

	filter := bson.M{
		"_id":           objectID,
		"class_type_id": classTypeID,
		"cancelled":     false,
		"booked_count":  bson.M{"$lt": capacity},
	}
	update := bson.M{"$inc": bson.M{"booked_count": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var slot model.Slot
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to reserve seat: %w", err)
	}
	return &slot, nil
}

// ReleaseSeat undoes one seat claim. Guarded by booked_count > 0 so a
// release for an already-detached booking is a no-op, never negative.
func (r *mongoSlotRepository) ReleaseSeat(ctx context.Context, slotID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, slotID)
	}

	filter := bson.M{"_id": objectID, "booked_count": bson.M{"$gt": 0}}
	update := bson.M{"$inc": bson.M{"booked_count": -1}}

	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to release seat: %w", err)
	}
	return nil
}

// Cancel flips a live slot to cancelled and zeroes its counter in one
// update. Returns false when the slot was already cancelled or missing,
// which makes the admin/auto-cancel cascade idempotent.
func (r *mongoSlotRepository) Cancel(ctx context.Context, slotID string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return false, fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, slotID)
	}

	filter := bson.M{"_id": objectID, "cancelled": false}
	update := bson.M{"$set": bson.M{"cancelled": true, "booked_count": 0}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to cancel slot: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

func (r *mongoSlotRepository) Delete(ctx context.Context, slotID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(slotID)
	if err != nil {
		return fmt.Errorf("%w: %s", sloterrors.ErrInvalidID, slotID)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	if result.DeletedCount == 0 {
		return sloterrors.ErrNotFound
	}
	return nil
}
