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

	bookingerrors "corealign/internal/bookings/errors"
	"corealign/pkg/config"
	"corealign/pkg/model"
)

const CollectionName = "Bookings"

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByCode(ctx context.Context, code string) (*model.Booking, error)
	FindBySlot(ctx context.Context, slotID string) ([]*model.Booking, error)
	FindConfirmedBySlot(ctx context.Context, slotID string) ([]*model.Booking, error)
	FindConfirmedByKeyAndDate(ctx context.Context, exclusiveKey, dateKey string) ([]*model.Booking, error)
	FindByPhone(ctx context.Context, phone string, limit int, offset int64) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) error
	Reassign(ctx context.Context, id string, booking *model.Booking) error
	DetachConfirmedBySlot(ctx context.Context, slotID string) (int64, error)
	CountByPhone(ctx context.Context, phone string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		// Unique code index: collision means regenerate, not fail.
		if mongo.IsDuplicateKeyError(err) {
			return bookingerrors.ErrCodeTaken
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindByCode(ctx context.Context, code string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by code: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindBySlot(ctx context.Context, slotID string) ([]*model.Booking, error) {
	return r.findMany(ctx, bson.M{"slot_id": slotID})
}

func (r *mongoBookingRepository) FindConfirmedBySlot(ctx context.Context, slotID string) ([]*model.Booking, error) {
	return r.findMany(ctx, bson.M{"slot_id": slotID, "status": model.BookingConfirmed})
}

// FindConfirmedByKeyAndDate returns all confirmed bookings whose
// snapshot claims coverage on this exclusive key and date, across every
// class type in the group. Detached bookings are included: their
// snapshot still holds its buckets until reassignment.
func (r *mongoBookingRepository) FindConfirmedByKeyAndDate(ctx context.Context, exclusiveKey, dateKey string) ([]*model.Booking, error) {
	return r.findMany(ctx, bson.M{
		"exclusive_key": exclusiveKey,
		"date_key":      dateKey,
		"status":        model.BookingConfirmed,
	})
}

// FindByPhone pages through a customer's booking history, newest first.
func (r *mongoBookingRepository) FindByPhone(ctx context.Context, phone string, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"customer_phone": phone}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings by phone: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) findMany(ctx context.Context, filter bson.M) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_min", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus performs a conditional state transition. A filter miss
// (booking missing or not in fromStatus) returns ErrStaleStatus so the
// orchestrator can distinguish idempotent repeats from invalid moves.
func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id, fromStatus, toStatus string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": fromStatus}
	update := bson.M{"$set": bson.M{
		"status":     toStatus,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingerrors.ErrStaleStatus
	}
	return nil
}

// Reassign points a detached confirmed booking at a new slot, replacing
// the snapshot fields in one update. The filter insists the booking is
// still detached and confirmed, so two concurrent reassignments cannot
// both claim it.
func (r *mongoBookingRepository) Reassign(ctx context.Context, id string, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":     objectID,
		"status":  model.BookingConfirmed,
		"slot_id": "",
	}
	update := bson.M{"$set": bson.M{
		"slot_id":       booking.SlotID,
		"class_type_id": booking.ClassTypeID,
		"exclusive_key": booking.ExclusiveKey,
		"date_key":      booking.DateKey,
		"start_min":     booking.StartMin,
		"end_min":       booking.EndMin,
		"updated_at":    time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reassign booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingerrors.ErrStaleStatus
	}
	return nil
}

// DetachConfirmedBySlot clears slot_id on every confirmed booking of a
// deleted slot. The bookings stay confirmed; they just hold no seat.
func (r *mongoBookingRepository) DetachConfirmedBySlot(ctx context.Context, slotID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"slot_id": slotID, "status": model.BookingConfirmed}
	update := bson.M{"$set": bson.M{
		"slot_id":    "",
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to detach bookings: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *mongoBookingRepository) CountByPhone(ctx context.Context, phone string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"customer_phone": phone})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings by phone: %w", err)
	}
	return count, nil
}

// Delete removes a booking document. Callers only hard-delete bookings
// already cancelled; the service layer enforces that.
func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingerrors.ErrNotFound
	}
	return nil
}
