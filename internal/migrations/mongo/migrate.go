package mongo

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"corealign/internal/migrations/mongo/validators"
)

var (
	ClassTypesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "exclusive_key", Value: 1}}},
	}

	// The slot identity index makes duplicate slot creation a
	// duplicate-key error instead of a read-then-write race.
	SlotsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "class_type_id", Value: 1},
				{Key: "date_key", Value: 1},
				{Key: "start_min", Value: 1},
				{Key: "end_min", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "date_key", Value: 1}, {Key: "start_min", Value: 1}}},
		{Keys: bson.D{{Key: "class_type_id", Value: 1}, {Key: "date_key", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "slot_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{
			{Key: "exclusive_key", Value: 1},
			{Key: "date_key", Value: 1},
			{Key: "status", Value: 1},
		}},
		{Keys: bson.D{{Key: "customer_phone", Value: 1}}},
	}

	// The unique bucket index is the lock arbiter: concurrent inserts
	// for the same (key, date, bucket) resolve to exactly one winner.
	ExclusiveLocksIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "exclusive_key", Value: 1},
				{Key: "date_key", Value: 1},
				{Key: "bucket", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "class_type_id", Value: 1}}},
	}
)

var migrated atomic.Bool

// RunMigration ensures collections, validators and indexes exist. It
// runs at most once per process; repeat calls are no-ops.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	if !migrated.CompareAndSwap(false, true) {
		return nil
	}

	db := client.Database(dbName)
	fmt.Printf("🚀 Running CoreAlign Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Class_types": {
			Indexes:   ClassTypesIndexes,
			Validator: validators.ClassTypeValidator,
		},
		"Slots": {
			Indexes:   SlotsIndexes,
			Validator: validators.SlotValidator,
		},
		"Bookings": {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		"Exclusive_locks": {
			Indexes:   ExclusiveLocksIndexes,
			Validator: validators.ExclusiveLockValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		fmt.Printf("ℹ️ Collection %s already exists — updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
