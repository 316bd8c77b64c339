package migrations

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aniicone/cafe-api/app/repositories"
	"github.com/aniicone/cafe-api/pkg/migration"
)

func init() {
	migration.Register("20250101000000_create_indexes", &CreateIndexes{})
	migration.Register("20250101000001_seed_order_counter", &SeedOrderCounter{})
	migration.Register("20250101000002_partial_email_index", &PartialEmailIndex{})
}

// -------- 0001: indexes --------

type CreateIndexes struct{}

func (m *CreateIndexes) Up(ctx context.Context, db *mongo.Database) error {
	return repositories.EnsureIndexes(ctx, db)
}

func (m *CreateIndexes) Down(ctx context.Context, db *mongo.Database) error {
	for _, name := range []string{
		repositories.UsersCollection,
		repositories.OrdersCollection,
		repositories.MenuCollection,
	} {
		if _, err := db.Collection(name).Indexes().DropAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// -------- 0002: order counter --------

// SeedOrderCounter starts the order sequence above the number of orders
// already stored, so databases that predate the counter keep unique
// order numbers.
type SeedOrderCounter struct{}

func (m *SeedOrderCounter) Up(ctx context.Context, db *mongo.Database) error {
	return repositories.SyncOrderCounter(ctx, db)
}

func (m *SeedOrderCounter) Down(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(repositories.CountersCollection).DeleteOne(ctx, bson.M{"_id": repositories.OrderSequence})
	return err
}

// -------- 0003: partial email index --------

// PartialEmailIndex replaces a plain unique email index, which rejects a
// second account without an email, with the partial one EnsureIndexes
// builds. A changed index definition cannot be created over the old one.
type PartialEmailIndex struct{}

func (m *PartialEmailIndex) Up(ctx context.Context, db *mongo.Database) error {
	if err := dropIndex(ctx, db.Collection(repositories.UsersCollection), repositories.EmailIndex); err != nil {
		return err
	}
	return repositories.EnsureIndexes(ctx, db)
}

func (m *PartialEmailIndex) Down(ctx context.Context, db *mongo.Database) error {
	users := db.Collection(repositories.UsersCollection)
	if err := dropIndex(ctx, users, repositories.EmailIndex); err != nil {
		return err
	}
	_, err := users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName(repositories.EmailIndex).SetUnique(true),
	})
	return err
}

// dropIndex drops the named index, treating a missing index or
// collection as already dropped.
func dropIndex(ctx context.Context, col *mongo.Collection, name string) error {
	_, err := col.Indexes().DropOne(ctx, name)
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == 26 || cmdErr.Code == 27) {
		return nil
	}
	return err
}
