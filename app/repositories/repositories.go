// Package repositories persists the café's documents in MongoDB.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aniicone/cafe-api/pkg/metrics"
)

// Collection names.
const (
	UsersCollection    = "users"
	MenuCollection     = "menuitems"
	OrdersCollection   = "orders"
	CountersCollection = "counters"
)

// EmailIndex names the partial unique index on users.email.
const EmailIndex = "email_1"

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("repositories: document not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("repositories: duplicate key")
)

// translate maps driver errors to the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicate, err)
	default:
		return err
	}
}

func assignID(dst *primitive.ObjectID, inserted interface{}) {
	if id, ok := inserted.(primitive.ObjectID); ok {
		*dst = id
	}
}

func observe(operation string) func() {
	start := time.Now()
	return func() { metrics.ObserveDBQuery(operation, start) }
}

// EnsureIndexes creates the unique indexes the application relies on.
// Creating an existing index is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	// Accounts without an email share the empty value, so only non-empty
	// emails take part in uniqueness.
	uniqueEmail := options.Index().SetName(EmailIndex).SetUnique(true).
		SetPartialFilterExpression(bson.M{"email": bson.M{"$gt": ""}})

	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: uniqueEmail},
		},
		OrdersCollection: {
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		MenuCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "isAvailable", Value: 1}}},
		},
	}

	// A conflict on one collection does not stop the others.
	var errs []error
	for _, name := range []string{UsersCollection, OrdersCollection, MenuCollection} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs[name]); err != nil {
			errs = append(errs, fmt.Errorf("%s indexes: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
