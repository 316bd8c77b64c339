package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderSequence names the counter backing order numbers.
const OrderSequence = "orders"

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// CounterRepository hands out monotonically increasing sequence values.
// Each value is produced by a single atomic findOneAndUpdate, so concurrent
// callers never observe the same number.
type CounterRepository struct {
	col *mongo.Collection
}

func NewCounterRepository(db *mongo.Database) *CounterRepository {
	return &CounterRepository{col: db.Collection(CountersCollection)}
}

// Next increments the named counter and returns the new value. A missing
// counter starts at 1.
func (r *CounterRepository) Next(ctx context.Context, name string) (int64, error) {
	defer observe("counters.next")()

	var doc counterDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, translate(err)
	}
	return doc.Seq, nil
}

// RaiseTo lifts the counter to at least n, leaving higher values alone.
func (r *CounterRepository) RaiseTo(ctx context.Context, name string, n int64) error {
	defer observe("counters.raise")()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": n}},
		options.Update().SetUpsert(true),
	)
	return translate(err)
}

// SyncOrderCounter lifts the order sequence to the number of stored orders.
// Run at boot so a database restored or imported without its counters
// document does not hand out order numbers that already exist.
func SyncOrderCounter(ctx context.Context, db *mongo.Database) error {
	n, err := NewOrderRepository(db).Count(ctx)
	if err != nil {
		return err
	}
	return NewCounterRepository(db).RaiseTo(ctx, OrderSequence, n)
}
