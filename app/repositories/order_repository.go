package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aniicone/cafe-api/app/models"
)

// OrderRepository stores orders.
type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(OrdersCollection)}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	defer observe("orders.insert")()

	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	res, err := r.col.InsertOne(ctx, o)
	if err != nil {
		return translate(err)
	}
	assignID(&o.ID, res.InsertedID)
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	defer observe("orders.find_one")()

	var o models.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// List returns orders newest first. An empty customerID lists every order.
func (r *OrderRepository) List(ctx context.Context, customerID string) ([]models.Order, error) {
	defer observe("orders.find")()

	filter := bson.M{}
	if customerID != "" {
		filter["customerId"] = customerID
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// SetField sets one status field and returns the updated order.
func (r *OrderRepository) SetField(ctx context.Context, id primitive.ObjectID, field, value string) (*models.Order, error) {
	defer observe("orders.update")()

	var o models.Order
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: value, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// Count returns the number of orders ever stored.
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	defer observe("orders.count")()
	return r.col.CountDocuments(ctx, bson.M{})
}
