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

// MenuRepository stores menu items.
type MenuRepository struct {
	col *mongo.Collection
}

func NewMenuRepository(db *mongo.Database) *MenuRepository {
	return &MenuRepository{col: db.Collection(MenuCollection)}
}

// ListAvailable returns available items, optionally limited to one category.
func (r *MenuRepository) ListAvailable(ctx context.Context, category string) ([]models.MenuItem, error) {
	defer observe("menu.find")()

	filter := bson.M{"isAvailable": true}
	if category != "" {
		filter["category"] = category
	}
	return r.find(ctx, filter)
}

// FindByID returns the item regardless of availability.
func (r *MenuRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.MenuItem, error) {
	defer observe("menu.find_one")()

	var item models.MenuItem
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// FindByIDs returns the items that exist among ids, in no particular order.
func (r *MenuRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	defer observe("menu.find")()
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MenuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	defer observe("menu.insert")()

	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	res, err := r.col.InsertOne(ctx, item)
	if err != nil {
		return translate(err)
	}
	assignID(&item.ID, res.InsertedID)
	return nil
}

// Update applies patch and returns the updated document.
func (r *MenuRepository) Update(ctx context.Context, id primitive.ObjectID, patch models.MenuItemPatch) (*models.MenuItem, error) {
	defer observe("menu.update")()

	set, err := toSetDoc(patch)
	if err != nil {
		return nil, err
	}
	set["updatedAt"] = time.Now().UTC()

	var item models.MenuItem
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *MenuRepository) find(ctx context.Context, filter bson.M) ([]models.MenuItem, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	items := []models.MenuItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// toSetDoc marshals a struct with omitempty pointer fields into a $set
// document holding only the fields that were provided.
func toSetDoc(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, err
	}
	return set, nil
}
