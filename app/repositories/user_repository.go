package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aniicone/cafe-api/app/models"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(UsersCollection)}
}

// FindByExternalID looks up a user by identity-provider uid.
func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	defer observe("users.find")()

	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"externalId": externalID}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// Create persists a new user, stamping timestamps and the generated id.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	defer observe("users.insert")()

	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		return translate(err)
	}
	assignID(&u.ID, res.InsertedID)
	return nil
}

// SetRole updates the stored role. A missing user yields ErrNotFound.
func (r *UserRepository) SetRole(ctx context.Context, externalID, role string) error {
	defer observe("users.update")()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"externalId": externalID},
		bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
