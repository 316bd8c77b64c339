// Package services holds the café's business rules. Persistence and the
// payment gateway sit behind the interfaces below so tests can swap them.
package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aniicone/cafe-api/app/models"
)

// UserStore is implemented by repositories.UserRepository.
type UserStore interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	SetRole(ctx context.Context, externalID, role string) error
}

// MenuStore is implemented by repositories.MenuRepository.
type MenuStore interface {
	ListAvailable(ctx context.Context, category string) ([]models.MenuItem, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.MenuItem, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) error
	Update(ctx context.Context, id primitive.ObjectID, patch models.MenuItemPatch) (*models.MenuItem, error)
}

// OrderStore is implemented by repositories.OrderRepository.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, customerID string) ([]models.Order, error)
	SetField(ctx context.Context, id primitive.ObjectID, field, value string) (*models.Order, error)
}

// Sequencer is implemented by repositories.CounterRepository.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}
