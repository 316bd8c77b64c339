package seeders

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/aniicone/cafe-api/app/models"
	"github.com/aniicone/cafe-api/app/repositories"
	"github.com/aniicone/cafe-api/app/services"
)

func init() {
	Register("menu", SeedMenu)
}

// SampleMenu is one item per category.
var SampleMenu = []models.MenuItem{
	{Name: "Cappuccino", Description: "Espresso with steamed milk foam", Price: 120, Category: models.CategoryCoffee},
	{Name: "Masala Chai", Description: "Spiced milk tea", Price: 60, Category: models.CategoryTea},
	{Name: "Veg Puff", Description: "Flaky pastry with spiced vegetables", Price: 45, Category: models.CategorySnacks},
	{Name: "Chocolate Brownie", Description: "Warm fudge brownie", Price: 90, Category: models.CategoryDesserts},
	{Name: "Cold Coffee", Description: "Blended iced coffee", Price: 140, Category: models.CategoryDrinks},
	{Name: "Classic Veg Burger", Description: "Potato patty, lettuce and house sauce", Price: 110, Category: models.CategoryBurger},
	{Name: "Paneer Cone Pizza", Description: "Crisp cone filled with paneer tikka and cheese", Price: 160, Category: models.CategoryConePizza},
}

// SeedMenu inserts SampleMenu when the menu collection is empty.
func SeedMenu(ctx context.Context, db *mongo.Database) error {
	n, err := db.Collection(repositories.MenuCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return seedMenu(ctx, repositories.NewMenuRepository(db))
}

func seedMenu(ctx context.Context, store services.MenuStore) error {
	for _, it := range SampleMenu {
		item := it
		item.IsAvailable = true
		if err := store.Create(ctx, &item); err != nil {
			return err
		}
	}
	return nil
}
