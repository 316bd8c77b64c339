package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Menu categories. ConePizza keeps the stored wire value with a space.
const (
	CategoryCoffee    = "Coffee"
	CategoryTea       = "Tea"
	CategorySnacks    = "Snacks"
	CategoryDesserts  = "Desserts"
	CategoryDrinks    = "Drinks"
	CategoryBurger    = "Burger"
	CategoryConePizza = "Cone Pizza"
)

// Categories lists every category in display order.
var Categories = []string{
	CategoryCoffee,
	CategoryTea,
	CategorySnacks,
	CategoryDesserts,
	CategoryDrinks,
	CategoryBurger,
	CategoryConePizza,
}

// IsCategory reports whether c is a known category.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MenuItem is a sellable product. Deleting an item only clears IsAvailable.
type MenuItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"   json:"_id"`
	Name        string             `bson:"name"            json:"name"`
	Description string             `bson:"description"     json:"description"`
	Price       float64            `bson:"price"           json:"price"`
	Category    string             `bson:"category"        json:"category"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	IsAvailable bool               `bson:"isAvailable"     json:"isAvailable"`
	CreatedAt   time.Time          `bson:"createdAt"       json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"       json:"updatedAt"`
}

// MenuItemPatch carries a partial update; nil fields are left untouched.
type MenuItemPatch struct {
	Name        *string  `bson:"name,omitempty"`
	Description *string  `bson:"description,omitempty"`
	Price       *float64 `bson:"price,omitempty"`
	Category    *string  `bson:"category,omitempty"`
	Image       *string  `bson:"image,omitempty"`
	IsAvailable *bool    `bson:"isAvailable,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p MenuItemPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.Image == nil && p.IsAvailable == nil
}
