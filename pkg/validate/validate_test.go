package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aniicone/cafe-api/pkg/validate"
)

type menuInput struct {
	Name     string   `json:"name"     validate:"required,max=20"`
	Price    *float64 `json:"price"    validate:"required,gte=0"`
	Category string   `json:"category" validate:"required,in=Coffee,Tea,Cone Pizza"`
	Image    string   `json:"image"    validate:"nullable,url"`
}

func price(f float64) *float64 { return &f }

func TestValidInput(t *testing.T) {
	errs := validate.Struct(menuInput{Name: "Latte", Price: price(0), Category: "Cone Pizza"})
	assert.False(t, validate.HasErrors(errs), errs)
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(menuInput{})
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "category")
	assert.NotContains(t, errs, "image")
}

func TestRuleFailures(t *testing.T) {
	errs := validate.Struct(menuInput{
		Name:     "An extremely long menu item name",
		Price:    price(-1),
		Category: "Soup",
		Image:    "not a url",
	})
	assert.Equal(t, "The name must not exceed 20 characters.", errs["name"])
	assert.Equal(t, "The price must be greater than or equal to 0.", errs["price"])
	assert.Equal(t, "The selected category is invalid.", errs["category"])
	assert.Equal(t, "The image must be a valid URL.", errs["image"])
}

func TestGTAndSliceMin(t *testing.T) {
	type in struct {
		Qty   int      `json:"quantity" validate:"required,gt=0"`
		Items []string `json:"items"    validate:"required,min=1"`
		ID    string   `json:"id"       validate:"object_id"`
	}
	errs := validate.Struct(in{Qty: -2, Items: []string{"a"}, ID: "64f0c0ffee64f0c0ffee64f0"})
	assert.Equal(t, map[string]string{"quantity": "The quantity must be greater than 0."}, errs)

	errs = validate.Struct(in{Qty: 1, Items: []string{"a"}, ID: "nope"})
	assert.Contains(t, errs, "id")
}

func TestObjectID(t *testing.T) {
	assert.True(t, validate.ObjectID("64f0c0ffee64f0c0ffee64f0"))
	assert.False(t, validate.ObjectID("64f0c0ffee"))
	assert.False(t, validate.ObjectID("zzzzzzzzzzzzzzzzzzzzzzzz"))
}
