package controllers

import (
	"time"

	gql "github.com/graphql-go/graphql"

	"github.com/aniicone/cafe-api/app/models"
	"github.com/aniicone/cafe-api/app/services"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/graphql"
)

func sourceItem(p gql.ResolveParams) *models.MenuItem {
	switch v := p.Source.(type) {
	case *models.MenuItem:
		return v
	case models.MenuItem:
		return &v
	}
	return nil
}

var menuItemType = gql.NewObject(gql.ObjectConfig{
	Name: "MenuItem",
	Fields: gql.Fields{
		"id": &gql.Field{
			Type: gql.NewNonNull(gql.ID),
			Resolve: func(p gql.ResolveParams) (interface{}, error) {
				if it := sourceItem(p); it != nil {
					return it.ID.Hex(), nil
				}
				return nil, nil
			},
		},
		"name":        &gql.Field{Type: gql.String},
		"description": &gql.Field{Type: gql.String},
		"price":       &gql.Field{Type: gql.Float},
		"category":    &gql.Field{Type: gql.String},
		"image":       &gql.Field{Type: gql.String},
		"isAvailable": &gql.Field{Type: gql.Boolean},
		"createdAt": &gql.Field{
			Type: gql.String,
			Resolve: func(p gql.ResolveParams) (interface{}, error) {
				if it := sourceItem(p); it != nil && !it.CreatedAt.IsZero() {
					return it.CreatedAt.UTC().Format(time.RFC3339), nil
				}
				return nil, nil
			},
		},
	},
})

// MenuSchema exposes the catalog read-only:
//
//	{ menu(category: "Coffee") { id name price } categories }
func MenuSchema(menu *services.MenuService) (gql.Schema, error) {
	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"menu": &gql.Field{
				Type: gql.NewList(menuItemType),
				Args: gql.FieldConfigArgument{
					"category": &gql.ArgumentConfig{Type: gql.String},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					category, _ := p.Args["category"].(string)
					return menu.List(p.Context, category)
				},
			},
			"menuItem": &gql.Field{
				Type: menuItemType,
				Args: gql.FieldConfigArgument{
					"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.ID)},
				},
				Resolve: func(p gql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					item, err := menu.Get(p.Context, id)
					if apperr.Is(err, apperr.NotFound) {
						return nil, nil
					}
					return item, err
				},
			},
			"categories": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(gql.String))),
				Resolve: func(gql.ResolveParams) (interface{}, error) {
					return models.Categories, nil
				},
			},
		},
	})
	return graphql.NewSchema(query)
}
