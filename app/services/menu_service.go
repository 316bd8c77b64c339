package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aniicone/cafe-api/app/models"
	"github.com/aniicone/cafe-api/app/repositories"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/logger"
	"github.com/aniicone/cafe-api/pkg/storage"
)

// MaxImageBytes caps menu image uploads.
const MaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type CreateMenuItemInput struct {
	Name        string   `json:"name"        validate:"required,max=100"`
	Description string   `json:"description" validate:"required,max=1000"`
	Price       *float64 `json:"price"       validate:"required,gte=0"`
	Category    string   `json:"category"    validate:"required,in=Coffee,Tea,Snacks,Desserts,Drinks,Burger,Cone Pizza"`
	Image       string   `json:"image"       validate:"nullable,url"`
	IsAvailable *bool    `json:"isAvailable"`
}

// UpdateMenuItemInput is a partial update; absent fields keep their value.
type UpdateMenuItemInput struct {
	Name        *string  `json:"name"        validate:"nullable,max=100"`
	Description *string  `json:"description" validate:"nullable,max=1000"`
	Price       *float64 `json:"price"       validate:"nullable,gte=0"`
	Category    *string  `json:"category"    validate:"nullable,in=Coffee,Tea,Snacks,Desserts,Drinks,Burger,Cone Pizza"`
	Image       *string  `json:"image"       validate:"nullable,url"`
	IsAvailable *bool    `json:"isAvailable"`
}

// MenuService manages the catalog.
type MenuService struct {
	menu MenuStore
	disk storage.Disk
}

// NewMenuService builds the service. disk may be nil, which disables
// image uploads.
func NewMenuService(menu MenuStore, disk storage.Disk) *MenuService {
	return &MenuService{menu: menu, disk: disk}
}

// List returns available items. An empty category lists all of them; an
// unknown category yields an empty list.
func (s *MenuService) List(ctx context.Context, category string) ([]models.MenuItem, error) {
	if category != "" && !models.IsCategory(category) {
		return []models.MenuItem{}, nil
	}
	items, err := s.menu.ListAvailable(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("menu: list: %w", err)
	}
	return items, nil
}

// Get returns an item by id, including unavailable ones.
func (s *MenuService) Get(ctx context.Context, id string) (*models.MenuItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NewNotFound("Menu item")
	}
	item, err := s.menu.FindByID(ctx, oid)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NewNotFound("Menu item")
	}
	if err != nil {
		return nil, fmt.Errorf("menu: find: %w", err)
	}
	return item, nil
}

func (s *MenuService) Create(ctx context.Context, in CreateMenuItemInput) (*models.MenuItem, error) {
	item := &models.MenuItem{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Image:       in.Image,
		IsAvailable: true,
	}
	if in.Price != nil {
		item.Price = *in.Price
	}
	if in.IsAvailable != nil {
		item.IsAvailable = *in.IsAvailable
	}

	if err := s.menu.Create(ctx, item); err != nil {
		return nil, apperr.NewValidation("Error creating menu item", nil).Wrap(err)
	}
	logger.WithCtx(ctx).Info("menu: item created", "id", item.ID.Hex(), "name", item.Name)
	return item, nil
}

func (s *MenuService) Update(ctx context.Context, id string, in UpdateMenuItemInput) (*models.MenuItem, error) {
	patch := models.MenuItemPatch{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Image:       in.Image,
		IsAvailable: in.IsAvailable,
	}
	if patch.Empty() {
		// Nothing to change still answers with the current document.
		return s.Get(ctx, id)
	}
	return s.update(ctx, id, patch)
}

// Delete hides the item from listings. It stays retrievable by id.
func (s *MenuService) Delete(ctx context.Context, id string) error {
	unavailable := false
	_, err := s.update(ctx, id, models.MenuItemPatch{IsAvailable: &unavailable})
	return err
}

// UploadImage stores an image on the configured disk and points the item
// at its public URL.
func (s *MenuService) UploadImage(ctx context.Context, id string, content []byte) (*models.MenuItem, error) {
	if s.disk == nil {
		return nil, errors.New("menu: no storage disk configured")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, apperr.NewValidation("Validation failed", map[string]string{"image": "The image field is required."})
	}
	if len(content) > MaxImageBytes {
		return nil, apperr.NewValidation("Validation failed", map[string]string{"image": "The image must not exceed 5 MB."})
	}

	contentType := http.DetectContentType(content)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, apperr.NewValidation("Validation failed", map[string]string{"image": "The image must be a jpeg, png or webp file."})
	}

	path := fmt.Sprintf("menu/%s-%s%s", id, uuid.NewString(), ext)
	if err := s.disk.Put(ctx, path, content, contentType); err != nil {
		return nil, fmt.Errorf("menu: store image: %w", err)
	}

	url := s.disk.URL(path)
	logger.WithCtx(ctx).Info("menu: image stored", "id", id, "path", path)
	return s.update(ctx, id, models.MenuItemPatch{Image: &url})
}

func (s *MenuService) update(ctx context.Context, id string, patch models.MenuItemPatch) (*models.MenuItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NewNotFound("Menu item")
	}
	item, err := s.menu.Update(ctx, oid, patch)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NewNotFound("Menu item")
	}
	if err != nil {
		return nil, apperr.NewValidation("Error updating menu item", nil).Wrap(err)
	}
	return item, nil
}
