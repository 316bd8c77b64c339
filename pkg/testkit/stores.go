package testkit

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aniicone/cafe-api/app/models"
	"github.com/aniicone/cafe-api/app/repositories"
)

// ─── Users ───────────────────────────────────────────────────────────────────

// UserStore keeps users keyed by external id. Like the users indexes,
// external ids are unique and so are non-empty emails.
type UserStore struct {
	mu    sync.Mutex
	byUID map[string]*models.User
}

func NewUserStore(users ...*models.User) *UserStore {
	s := &UserStore{byUID: map[string]*models.User{}}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		cp := *u
		s.byUID[u.ExternalID] = &cp
	}
	return s
}

func (s *UserStore) FindByExternalID(_ context.Context, uid string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byUID[uid]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUID[u.ExternalID]; ok {
		return repositories.ErrDuplicate
	}
	if u.Email != "" {
		for _, existing := range s.byUID {
			if existing.Email == u.Email {
				return repositories.ErrDuplicate
			}
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	s.byUID[u.ExternalID] = &cp
	return nil
}

func (s *UserStore) SetRole(_ context.Context, uid, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byUID[uid]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Role = role
	return nil
}

// ─── Menu ────────────────────────────────────────────────────────────────────

// MenuStore keeps menu items by id. Listings are sorted by name.
type MenuStore struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.MenuItem
}

// NewMenuStore seeds the store, assigning ids to items that lack one.
func NewMenuStore(items ...*models.MenuItem) *MenuStore {
	s := &MenuStore{items: map[primitive.ObjectID]*models.MenuItem{}}
	for _, it := range items {
		if it.ID.IsZero() {
			it.ID = primitive.NewObjectID()
		}
		cp := *it
		s.items[it.ID] = &cp
	}
	return s
}

func (s *MenuStore) ListAvailable(_ context.Context, category string) ([]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.MenuItem{}
	for _, it := range s.items {
		if it.IsAvailable && (category == "" || it.Category == category) {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MenuStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *MenuStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MenuItem
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (s *MenuStore) Create(_ context.Context, it *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it.ID = primitive.NewObjectID()
	it.CreatedAt, it.UpdatedAt = time.Now(), time.Now()
	cp := *it
	s.items[it.ID] = &cp
	return nil
}

func (s *MenuStore) Update(_ context.Context, id primitive.ObjectID, p models.MenuItemPatch) (*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.Category != nil {
		it.Category = *p.Category
	}
	if p.Image != nil {
		it.Image = *p.Image
	}
	if p.IsAvailable != nil {
		it.IsAvailable = *p.IsAvailable
	}
	it.UpdatedAt = time.Now()
	cp := *it
	return &cp, nil
}

// ─── Orders ──────────────────────────────────────────────────────────────────

// OrderStore keeps orders in insertion order. Timestamps come from a
// clock advancing one second per insert so newest-first is deterministic.
type OrderStore struct {
	mu     sync.Mutex
	orders []*models.Order
	clock  time.Time
}

func NewOrderStore() *OrderStore {
	return &OrderStore{clock: time.Unix(1_700_000_000, 0).UTC()}
}

func (s *OrderStore) Create(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		if existing.OrderNumber == o.OrderNumber {
			return repositories.ErrDuplicate
		}
	}
	s.clock = s.clock.Add(time.Second)
	o.ID = primitive.NewObjectID()
	o.CreatedAt, o.UpdatedAt = s.clock, s.clock
	cp := *o
	s.orders = append(s.orders, &cp)
	return nil
}

func (s *OrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *OrderStore) List(_ context.Context, customerID string) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for i := len(s.orders) - 1; i >= 0; i-- {
		if customerID == "" || s.orders[i].CustomerID == customerID {
			out = append(out, *s.orders[i])
		}
	}
	return out, nil
}

func (s *OrderStore) SetField(_ context.Context, id primitive.ObjectID, field, value string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.ID != id {
			continue
		}
		switch field {
		case "status":
			o.Status = value
		case "paymentStatus":
			o.PaymentStatus = value
		}
		cp := *o
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

// Len returns the number of stored orders.
func (s *OrderStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// ─── Sequence ────────────────────────────────────────────────────────────────

// Sequence is a process-local counter starting at 1.
type Sequence struct {
	mu sync.Mutex
	n  int64
}

func (s *Sequence) Next(context.Context, string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n, nil
}
