package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aniicone/cafe-api/app/models"
	"github.com/aniicone/cafe-api/app/repositories"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/auth"
	"github.com/aniicone/cafe-api/pkg/event"
	"github.com/aniicone/cafe-api/pkg/logger"
	"github.com/aniicone/cafe-api/pkg/metrics"
)

// Events published on the bus.
const (
	EventOrderCreated        = "order.created"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderPaymentChanged = "order.payment_changed"
)

// TransitionPolicy decides whether an order may move between statuses.
type TransitionPolicy func(from, to string) bool

// AllowAllTransitions permits every status change.
func AllowAllTransitions(string, string) bool { return true }

// OrderNumber formats the human-facing order number for seq on day t.
func OrderNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("ANI%s%04d", t.Format("060102"), seq)
}

// OrderItemInput is one line of a create request. Lines are checked by
// Create since tag validation does not descend into slices.
type OrderItemInput struct {
	MenuItem string  `json:"menuItem"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// CreateOrderInput is the create request body. Status fields sent by the
// client are not part of the shape and are ignored.
type CreateOrderInput struct {
	Items       []OrderItemInput `json:"items"       validate:"required"`
	TotalAmount *float64         `json:"totalAmount" validate:"required,gte=0"`
}

// OrderService runs the order lifecycle.
type OrderService struct {
	orders OrderStore
	menu   MenuStore
	seq    Sequencer
	bus    *event.Bus
	policy TransitionPolicy
	now    func() time.Time
}

func NewOrderService(orders OrderStore, menu MenuStore, seq Sequencer, bus *event.Bus) *OrderService {
	return &OrderService{
		orders: orders,
		menu:   menu,
		seq:    seq,
		bus:    bus,
		policy: AllowAllTransitions,
		now:    time.Now,
	}
}

// SetTransitionPolicy replaces the default unrestricted policy.
func (s *OrderService) SetTransitionPolicy(p TransitionPolicy) { s.policy = p }

// Create stores a new Pending order owned by the caller.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput, p *auth.Principal) (*models.OrderDetail, error) {
	if in.TotalAmount == nil || *in.TotalAmount < 0 {
		return nil, apperr.NewValidation("Validation failed", map[string]string{"totalAmount": "The totalAmount field is required."})
	}
	items, err := orderItems(in.Items)
	if err != nil {
		return nil, err
	}

	seq, err := s.seq.Next(ctx, repositories.OrderSequence)
	if err != nil {
		return nil, fmt.Errorf("orders: next sequence: %w", err)
	}

	o := &models.Order{
		CustomerID:    p.ExternalID,
		Items:         items,
		TotalAmount:   *in.TotalAmount,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		OrderNumber:   OrderNumber(s.now(), seq),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperr.NewValidation("Error creating order", nil).Wrap(err)
		}
		return nil, fmt.Errorf("orders: create: %w", err)
	}

	metrics.OrdersCreated.Inc()
	logger.WithCtx(ctx).Info("orders: created", "order_number", o.OrderNumber, "customer_id", o.CustomerID)

	d, err := s.expand(ctx, o)
	if err != nil {
		return nil, err
	}
	s.publish(EventOrderCreated, d)
	return d, nil
}

// Get returns one order to its owner or an admin.
func (s *OrderService) Get(ctx context.Context, id string, p *auth.Principal) (*models.OrderDetail, error) {
	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !p.Owns(o.CustomerID) {
		return nil, apperr.NewAccessDenied()
	}
	return s.expand(ctx, o)
}

// ListAll returns every order, newest first.
func (s *OrderService) ListAll(ctx context.Context) ([]models.OrderDetail, error) {
	return s.list(ctx, "")
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, p *auth.Principal) ([]models.OrderDetail, error) {
	return s.list(ctx, p.ExternalID)
}

// UpdateStatus moves an order to status. Callers enforce the admin gate.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*models.OrderDetail, error) {
	if !models.IsOrderStatus(status) {
		return nil, apperr.NewValidation("Invalid order status", map[string]string{"status": "status is invalid"})
	}
	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy(o.Status, status) {
		return nil, apperr.NewValidation(
			fmt.Sprintf("Cannot change order status from %s to %s", o.Status, status),
			map[string]string{"status": "transition not allowed"},
		)
	}

	updated, err := s.setField(ctx, o.ID, "status", status)
	if err != nil {
		return nil, err
	}
	d, err := s.expand(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.publish(EventOrderStatusChanged, d)
	return d, nil
}

// UpdatePaymentStatus records the payment outcome for an order owned by
// the caller, or any order for admins.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id, status string, p *auth.Principal) (*models.OrderDetail, error) {
	if !models.IsPaymentStatus(status) {
		return nil, apperr.NewValidation("Invalid payment status", map[string]string{"paymentStatus": "paymentStatus is invalid"})
	}
	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !p.Owns(o.CustomerID) {
		return nil, apperr.NewAccessDenied()
	}

	updated, err := s.setField(ctx, o.ID, "paymentStatus", status)
	if err != nil {
		return nil, err
	}
	d, err := s.expand(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.publish(EventOrderPaymentChanged, d)
	return d, nil
}

// ── internals ────────────────────────────────────────────────────────────────

func (s *OrderService) find(ctx context.Context, id string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.NewNotFound("Order")
	}
	o, err := s.orders.FindByID(ctx, oid)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NewNotFound("Order")
	}
	if err != nil {
		return nil, fmt.Errorf("orders: find: %w", err)
	}
	return o, nil
}

func (s *OrderService) setField(ctx context.Context, id primitive.ObjectID, field, value string) (*models.Order, error) {
	o, err := s.orders.SetField(ctx, id, field, value)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NewNotFound("Order")
	}
	if err != nil {
		return nil, fmt.Errorf("orders: update %s: %w", field, err)
	}
	return o, nil
}

func (s *OrderService) list(ctx context.Context, customerID string) ([]models.OrderDetail, error) {
	orders, err := s.orders.List(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}

	ptrs := make([]*models.Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	byID, err := s.menuIndex(ctx, ptrs...)
	if err != nil {
		return nil, err
	}

	out := make([]models.OrderDetail, len(orders))
	for i, o := range ptrs {
		out[i] = o.Expand(byID)
	}
	return out, nil
}

func (s *OrderService) expand(ctx context.Context, o *models.Order) (*models.OrderDetail, error) {
	byID, err := s.menuIndex(ctx, o)
	if err != nil {
		return nil, err
	}
	d := o.Expand(byID)
	return &d, nil
}

func (s *OrderService) menuIndex(ctx context.Context, orders ...*models.Order) (map[primitive.ObjectID]*models.MenuItem, error) {
	items, err := s.menu.FindByIDs(ctx, models.MenuItemIDs(orders...))
	if err != nil {
		return nil, fmt.Errorf("orders: load menu items: %w", err)
	}
	byID := make(map[primitive.ObjectID]*models.MenuItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	return byID, nil
}

func (s *OrderService) publish(name string, d *models.OrderDetail) {
	if s.bus != nil {
		s.bus.FireAsync(name, d)
	}
}

func orderItems(in []OrderItemInput) ([]models.OrderItem, error) {
	if len(in) == 0 {
		return nil, apperr.NewValidation("Validation failed", map[string]string{"items": "items must contain at least one entry"})
	}
	out := make([]models.OrderItem, len(in))
	for i, it := range in {
		oid, err := primitive.ObjectIDFromHex(it.MenuItem)
		if err != nil || it.Quantity <= 0 || it.Price < 0 {
			return nil, apperr.NewValidation("Validation failed", map[string]string{
				fmt.Sprintf("items.%d", i): "menuItem, quantity > 0 and price >= 0 are required",
			})
		}
		out[i] = models.OrderItem{MenuItem: oid, Quantity: it.Quantity, Price: it.Price}
	}
	return out, nil
}
