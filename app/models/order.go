package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses.
const (
	StatusPending   = "Pending"
	StatusPreparing = "Preparing"
	StatusReady     = "Ready"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Payment statuses.
const (
	PaymentPending = "Pending"
	PaymentPaid    = "Paid"
	PaymentFailed  = "Failed"
)

var (
	OrderStatuses   = []string{StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled}
	PaymentStatuses = []string{PaymentPending, PaymentPaid, PaymentFailed}
)

func IsOrderStatus(s string) bool   { return contains(OrderStatuses, s) }
func IsPaymentStatus(s string) bool { return contains(PaymentStatuses, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// OrderItem references a menu item with the unit price charged.
type OrderItem struct {
	MenuItem primitive.ObjectID `bson:"menuItem" json:"menuItem"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    float64            `bson:"price"    json:"price"`
}

// Order is a customer order. CustomerID holds the owner's external
// identity, not the local user id.
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CustomerID    string             `bson:"customerId"    json:"customerId"`
	Items         []OrderItem        `bson:"items"         json:"items"`
	TotalAmount   float64            `bson:"totalAmount"   json:"totalAmount"`
	Status        string             `bson:"status"        json:"status"`
	PaymentStatus string             `bson:"paymentStatus" json:"paymentStatus"`
	OrderNumber   string             `bson:"orderNumber"   json:"orderNumber"`
	CreatedAt     time.Time          `bson:"createdAt"     json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"     json:"updatedAt"`
}

// ── Expanded views ───────────────────────────────────────────────────────────

// OrderItemDetail is an OrderItem with the menu item document inlined.
// MenuItem is nil when the referenced document no longer exists.
type OrderItemDetail struct {
	MenuItem *MenuItem `json:"menuItem"`
	Quantity int       `json:"quantity"`
	Price    float64   `json:"price"`
}

// OrderDetail is the response shape for orders.
type OrderDetail struct {
	ID            primitive.ObjectID `json:"_id"`
	CustomerID    string             `json:"customerId"`
	Items         []OrderItemDetail  `json:"items"`
	TotalAmount   float64            `json:"totalAmount"`
	Status        string             `json:"status"`
	PaymentStatus string             `json:"paymentStatus"`
	OrderNumber   string             `json:"orderNumber"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Expand inlines menu items from byID into the order.
func (o *Order) Expand(byID map[primitive.ObjectID]*MenuItem) OrderDetail {
	items := make([]OrderItemDetail, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemDetail{MenuItem: byID[it.MenuItem], Quantity: it.Quantity, Price: it.Price}
	}
	return OrderDetail{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Items:         items,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		OrderNumber:   o.OrderNumber,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// MenuItemIDs returns the distinct menu item ids referenced by orders.
func MenuItemIDs(orders ...*Order) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, o := range orders {
		for _, it := range o.Items {
			if _, ok := seen[it.MenuItem]; ok {
				continue
			}
			seen[it.MenuItem] = struct{}{}
			ids = append(ids, it.MenuItem)
		}
	}
	return ids
}
