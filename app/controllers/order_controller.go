package controllers

import (
	"net/http"

	"github.com/aniicone/cafe-api/app/services"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/ctx"
	"github.com/aniicone/cafe-api/pkg/ws"
)

type OrderController struct {
	orders *services.OrderService
	hub    *ws.Hub
}

func NewOrderController(orders *services.OrderService, hub *ws.Hub) *OrderController {
	return &OrderController{orders: orders, hub: hub}
}

// Index lists every order. Admin only.
func (c *OrderController) Index(cx *ctx.Context) {
	orders, err := c.orders.ListAll(cx.Context())
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, orders)
}

func (c *OrderController) Mine(cx *ctx.Context) {
	p, ok := cx.Principal()
	if !ok {
		cx.Fail(apperr.NewMissingToken())
		return
	}
	orders, err := c.orders.ListMine(cx.Context(), p)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, orders)
}

func (c *OrderController) Show(cx *ctx.Context) {
	p, ok := cx.Principal()
	if !ok {
		cx.Fail(apperr.NewMissingToken())
		return
	}
	order, err := c.orders.Get(cx.Context(), cx.Param("id"), p)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, order)
}

func (c *OrderController) Store(cx *ctx.Context) {
	p, ok := cx.Principal()
	if !ok {
		cx.Fail(apperr.NewMissingToken())
		return
	}
	var in services.CreateOrderInput
	if !cx.BindJSON(&in) {
		return
	}
	order, err := c.orders.Create(cx.Context(), in, p)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.Created(order)
}

type statusInput struct {
	Status string `json:"status" validate:"required"`
}

// UpdateStatus changes the fulfilment status. Admin only.
func (c *OrderController) UpdateStatus(cx *ctx.Context) {
	var in statusInput
	if !cx.BindJSON(&in) {
		return
	}
	order, err := c.orders.UpdateStatus(cx.Context(), cx.Param("id"), in.Status)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, order)
}

type paymentStatusInput struct {
	PaymentStatus string `json:"paymentStatus" validate:"required"`
}

func (c *OrderController) UpdatePayment(cx *ctx.Context) {
	p, ok := cx.Principal()
	if !ok {
		cx.Fail(apperr.NewMissingToken())
		return
	}
	var in paymentStatusInput
	if !cx.BindJSON(&in) {
		return
	}
	order, err := c.orders.UpdatePaymentStatus(cx.Context(), cx.Param("id"), in.PaymentStatus, p)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, order)
}

// Live upgrades to a WebSocket that receives order events.
func (c *OrderController) Live(w http.ResponseWriter, r *http.Request) {
	c.hub.Upgrade(w, r)
}
