// Package routes registers the café HTTP API.
package routes

import (
	"net/http"

	"github.com/aniicone/cafe-api/app/controllers"
	"github.com/aniicone/cafe-api/app/services"
	"github.com/aniicone/cafe-api/pkg/ctx"
	"github.com/aniicone/cafe-api/pkg/graphql"
	"github.com/aniicone/cafe-api/pkg/middleware"
	"github.com/aniicone/cafe-api/pkg/rbac"
	"github.com/aniicone/cafe-api/pkg/router"
	"github.com/aniicone/cafe-api/pkg/ws"
)

// Deps are the wired services the API serves.
type Deps struct {
	Identity       *services.IdentityService
	Menu           *services.MenuService
	Orders         *services.OrderService
	Payments       *services.PaymentService
	Hub            *ws.Hub
	AdminSecretKey func() string
}

// RegisterAPI mounts every /api route on r.
func RegisterAPI(r *router.Router, d Deps) error {
	authC := controllers.NewAuthController(d.Identity)
	userC := controllers.NewUserController(d.Identity)
	menuC := controllers.NewMenuController(d.Menu)
	orderC := controllers.NewOrderController(d.Orders, d.Hub)
	adminC := controllers.NewAdminController(d.Identity, d.AdminSecretKey)
	payC := controllers.NewPaymentController(d.Payments)

	schema, err := controllers.MenuSchema(d.Menu)
	if err != nil {
		return err
	}

	authed := router.Middleware(middleware.Authenticate(d.Identity))
	jit := router.Middleware(middleware.AuthenticateJIT(d.Identity))
	socket := router.Middleware(middleware.AuthenticateSocket(d.Identity))
	admin := router.Middleware(rbac.Admin)

	api := r.Group("/api")

	api.Post("/auth/login", "auth.login", ctx.Wrap(authC.Login))
	api.Post("/graphql", "graphql", graphql.Handler(schema))

	// ── Menu ─────────────────────────────────────────────────────────────────
	menu := api.Group("/menu")
	menu.Get("/", "menu.index", ctx.Wrap(menuC.Index))
	menu.Get("/category/{category}", "menu.category", ctx.Wrap(menuC.ByCategory))
	menu.Get("/{id}", "menu.show", ctx.Wrap(menuC.Show))
	menu.Post("/", "menu.store", ctx.Wrap(menuC.Store), authed, admin)
	menu.Put("/{id}", "menu.update", ctx.Wrap(menuC.Update), authed, admin)
	menu.Delete("/{id}", "menu.destroy", ctx.Wrap(menuC.Destroy), authed, admin)
	menu.Post("/{id}/image", "menu.image", ctx.Wrap(menuC.UploadImage), authed, admin)

	// ── Orders ───────────────────────────────────────────────────────────────
	orders := api.Group("/orders")
	orders.Get("/", "orders.index", ctx.Wrap(orderC.Index), authed, admin)
	orders.Get("/my-orders", "orders.mine", ctx.Wrap(orderC.Mine), authed)
	orders.Get("/live", "orders.live", http.HandlerFunc(orderC.Live), socket, admin)
	orders.Get("/{id}", "orders.show", ctx.Wrap(orderC.Show), authed)
	orders.Post("/", "orders.store", ctx.Wrap(orderC.Store), authed)
	orders.Patch("/{id}/status", "orders.status", ctx.Wrap(orderC.UpdateStatus), authed, admin)
	orders.Patch("/{id}/payment", "orders.payment", ctx.Wrap(orderC.UpdatePayment), authed)

	// ── Users & admin ────────────────────────────────────────────────────────
	api.Get("/users/me", "users.me", ctx.Wrap(userC.Me), jit)

	adm := api.Group("/admin")
	adm.Post("/set-first-admin", "admin.first", ctx.Wrap(adminC.SetFirstAdmin))
	adm.Post("/set-admin-role", "admin.promote", ctx.Wrap(adminC.SetAdminRole), authed, admin)
	adm.Get("/check-status", "admin.status", ctx.Wrap(adminC.CheckStatus), authed)

	// ── Payments ─────────────────────────────────────────────────────────────
	pay := api.Group("/cashfree")
	pay.Post("/initiate-payment", "cashfree.initiate", ctx.Wrap(payC.Initiate))
	pay.Get("/payment-status/{orderId}", "cashfree.status", ctx.Wrap(payC.Status))

	return nil
}
