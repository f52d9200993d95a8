package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bistro-boss-server/internal/handler"
	"github.com/iliyamo/bistro-boss-server/internal/metrics"
	"github.com/iliyamo/bistro-boss-server/internal/middleware"
)

// Handlers bundles every handler the API exposes.
type Handlers struct {
	Auth     *handler.AuthHandler
	Menu     *handler.MenuHandler
	Carts    *handler.CartHandler
	Users    *handler.UserHandler
	Payments *handler.PaymentHandler
	Stats    *handler.StatsHandler
	Store    handler.Pinger
}

// Guards are the middleware chains routes pick from.  Cache and the payment
// rate limit may be pass-through when Redis is unavailable.
type Guards struct {
	Tokens       middleware.TokenVerifier
	Users        middleware.AdminLookup
	CatalogCache echo.MiddlewareFunc
	PaymentLimit echo.MiddlewareFunc
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// RegisterRoutes wires every endpoint with its guard chain: none, token, or
// token followed by the admin check.
func RegisterRoutes(e *echo.Echo, h Handlers, g Guards) {
	token := middleware.VerifyToken(g.Tokens)
	admin := middleware.VerifyAdmin(g.Users)
	cache := g.CatalogCache
	if cache == nil {
		cache = passThrough
	}
	payLimit := g.PaymentLimit
	if payLimit == nil {
		payLimit = passThrough
	}

	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
	if h.Store != nil {
		e.GET("/readyz", handler.Ready(h.Store))
	}
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	e.POST("/jwt", h.Auth.IssueToken)

	// catalogue
	e.GET("/menu", h.Menu.List, cache)
	e.GET("/menu/:id", h.Menu.Get, cache)
	e.POST("/menu", h.Menu.Create, token, admin)
	e.PATCH("/menu/:id", h.Menu.Update, token, admin)
	e.DELETE("/menu/:id", h.Menu.Delete, token, admin)
	e.GET("/reviews", h.Menu.ListReviews, cache)

	// carts
	e.GET("/carts", h.Carts.List)
	e.POST("/carts", h.Carts.Create)
	e.DELETE("/cart/:id", h.Carts.Delete)

	// users
	e.GET("/users", h.Users.List, token, admin)
	e.GET("/user/admin/:email", h.Users.IsAdmin)
	e.POST("/users", h.Users.Create)
	e.PATCH("/users/admin/:id", h.Users.MakeAdmin, token, admin)
	e.DELETE("/users/:id", h.Users.Delete, token, admin)

	// payments
	e.GET("/payments/:email", h.Payments.History, token)
	e.POST("/create-payment-intent", h.Payments.CreateIntent, payLimit)
	e.POST("/payments", h.Payments.Record, payLimit)
	e.POST("/ssl-commerz-payments", h.Payments.InitiateGateway, payLimit)
	e.POST("/success-payment", h.Payments.GatewaySuccess)
	e.POST("/ipn-success-payment", h.Payments.GatewayIPN)

	// reports
	e.GET("/admin-stats", h.Stats.AdminStats, token, admin)
	e.GET("/order-stats", h.Stats.OrderStats, token, admin)
}
