package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bistro-boss-server/internal/model"
)

// Counter estimates a collection's size.
type Counter interface {
    Count(ctx context.Context) (int64, error)
}

// Reports runs the payment aggregations.
type Reports interface {
    Counter
    Revenue(ctx context.Context) (float64, error)
    OrderStats(ctx context.Context) ([]model.CategoryStat, error)
}

// StatsHandler serves the admin dashboard.
type StatsHandler struct {
    Users    Counter
    Menu     Counter
    Payments Reports
}

func NewStatsHandler(users, menu Counter, payments Reports) *StatsHandler {
    return &StatsHandler{Users: users, Menu: menu, Payments: payments}
}

// AdminStats handles GET /admin-stats.
func (h *StatsHandler) AdminStats(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    var s model.AdminStats
    var err error
    if s.Users, err = h.Users.Count(ctx); err != nil {
        return writeError(c, err)
    }
    if s.MenuItems, err = h.Menu.Count(ctx); err != nil {
        return writeError(c, err)
    }
    if s.Orders, err = h.Payments.Count(ctx); err != nil {
        return writeError(c, err)
    }
    if s.Revenue, err = h.Payments.Revenue(ctx); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, s)
}

// OrderStats handles GET /order-stats.
func (h *StatsHandler) OrderStats(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    rows, err := h.Payments.OrderStats(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, rows)
}
