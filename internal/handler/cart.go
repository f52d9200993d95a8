package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bistro-boss-server/internal/model"
    "github.com/iliyamo/bistro-boss-server/internal/repository"
)

// CartStore is implemented by *repository.CartRepo.
type CartStore interface {
    ListByEmail(ctx context.Context, email string) ([]model.CartItem, error)
    Create(ctx context.Context, item model.CartItem) (repository.InsertResult, error)
    Delete(ctx context.Context, id string) (repository.DeleteResult, error)
}

type CartHandler struct {
    Carts CartStore
}

func NewCartHandler(s CartStore) *CartHandler { return &CartHandler{Carts: s} }

type cartReq struct {
    Email  string      `json:"email" validate:"required,email"`
    MenuID string      `json:"menuId" validate:"required"`
    Name   string      `json:"name"`
    Image  string      `json:"image"`
    Price  interface{} `json:"price"`
}

// List handles GET /carts?email=.
func (h *CartHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    items, err := h.Carts.ListByEmail(ctx, c.QueryParam("email"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, items)
}

func (h *CartHandler) Create(c echo.Context) error {
    var req cartReq
    if err := bindValid(c, &req); err != nil {
        return writeError(c, err)
    }
    p, err := price(req.Price)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid price"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    res, err := h.Carts.Create(ctx, model.CartItem{
        Email: req.Email, MenuID: req.MenuID, Name: req.Name, Image: req.Image, Price: p,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// Delete handles DELETE /cart/:id.
func (h *CartHandler) Delete(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    res, err := h.Carts.Delete(ctx, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}
