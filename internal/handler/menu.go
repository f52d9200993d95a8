package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/bistro-boss-server/internal/model"
    "github.com/iliyamo/bistro-boss-server/internal/repository"
)

// MenuStore is implemented by *repository.MenuRepo.
type MenuStore interface {
    List(ctx context.Context) ([]model.MenuItem, error)
    Get(ctx context.Context, id string) (*model.MenuItem, error)
    Create(ctx context.Context, item model.MenuItem) (repository.InsertResult, error)
    Update(ctx context.Context, id string, item model.MenuItem) (repository.UpdateResult, error)
    Delete(ctx context.Context, id string) (repository.DeleteResult, error)
}

// ReviewLister is implemented by *repository.ReviewRepo.
type ReviewLister interface {
    List(ctx context.Context) ([]model.Review, error)
}

// MenuHandler serves the menu and reviews.  Purge, when set, is called
// after every successful menu write to drop cached catalogue responses.
type MenuHandler struct {
    Menu    MenuStore
    Reviews ReviewLister
    Purge   func(ctx context.Context) error
}

func NewMenuHandler(m MenuStore, r ReviewLister, purge func(ctx context.Context) error) *MenuHandler {
    return &MenuHandler{Menu: m, Reviews: r, Purge: purge}
}

type menuReq struct {
    Name     string      `json:"name" validate:"required"`
    Category string      `json:"category" validate:"required"`
    Price    interface{} `json:"price"`
    Recipe   string      `json:"recipe"`
    Image    string      `json:"image"`
}

func (r menuReq) item() (model.MenuItem, error) {
    p, err := price(r.Price)
    if err != nil {
        return model.MenuItem{}, echo.NewHTTPError(http.StatusBadRequest)
    }
    return model.MenuItem{Name: r.Name, Category: r.Category, Price: p, Recipe: r.Recipe, Image: r.Image}, nil
}

func (h *MenuHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    items, err := h.Menu.List(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, items)
}

// Get answers null for an unknown id, which the menu page treats as empty.
func (h *MenuHandler) Get(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    item, err := h.Menu.Get(ctx, c.Param("id"))
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusOK, nil)
    }
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) Create(c echo.Context) error {
    var req menuReq
    if err := bindValid(c, &req); err != nil {
        return writeError(c, err)
    }
    item, err := req.item()
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    res, err := h.Menu.Create(ctx, item)
    if err != nil {
        return writeError(c, err)
    }
    h.purge(ctx)
    return c.JSON(http.StatusOK, res)
}

func (h *MenuHandler) Update(c echo.Context) error {
    var req menuReq
    if err := bindValid(c, &req); err != nil {
        return writeError(c, err)
    }
    item, err := req.item()
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    res, err := h.Menu.Update(ctx, c.Param("id"), item)
    if err != nil {
        return writeError(c, err)
    }
    h.purge(ctx)
    return c.JSON(http.StatusOK, res)
}

func (h *MenuHandler) Delete(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    res, err := h.Menu.Delete(ctx, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    h.purge(ctx)
    return c.JSON(http.StatusOK, res)
}

func (h *MenuHandler) ListReviews(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    reviews, err := h.Reviews.List(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, reviews)
}

func (h *MenuHandler) purge(ctx context.Context) {
    if h.Purge == nil {
        return
    }
    if err := h.Purge(ctx); err != nil {
        zap.L().Warn("menu cache purge failed", zap.Error(err))
    }
}
