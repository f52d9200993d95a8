package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bistro-boss-server/internal/model"
    "github.com/iliyamo/bistro-boss-server/internal/repository"
)

// UserStore is implemented by *repository.UserRepo.
type UserStore interface {
    List(ctx context.Context) ([]model.User, error)
    FindByEmail(ctx context.Context, email string) (*model.User, error)
    CreateIfAbsent(ctx context.Context, u model.User) (repository.InsertResult, bool, error)
    PromoteToAdmin(ctx context.Context, id string) (repository.UpdateResult, error)
    Delete(ctx context.Context, id string) (repository.DeleteResult, error)
}

type UserHandler struct {
    Users UserStore
}

func NewUserHandler(s UserStore) *UserHandler { return &UserHandler{Users: s} }

type userReq struct {
    Name  string `json:"name"`
    Email string `json:"email" validate:"required,email"`
    Photo string `json:"photo"`
}

func (h *UserHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    users, err := h.Users.List(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, users)
}

// IsAdmin handles GET /user/admin/:email and answers {admin: bool}.  An
// unknown email is simply not an admin.
func (h *UserHandler) IsAdmin(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    u, err := h.Users.FindByEmail(ctx, c.Param("email"))
    if err != nil && !errors.Is(err, repository.ErrNotFound) {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"admin": u.IsAdmin()})
}

// Create registers a user on first sign-in.  Repeating the call with the same
// email is harmless and reports insertedId null.
func (h *UserHandler) Create(c echo.Context) error {
    var req userReq
    if err := bindValid(c, &req); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    res, created, err := h.Users.CreateIfAbsent(ctx, model.User{Name: req.Name, Email: req.Email, Photo: req.Photo})
    if err != nil {
        return writeError(c, err)
    }
    if !created {
        return c.JSON(http.StatusOK, echo.Map{"message": "User already exists", "insertedId": nil})
    }
    return c.JSON(http.StatusOK, res)
}

// MakeAdmin handles PATCH /users/admin/:id.
func (h *UserHandler) MakeAdmin(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    res, err := h.Users.PromoteToAdmin(ctx, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

func (h *UserHandler) Delete(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    res, err := h.Users.Delete(ctx, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}
