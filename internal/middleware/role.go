package middleware // middleware provides shared request processing for handlers

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

// AdminLookup is the slice of the user store the admin guard needs.
type AdminLookup interface {
    FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// VerifyAdmin must run after VerifyToken.  It loads the identity named by
// the token's email claim and answers 403 unless that user has the admin
// role.  The role is read from the store on every request, never from the
// token, so a demotion takes effect immediately.
func VerifyAdmin(users AdminLookup) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            email := CurrentEmail(c)
            if email == "" {
                return forbidden(c)
            }
            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()

            u, err := users.FindByEmail(ctx, email)
            if errors.Is(err, repository.ErrNotFound) {
                return forbidden(c)
            }
            if err != nil {
                zap.L().Error("admin lookup failed", zap.String("email", email), zap.Error(err))
                return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
            }
            if !u.IsAdmin() {
                return forbidden(c)
            }
            return next(c)
        }
    }
}

func forbidden(c echo.Context) error {
    return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden Access"})
}
