package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger is anything the readiness probe should reach (the document store).
type Pinger interface {
    Ping(ctx context.Context) error
}

// Root answers GET / with the service banner.
func Root(c echo.Context) error {
    return c.String(http.StatusOK, "Mahim Boss is Sitting")
}

// Health is a liveness check: the process is up.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports 503 when the store does not answer a ping within 2s.
func Ready(store Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := store.Ping(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
    }
}
