package middleware

import (
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/bistro-boss-server/internal/metrics"
)

// RequestID reuses an incoming X-Request-ID or mints a UUID, and echoes it
// on the response.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(echo.HeaderXRequestID)
            if id == "" {
                id = uuid.NewString()
            }
            c.Response().Header().Set(echo.HeaderXRequestID, id)
            c.Set("request_id", id)
            return next(c)
        }
    }
}

// RequestLogger writes one structured line per request and feeds the HTTP
// metrics.  Handler errors are passed to echo's error handler first so the
// logged status is the one the client saw.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            metrics.RequestsInFlight.Inc()
            defer metrics.RequestsInFlight.Dec()

            err := next(c)
            if err != nil {
                c.Error(err)
            }

            status := c.Response().Status
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            elapsed := time.Since(start)
            metrics.RequestDuration.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

            fields := []zap.Field{
                zap.String("method", c.Request().Method),
                zap.String("path", c.Request().URL.Path),
                zap.Int("status", status),
                zap.Duration("latency", elapsed),
                zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
            }
            if err != nil {
                fields = append(fields, zap.Error(err))
            }
            switch {
            case status >= 500:
                log.Error("request", fields...)
            case status >= 400:
                log.Warn("request", fields...)
            default:
                log.Info("request", fields...)
            }
            return nil
        }
    }
}
