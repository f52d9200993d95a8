package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/bistro-boss-server/internal/repository"
    "github.com/iliyamo/bistro-boss-server/internal/service"
)

// writeError maps domain errors onto status codes.  Every failure body has
// a "message" field, matching the guard responses the front-end handles.
func writeError(c echo.Context, err error) error {
    var ve validator.ValidationErrors
    var he *echo.HTTPError
    switch {
    case errors.As(err, &ve):
        fields := make([]string, 0, len(ve))
        for _, fe := range ve {
            fields = append(fields, fe.Field())
        }
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid fields: " + strings.Join(fields, ", ")})
    case errors.As(err, &he):
        return c.JSON(he.Code, echo.Map{"message": http.StatusText(he.Code)})
    case errors.Is(err, repository.ErrInvalidID), errors.Is(err, service.ErrInvalidInput):
        return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
    case errors.Is(err, service.ErrInvalidPayment):
        return c.JSON(http.StatusOK, echo.Map{"message": "Invalid payment"})
    case errors.Is(err, service.ErrPaymentNotSettled):
        return c.JSON(http.StatusPaymentRequired, echo.Map{"message": err.Error()})
    case errors.Is(err, service.ErrUpstream):
        zap.L().Error("payment provider failure", zap.String("path", c.Path()), zap.Error(err))
        return c.JSON(http.StatusBadGateway, echo.Map{"message": "payment provider unavailable"})
    case errors.Is(err, service.ErrConsistencyFault):
        zap.L().Error("payment consistency fault", zap.String("path", c.Path()), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "payment record not found for validated transaction"})
    default:
        zap.L().Error("request failed", zap.String("path", c.Path()), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
    }
}
