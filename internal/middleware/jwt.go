package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // header splitting

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/bistro-boss-server/internal/utils"
)

// TokenVerifier is satisfied by *utils.TokenService.
type TokenVerifier interface {
    Verify(raw string) (utils.Claims, error)
}

// VerifyToken rejects requests without a valid Bearer token with 401 and
// otherwise stores the decoded claims on the context for handlers and the
// admin guard.  Every failure gets the same body so callers cannot probe
// why a token was refused.
func VerifyToken(tokens TokenVerifier) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := ExtractToken(c.Request().Header.Get(echo.HeaderAuthorization))
            if raw == "" {
                return unauthorized(c)
            }
            claims, err := tokens.Verify(raw)
            if err != nil {
                return unauthorized(c)
            }
            setClaims(c, claims)
            return next(c)
        }
    }
}

// ExtractToken returns the credential part of an "Authorization: Bearer x"
// header, or "" when the header is missing or has no second part.
func ExtractToken(header string) string {
    parts := strings.Fields(header)
    if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
        return ""
    }
    return parts[1]
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized Access"})
}
