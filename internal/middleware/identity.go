package middleware

// identity.go holds the helpers that move decoded token claims between the
// guards, the rate limiter and the handlers.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bistro-boss-server/internal/utils"
)

const claimsKey = "decoded"

func setClaims(c echo.Context, claims utils.Claims) {
    c.Set(claimsKey, claims)
}

// CurrentClaims returns the claims stored by VerifyToken.
func CurrentClaims(c echo.Context) (utils.Claims, bool) {
    cl, ok := c.Get(claimsKey).(utils.Claims)
    return cl, ok
}

// CurrentEmail is the email claim of the authenticated caller, or "".
func CurrentEmail(c echo.Context) string {
    if cl, ok := CurrentClaims(c); ok {
        return cl.Email()
    }
    return ""
}

// userID identifies the caller for rate limiting; "guest" when anonymous.
func userID(c echo.Context) string {
    if e := CurrentEmail(c); e != "" {
        return e
    }
    return "guest"
}
