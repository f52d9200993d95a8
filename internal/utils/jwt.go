package utils // package utils provides the access token service

import (
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/spf13/cast"
)

// ErrUnauthenticated covers every reason a token is rejected: missing,
// malformed, wrong signature or algorithm, expired.
var ErrUnauthenticated = errors.New("unauthenticated")

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = time.Hour

// Claims is the decoded claim set of a session token.  Callers may put any
// identity fields in it; email is the one the service relies on.
type Claims map[string]any

// Email returns the email claim or "" when absent.
func (c Claims) Email() string { return cast.ToString(c["email"]) }

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
    secret []byte
    ttl    time.Duration
    now    func() time.Time // overridden in tests
}

// NewTokenService builds a service with the given secret; ttl <= 0 means
// DefaultTokenTTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
    if ttl <= 0 {
        ttl = DefaultTokenTTL
    }
    return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a copy of claims with iat and exp set.  An email claim is
// required because the admin guard keys on it.
func (s *TokenService) Issue(claims map[string]any) (string, error) {
    email := strings.TrimSpace(cast.ToString(claims["email"]))
    if email == "" {
        return "", fmt.Errorf("issue token: email claim required")
    }
    mc := make(jwt.MapClaims, len(claims)+2)
    for k, v := range claims {
        mc[k] = v
    }
    now := s.now()
    mc["iat"] = now.Unix()
    mc["exp"] = now.Add(s.ttl).Unix()
    return jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(s.secret)
}

// Verify checks signature, algorithm and expiry and returns the claims.
func (s *TokenService) Verify(raw string) (Claims, error) {
    if raw == "" {
        return nil, ErrUnauthenticated
    }
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrUnauthenticated
        }
        return s.secret, nil
    },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithExpirationRequired(),
        jwt.WithTimeFunc(s.now),
    )
    if err != nil || !tok.Valid {
        return nil, ErrUnauthenticated
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return nil, ErrUnauthenticated
    }
    return Claims(mc), nil
}
