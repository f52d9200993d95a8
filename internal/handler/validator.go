package handler

import (
    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
    "github.com/spf13/cast"
)

// RequestValidator plugs go-playground/validator into echo's c.Validate.
type RequestValidator struct {
    v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *RequestValidator) Validate(i interface{}) error { return rv.v.Struct(i) }

// bindValid binds the body into dst and validates it.  When no validator is
// registered on the echo instance only binding happens.
func bindValid(c echo.Context, dst interface{}) error {
    if err := c.Bind(dst); err != nil {
        return err
    }
    if c.Echo().Validator == nil {
        return nil
    }
    return c.Validate(dst)
}

// price accepts numbers and numeric strings; the front-end sends both.
func price(v interface{}) (float64, error) {
    if v == nil {
        return 0, nil
    }
    return cast.ToFloat64E(v)
}
