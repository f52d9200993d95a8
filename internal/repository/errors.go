// Package repository holds the Mongo-backed stores for users, menu, reviews,
// carts and payments, plus the MySQL payment ledger.  The sentinel values
// below let handlers and services tell failure modes apart without looking
// at driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup by key matches no document.
var ErrNotFound = errors.New("not found")

// ErrInvalidID is returned when an id that must be an ObjectID does not
// parse as one.  Handlers translate this into 400.
var ErrInvalidID = errors.New("invalid id")
