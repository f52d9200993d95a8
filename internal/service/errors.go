package service

import "errors"

// Errors returned by the payment reconciler.  Handlers map them to HTTP
// statuses; anything else is a store failure (500).
var (
	// ErrInvalidInput marks a request the reconciler refuses before touching
	// any collaborator (non-positive price, empty val_id).
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream wraps failures of the card processor or the gateway.
	ErrUpstream = errors.New("payment provider unavailable")

	// ErrInvalidPayment means the gateway did not confirm the payment.  No
	// record was changed.
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrConsistencyFault means the gateway validated a transaction this
	// service has no record of.
	ErrConsistencyFault = errors.New("validated transaction has no payment record")

	// ErrPaymentNotSettled is returned when intent verification is on and the
	// card processor does not report the intent as succeeded.
	ErrPaymentNotSettled = errors.New("payment intent not settled")
)
