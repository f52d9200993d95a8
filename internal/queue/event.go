// Package queue defines the payment.completed message and the consumer that
// mirrors it into the MySQL ledger.
package queue

import "time"

// PaymentCompletedQueue is the durable queue both sides declare.
const PaymentCompletedQueue = "payment.completed"

// PaymentCompletedEvent is published once a payment is settled: after a card
// payment is recorded, or after a gateway validation moves a record to
// Success.  It carries enough for the ledger without reading Mongo.
type PaymentCompletedEvent struct {
    TransactionID string    `json:"transaction_id"`
    Email         string    `json:"email"`
    Amount        float64   `json:"amount"`
    AmountCents   int64     `json:"amount_cents"`
    Currency      string    `json:"currency"`
    Method        string    `json:"method"`
    CartIDs       []string  `json:"cart_ids"`
    MenuItemIDs   []string  `json:"menu_item_ids"`
    CompletedAt   time.Time `json:"completed_at"`
}
