package repository

import (
	"context"
	"database/sql"
	"time"
)

// LedgerEntry is one completed payment mirrored into MySQL for accounting.
type LedgerEntry struct {
	TransactionID string
	Email         string
	AmountCents   int64
	Currency      string
	Method        string
	ItemCount     int
	CompletedAt   time.Time
}

// LedgerRepo appends to the payment_ledger table.
type LedgerRepo struct{ DB *sql.DB }

func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{DB: db} }

// Record inserts e once per transaction id.  It reports false when the
// transaction was already on the ledger (a redelivered event).
func (r *LedgerRepo) Record(ctx context.Context, e LedgerEntry) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO payment_ledger (transaction_id, email, amount_cents, currency, method, item_count, completed_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE transaction_id = transaction_id`,
		e.TransactionID, e.Email, e.AmountCents, e.Currency, e.Method, e.ItemCount, e.CompletedAt.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
