package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// ledgerSchema is the append-only mirror of completed payments.  The
// transaction id is unique so replayed events are absorbed.
const ledgerSchema = `CREATE TABLE IF NOT EXISTS payment_ledger (
	id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	transaction_id VARCHAR(64)    NOT NULL,
	email          VARCHAR(255)   NOT NULL,
	amount_cents   BIGINT         NOT NULL,
	currency       VARCHAR(8)     NOT NULL,
	method         VARCHAR(16)    NOT NULL,
	item_count     INT            NOT NULL,
	completed_at   DATETIME       NOT NULL,
	recorded_at    DATETIME       NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_ledger_tx (transaction_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// OpenLedger connects to the MySQL payment ledger, verifies the connection and
// creates the ledger table when missing.
func OpenLedger(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger dsn: %w", err)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger schema: %w", err)
	}
	return db, nil
}
