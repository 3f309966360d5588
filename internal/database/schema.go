package database

import (
	"fmt"
	"strings"
)

// schema is the single source of truth for the database layout.
// All statements are idempotent so Migrate can run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS assets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner TEXT NOT NULL,
	name TEXT NOT NULL,
	dp_name TEXT,
	asset_type TEXT NOT NULL,
	currency TEXT NOT NULL DEFAULT 'INR',
	quantity REAL NOT NULL,
	unit_price REAL NOT NULL,
	isin TEXT,
	symbol TEXT,
	last_updated INTEGER,
	original_currency TEXT,
	original_unit_price REAL,
	daily_change_pct REAL,
	avg_buy_price REAL,
	price_30d REAL
);

CREATE INDEX IF NOT EXISTS idx_assets_owner ON assets(owner);
CREATE INDEX IF NOT EXISTS idx_assets_isin ON assets(isin);
CREATE INDEX IF NOT EXISTS idx_assets_symbol ON assets(symbol);

CREATE TABLE IF NOT EXISTS investment_transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	asset_name TEXT NOT NULL,
	symbol TEXT,
	transaction_type TEXT NOT NULL DEFAULT 'BUY',
	quantity_change REAL NOT NULL,
	price_per_unit REAL NOT NULL,
	total_amount REAL NOT NULL,
	owner TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_owner ON investment_transactions(owner);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON investment_transactions(date);

CREATE TABLE IF NOT EXISTS portfolio_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL UNIQUE,
	total_value REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	description TEXT,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quote_cache (
	service TEXT NOT NULL,
	key TEXT NOT NULL,
	value BLOB NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (service, key)
);
`

// Migrate applies the embedded schema within a transaction.
func (db *DB) Migrate() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for schema: %w", err)
	}

	if _, err := tx.Exec(schema); err != nil {
		_ = tx.Rollback()

		// If error indicates schema already applied, skip it
		errStr := err.Error()
		if strings.Contains(errStr, "duplicate column") ||
			strings.Contains(errStr, "already exists") {
			return nil
		}

		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}

	return nil
}
