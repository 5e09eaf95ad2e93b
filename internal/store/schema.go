package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	bank_format TEXT NOT NULL DEFAULT '',
	active      INTEGER NOT NULL DEFAULT 1,
	is_offset   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS categories (
	id     TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS subscriptions (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	matcher              TEXT NOT NULL DEFAULT '',
	matcher_day_of_month INTEGER,
	amount_tolerance     TEXT,
	last_charge_amount   TEXT,
	active               INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS rules (
	id                   TEXT PRIMARY KEY,
	matcher_text         TEXT NOT NULL UNIQUE,
	matcher_amount       TEXT,
	amount_tolerance     TEXT NOT NULL DEFAULT '0',
	matcher_day_of_month INTEGER,
	category_id          TEXT REFERENCES categories(id),
	subscription_id      TEXT REFERENCES subscriptions(id),
	hit_count            INTEGER NOT NULL DEFAULT 0,
	last_hit_at          TEXT,
	active               INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS import_batches (
	id         TEXT PRIMARY KEY,
	note       TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS import_files (
	id          TEXT PRIMARY KEY,
	batch_id    TEXT NOT NULL REFERENCES import_batches(id),
	filename    TEXT NOT NULL,
	account_id  TEXT NOT NULL REFERENCES accounts(id),
	bank_format TEXT NOT NULL DEFAULT '',
	row_count   INTEGER NOT NULL DEFAULT 0,
	error_count INTEGER NOT NULL DEFAULT 0,
	status      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id              TEXT PRIMARY KEY,
	category_id     TEXT REFERENCES categories(id),
	subscription_id TEXT REFERENCES subscriptions(id),
	type            TEXT NOT NULL,
	description     TEXT NOT NULL,
	occurred_at     TEXT NOT NULL,
	posted_at       TEXT NOT NULL,
	import_batch_id TEXT REFERENCES import_batches(id),
	created_source  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS legs (
	id             TEXT PRIMARY KEY,
	transaction_id TEXT NOT NULL REFERENCES transactions(id),
	account_id     TEXT NOT NULL REFERENCES accounts(id),
	amount         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tax_events (
	id             TEXT PRIMARY KEY,
	transaction_id TEXT NOT NULL UNIQUE REFERENCES transactions(id),
	event_type     TEXT NOT NULL,
	authority      TEXT NOT NULL DEFAULT '',
	note           TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_legs_transaction ON legs(transaction_id);
CREATE INDEX IF NOT EXISTS idx_legs_account ON legs(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_batch ON transactions(import_batch_id);
`

// Open opens (or creates) the sqlite database and ensures the schema
// exists.
func Open(path string) (*sql.DB, error) {
	// The pragma goes in the DSN so every pooled connection enforces
	// foreign keys, not just the one a bare PRAGMA would run on.
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}
