package sqlstore

import (
	"context"
	"fmt"
)

// schema is portable between PostgreSQL and SQLite. Amounts are decimal text
// so the full unsigned 64-bit range round-trips; times are unix nanoseconds
// with 0 meaning unset.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS governance_settings (
		id INTEGER PRIMARY KEY,
		manager TEXT NOT NULL,
		monthly_quota TEXT NOT NULL,
		balance TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS residents (
		wallet TEXT PRIMARY KEY,
		residence INTEGER NOT NULL UNIQUE,
		is_counselor BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL,
		seq BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS quota_due (
		residence INTEGER PRIMARY KEY,
		next_payment BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS quota_payments (
		id TEXT PRIMARY KEY,
		residence INTEGER NOT NULL,
		payer TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_at BIGINT NOT NULL,
		next_payment BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS quota_payments_residence_idx ON quota_payments (residence, paid_at)`,
	`CREATE TABLE IF NOT EXISTS topics (
		title TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		category INTEGER NOT NULL,
		amount TEXT NOT NULL,
		responsible TEXT NOT NULL,
		status INTEGER NOT NULL,
		created_at BIGINT NOT NULL,
		started_at BIGINT NOT NULL DEFAULT 0,
		ended_at BIGINT NOT NULL DEFAULT 0,
		seq BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		topic TEXT NOT NULL,
		residence INTEGER NOT NULL,
		wallet TEXT NOT NULL,
		choice INTEGER NOT NULL,
		cast_at BIGINT NOT NULL,
		PRIMARY KEY (topic, residence)
	)`,
	`CREATE TABLE IF NOT EXISTS treasury_transfers (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		recipient TEXT NOT NULL,
		amount TEXT NOT NULL,
		executed_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		occurred_at BIGINT NOT NULL,
		actor TEXT NOT NULL,
		subject TEXT NOT NULL,
		action TEXT NOT NULL,
		decision TEXT NOT NULL,
		reason TEXT NOT NULL,
		request_id TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_events_actor_idx ON audit_events (actor, occurred_at)`,
}

// Migrate creates the governance tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
