package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "condo/pkg/platform/audit"
)

// AuditStore implements audit.Store on the governance database. Appends made
// with a transaction in ctx join that transaction.
type AuditStore struct {
	s *Store
}

var _ audit.Store = (*AuditStore)(nil)

// Audit returns the audit trail sharing this store's database.
func (s *Store) Audit() *AuditStore {
	return &AuditStore{s: &Store{db: s.db, dialect: s.dialect}}
}

func (a *AuditStore) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	_, err := a.s.exec(ctx, `
		INSERT INTO audit_events (id, category, occurred_at, actor, subject, action, decision, reason, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		string(category),
		toNanos(event.Timestamp),
		event.Actor,
		event.Subject,
		event.Action,
		event.Decision,
		event.Reason,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (a *AuditStore) ListByActor(ctx context.Context, actor string) ([]audit.Event, error) {
	rows, err := a.s.query(ctx, `
		SELECT category, occurred_at, actor, subject, action, decision, reason, request_id
		FROM audit_events
		WHERE actor = ?
		ORDER BY occurred_at ASC`, actor)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (a *AuditStore) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := a.s.query(ctx, `
		SELECT category, occurred_at, actor, subject, action, decision, reason, request_id
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event    audit.Event
			category string
			at       int64
		)
		if err := rows.Scan(
			&category,
			&at,
			&event.Actor,
			&event.Subject,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		event.Timestamp = fromNanos(at)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
