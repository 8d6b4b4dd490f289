package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gatekey/gatekey/internal/model"
)

// AuditEventRepository provides database access for auth audit events.
type AuditEventRepository struct {
	repo *Repository
}

// NewAuditEventRepository creates a new AuditEventRepository.
func NewAuditEventRepository(repo *Repository) *AuditEventRepository {
	return &AuditEventRepository{repo: repo}
}

// BulkInsertAuthEvents inserts multiple auth events with idempotency via ON CONFLICT DO NOTHING.
func (r *AuditEventRepository) BulkInsertAuthEvents(ctx context.Context, events []*model.AuthEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO auth_events (
			id, event_id, type, profile_id, email_hash, ip_hash,
			request_id, occurred_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventID,
			event.Type,
			nullableString(event.ProfileID),
			event.EmailHash,
			nullableString(event.IPHash),
			nullableString(event.RequestID),
			event.OccurredAt,
		)
	}

	results := r.repo.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(events); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert event %d: %w", i, err)
		}
	}

	return nil
}

// ListByEmailHash retrieves recent auth events for an email hash, newest first.
func (r *AuditEventRepository) ListByEmailHash(ctx context.Context, emailHash string, since time.Time, limit int) ([]*model.AuthEvent, error) {
	query := `
		SELECT id, event_id, type, COALESCE(profile_id, ''), email_hash,
			   COALESCE(ip_hash, ''), COALESCE(request_id, ''), occurred_at
		FROM auth_events
		WHERE email_hash = $1 AND occurred_at >= $2
		ORDER BY occurred_at DESC
		LIMIT $3
	`

	rows, err := r.repo.pool.Query(ctx, query, emailHash, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query auth events: %w", err)
	}
	defer rows.Close()

	var events []*model.AuthEvent
	for rows.Next() {
		var event model.AuthEvent
		err := rows.Scan(
			&event.ID,
			&event.EventID,
			&event.Type,
			&event.ProfileID,
			&event.EmailHash,
			&event.IPHash,
			&event.RequestID,
			&event.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan auth event: %w", err)
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}

// CountFailedLoginsSince counts failed logins for an email hash within a window.
// Used by support tooling to spot credential-stuffing against a single account.
func (r *AuditEventRepository) CountFailedLoginsSince(ctx context.Context, emailHash string, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM auth_events
		WHERE email_hash = $1 AND type = $2 AND occurred_at >= $3
	`

	var count int64
	err := r.repo.pool.QueryRow(ctx, query, emailHash, model.AuthEventLoginFailed, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count failed logins: %w", err)
	}

	return count, nil
}

// nullableString returns nil for empty strings.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
