// Package messaging owns the failed-delivery ledger: a durable record of
// notification sends that did not succeed, driving operator-visible retry.
package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrAttemptNotFound is returned when no ledger row matches the id.
var ErrAttemptNotFound = errors.New("messaging: notification attempt not found")

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists notification attempts in Postgres.
type Store struct {
	pool PgxPool
}

// NewStore creates a ledger store over the given pool.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

// InsertFailed records a fresh delivery failure with retry_count 0.
func (s *Store) InsertFailed(ctx context.Context, phone, body, template, sendErr string) (uuid.UUID, error) {
	query := `
		INSERT INTO notification_attempts (phone, body, template, last_error, retry_count, status)
		VALUES ($1, $2, $3, $4, 0, 'failed')
		RETURNING id
	`
	var id uuid.UUID
	if err := s.pool.QueryRow(ctx, query, phone, body, template, sendErr).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("messaging: insert failed attempt: %w", err)
	}
	return id, nil
}

// GetAttempt loads one ledger entry.
func (s *Store) GetAttempt(ctx context.Context, id uuid.UUID) (*NotificationAttempt, error) {
	query := `
		SELECT id, phone, body, template, last_error, retry_count, status, created_at, last_retry_at
		FROM notification_attempts
		WHERE id = $1
	`
	var rec NotificationAttempt
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.Phone, &rec.Body, &rec.Template, &rec.LastError,
		&rec.RetryCount, &rec.Status, &rec.CreatedAt, &rec.LastRetryAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("messaging: load attempt: %w", err)
	}
	return &rec, nil
}

// ListFailed returns failed entries newest-first, bounded by limit.
// Delivered entries drop out of this view; they are reclassified, not
// deleted.
func (s *Store) ListFailed(ctx context.Context, limit int) ([]NotificationAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, phone, body, template, last_error, retry_count, status, created_at, last_retry_at
		FROM notification_attempts
		WHERE status = 'failed'
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: list failed attempts: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// ListAutoRetryCandidates returns failed entries still under the automatic
// retry cap, oldest-first so stuck messages drain in order.
func (s *Store) ListAutoRetryCandidates(ctx context.Context, limit int, maxRetries int) ([]NotificationAttempt, error) {
	if limit <= 0 {
		limit = 25
	}
	if maxRetries <= 0 {
		maxRetries = MaxAutoRetries
	}
	query := `
		SELECT id, phone, body, template, last_error, retry_count, status, created_at, last_retry_at
		FROM notification_attempts
		WHERE status = 'failed' AND retry_count < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("messaging: list retry candidates: %w", err)
	}
	defer rows.Close()
	return scanAttempts(rows)
}

// MarkDelivered records a successful retry: status flips to delivered, the
// counter still advances, and the error text is cleared.
func (s *Store) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notification_attempts
		SET status = 'delivered',
			retry_count = retry_count + 1,
			last_error = '',
			last_retry_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("messaging: mark delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// MarkRetryFailed records another failed retry. The counter only ever
// increments.
func (s *Store) MarkRetryFailed(ctx context.Context, id uuid.UUID, sendErr string) error {
	query := `
		UPDATE notification_attempts
		SET retry_count = retry_count + 1,
			last_error = $2,
			last_retry_at = now()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, sendErr)
	if err != nil {
		return fmt.Errorf("messaging: mark retry failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func scanAttempts(rows pgx.Rows) ([]NotificationAttempt, error) {
	var results []NotificationAttempt
	for rows.Next() {
		var rec NotificationAttempt
		if err := rows.Scan(
			&rec.ID, &rec.Phone, &rec.Body, &rec.Template, &rec.LastError,
			&rec.RetryCount, &rec.Status, &rec.CreatedAt, &rec.LastRetryAt,
		); err != nil {
			return nil, fmt.Errorf("messaging: scan attempt: %w", err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}
