package inbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shala-app/shala/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListQueries returns queries newest first.
func (r *Repository) ListQueries(ctx context.Context) ([]Query, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, subject, body, status, created_at, updated_at FROM queries ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var queries []Query
	for rows.Next() {
		var q Query
		if err := rows.Scan(&q.ID, &q.Email, &q.Subject, &q.Body, &q.Status, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return queries, nil
}

// ResolveQuery marks a query resolved.
func (r *Repository) ResolveQuery(ctx context.Context, id uuid.UUID) (Query, error) {
	var q Query
	err := r.pool.QueryRow(ctx,
		`UPDATE queries SET status = 'resolved', updated_at = NOW() WHERE id = $1
		 RETURNING id, email, subject, body, status, created_at, updated_at`, id).
		Scan(&q.ID, &q.Email, &q.Subject, &q.Body, &q.Status, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Query{}, httpx.ErrNotFound
		}
		return Query{}, err
	}
	return q, nil
}

// ListMessages returns contact messages newest first.
func (r *Repository) ListMessages(ctx context.Context) ([]Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, body, read_at, created_at FROM messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Email, &m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkMessageRead stamps the message as read.
func (r *Repository) MarkMessageRead(ctx context.Context, id uuid.UUID) (Message, error) {
	var m Message
	err := r.pool.QueryRow(ctx,
		`UPDATE messages SET read_at = COALESCE(read_at, NOW()) WHERE id = $1
		 RETURNING id, email, body, read_at, created_at`, id).
		Scan(&m.ID, &m.Email, &m.Body, &m.ReadAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Message{}, httpx.ErrNotFound
		}
		return Message{}, err
	}
	return m, nil
}
