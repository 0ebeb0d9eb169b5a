package bookings

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

const bookingColumns = `id, owner_id, class_name, starts_at, status, created_at, updated_at`

func scanBooking(row pgx.Row) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.OwnerID, &b.ClassName, &b.StartsAt, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// ListAll returns every booking, newest class first.
func (r *Repository) ListAll(ctx context.Context) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY starts_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListByOwner returns the bookings belonging to one identity.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE owner_id = $1 ORDER BY starts_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// Get fetches one booking by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, httpx.ErrNotFound
		}
		return Booking{}, err
	}
	return b, nil
}

// UpdateStatus transitions a booking's status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx,
		`UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+bookingColumns, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, httpx.ErrNotFound
		}
		return Booking{}, err
	}
	return b, nil
}

func collect(rows pgx.Rows) ([]Booking, error) {
	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
