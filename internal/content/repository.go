package content

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

const articleColumns = `id, slug, title, body, published, author_id, created_at, updated_at`

func scanArticle(row pgx.Row) (Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Body, &a.Published, &a.AuthorID, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// ListPublished returns published articles newest first.
func (r *Repository) ListPublished(ctx context.Context) ([]Article, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+articleColumns+` FROM articles WHERE published ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListAll returns every article including drafts.
func (r *Repository) ListAll(ctx context.Context) ([]Article, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// GetBySlug fetches one article.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (Article, error) {
	a, err := scanArticle(r.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Article{}, httpx.ErrNotFound
		}
		return Article{}, err
	}
	return a, nil
}

// Create inserts a draft article.
func (r *Repository) Create(ctx context.Context, slug, title, body string, authorID uuid.UUID) (Article, error) {
	a, err := scanArticle(r.pool.QueryRow(ctx,
		`INSERT INTO articles (slug, title, body, author_id) VALUES ($1, $2, $3, $4) RETURNING `+articleColumns,
		slug, title, body, authorID))
	if err != nil {
		return Article{}, err
	}
	return a, nil
}

// Update edits title and body.
func (r *Repository) Update(ctx context.Context, slug, title, body string) (Article, error) {
	a, err := scanArticle(r.pool.QueryRow(ctx,
		`UPDATE articles SET title = $2, body = $3, updated_at = NOW() WHERE slug = $1 RETURNING `+articleColumns,
		slug, title, body))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Article{}, httpx.ErrNotFound
		}
		return Article{}, err
	}
	return a, nil
}

// SetPublished flips the published flag.
func (r *Repository) SetPublished(ctx context.Context, slug string, published bool) (Article, error) {
	a, err := scanArticle(r.pool.QueryRow(ctx,
		`UPDATE articles SET published = $2, updated_at = NOW() WHERE slug = $1 RETURNING `+articleColumns,
		slug, published))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Article{}, httpx.ErrNotFound
		}
		return Article{}, err
	}
	return a, nil
}

// Delete removes an article.
func (r *Repository) Delete(ctx context.Context, slug string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM articles WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func collect(rows pgx.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return articles, nil
}
