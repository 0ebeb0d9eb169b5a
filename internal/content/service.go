package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shala-app/shala/internal/platform/httpx"
	"github.com/shala-app/shala/internal/policy"
	"github.com/shala-app/shala/internal/rbac"
)

// RepositoryPort defines data access methods for articles.
type RepositoryPort interface {
	ListPublished(ctx context.Context) ([]Article, error)
	ListAll(ctx context.Context) ([]Article, error)
	GetBySlug(ctx context.Context, slug string) (Article, error)
	Create(ctx context.Context, slug, title, body string, authorID uuid.UUID) (Article, error)
	Update(ctx context.Context, slug, title, body string) (Article, error)
	SetPublished(ctx context.Context, slug string, published bool) (Article, error)
	Delete(ctx context.Context, slug string) error
}

// Service handles article business logic behind the content policy.
type Service struct {
	repo  RepositoryPort
	authz *policy.Decider
}

// NewService builds Service instance. authz may be nil to skip decision
// recording.
func NewService(repo RepositoryPort, authz *policy.Decider) *Service {
	return &Service{repo: repo, authz: authz}
}

func (s *Service) canWrite(actor rbac.Evaluator) error {
	if !s.authz.Allow(actor, policy.Request{Resource: policy.ResourceContent, Op: policy.OpWrite}) {
		return fmt.Errorf("%w: content writes require mantra_curator or admin", httpx.ErrForbidden)
	}
	return nil
}

// List returns published articles for everyone; writers also see drafts.
func (s *Service) List(ctx context.Context, actor rbac.Evaluator) ([]Article, error) {
	if s.canWrite(actor) == nil {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListPublished(ctx)
}

// Get fetches one article. Drafts stay hidden from the public.
func (s *Service) Get(ctx context.Context, actor rbac.Evaluator, slug string) (Article, error) {
	a, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return Article{}, err
	}
	if !a.Published && s.canWrite(actor) != nil {
		return Article{}, httpx.ErrNotFound
	}
	return a, nil
}

// Create inserts a draft article.
func (s *Service) Create(ctx context.Context, actor rbac.Evaluator, slug, title, body string) (Article, error) {
	if err := s.canWrite(actor); err != nil {
		return Article{}, err
	}
	slug = strings.TrimSpace(strings.ToLower(slug))
	title = strings.TrimSpace(title)
	if slug == "" || title == "" {
		return Article{}, fmt.Errorf("%w: slug and title required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, slug, title, body, actor.Identity().ID)
}

// Update edits an article's title and body.
func (s *Service) Update(ctx context.Context, actor rbac.Evaluator, slug, title, body string) (Article, error) {
	if err := s.canWrite(actor); err != nil {
		return Article{}, err
	}
	return s.repo.Update(ctx, slug, title, body)
}

// SetPublished publishes or unpublishes an article.
func (s *Service) SetPublished(ctx context.Context, actor rbac.Evaluator, slug string, published bool) (Article, error) {
	if err := s.canWrite(actor); err != nil {
		return Article{}, err
	}
	return s.repo.SetPublished(ctx, slug, published)
}

// Delete removes an article.
func (s *Service) Delete(ctx context.Context, actor rbac.Evaluator, slug string) error {
	if err := s.canWrite(actor); err != nil {
		return err
	}
	return s.repo.Delete(ctx, slug)
}
