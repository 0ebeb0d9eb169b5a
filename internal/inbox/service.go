package inbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shala-app/shala/internal/platform/httpx"
	"github.com/shala-app/shala/internal/policy"
	"github.com/shala-app/shala/internal/rbac"
)

// RepositoryPort defines data access methods for the inbox.
type RepositoryPort interface {
	ListQueries(ctx context.Context) ([]Query, error)
	ResolveQuery(ctx context.Context, id uuid.UUID) (Query, error)
	ListMessages(ctx context.Context) ([]Message, error)
	MarkMessageRead(ctx context.Context, id uuid.UUID) (Message, error)
}

// Service gates inbox access. Queries and messages are admin territory on
// both read and write.
type Service struct {
	repo  RepositoryPort
	authz *policy.Decider
}

// NewService builds Service instance. authz may be nil to skip decision
// recording.
func NewService(repo RepositoryPort, authz *policy.Decider) *Service {
	return &Service{repo: repo, authz: authz}
}

func (s *Service) authorize(actor rbac.Evaluator, op policy.Op) error {
	if !s.authz.Allow(actor, policy.Request{Resource: policy.ResourceInbox, Op: op}) {
		return fmt.Errorf("%w: inbox requires admin", httpx.ErrForbidden)
	}
	return nil
}

// ListQueries returns all studio queries.
func (s *Service) ListQueries(ctx context.Context, actor rbac.Evaluator) ([]Query, error) {
	if err := s.authorize(actor, policy.OpRead); err != nil {
		return nil, err
	}
	return s.repo.ListQueries(ctx)
}

// ResolveQuery marks a query resolved.
func (s *Service) ResolveQuery(ctx context.Context, actor rbac.Evaluator, id uuid.UUID) (Query, error) {
	if err := s.authorize(actor, policy.OpWrite); err != nil {
		return Query{}, err
	}
	return s.repo.ResolveQuery(ctx, id)
}

// ListMessages returns all contact messages.
func (s *Service) ListMessages(ctx context.Context, actor rbac.Evaluator) ([]Message, error) {
	if err := s.authorize(actor, policy.OpRead); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx)
}

// MarkMessageRead stamps a message as read.
func (s *Service) MarkMessageRead(ctx context.Context, actor rbac.Evaluator, id uuid.UUID) (Message, error) {
	if err := s.authorize(actor, policy.OpWrite); err != nil {
		return Message{}, err
	}
	return s.repo.MarkMessageRead(ctx, id)
}
