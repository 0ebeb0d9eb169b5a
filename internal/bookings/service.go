package bookings

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shala-app/shala/internal/platform/httpx"
	"github.com/shala-app/shala/internal/policy"
	"github.com/shala-app/shala/internal/rbac"
)

// RepositoryPort defines data access methods for bookings.
type RepositoryPort interface {
	ListAll(ctx context.Context) ([]Booking, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Booking, error)
	Get(ctx context.Context, id uuid.UUID) (Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Booking, error)
}

// Service gates every booking access through the policy layer. The acting
// evaluator arrives as an explicit parameter on each call.
type Service struct {
	repo  RepositoryPort
	authz *policy.Decider
}

// NewService builds Service instance. authz may be nil to skip decision
// recording.
func NewService(repo RepositoryPort, authz *policy.Decider) *Service {
	return &Service{repo: repo, authz: authz}
}

// List returns all bookings for admins, or the caller's own otherwise. An
// unauthenticated caller sees nothing.
func (s *Service) List(ctx context.Context, actor rbac.Evaluator) ([]Booking, error) {
	if s.authz.Allow(actor, policy.Request{Resource: policy.ResourceBooking, Op: policy.OpRead}) {
		return s.repo.ListAll(ctx)
	}
	ownerID := actor.Identity().ID
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: bookings require authentication", httpx.ErrForbidden)
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get fetches one booking; allowed for admins and the booking's owner. The
// ownership predicate is evaluated against the stored row, never trusted
// from the request.
func (s *Service) Get(ctx context.Context, actor rbac.Evaluator, id uuid.UUID) (Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	owns := b.OwnerID != uuid.Nil && b.OwnerID == actor.Identity().ID
	if !s.authz.Allow(actor, policy.Request{Resource: policy.ResourceBooking, Op: policy.OpRead, OwnsResource: owns}) {
		return Booking{}, fmt.Errorf("%w: not your booking", httpx.ErrForbidden)
	}
	return b, nil
}

// UpdateStatus transitions a booking's status. Admin only; owners cannot
// mutate their own rows through the console.
func (s *Service) UpdateStatus(ctx context.Context, actor rbac.Evaluator, id uuid.UUID, status Status) (Booking, error) {
	if !s.authz.Allow(actor, policy.Request{Resource: policy.ResourceBooking, Op: policy.OpWrite}) {
		return Booking{}, fmt.Errorf("%w: booking writes require admin", httpx.ErrForbidden)
	}
	if !status.Valid() {
		return Booking{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}
