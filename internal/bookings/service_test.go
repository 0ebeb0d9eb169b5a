package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shala-app/shala/internal/identity"
	"github.com/shala-app/shala/internal/observability"
	"github.com/shala-app/shala/internal/platform/httpx"
	"github.com/shala-app/shala/internal/policy"
	"github.com/shala-app/shala/internal/rbac"
)

type mockRepository struct {
	bookings map[uuid.UUID]*Booking
}

func newMockRepository() *mockRepository {
	return &mockRepository{bookings: make(map[uuid.UUID]*Booking)}
}

func (m *mockRepository) add(ownerID uuid.UUID, class string, status Status) Booking {
	b := Booking{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		ClassName: class,
		StartsAt:  time.Now().Add(24 * time.Hour),
		Status:    status,
	}
	m.bookings[b.ID] = &b
	return b
}

func (m *mockRepository) ListAll(ctx context.Context) ([]Booking, error) {
	var out []Booking
	for _, b := range m.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Booking, error) {
	var out []Booking
	for _, b := range m.bookings {
		if b.OwnerID == ownerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return Booking{}, httpx.ErrNotFound
	}
	return *b, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return Booking{}, httpx.ErrNotFound
	}
	b.Status = status
	return *b, nil
}

func evaluatorFor(id uuid.UUID, roles ...rbac.RoleName) rbac.Evaluator {
	return rbac.NewEvaluator(rbac.NewSnapshot(identity.Identity{ID: id, Email: "a@x.com"}, roles, false))
}

func TestOwnerReadsOwnBookingOnly(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	owner := uuid.New()
	other := uuid.New()
	own := repo.add(owner, "Vinyasa Flow", StatusConfirmed)
	foreign := repo.add(other, "Yin Deep Stretch", StatusConfirmed)
	ctx := context.Background()

	actor := evaluatorFor(owner)

	got, err := svc.Get(ctx, actor, own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.ID, got.ID)

	_, err = svc.Get(ctx, actor, foreign.ID)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestAdminReadsAnyBooking(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	foreign := repo.add(uuid.New(), "Sunrise Hatha", StatusPending)

	got, err := svc.Get(context.Background(), evaluatorFor(uuid.New(), rbac.RoleAdmin), foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, foreign.ID, got.ID)
}

func TestListScopesToOwnerForNonAdmins(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	owner := uuid.New()
	repo.add(owner, "Vinyasa Flow", StatusConfirmed)
	repo.add(uuid.New(), "Yin Deep Stretch", StatusConfirmed)
	ctx := context.Background()

	mine, err := svc.List(ctx, evaluatorFor(owner, rbac.RoleYogiInTraining))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.List(ctx, evaluatorFor(uuid.New(), rbac.RoleAdmin))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListDeniedForAnonymous(t *testing.T) {
	svc := NewService(newMockRepository(), nil)

	_, err := svc.List(context.Background(), rbac.Evaluator{})
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestWriteRequiresAdmin(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	owner := uuid.New()
	b := repo.add(owner, "Vinyasa Flow", StatusPending)
	ctx := context.Background()

	// Even the owner cannot write; write is admin only.
	_, err := svc.UpdateStatus(ctx, evaluatorFor(owner), b.ID, StatusCancelled)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
	assert.Equal(t, StatusPending, repo.bookings[b.ID].Status)

	updated, err := svc.UpdateStatus(ctx, evaluatorFor(uuid.New(), rbac.RoleAdmin), b.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)
	b := repo.add(uuid.New(), "Vinyasa Flow", StatusPending)

	_, err := svc.UpdateStatus(context.Background(), evaluatorFor(uuid.New(), rbac.RoleAdmin), b.ID, Status("teleported"))
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestServiceRecordsAuthzDecisions(t *testing.T) {
	repo := newMockRepository()
	metrics := observability.NewMetrics()
	svc := NewService(repo, policy.NewDecider(metrics))

	admin := evaluatorFor(uuid.New(), rbac.RoleAdmin)
	yogi := evaluatorFor(uuid.New(), rbac.RoleYogiInTraining)

	_, err := svc.List(context.Background(), admin)
	require.NoError(t, err)
	b := repo.add(uuid.New(), "vinyasa", StatusPending)
	_, err = svc.UpdateStatus(context.Background(), yogi, b.ID, StatusConfirmed)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	families, err := metrics.Gatherer().Gather()
	require.NoError(t, err)

	var total float64
	for _, fam := range families {
		if fam.GetName() == "shala_authz_decisions_total" {
			for _, metric := range fam.GetMetric() {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2), total)
}
