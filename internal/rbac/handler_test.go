package rbac_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shala-app/shala/internal/identity"
	"github.com/shala-app/shala/internal/rbac"
)

// handlerFixture wires the real service and resolver over the in-memory
// repository so handler tests exercise the whole authorization path.
type handlerFixture struct {
	repo   *mockRepository
	router chi.Router
	super  identity.Identity
	admin  identity.Identity
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	repo := newMockRepository(rbac.AllRoleNames()...)
	svc, _ := newService(repo)
	resolver := rbac.NewResolver(repo, &stubLegacy{}, nil, nil)
	mw := rbac.Middleware{Resolver: resolver}
	handler := rbac.NewHandler(nil, svc)

	router := chi.NewRouter()
	router.Use(mw.WithEvaluator)
	router.Route("/api", func(r chi.Router) {
		handler.MountRoutes(r, mw)
	})

	f := &handlerFixture{
		repo:   repo,
		router: router,
		super:  identity.Identity{ID: uuid.New(), Email: "root@studio.example"},
		admin:  identity.Identity{ID: uuid.New(), Email: "admin@studio.example"},
	}
	superRole := repo.roles[rbac.RoleSuperAdmin]
	adminRole := repo.roles[rbac.RoleAdmin]
	require.NoError(t, repo.Assign(context.Background(), f.super.ID, superRole.ID, nil))
	require.NoError(t, repo.Assign(context.Background(), f.admin.ID, adminRole.ID, nil))
	return f
}

func (f *handlerFixture) do(t *testing.T, method, path, body string, as *identity.Identity) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if as != nil {
		req = req.WithContext(identity.ContextWithIdentity(req.Context(), *as))
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func TestListRolesIsPublic(t *testing.T) {
	f := newHandlerFixture(t)

	res := f.do(t, http.MethodGet, "/api/roles", "", nil)
	require.Equal(t, http.StatusOK, res.Code)

	var roles []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &roles))
	assert.Len(t, roles, len(rbac.AllRoleNames()))
}

func TestGrantAsSuperAdmin(t *testing.T) {
	f := newHandlerFixture(t)
	target := uuid.New()

	body := `{"identity_id":"` + target.String() + `","role":"instructor"}`
	res := f.do(t, http.MethodPost, "/api/assignments", body, &f.super)
	assert.Equal(t, http.StatusNoContent, res.Code)

	roles, err := f.repo.RolesFor(context.Background(), target)
	require.NoError(t, err)
	assert.Contains(t, roles, rbac.RoleInstructor)
}

func TestGrantDeniedForPlainAdmin(t *testing.T) {
	f := newHandlerFixture(t)
	target := uuid.New()

	body := `{"identity_id":"` + target.String() + `","role":"instructor"}`
	res := f.do(t, http.MethodPost, "/api/assignments", body, &f.admin)
	assert.Equal(t, http.StatusForbidden, res.Code)

	roles, err := f.repo.RolesFor(context.Background(), target)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestGrantDeniedForAnonymous(t *testing.T) {
	f := newHandlerFixture(t)

	body := `{"identity_id":"` + uuid.NewString() + `","role":"instructor"}`
	res := f.do(t, http.MethodPost, "/api/assignments", body, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestGrantUnknownRoleIs404(t *testing.T) {
	f := newHandlerFixture(t)

	// ghost_role passes payload validation but is not in the catalog.
	body := `{"identity_id":"` + uuid.NewString() + `","role":"ghost_role"}`
	res := f.do(t, http.MethodPost, "/api/assignments", body, &f.super)
	assert.Equal(t, http.StatusNotFound, res.Code)

	var problem struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &problem))
	assert.Equal(t, "Role Not Found", problem.Title)
}

func TestGrantRejectsMalformedPayload(t *testing.T) {
	f := newHandlerFixture(t)

	res := f.do(t, http.MethodPost, "/api/assignments", `{"identity_id":"not-a-uuid","role":"admin"}`, &f.super)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestRevokeEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	target := uuid.New()
	instructorRole := f.repo.roles[rbac.RoleInstructor]
	require.NoError(t, f.repo.Assign(context.Background(), target, instructorRole.ID, nil))

	res := f.do(t, http.MethodDelete, "/api/assignments/"+target.String()+"/instructor", "", &f.super)
	assert.Equal(t, http.StatusNoContent, res.Code)

	roles, err := f.repo.RolesFor(context.Background(), target)
	require.NoError(t, err)
	assert.Empty(t, roles)

	// Revoking again stays a no-op.
	res = f.do(t, http.MethodDelete, "/api/assignments/"+target.String()+"/instructor", "", &f.super)
	assert.Equal(t, http.StatusNoContent, res.Code)
}

func TestUpdateRoleDescription(t *testing.T) {
	f := newHandlerFixture(t)

	res := f.do(t, http.MethodPut, "/api/roles/mantra_curator", `{"description":"curates the mantra library"}`, &f.super)
	require.Equal(t, http.StatusOK, res.Code)

	var role struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &role))
	assert.Equal(t, "mantra_curator", role.Name)
	assert.Equal(t, "curates the mantra library", role.Description)
}

func TestListAssignmentsGroupsPerIdentity(t *testing.T) {
	f := newHandlerFixture(t)
	target := uuid.New()
	frontDesk := f.repo.roles[rbac.RoleFrontDesk]
	support := f.repo.roles[rbac.RoleSupportAgent]
	require.NoError(t, f.repo.Assign(context.Background(), target, frontDesk.ID, nil))
	require.NoError(t, f.repo.Assign(context.Background(), target, support.ID, nil))

	res := f.do(t, http.MethodGet, "/api/assignments", "", nil)
	require.Equal(t, http.StatusOK, res.Code)

	var groups []struct {
		IdentityID string   `json:"identity_id"`
		Roles      []string `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &groups))

	var found bool
	for _, g := range groups {
		if g.IdentityID == target.String() {
			found = true
			assert.ElementsMatch(t, []string{"front_desk", "support_agent"}, g.Roles)
		}
	}
	assert.True(t, found, "target identity should appear in the listing")
}

func TestGrantAcceptsAnyUUIDVersion(t *testing.T) {
	f := newHandlerFixture(t)
	// Time-based id, as issued by providers that do not use random UUIDs.
	target, err := uuid.NewUUID()
	require.NoError(t, err)

	body := `{"identity_id":"` + target.String() + `","role":"instructor"}`
	res := f.do(t, http.MethodPost, "/api/assignments", body, &f.super)
	assert.Equal(t, http.StatusNoContent, res.Code)

	roles, err := f.repo.RolesFor(context.Background(), target)
	require.NoError(t, err)
	assert.Contains(t, roles, rbac.RoleInstructor)
}

func TestGuardRejectionsAreProblemResponses(t *testing.T) {
	f := newHandlerFixture(t)

	body := `{"identity_id":"` + uuid.NewString() + `","role":"instructor"}`
	res := f.do(t, http.MethodPost, "/api/assignments", body, &f.admin)
	require.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))

	var problem struct {
		Title  string `json:"title"`
		Status int    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &problem))
	assert.Equal(t, "Forbidden", problem.Title)
	assert.Equal(t, http.StatusForbidden, problem.Status)
}
