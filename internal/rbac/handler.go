package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/shala-app/shala/internal/platform/httpx"
)

// Handler exposes the role catalog and assignment store over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers role and assignment routes. Catalog and assignment
// reads are public; every mutation is additionally re-checked in the service
// layer against the acting evaluator, so the router guard is a convenience,
// not the boundary.
func (h *Handler) MountRoutes(r chi.Router, mw Middleware) {
	r.Get("/roles", h.listRoles)
	r.Get("/assignments", h.listAssignments)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireRoleManager)
		r.Post("/roles", h.createRole)
		r.Put("/roles/{name}", h.updateRole)
		r.Delete("/roles/{name}", h.deleteRole)
		r.Post("/assignments", h.grant)
		r.Delete("/assignments/{identityID}/{name}", h.revoke)
	})
}

type roleResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.respondError(w, "list roles", err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleResponse{Name: string(role.Name), Description: role.Description})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type assignmentResponse struct {
	IdentityID string   `json:"identity_id"`
	Roles      []string `json:"roles"`
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.service.AllAssignments(r.Context())
	if err != nil {
		h.respondError(w, "list assignments", err)
		return
	}
	out := make([]assignmentResponse, 0, len(grouped))
	for _, g := range grouped {
		roles := make([]string, 0, len(g.Roles))
		for _, name := range g.Roles {
			roles = append(roles, string(name))
		}
		out = append(out, assignmentResponse{IdentityID: g.IdentityID.String(), Roles: roles})
	}
	httpx.JSON(w, http.StatusOK, out)
}

type roleRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	role, err := h.service.CreateRole(r.Context(), EvaluatorFromContext(r.Context()), RoleName(req.Name), req.Description)
	if err != nil {
		h.respondError(w, "create role", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, roleResponse{Name: string(role.Name), Description: role.Description})
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	name := RoleName(chi.URLParam(r, "name"))
	role, err := h.service.UpdateRoleDescription(r.Context(), EvaluatorFromContext(r.Context()), name, req.Description)
	if err != nil {
		h.respondError(w, "update role", err)
		return
	}
	httpx.JSON(w, http.StatusOK, roleResponse{Name: string(role.Name), Description: role.Description})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	name := RoleName(chi.URLParam(r, "name"))
	if err := h.service.DeleteRole(r.Context(), EvaluatorFromContext(r.Context()), name); err != nil {
		h.respondError(w, "delete role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type grantRequest struct {
	IdentityID string `json:"identity_id" validate:"required,uuid"`
	Role       string `json:"role" validate:"required"`
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	identityID, err := uuid.Parse(req.IdentityID)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Assign(r.Context(), EvaluatorFromContext(r.Context()), identityID, RoleName(req.Role)); err != nil {
		h.respondError(w, "grant role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	identityID, err := uuid.Parse(chi.URLParam(r, "identityID"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	name := RoleName(chi.URLParam(r, "name"))
	if err := h.service.Revoke(r.Context(), EvaluatorFromContext(r.Context()), identityID, name); err != nil {
		h.respondError(w, "revoke role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondError maps rbac errors onto the shared problem responses, stating
// which precondition failed (unknown role vs. insufficient privilege) and
// nothing more.
func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrRoleNotFound):
		httpx.Problem(w, http.StatusNotFound, "Role Not Found", "no such role in the catalog")
	case errors.Is(err, ErrUnknownRoleName):
		httpx.Problem(w, http.StatusBadRequest, "Unknown Role Name", "role name is outside the predefined set")
	case errors.Is(err, ErrUnauthorized):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient privilege for this operation")
	default:
		if h.logger != nil {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
