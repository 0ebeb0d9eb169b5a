package users

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shala-app/shala/internal/platform/httpx"
	"github.com/shala-app/shala/internal/rbac"
)

// Handler manages user directory endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	Roles     []string  `json:"roles,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListUsers(r.Context(), rbac.EvaluatorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(items))
	for _, u := range items {
		out = append(out, userResponse{
			ID: u.ID.String(), Email: u.Email, FullName: u.FullName,
			IsActive: u.IsActive, CreatedAt: u.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	uwr, err := h.service.GetWithRoles(r.Context(), rbac.EvaluatorFromContext(r.Context()), id)
	if err != nil {
		if h.logger != nil {
			h.logger.Debug("get user", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	roles := make([]string, 0, len(uwr.Roles))
	for _, name := range uwr.Roles {
		roles = append(roles, string(name))
	}
	httpx.JSON(w, http.StatusOK, userResponse{
		ID: uwr.User.ID.String(), Email: uwr.User.Email, FullName: uwr.User.FullName,
		IsActive: uwr.User.IsActive, CreatedAt: uwr.User.CreatedAt, Roles: roles,
	})
}
