package bookings

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shala-app/shala/internal/platform/httpx"
	"github.com/shala-app/shala/internal/rbac"
)

// Handler manages booking endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}/status", h.updateStatus)
}

type bookingResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ClassName string    `json:"class_name"`
	StartsAt  time.Time `json:"starts_at"`
	Status    string    `json:"status"`
}

func toResponse(b Booking) bookingResponse {
	return bookingResponse{
		ID:        b.ID.String(),
		OwnerID:   b.OwnerID.String(),
		ClassName: b.ClassName,
		StartsAt:  b.StartsAt,
		Status:    string(b.Status),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := rbac.EvaluatorFromContext(r.Context())
	items, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.fail(w, "list bookings", err)
		return
	}
	out := make([]bookingResponse, 0, len(items))
	for _, b := range items {
		out = append(out, toResponse(b))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	b, err := h.service.Get(r.Context(), rbac.EvaluatorFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "get booking", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(b))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	b, err := h.service.UpdateStatus(r.Context(), rbac.EvaluatorFromContext(r.Context()), id, Status(req.Status))
	if err != nil {
		h.fail(w, "update booking status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(b))
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Debug(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
