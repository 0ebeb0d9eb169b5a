package inbox

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shala-app/shala/internal/platform/httpx"
	"github.com/shala-app/shala/internal/rbac"
)

// Handler manages inbox endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inbox routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/queries", h.listQueries)
	r.Post("/queries/{id}/resolve", h.resolveQuery)
	r.Get("/messages", h.listMessages)
	r.Post("/messages/{id}/read", h.markMessageRead)
}

type queryResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type messageResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (h *Handler) listQueries(w http.ResponseWriter, r *http.Request) {
	queries, err := h.service.ListQueries(r.Context(), rbac.EvaluatorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]queryResponse, 0, len(queries))
	for _, q := range queries {
		out = append(out, queryResponse{
			ID: q.ID.String(), Email: q.Email, Subject: q.Subject,
			Body: q.Body, Status: string(q.Status), CreatedAt: q.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) resolveQuery(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	q, err := h.service.ResolveQuery(r.Context(), rbac.EvaluatorFromContext(r.Context()), id)
	if err != nil {
		h.logFailure("resolve query", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, queryResponse{
		ID: q.ID.String(), Email: q.Email, Subject: q.Subject,
		Body: q.Body, Status: string(q.Status), CreatedAt: q.CreatedAt,
	})
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.ListMessages(r.Context(), rbac.EvaluatorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			ID: m.ID.String(), Email: m.Email, Body: m.Body,
			ReadAt: m.ReadAt, CreatedAt: m.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) markMessageRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	m, err := h.service.MarkMessageRead(r.Context(), rbac.EvaluatorFromContext(r.Context()), id)
	if err != nil {
		h.logFailure("mark message read", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResponse{
		ID: m.ID.String(), Email: m.Email, Body: m.Body,
		ReadAt: m.ReadAt, CreatedAt: m.CreatedAt,
	})
}

func (h *Handler) logFailure(op string, err error) {
	if h.logger != nil {
		h.logger.Debug(op, slog.Any("error", err))
	}
}
