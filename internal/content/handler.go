package content

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shala-app/shala/internal/platform/httpx"
	"github.com/shala-app/shala/internal/rbac"
)

// Handler manages article endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers article routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{slug}", h.get)
	r.Post("/", h.create)
	r.Put("/{slug}", h.update)
	r.Post("/{slug}/publish", h.publish)
	r.Post("/{slug}/unpublish", h.unpublish)
	r.Delete("/{slug}", h.delete)
}

type articleResponse struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(a Article) articleResponse {
	return articleResponse{Slug: a.Slug, Title: a.Title, Body: a.Body, Published: a.Published, CreatedAt: a.CreatedAt}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.List(r.Context(), rbac.EvaluatorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, toResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Get(r.Context(), rbac.EvaluatorFromContext(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

type articleRequest struct {
	Slug  string `json:"slug" validate:"required"`
	Title string `json:"title" validate:"required"`
	Body  string `json:"body"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	a, err := h.service.Create(r.Context(), rbac.EvaluatorFromContext(r.Context()), req.Slug, req.Title, req.Body)
	if err != nil {
		h.logFailure("create article", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(a))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title" validate:"required"`
		Body  string `json:"body"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	a, err := h.service.Update(r.Context(), rbac.EvaluatorFromContext(r.Context()), chi.URLParam(r, "slug"), req.Title, req.Body)
	if err != nil {
		h.logFailure("update article", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *Handler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	a, err := h.service.SetPublished(r.Context(), rbac.EvaluatorFromContext(r.Context()), chi.URLParam(r, "slug"), published)
	if err != nil {
		h.logFailure("set article published", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), rbac.EvaluatorFromContext(r.Context()), chi.URLParam(r, "slug")); err != nil {
		h.logFailure("delete article", err)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logFailure(op string, err error) {
	if h.logger != nil {
		h.logger.Debug(op, slog.Any("error", err))
	}
}
