package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shala-app/shala/internal/bookings"
	"github.com/shala-app/shala/internal/content"
	"github.com/shala-app/shala/internal/identity"
	"github.com/shala-app/shala/internal/inbox"
	"github.com/shala-app/shala/internal/observability"
	"github.com/shala-app/shala/internal/rbac"
	"github.com/shala-app/shala/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	TokenVerifier   *identity.TokenVerifier
	RBACMiddleware  rbac.Middleware
	RBACHandler     *rbac.Handler
	BookingsHandler *bookings.Handler
	InboxHandler    *inbox.Handler
	ContentHandler  *content.Handler
	UsersHandler    *users.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Shala defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:        params.Logger,
		Config:        params.Config,
		TokenVerifier: params.TokenVerifier,
		RBAC:          params.RBACMiddleware,
		Metrics:       params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		params.RBACHandler.MountRoutes(r, params.RBACMiddleware)

		r.Route("/bookings", func(r chi.Router) {
			r.Use(identity.RequireIdentity)
			params.BookingsHandler.MountRoutes(r)
		})

		r.Route("/inbox", func(r chi.Router) {
			r.Use(identity.RequireIdentity)
			r.Use(params.RBACMiddleware.RequireAdmin)
			params.InboxHandler.MountRoutes(r)
		})

		r.Route("/content", func(r chi.Router) {
			params.ContentHandler.MountRoutes(r)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(identity.RequireIdentity)
			r.Use(params.RBACMiddleware.RequireAdmin)
			params.UsersHandler.MountRoutes(r)
		})
	})

	return r
}
