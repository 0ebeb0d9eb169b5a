package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shala-app/shala/internal/identity"
	"github.com/shala-app/shala/internal/platform/httpx"
)

type evaluatorContextKey struct{}

// ContextWithEvaluator stores a resolved evaluator in context.
func ContextWithEvaluator(ctx context.Context, ev Evaluator) context.Context {
	return context.WithValue(ctx, evaluatorContextKey{}, ev)
}

// EvaluatorFromContext extracts the request's evaluator. The zero evaluator
// (deny everything) is returned when none was resolved.
func EvaluatorFromContext(ctx context.Context) Evaluator {
	ev, _ := ctx.Value(evaluatorContextKey{}).(Evaluator)
	return ev
}

// Middleware wires authorization guards for HTTP handlers.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// WithEvaluator resolves the caller's roles once per request and stashes the
// evaluator in context. Downstream guards and handlers reuse that single
// snapshot, so one request never sees two different role sets.
func (m Middleware) WithEvaluator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromContext(r.Context())
		ev, err := m.Resolver.Resolve(r.Context(), id)
		if err != nil && m.Logger != nil {
			// Resolution failure leaves the evaluator empty: fail closed.
			m.Logger.Error("resolve roles", slog.String("identity", id.ID.String()), slog.Any("error", err))
		}
		next.ServeHTTP(w, r.WithContext(ContextWithEvaluator(r.Context(), ev)))
	})
}

// RequireAdmin ensures the caller is admin-equivalent.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !EvaluatorFromContext(r.Context()).IsAdmin() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the caller holds at least one of the named roles.
func (m Middleware) RequireRole(names ...RoleName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !EvaluatorFromContext(r.Context()).HasAnyRole(names...) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "required role not held")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoleManager ensures the caller may mutate roles and assignments.
func (m Middleware) RequireRoleManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !EvaluatorFromContext(r.Context()).CanManageRoles() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "role management requires super_admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}
