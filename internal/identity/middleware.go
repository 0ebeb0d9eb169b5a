package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shala-app/shala/internal/platform/httpx"
)

// Middleware attaches the verified identity to the request context.
//
// Requests without a bearer token pass through unauthenticated so that public
// endpoints keep working; requests with a token that fails verification are
// rejected outright rather than silently downgraded to anonymous.
func Middleware(verifier *TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "malformed authorization header")
				return
			}

			id, err := verifier.Verify(raw)
			if err != nil {
				if logger != nil {
					logger.Warn("token verification failed", slog.String("path", r.URL.Path))
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token verification failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

// RequireIdentity rejects requests that carry no authenticated identity.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()).IsZero() {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
