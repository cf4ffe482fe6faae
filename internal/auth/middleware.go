package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/byggbas/byggbas/internal/platform/httpx"
	"github.com/byggbas/byggbas/internal/shared"
)

// Middleware resolves the caller identity from the Authorization header and
// enforces role requirements.
type Middleware struct {
	Tokens *TokenManager
	Logger *slog.Logger
}

// Authenticate rejects requests without a valid bearer token and stores the
// resolved identity in the request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		identity, err := m.Tokens.Verify(raw)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("token rejected", slog.String("path", r.URL.Path))
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin allows only callers holding the admin role. It assumes
// Authenticate ran earlier in the chain.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := shared.IdentityFromContext(r.Context())
		if identity.TenantID == 0 {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing identity")
			return
		}
		if !identity.IsAdmin() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
