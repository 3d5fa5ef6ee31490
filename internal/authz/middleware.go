package authz

import (
	"errors"
	"net/http"

	"github.com/ram-app/ram-api/internal/models"
)

// Authenticate rejects requests without a valid session and stores the
// caller's identity on the context for downstream handlers.
func (g *Guard) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.RequireAuthenticated(r)
		if err != nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		ctx := WithIdentity(r.Context(), sess.UserID, sess.Name, sess.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoleMiddleware gates a subrouter on a persisted role.
func (g *Guard) RequireRoleMiddleware(role models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := g.RequireRole(r, role); err != nil {
				switch {
				case errors.Is(err, ErrUnauthorized):
					http.Error(w, "authentication required", http.StatusUnauthorized)
				case errors.Is(err, ErrForbidden):
					http.Error(w, "insufficient permissions", http.StatusForbidden)
				default:
					http.Error(w, "authorization check failed", http.StatusInternalServerError)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
