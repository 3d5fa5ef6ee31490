package authz

import (
	"context"
	"net/http"

	"github.com/ram-app/ram-api/internal/models"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	userNameKey contextKey = "user_name"
	userRoleKey contextKey = "user_role"
)

// WithIdentity stores the caller's id, display name and token-claimed role
// on the context. The role here is advisory; sensitive checks go back to
// storage.
func WithIdentity(ctx context.Context, userID, name string, role models.UserRole) context.Context {
	if userID != "" {
		ctx = context.WithValue(ctx, userIDKey, userID)
	}
	if name != "" {
		ctx = context.WithValue(ctx, userNameKey, name)
	}
	if models.IsValidRole(role) {
		ctx = context.WithValue(ctx, userRoleKey, role)
	}
	return ctx
}

func UserIDFromRequest(r *http.Request) (string, bool) {
	uid, ok := r.Context().Value(userIDKey).(string)
	if !ok || uid == "" {
		return "", false
	}
	return uid, true
}

func UserNameFromRequest(r *http.Request) (string, bool) {
	name, ok := r.Context().Value(userNameKey).(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

func RoleFromRequest(r *http.Request) (models.UserRole, bool) {
	role, ok := r.Context().Value(userRoleKey).(models.UserRole)
	if !ok || !models.IsValidRole(role) {
		return "", false
	}
	return role, true
}
