package authz

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/session"
)

var (
	// ErrUnauthorized means no valid session accompanied the request.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden means the session is valid but the caller lacks the
	// required role or relationship.
	ErrForbidden = errors.New("insufficient permissions")
)

// UserDirectory resolves the persisted account behind a session.
type UserDirectory interface {
	GetUserByID(ctx context.Context, userID string) (models.User, error)
}

// OwnershipChecker answers whether a user holds an owner row for a pet.
type OwnershipChecker interface {
	IsOwner(ctx context.Context, petID, userID string) (bool, error)
}

// Guard gates mutating operations. Role and ownership checks always read
// current storage instead of trusting token claims, since tokens stay
// valid for up to seven days after a role change.
type Guard struct {
	sessions *session.Store
	users    UserDirectory
	owners   OwnershipChecker
}

func NewGuard(sessions *session.Store, users UserDirectory, owners OwnershipChecker) *Guard {
	return &Guard{sessions: sessions, users: users, owners: owners}
}

// RequireAuthenticated resolves the caller's session or fails with
// ErrUnauthorized. Read-only; no storage access.
func (g *Guard) RequireAuthenticated(r *http.Request) (*session.Session, error) {
	sess := g.sessions.Current(r)
	if sess == nil {
		return nil, ErrUnauthorized
	}
	return sess, nil
}

// RequireRole checks the persisted role of the authenticated caller. A
// stale role claim in a still-valid token never grants access.
func (g *Guard) RequireRole(r *http.Request, role models.UserRole) (*session.Session, error) {
	sess, err := g.RequireAuthenticated(r)
	if err != nil {
		return nil, err
	}

	user, err := g.users.GetUserByID(r.Context(), sess.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive || user.Role != role {
		return nil, ErrForbidden
	}
	return sess, nil
}

// RequireOwnership checks that the authenticated caller holds an owner row
// for the pet.
func (g *Guard) RequireOwnership(r *http.Request, petID string) (*session.Session, error) {
	sess, err := g.RequireAuthenticated(r)
	if err != nil {
		return nil, err
	}

	isOwner, err := g.owners.IsOwner(r.Context(), petID, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !isOwner {
		return nil, ErrForbidden
	}
	return sess, nil
}
