package authz

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/session"
	"github.com/ram-app/ram-api/internal/token"
)

type fakeDirectory struct {
	users map[string]models.User
}

func (f *fakeDirectory) GetUserByID(_ context.Context, userID string) (models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return user, nil
}

type fakeOwners struct {
	pairs map[[2]string]bool
}

func (f *fakeOwners) IsOwner(_ context.Context, petID, userID string) (bool, error) {
	return f.pairs[[2]string{petID, userID}], nil
}

func newTestGuard(t *testing.T) (*Guard, *session.Store, *fakeDirectory, *fakeOwners) {
	t.Helper()
	store := session.NewStore(token.NewCodec("test-secret"), false)
	dir := &fakeDirectory{users: map[string]models.User{}}
	owners := &fakeOwners{pairs: map[[2]string]bool{}}
	return NewGuard(store, dir, owners), store, dir, owners
}

func authedRequest(t *testing.T, store *session.Store, user models.User) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	raw, err := store.Start(rec, user)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	return req
}

func TestRequireAuthenticated(t *testing.T) {
	guard, store, _, _ := newTestGuard(t)

	_, err := guard.RequireAuthenticated(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrUnauthorized)

	user := models.User{ID: "u1", Name: "Ana", Role: models.RoleTutor}
	sess, err := guard.RequireAuthenticated(authedRequest(t, store, user))
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
}

func TestRequireRoleReadsPersistedRole(t *testing.T) {
	guard, store, dir, _ := newTestGuard(t)

	// Token claims admin, storage says tutor: access denied.
	user := models.User{ID: "u1", Name: "Ana", Role: models.RoleAdmin}
	dir.users["u1"] = models.User{ID: "u1", Role: models.RoleTutor, IsActive: true}

	req := authedRequest(t, store, user)
	_, err := guard.RequireRole(req, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)

	// Promote in storage; the very same token now passes.
	dir.users["u1"] = models.User{ID: "u1", Role: models.RoleAdmin, IsActive: true}
	_, err = guard.RequireRole(req, models.RoleAdmin)
	assert.NoError(t, err)
}

func TestRequireRoleDeniesInactiveUser(t *testing.T) {
	guard, store, dir, _ := newTestGuard(t)

	user := models.User{ID: "u1", Role: models.RoleAdmin}
	dir.users["u1"] = models.User{ID: "u1", Role: models.RoleAdmin, IsActive: false}

	_, err := guard.RequireRole(authedRequest(t, store, user), models.RoleAdmin)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRequireRoleUnknownUserIsUnauthorized(t *testing.T) {
	guard, store, _, _ := newTestGuard(t)

	user := models.User{ID: "ghost", Role: models.RoleAdmin}
	_, err := guard.RequireRole(authedRequest(t, store, user), models.RoleAdmin)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRequireOwnership(t *testing.T) {
	guard, store, _, owners := newTestGuard(t)

	user := models.User{ID: "u1", Role: models.RoleTutor}
	req := authedRequest(t, store, user)

	_, err := guard.RequireOwnership(req, "p1")
	assert.ErrorIs(t, err, ErrForbidden)

	owners.pairs[[2]string{"p1", "u1"}] = true
	sess, err := guard.RequireOwnership(req, "p1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)

	_, err = guard.RequireOwnership(httptest.NewRequest(http.MethodGet, "/", nil), "p1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticateMiddleware(t *testing.T) {
	guard, store, _, _ := newTestGuard(t)

	var gotUserID string
	handler := guard.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromRequest(r)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user := models.User{ID: "u1", Name: "Ana", Role: models.RoleTutor}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(t, store, user))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", gotUserID)
}
