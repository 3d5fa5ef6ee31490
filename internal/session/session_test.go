package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/token"
)

var testUser = models.User{
	ID:   "0b6f1a1e-9a76-4a27-8a9b-aaf0f0a51c02",
	Name: "Bruno Lima",
	Role: models.RoleProvider,
}

func newTestStore() *Store {
	return NewStore(token.NewCodec("test-secret"), false)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", CookieName)
	return nil
}

func TestStartThenCurrent(t *testing.T) {
	store := newTestStore()

	rec := httptest.NewRecorder()
	raw, err := store.Start(rec, testUser)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, raw, cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	sess := store.Current(req)
	require.NotNil(t, sess)
	assert.Equal(t, testUser.ID, sess.UserID)
	assert.Equal(t, testUser.Role, sess.Role)
	assert.True(t, sess.ExpiresAt.After(time.Now()))
}

func TestCurrentAcceptsBearerToken(t *testing.T) {
	store := newTestStore()

	rec := httptest.NewRecorder()
	raw, err := store.Start(rec, testUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	sess := store.Current(req)
	require.NotNil(t, sess)
	assert.Equal(t, testUser.ID, sess.UserID)
}

func TestCurrentIsNilWithoutToken(t *testing.T) {
	store := newTestStore()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, store.Current(req))
}

func TestCurrentDegradesOnGarbageToken(t *testing.T) {
	store := newTestStore()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})

	assert.Nil(t, store.Current(req))
}

func TestCurrentRejectsForeignSignature(t *testing.T) {
	store := newTestStore()

	rec := httptest.NewRecorder()
	raw, err := NewStore(token.NewCodec("another-secret"), false).Start(rec, testUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	assert.Nil(t, store.Current(req))
}

func TestEndOverwritesWithPastExpiry(t *testing.T) {
	store := newTestStore()

	rec := httptest.NewRecorder()
	store.End(rec)

	cookie := sessionCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.Expires.Before(time.Now()))
	assert.Negative(t, cookie.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	assert.Nil(t, store.Current(req))
}
