package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/ram-app/ram-api/internal/models"
	"github.com/ram-app/ram-api/internal/token"
)

// CookieName holds the signed session token on the client.
const CookieName = "ram_session"

// Session is the authenticated caller derived from a valid token. It is
// never persisted server-side.
type Session struct {
	UserID    string
	Name      string
	Role      models.UserRole
	ExpiresAt time.Time
}

// Store reads and writes the session token through the response/request
// cookie pair. An Authorization bearer header is accepted as a fallback
// for non-browser clients.
type Store struct {
	codec  *token.Codec
	secure bool
}

func NewStore(codec *token.Codec, secure bool) *Store {
	return &Store{codec: codec, secure: secure}
}

// Start encodes a fresh token for the user and sets it as the session
// cookie. Returns the raw token so API clients can use bearer auth.
func (s *Store) Start(w http.ResponseWriter, user models.User) (string, error) {
	raw, err := s.codec.Encode(user)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    raw,
		Path:     "/",
		Expires:  time.Now().Add(token.TTL),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return raw, nil
}

// End overwrites the cookie with an empty value whose expiry is fixed in
// the past, so the next read cannot resolve a session regardless of clock
// skew.
func (s *Store) End(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Current resolves the caller's session. Any failure (absent token,
// malformed or expired token) degrades to nil; it never errors out to
// the caller.
func (s *Store) Current(r *http.Request) *Session {
	raw := s.rawToken(r)
	if raw == "" {
		return nil
	}

	claims, err := s.codec.Decode(raw)
	if err != nil {
		return nil
	}

	return &Session{
		UserID:    claims.Subject,
		Name:      claims.Name,
		Role:      claims.Role,
		ExpiresAt: claims.Expires,
	}
}

func (s *Store) rawToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
