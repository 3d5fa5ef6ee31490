package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ram-app/ram-api/internal/models"
)

var (
	// ErrInvalidToken covers malformed input, signature mismatch and
	// unexpected signing algorithms.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when either the envelope expiry or the
	// payload-level expiry has passed.
	ErrExpiredToken = errors.New("token expired")
)

// TTL is the fixed session lifetime.
const TTL = 7 * 24 * time.Hour

// Claims is the signed session payload. Expires duplicates the envelope
// exp claim on purpose: both are validated on decode, and a token is
// rejected if either has passed.
type Claims struct {
	Name    string          `json:"name"`
	Role    models.UserRole `json:"role"`
	Expires time.Time       `json:"expires"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a symmetric secret (HS256).
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Encode issues a token for the given user, valid for TTL from now.
func (c *Codec) Encode(user models.User) (string, error) {
	now := c.now()
	expires := now.Add(TTL)

	claims := Claims{
		Name:    user.Name,
		Role:    user.Role,
		Expires: expires,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the signature and both expiry checks, returning the
// embedded claims. The role claim is informational only; authorization
// decisions must re-check the persisted role.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	// Defense in depth: honor the payload expiry as well as the envelope's.
	if !c.now().Before(claims.Expires) {
		return nil, ErrExpiredToken
	}

	return claims, nil
}
