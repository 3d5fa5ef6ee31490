package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ram-app/ram-api/internal/models"
)

var testUser = models.User{
	ID:   "5c0d0b2e-6f6e-4a0a-9a57-2f7f6a1f3a11",
	Name: "Ana Souza",
	Role: models.RoleTutor,
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := codec.Encode(testUser)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, claims.Subject)
	assert.Equal(t, testUser.Name, claims.Name)
	assert.Equal(t, testUser.Role, claims.Role)
	assert.WithinDuration(t, time.Now().Add(TTL), claims.Expires, 5*time.Second)
}

func TestDecodeRejectsTamperedSignature(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := NewCodec("other-secret").Encode(testUser)
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	codec := NewCodec("test-secret")

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.Decode(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestDecodeRejectsUnexpectedAlgorithm(t *testing.T) {
	codec := NewCodec("test-secret")

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Name:    testUser.Name,
		Role:    testUser.Role,
		Expires: time.Now().Add(time.Hour),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testUser.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDecodeRejectsExpiredEnvelope(t *testing.T) {
	codec := NewCodec("test-secret")

	// Validly signed token whose expiry is already in the past.
	past := time.Now().Add(-time.Hour)
	claims := Claims{
		Name:    testUser.Name,
		Role:    testUser.Role,
		Expires: past,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testUser.ID,
			IssuedAt:  jwt.NewNumericDate(past.Add(-TTL)),
			ExpiresAt: jwt.NewNumericDate(past),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestDecodeRejectsExpiredPayloadClaim(t *testing.T) {
	codec := NewCodec("test-secret")

	// Envelope exp still valid, payload-level expiry passed. Both must be
	// honored.
	claims := Claims{
		Name:    testUser.Name,
		Role:    testUser.Role,
		Expires: time.Now().Add(-time.Minute),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testUser.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestDecodeRejectsMissingSubject(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := codec.Encode(models.User{Name: "no id"})
	require.NoError(t, err)

	_, err = codec.Decode(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
