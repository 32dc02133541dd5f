package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACService_RoundTrip(t *testing.T) {
	s := NewHMACService("secret")
	user := uuid.New()

	tok, err := s.Issue(user, "a@b.c", time.Minute)
	require.NoError(t, err)

	c, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, user, c.UserID)
	assert.Equal(t, "a@b.c", c.Email)
}

func TestHMACService_Expired(t *testing.T) {
	s := NewHMACService("secret")
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	tok, err := s.Issue(uuid.New(), "", time.Minute)
	require.NoError(t, err)

	s.now = func() time.Time { return base.Add(time.Hour) }
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestHMACService_Rejects(t *testing.T) {
	s := NewHMACService("secret")

	other, err := NewHMACService("other").Issue(uuid.New(), "", time.Minute)
	require.NoError(t, err)
	_, err = s.Verify(other)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = s.Verify("garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	refresh := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		UserID:    uuid.New(),
		TokenType: "refresh",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := refresh.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = s.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = NewHMACService("").Issue(uuid.New(), "", time.Minute)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
