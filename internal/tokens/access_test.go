package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

func TestSignAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken(42, "user@example.com", 15*time.Minute, testSecret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, testSecret)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestAccessClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	expired, err := SignAccessToken(1, "a@b.c", -time.Minute, testSecret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(expired, testSecret)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))

	valid, err := SignAccessToken(1, "a@b.c", time.Minute, testSecret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(valid, []byte("other-secret"))
	assert.Error(t, err)

	_, err = AccessClaimsFromToken("not-a-jwt", testSecret)
	assert.Error(t, err)
}

func TestUserID_InvalidSubject(t *testing.T) {
	t.Parallel()

	c := AccessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrInvalidSubject)

	c.Subject = "0"
	_, err = c.UserID()
	assert.ErrorIs(t, err, ErrInvalidSubject)
}
