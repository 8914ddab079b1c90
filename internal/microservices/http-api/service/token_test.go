package service

import (
	"testing"
	"time"

	"yamdb/internal/microservices/http-api/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	user := &models.User{ID: "user-1", Username: "alice", Role: models.RoleModerator}

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	t.Run("RoundTrip", func(t *testing.T) {
		claims, err := issuer.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, models.RoleModerator, claims.Role)

		actor := claims.Actor()
		assert.Equal(t, "alice", actor.Username)
		assert.False(t, actor.IsAdmin())
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewTokenIssuer("another-secret-0123456789abcdef01", time.Hour)
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	})

	t.Run("Expired", func(t *testing.T) {
		later := NewTokenIssuer(testSecret, time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	})

	t.Run("WrongAlgorithm", func(t *testing.T) {
		claims := &Claims{
			UserID: "user-1",
			Role:   models.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tokenIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Parse(unsigned)
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	})
}
