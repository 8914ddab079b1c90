package service

import (
	"errors"
	"fmt"
	"time"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/policy"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "yamdb"

// Claims carries enough of the user to authorize a request without a lookup.
type Claims struct {
	UserID      string      `json:"user_id"`
	Username    string      `json:"username"`
	Role        models.Role `json:"role"`
	IsSuperuser bool        `json:"is_superuser,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the identity the policy evaluates.
func (c *Claims) Actor() *policy.Actor {
	return &policy.Actor{
		UserID:      c.UserID,
		Username:    c.Username,
		Role:        c.Role,
		IsSuperuser: c.IsSuperuser,
	}
}

// TokenIssuer mints and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		IsSuperuser: user.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidAccessToken
	}
	if !token.Valid || !claims.Role.IsValid() {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}
