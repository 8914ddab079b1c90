package middleware

import (
	"net/http"
	"strings"

	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/policy"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// TokenValidator parses bearer tokens into claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// Authenticate resolves the bearer token, if any, into request claims.
// Requests without an Authorization header continue anonymously; a present
// but invalid token is rejected with 401.
func Authenticate(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		// Set user info in context for handlers to use
		c.Set(claimsKey, claims)
		c.Set("userID", claims.UserID)

		c.Next()
	}
}

// RequireAuth rejects anonymous requests. It must run after Authenticate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(claimsKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated actor of the request, or nil when anonymous.
func ActorFrom(c *gin.Context) *policy.Actor {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*service.Claims)
	if !ok {
		return nil
	}
	return claims.Actor()
}
