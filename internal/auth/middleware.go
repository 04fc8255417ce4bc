package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eden/internal/models"
)

const actorKey = "actor"

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, status, msg := authenticate(c, iss)
		if claims == nil {
			c.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": "authentication"})
			return
		}
		c.Set(actorKey, claims.Actor())
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is present and valid, and lets
// anonymous requests through otherwise.
func OptionalAuth(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, _, _ := authenticate(c, iss); claims != nil {
			c.Set(actorKey, claims.Actor())
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a, ok := ActorFrom(c); !ok || !a.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required", "kind": "authorization"})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the caller set by the middlewares above; the zero Actor is anonymous.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	a, ok := v.(models.Actor)
	return a, ok
}

func authenticate(c *gin.Context, iss *Issuer) (*Claims, int, string) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, http.StatusUnauthorized, "No token provided"
	}
	claims, err := iss.Parse(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid token"
	}
	return claims, 0, ""
}
