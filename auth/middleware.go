package auth

import (
	"net/http"
	"strings"

	"github.com/getstreetcred/backend/models"
	"github.com/gin-gonic/gin"
)

const identityKey = "streetcred.identity"

// Identity is the caller resolved from a bearer token
type Identity struct {
	UserID string
	Role   models.Role
}

// IsAdmin reports whether the caller holds the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Anonymous reports whether no user was resolved
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}

// Middleware reads an optional bearer token. Requests without one pass
// through anonymously; a malformed or expired token is rejected with 401.
func Middleware(tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format", "kind": "unauthorized"})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "kind": "unauthorized"})
			return
		}

		c.Set(identityKey, Identity{UserID: claims.Subject, Role: claims.Role})
		c.Next()
	}
}

// FromContext returns the token identity, if the request carried one
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
