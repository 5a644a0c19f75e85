package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvhub/internal/auth"
	"cvhub/internal/role"
)

const (
	userIDKey    = "userID"
	userEmailKey = "userEmail"
	userRolesKey = "userRoles"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware validates the bearer access token and injects the user's
// identity and roles into the context.
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		rawToken := parts[1]
		if strings.TrimSpace(rawToken) == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := authService.ValidateToken(rawToken)
		if err != nil || claims.TokenType != "access" {
			abortUnauthorized(c)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userEmailKey, claims.Email)
		c.Set(userRolesKey, claims.Roles)
		c.Next()
	}
}

// RequireRoles gates the route on the caller holding at least one of the
// allowed roles. Missing or insufficient roles answer 403 with no detail.
func RequireRoles(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, ok := RolesFromContext(c)
		if !ok || !role.ContainsAny(roles, allowed) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// UserIDFromContext reads the authenticated user id set by AuthMiddleware.
func UserIDFromContext(c *gin.Context) (uint, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// EmailFromContext reads the authenticated user's email.
func EmailFromContext(c *gin.Context) (string, bool) {
	value, ok := c.Get(userEmailKey)
	if !ok {
		return "", false
	}
	email, ok := value.(string)
	return email, ok
}

// RolesFromContext reads the authenticated user's roles.
func RolesFromContext(c *gin.Context) ([]string, bool) {
	value, ok := c.Get(userRolesKey)
	if !ok {
		return nil, false
	}
	roles, ok := value.([]string)
	return roles, ok
}
