// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"inboker-service/internal/domain/profile"
	"inboker-service/internal/pkg/response"
	"inboker-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

// Authenticator turns an access token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Principal, error)
}

type AuthMiddleware struct {
	auth       Authenticator
	cookieName string
}

func NewAuthMiddleware(auth Authenticator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		auth:       auth,
		cookieName: cookieName,
	}
}

// Auth validates the access token and stores the principal on the context.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		principal, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireRole requires the principal to hold one of roles.
// MUST be used after Auth().
func (m *AuthMiddleware) RequireRole(roles ...profile.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "authentication required", nil)
			return
		}

		if !principal.HasRole(roles...) {
			response.Error(c, http.StatusForbidden, "insufficient permissions", nil, map[string]interface{}{
				"required_roles": roles,
				"role":           principal.Role,
			})
			return
		}

		c.Next()
	}
}

// AdminOnly returns Auth + RequireRole(admin).
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(profile.RoleAdmin),
	}
}

// OwnerOnly returns Auth + RequireRole(business_owner).
func (m *AuthMiddleware) OwnerOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(profile.RoleBusinessOwner),
	}
}

// OptionalAuth sets the principal when a valid token is present and never aborts.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		principal, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// extractToken reads the bearer header, then the session cookie.
func (m *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	if m.cookieName != "" {
		if token, err := c.Cookie(m.cookieName); err == nil && token != "" {
			return token
		}
	}

	return ""
}
