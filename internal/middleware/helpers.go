// internal/middleware/helpers.go
package middleware

import (
	"inboker-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

func SetPrincipal(c *gin.Context, p *session.Principal) {
	c.Set(principalKey, p)
	c.Set("user_id", p.UserID.String())
}

// GetPrincipal returns the authenticated caller, if any.
func GetPrincipal(c *gin.Context) (*session.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}

	p, ok := v.(*session.Principal)
	return p, ok && p != nil
}

// MustGetPrincipal gets the principal from context or panics
func MustGetPrincipal(c *gin.Context) *session.Principal {
	p, ok := GetPrincipal(c)
	if !ok {
		panic("principal not found in context")
	}
	return p
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, ok := GetPrincipal(c)
	return ok
}
