// internal/pkg/session/types.go
package session

import (
	"inboker-service/internal/domain/profile"

	"github.com/google/uuid"
)

// Principal is the authenticated caller: identity from the access token,
// role from the application's profile table.
type Principal struct {
	UserID   uuid.UUID    `json:"user_id"`
	Email    string       `json:"email"`
	FullName string       `json:"full_name,omitempty"`
	Role     profile.Role `json:"role"`
}

func (p *Principal) HasRole(roles ...profile.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
