// internal/pkg/session/authenticator.go
package session

import (
	"context"

	"inboker-service/internal/pkg/jwt"
)

// Authenticator turns a bearer token into a principal.
type Authenticator struct {
	verifier *jwt.Verifier
	manager  *Manager
}

func NewAuthenticator(verifier *jwt.Verifier, manager *Manager) *Authenticator {
	return &Authenticator{verifier: verifier, manager: manager}
}

func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := a.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	return a.manager.Resolve(ctx, userID, claims.Email, claims.FullName())
}
