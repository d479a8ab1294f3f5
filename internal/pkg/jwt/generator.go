// internal/pkg/jwt/generator.go
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator mints tokens in the identity service's format. The API never
// issues tokens itself; this backs local tooling and tests.
type Generator struct {
	secret   []byte
	issuer   string
	audience string
	Ttl      time.Duration
}

func NewGenerator(secret, issuer, audience string, ttl time.Duration) *Generator {
	return &Generator{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		Ttl:      ttl,
	}
}

// Generate signs an access token for the given user.
func (g *Generator) Generate(userID uuid.UUID, email string, metadata map[string]interface{}) (string, error) {
	if len(g.secret) == 0 {
		return "", fmt.Errorf("jwt generator has no signing secret")
	}

	now := time.Now()
	claims := &Claims{
		Email:        email,
		Role:         "authenticated",
		UserMetadata: metadata,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.Ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}
	if g.audience != "" {
		claims.Audience = []string{g.audience}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}
