package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func TestVerifierAcceptsGeneratedToken(t *testing.T) {
	userID := uuid.New()
	gen := NewGenerator(testSecret, "https://auth.example", "authenticated", time.Hour)
	token, err := gen.Generate(userID, "owner@example.com", map[string]interface{}{"full_name": "Ada Owner"})
	require.NoError(t, err)

	claims, err := NewVerifier(testSecret, "https://auth.example", "authenticated").Verify(token)
	require.NoError(t, err)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, id)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, "Ada Owner", claims.FullName())
}

func TestVerifierRejects(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				tok, err := NewGenerator("another-secret-another-secret-1234", "https://auth.example", "authenticated", time.Hour).Generate(userID, "a@b.c", nil)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				tok, err := NewGenerator(testSecret, "https://auth.example", "authenticated", -time.Minute).Generate(userID, "a@b.c", nil)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				tok, err := NewGenerator(testSecret, "https://auth.example", "anon", time.Hour).Generate(userID, "a@b.c", nil)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				tok, err := NewGenerator(testSecret, "https://evil.example", "authenticated", time.Hour).Generate(userID, "a@b.c", nil)
				require.NoError(t, err)
				return tok
			},
		},
		{
			name: "non uuid subject",
			token: func(t *testing.T) string {
				claims := &Claims{RegisteredClaims: gojwt.RegisteredClaims{
					Issuer:    "https://auth.example",
					Subject:   "42",
					Audience:  []string{"authenticated"},
					ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
				}}
				tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
				require.NoError(t, err)
				return tok
			},
		},
		{
			name:  "garbage",
			token: func(t *testing.T) string { return "not-a-token" },
		},
	}

	v := NewVerifier(testSecret, "https://auth.example", "authenticated")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token(t))
			assert.Error(t, err)
		})
	}
}

func TestVerifierWithoutSecret(t *testing.T) {
	_, err := NewVerifier("", "", "").Verify("x.y.z")
	assert.Error(t, err)
}
