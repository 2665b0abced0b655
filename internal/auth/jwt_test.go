package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-with-enough-entropy"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() Claims {
	now := time.Now()
	return Claims{
		Email: "ada@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    "https://auth.example.com",
			Audience:  jwt.ClaimStrings{"authenticated"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestValidate_Success(t *testing.T) {
	v := NewVerifier(testSecret, "authenticated", "https://auth.example.com")
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	claims, err := v.Validate(token)

	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Claims)
		method jwt.SigningMethod
		key    any
	}{
		{
			name:   "expired",
			mutate: func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour)) },
		},
		{
			name:   "no expiry",
			mutate: func(c *Claims) { c.ExpiresAt = nil },
		},
		{
			name:   "wrong audience",
			mutate: func(c *Claims) { c.Audience = jwt.ClaimStrings{"service_role"} },
		},
		{
			name:   "wrong issuer",
			mutate: func(c *Claims) { c.Issuer = "https://evil.example.com" },
		},
		{
			name:   "missing subject",
			mutate: func(c *Claims) { c.Subject = "" },
		},
		{
			name: "wrong secret",
			key:  []byte("another-secret"),
		},
		{
			name:   "other hmac method",
			method: jwt.SigningMethodHS512,
		},
	}

	v := NewVerifier(testSecret, "authenticated", "https://auth.example.com")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := validClaims()
			if tt.mutate != nil {
				tt.mutate(&claims)
			}
			method := tt.method
			if method == nil {
				method = jwt.SigningMethodHS256
			}
			key := tt.key
			if key == nil {
				key = []byte(testSecret)
			}

			got, err := v.Validate(signToken(t, method, key, claims))

			require.Error(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestValidate_Garbage(t *testing.T) {
	v := NewVerifier(testSecret, "", "")

	_, err := v.Validate("not-a-jwt")

	require.Error(t, err)
}

func TestValidate_UncheckedAudienceAndIssuer(t *testing.T) {
	v := NewVerifier(testSecret, "", "")
	claims := validClaims()
	claims.Audience = nil
	claims.Issuer = ""

	got, err := v.Validate(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims))

	require.NoError(t, err)
	assert.Equal(t, "user-123", got.UserID)
}
