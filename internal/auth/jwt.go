package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ckcelina/my-wishlist-sub002/pkg/middleware"
)

// clockSkew is tolerated on exp, nbf and iat.
const clockSkew = 30 * time.Second

// Claims are the session token claims. The user id is the subject.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 session tokens issued by the auth provider.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifier creates a verifier. Empty audience or issuer are not checked.
func NewVerifier(secret, audience, issuer string) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(opts...),
	}
}

// Validate parses and validates a token. It satisfies
// middleware.TokenValidator.
func (v *Verifier) Validate(tokenString string) (*middleware.Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid session token")
	}
	if claims.Subject == "" {
		return nil, errors.New("session token has no subject")
	}

	return &middleware.Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
