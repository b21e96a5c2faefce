// Package auth issues and verifies bearer tokens and tracks admin sessions.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Issuer         = "playhub-api"
	AudienceAdmin  = "playhub-admin"
	AudienceClient = "playhub-client"

	RoleAdmin  = "admin"
	RolePlayer = "player"
)

// ErrInvalidToken covers every reason a bearer token is rejected.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload used for both admin and player tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens with one shared secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer returns an issuer for secret. An empty secret is rejected.
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not configured")
	}
	return &TokenIssuer{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for subject valid for ttl.
func (i *TokenIssuer) Issue(subject, audience, role string, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, issuer, audience and expiry and returns the claims.
func (i *TokenIssuer) Parse(tokenString, audience string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
