package jwtinfra

import (
	"errors"
	"time"

	"github.com/go-autopost/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields for an admin session.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 session tokens for the admin surface.
// The admin gate is a single shared credential, so tokens carry no user
// identity beyond the role.
type Provider struct {
	secret []byte
	expiry time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.AdminSessionSecret == "" {
		return nil, errors.New("ADMIN_SESSION_SECRET is required")
	}
	return &Provider{secret: []byte(cfg.AdminSessionSecret), expiry: cfg.AdminSessionTTL}, nil
}

func (p *Provider) Sign() (string, error) {
	claims := Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
