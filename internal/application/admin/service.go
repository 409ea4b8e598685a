// Package admin guards the operator surface. The gate is deliberately a
// single shared credential: the operator pool is one person with a phone,
// not a user base.
package admin

import (
	"errors"
	"fmt"

	"github.com/go-autopost/internal/config"
	"github.com/go-autopost/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer mints a session token after the credential check passes.
// *jwtinfra.Provider satisfies it.
type TokenIssuer interface {
	Sign() (string, error)
}

type Service interface {
	Login(password string) (string, error)
}

type service struct {
	hash   []byte
	issuer TokenIssuer
}

// NewService prefers a pre-computed bcrypt hash from the environment; a
// plaintext dev credential is hashed at startup so the comparison path is
// the same either way.
func NewService(cfg *config.Config, issuer TokenIssuer) (Service, error) {
	var hash []byte
	switch {
	case cfg.AdminPasswordHash != "":
		hash = []byte(cfg.AdminPasswordHash)
	case cfg.AdminPassword != "":
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		hash = h
	default:
		return nil, errors.New("either ADMIN_PASSWORD_HASH or ADMIN_PASSWORD must be set")
	}
	return &service{hash: hash, issuer: issuer}, nil
}

func (s *service) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		return "", fmt.Errorf("credential check failed: %w", domain.ErrUnauthorized)
	}
	token, err := s.issuer.Sign()
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}
