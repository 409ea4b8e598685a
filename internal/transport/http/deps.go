package http

import (
	"context"
	"time"

	"github.com/go-autopost/internal/application/admin"
	"github.com/go-autopost/internal/application/verification"
	jwtinfra "github.com/go-autopost/internal/infrastructure/jwt"
)

// VerificationStore is the persistence interface the router requires; the
// DynamoDB repo and the file store both satisfy it.
type VerificationStore = verification.Store

// ScreenshotPresigner turns stored screenshot keys into browsable URLs.
// *s3infra.Store satisfies it; nil disables screenshot links.
type ScreenshotPresigner interface {
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ContentStyler rewrites a message in the platform's voice.
type ContentStyler interface {
	Style(ctx context.Context, message, platform string) (string, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Store       VerificationStore
	Presigner   ScreenshotPresigner
	Styler      ContentStyler
	AdminAuth   admin.Service
	JWTProvider *jwtinfra.Provider
}
