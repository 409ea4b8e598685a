package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-autopost/internal/config"
	jwtinfra "github.com/go-autopost/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, ttl time.Duration) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider(&config.Config{
		AdminSessionSecret: "test-secret",
		AdminSessionTTL:    ttl,
	})
	require.NoError(t, err)
	return p
}

func protected(t *testing.T, provider *jwtinfra.Provider) http.Handler {
	t.Helper()
	return Auth(provider)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "admin", claims.Role)
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuth_ValidBearerToken(t *testing.T) {
	provider := newTestProvider(t, time.Hour)
	token, err := provider.Sign()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/verifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(t, provider).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_ValidSessionCookie(t *testing.T) {
	provider := newTestProvider(t, time.Hour)
	token, err := provider.Sign()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	protected(t, provider).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_MissingToken(t *testing.T) {
	provider := newTestProvider(t, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/admin/verifications", nil)
	rec := httptest.NewRecorder()
	protected(t, provider).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	expiredProvider := newTestProvider(t, -time.Minute)
	token, err := expiredProvider.Sign()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/verifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(t, expiredProvider).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_TokenSignedWithDifferentSecret(t *testing.T) {
	other, err := jwtinfra.NewProvider(&config.Config{
		AdminSessionSecret: "other-secret",
		AdminSessionTTL:    time.Hour,
	})
	require.NoError(t, err)
	token, err := other.Sign()
	require.NoError(t, err)

	provider := newTestProvider(t, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/admin/verifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(t, provider).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
