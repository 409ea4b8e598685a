package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-autopost/internal/domain"
	"github.com/go-autopost/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdminSvc struct {
	password string
	token    string
}

func (f fakeAdminSvc) Login(password string) (string, error) {
	if password != f.password {
		return "", fmt.Errorf("credential check failed: %w", domain.ErrUnauthorized)
	}
	return f.token, nil
}

func TestLogin_CorrectPassword_TokenAndCookie(t *testing.T) {
	h := NewLoginHandler(fakeAdminSvc{password: "hunter2", token: "tok"}, time.Hour)

	body := bytes.NewBufferString(`{"password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/login", body)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Bearer":"tok"`)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
	assert.Equal(t, "admin_session", middleware.SessionCookie)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogin_WrongPassword_Unauthorized(t *testing.T) {
	h := NewLoginHandler(fakeAdminSvc{password: "hunter2", token: "tok"}, time.Hour)

	body := bytes.NewBufferString(`{"password":"guess"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/login", body)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogin_MissingPassword_BadRequest(t *testing.T) {
	h := NewLoginHandler(fakeAdminSvc{password: "hunter2", token: "tok"}, time.Hour)

	body := bytes.NewBufferString(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/login", body)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
