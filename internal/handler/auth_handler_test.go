package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"millorders/internal/model"
	"millorders/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserService struct {
	service.UserService
	login   func(service.LoginUserRequest) (*service.TokenResponse, error)
	refresh func(string) (*service.TokenResponse, error)
	logout  []string
	list    func(role string) ([]service.UserResponse, int64, error)
}

func (s *stubUserService) Login(_ context.Context, req service.LoginUserRequest) (*service.TokenResponse, error) {
	return s.login(req)
}

func (s *stubUserService) RefreshToken(_ context.Context, req service.RefreshTokenRequest) (*service.TokenResponse, error) {
	return s.refresh(req.RefreshToken)
}

func (s *stubUserService) Logout(_ context.Context, token string) error {
	s.logout = append(s.logout, token)
	return nil
}

func (s *stubUserService) ListUsers(_ context.Context, role string, _, _ int) ([]service.UserResponse, int64, error) {
	return s.list(role)
}

func authRouter(svc service.UserService) http.Handler {
	r := newEngine()
	NewAuthHandler(svc, testAuth(), time.Hour, 24*time.Hour).RegisterRoutes(&r.RouterGroup)
	NewStaffHandler(svc, testAuth()).RegisterRoutes(&r.RouterGroup)
	return r
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	svc := &stubUserService{login: func(req service.LoginUserRequest) (*service.TokenResponse, error) {
		assert.Equal(t, "ravi@mill.example", req.Email)
		return &service.TokenResponse{Token: "access-1", RefreshToken: "refresh-1"}, nil
	}}

	w := do(t, authRouter(svc), http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ravi@mill.example", "password": "atta-123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	access := cookieNamed(w, "access_token")
	require.NotNil(t, access)
	assert.Equal(t, "access-1", access.Value)
	assert.True(t, access.HttpOnly)
	require.NotNil(t, cookieNamed(w, "refresh_token"))
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := &stubUserService{login: func(service.LoginUserRequest) (*service.TokenResponse, error) {
		return nil, service.ErrInvalidCredentials
	}}

	w := do(t, authRouter(svc), http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ravi@mill.example", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, cookieNamed(w, "access_token"))

	w = do(t, authRouter(svc), http.MethodPost, "/api/auth/login", "", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefresh_PrefersCookieOverBody(t *testing.T) {
	var used string
	svc := &stubUserService{refresh: func(token string) (*service.TokenResponse, error) {
		used = token
		return &service.TokenResponse{Token: "access-2", RefreshToken: "refresh-2"}, nil
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"from-body"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "from-cookie"})
	w := httptest.NewRecorder()
	authRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "from-cookie", used)

	w = do(t, authRouter(svc), http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": "from-body"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "from-body", used)
}

func TestRefresh_RejectedTokenClearsCookies(t *testing.T) {
	svc := &stubUserService{refresh: func(string) (*service.TokenResponse, error) {
		return nil, fmt.Errorf("lookup: %w", service.ErrInvalidRefreshToken)
	}}

	w := do(t, authRouter(svc), http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh_token": "stale"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cleared := cookieNamed(w, "access_token")
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestLogout_RevokesCookieToken(t *testing.T) {
	svc := &stubUserService{}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "refresh-9"})
	w := httptest.NewRecorder()
	authRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"refresh-9"}, svc.logout)

	w = do(t, authRouter(svc), http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, svc.logout, 1, "no cookie, nothing to revoke")
}

func TestListStaff_NeedsUsersManage(t *testing.T) {
	svc := &stubUserService{list: func(role string) ([]service.UserResponse, int64, error) {
		return []service.UserResponse{{Username: "kiran", Role: role}}, 1, nil
	}}

	w := do(t, authRouter(svc), http.MethodGet, "/api/staff", bearer(t, uuid.New(), model.RoleManager), nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "managers do not hold users.manage")

	w = do(t, authRouter(svc), http.MethodGet, "/api/staff?role=production", bearer(t, uuid.New(), model.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(decode(t, w).Data), `"role":"production"`)
}
