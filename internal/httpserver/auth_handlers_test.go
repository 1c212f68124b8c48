package httpserver

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/transport"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t, 100)

	rec := env.do(http.MethodPost, "/auth/login", "", transport.LoginRequest{Username: "accountant", Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[transport.TokenResponse](t, rec)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, models.RoleAccountant, resp.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.True(t, resp.RefreshExpiresAt.After(resp.AccessExpiresAt))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = env.do(http.MethodPost, "/auth/login", "", transport.LoginRequest{Username: "accountant", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

	rec = env.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "accountant"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, 2)

	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, "/auth/login", "", transport.LoginRequest{Username: "alice", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := env.do(http.MethodPost, "/auth/login", "", transport.LoginRequest{Username: "alice", Password: testPassword})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t, 100)
	p := env.pair(env.Alice)

	env.Alice.Role = models.RoleAccountant
	require.NoError(t, env.Repo.UpdateUser(context.Background(), env.Alice))
	env.Clock.Advance(time.Minute)

	rec := env.do(http.MethodPost, "/auth/refresh", p.RefreshToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[transport.TokenResponse](t, rec)
	assert.Equal(t, models.RoleAccountant, resp.Role)

	// body form
	rec = env.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": p.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/auth/refresh", p.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, env.Repo.DeleteUser(context.Background(), env.Alice.ID))
	rec = env.do(http.MethodPost, "/auth/refresh", resp.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessTokenExpiry(t *testing.T) {
	env := newTestEnv(t, 100)
	p := env.pair(env.Bob)

	rec := env.do(http.MethodGet, "/auth/me", p.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[models.User](t, rec)
	assert.Equal(t, env.Bob.ID, me.ID)
	assert.NotContains(t, rec.Body.String(), "password")

	env.Clock.Advance(15 * time.Minute)
	rec = env.do(http.MethodGet, "/auth/me", p.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token expired")
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, 100)
	p := env.pair(env.Bob)

	rec := env.do(http.MethodPost, "/auth/logout", p.RefreshToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(http.MethodPost, "/auth/logout", p.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_AdminOnly(t *testing.T) {
	env := newTestEnv(t, 100)
	req := transport.UserCreateRequest{Name: "New Person", Username: "new_person", Email: "new@example.com", Password: "secret1"}

	rec := env.do(http.MethodPost, "/auth/register", env.pair(env.Accountant).AccessToken, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/auth/register", "", req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/auth/register", env.pair(env.Admin).AccessToken, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.User](t, rec)
	assert.Equal(t, models.RoleUser, created.Role)
}
