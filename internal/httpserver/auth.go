package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finance_ledger/internal/logging"
	"github.com/Skotchmaster/finance_ledger/internal/observability"
	"github.com/Skotchmaster/finance_ledger/internal/service"
	"github.com/Skotchmaster/finance_ledger/internal/tokens"
	"github.com/Skotchmaster/finance_ledger/internal/transport"
)

type AuthHTTP struct {
	Svc     *service.AuthService
	Metrics *observability.Metrics
}

func tokenResponse(p *tokens.Pair) transport.TokenResponse {
	return transport.TokenResponse{
		AccessToken:      p.AccessToken,
		RefreshToken:     p.RefreshToken,
		TokenType:        "bearer",
		Role:             p.Role,
		AccessExpiresAt:  p.AccessExp,
		RefreshExpiresAt: p.RefreshExp,
	}
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := transport.Validate(req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, l, h.Metrics, "login", err)
	}

	h.Metrics.TokensIssued("login")
	return c.JSON(http.StatusOK, tokenResponse(pair))
}

// refreshToken reads the refresh token from the Authorization header, or
// from a JSON body {"refresh_token": "..."} when the header is absent.
func refreshToken(c echo.Context) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		return tokens.BearerToken(header)
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil || body.RefreshToken == "" {
		return "", tokens.ErrMissingToken
	}
	return body.RefreshToken, nil
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	raw, err := refreshToken(c)
	if err != nil {
		return fail(c, l, h.Metrics, "refresh", err)
	}

	pair, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return fail(c, l, h.Metrics, "refresh", err)
	}

	h.Metrics.TokensIssued("refresh")
	return c.JSON(http.StatusOK, tokenResponse(pair))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	raw, err := refreshToken(c)
	if err != nil {
		return fail(c, l, h.Metrics, "logout", err)
	}
	if err := h.Svc.Logout(ctx, raw); err != nil {
		return fail(c, l, h.Metrics, "logout", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	user, err := h.Svc.Me(ctx, caller(c).ID)
	if err != nil {
		return fail(c, l, h.Metrics, "me", err)
	}
	return c.JSON(http.StatusOK, user)
}
