package auth

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finance_ledger/internal/logging"
	"github.com/Skotchmaster/finance_ledger/internal/models"
	"github.com/Skotchmaster/finance_ledger/internal/observability"
	"github.com/Skotchmaster/finance_ledger/internal/policy"
	"github.com/Skotchmaster/finance_ledger/internal/tokens"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

type Authenticator interface {
	Authenticate(header string) (*tokens.Identity, error)
}

type Middleware struct {
	Tokens  Authenticator
	Metrics *observability.Metrics
}

// RequireAuth verifies the access token in the Authorization header and
// stores the caller's id and role snapshot on the context.
func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := m.Tokens.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			m.Metrics.AuthFailure(err)
			logging.FromContext(c.Request().Context()).Warn("authenticate_failed", "status", 401, "error", err)
			return Unauthorized(c, err)
		}

		setUserContext(c, id)
		return next(c)
	}
}

// Require gates a route on a role decision. It must run after RequireAuth.
func (m *Middleware) Require(action string, decide func(models.Role) policy.Decision) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, role, ok := Caller(c)
			if !ok {
				return Unauthorized(c, tokens.ErrMissingToken)
			}
			if d := decide(role); !d.Allowed {
				m.Metrics.PolicyDenied(action)
				logging.FromContext(c.Request().Context()).Warn("authorize_failed", "status", 403, "action", action, "role", role)
				return echo.NewHTTPError(http.StatusForbidden, "not enough permissions")
			}
			return next(c)
		}
	}
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.Require("user_admin", policy.AuthorizeUserAdmin)(next)
}

func (m *Middleware) RequireMutation(next echo.HandlerFunc) echo.HandlerFunc {
	return m.Require("mutation", policy.AuthorizeMutation)(next)
}

func (m *Middleware) RequireSummary(next echo.HandlerFunc) echo.HandlerFunc {
	return m.Require("report_summary", func(r models.Role) policy.Decision {
		return policy.AuthorizeReport(r, uuid.Nil, nil)
	})(next)
}

// Caller returns what RequireAuth stored.
func Caller(c echo.Context) (uuid.UUID, models.Role, bool) {
	id, ok := c.Get(ctxUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	role, ok := c.Get(ctxRole).(models.Role)
	return id, role, ok
}

// Unauthorized answers an authentication failure with 401 and a Bearer
// challenge.
func Unauthorized(c echo.Context, err error) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="ledger"`)
	return echo.NewHTTPError(http.StatusUnauthorized, message(err))
}

func message(err error) string {
	switch {
	case errors.Is(err, tokens.ErrMissingToken):
		return "missing bearer token"
	case errors.Is(err, tokens.ErrExpiredToken):
		return "token expired"
	case errors.Is(err, tokens.ErrRevokedToken):
		return "token revoked"
	case errors.Is(err, tokens.ErrUnknownSubject):
		return "could not validate credentials"
	}
	return "invalid token"
}

func setUserContext(c echo.Context, id *tokens.Identity) {
	c.Set(ctxUserID, id.UserID)
	c.Set(ctxRole, id.Role)
}
