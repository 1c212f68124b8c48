package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/finance_ledger/internal/middleware/auth"
	"github.com/Skotchmaster/finance_ledger/internal/observability"
	"github.com/Skotchmaster/finance_ledger/internal/policy"
	"github.com/Skotchmaster/finance_ledger/internal/service"
	"github.com/Skotchmaster/finance_ledger/internal/tokens"
	"github.com/Skotchmaster/finance_ledger/internal/util"
)

// fail logs err under op and converts it to the HTTP error the client sees.
func fail(c echo.Context, l *slog.Logger, m *observability.Metrics, op string, err error) error {
	event := op + "_failed"
	switch {
	case tokens.IsAuthError(err):
		m.AuthFailure(err)
		l.Warn(event, "status", 401, "error", err)
		return authmw.Unauthorized(c, err)
	case errors.Is(err, service.ErrInvalidCredentials):
		m.AuthFailure(err)
		l.Warn(event, "status", 401, "reason", "invalid credentials")
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="ledger"`)
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
	case errors.Is(err, policy.ErrInsufficientRole):
		m.PolicyDenied(op)
		l.Warn(event, "status", 403, "error", err)
		return echo.NewHTTPError(http.StatusForbidden, "not enough permissions")
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSearchDisabled):
		l.Warn(event, "status", 503, "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	l.Error(event, "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

func caller(c echo.Context) service.Caller {
	id, role, _ := authmw.Caller(c)
	return service.Caller{ID: id, Role: role}
}

func parseID(c echo.Context, l *slog.Logger, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn(op+"_failed", "status", 400, "reason", "id is not a uuid", "error", err)
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}
	return id, nil
}

func window(c echo.Context, l *slog.Logger, op string) (int, int, error) {
	skip, err := intParam(c.QueryParam("skip"))
	if err != nil {
		return 0, 0, badQuery(l, op, "skip must be an integer", err)
	}
	limit, err := intParam(c.QueryParam("limit"))
	if err != nil {
		return 0, 0, badQuery(l, op, "limit must be an integer", err)
	}
	offset, size, err := util.Window(skip, limit)
	if err != nil {
		return 0, 0, badQuery(l, op, err.Error(), err)
	}
	return offset, size, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func badQuery(l *slog.Logger, op, msg string, err error) error {
	l.Warn(op+"_failed", "status", 400, "reason", msg, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
