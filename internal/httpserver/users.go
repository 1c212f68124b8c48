package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finance_ledger/internal/logging"
	"github.com/Skotchmaster/finance_ledger/internal/observability"
	"github.com/Skotchmaster/finance_ledger/internal/service"
	"github.com/Skotchmaster/finance_ledger/internal/transport"
)

type UsersHTTP struct {
	Svc     *service.UserService
	Metrics *observability.Metrics
}

func (h *UsersHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list")

	offset, limit, err := window(c, l, "list_users")
	if err != nil {
		return err
	}

	users, err := h.Svc.List(ctx, caller(c), offset, limit)
	if err != nil {
		return fail(c, l, h.Metrics, "list_users", err)
	}
	return c.JSON(http.StatusOK, transport.UserList{Items: users, Skip: offset, Limit: limit})
}

func (h *UsersHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.create")

	var req transport.UserCreateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_user_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Create(ctx, caller(c), req)
	if err != nil {
		return fail(c, l, h.Metrics, "create_user", err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UsersHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update")

	id, err := parseID(c, l, "update_user")
	if err != nil {
		return err
	}
	var req transport.UserUpdateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_user_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Update(ctx, caller(c), id, req)
	if err != nil {
		return fail(c, l, h.Metrics, "update_user", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.delete")

	id, err := parseID(c, l, "delete_user")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, caller(c), id); err != nil {
		return fail(c, l, h.Metrics, "delete_user", err)
	}
	return c.NoContent(http.StatusNoContent)
}
