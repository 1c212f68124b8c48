package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finance_ledger/internal/logging"
	"github.com/Skotchmaster/finance_ledger/internal/observability"
	"github.com/Skotchmaster/finance_ledger/internal/service"
	"github.com/Skotchmaster/finance_ledger/internal/transport"
)

type TransactionsHTTP struct {
	Svc     *service.TransactionService
	Metrics *observability.Metrics
}

func (h *TransactionsHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transactions.list")

	offset, limit, err := window(c, l, "list_transactions")
	if err != nil {
		return err
	}

	list, err := h.Svc.List(ctx, caller(c), offset, limit)
	if err != nil {
		return fail(c, l, h.Metrics, "list_transactions", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *TransactionsHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transactions.search")

	offset, limit, err := window(c, l, "search_transactions")
	if err != nil {
		return err
	}

	list, err := h.Svc.Search(ctx, caller(c), c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(c, l, h.Metrics, "search_transactions", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *TransactionsHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transactions.get")

	id, err := parseID(c, l, "get_transaction")
	if err != nil {
		return err
	}

	tx, err := h.Svc.Get(ctx, caller(c), id)
	if err != nil {
		return fail(c, l, h.Metrics, "get_transaction", err)
	}
	return c.JSON(http.StatusOK, tx)
}

func (h *TransactionsHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transactions.create")

	var req transport.TransactionCreateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_transaction_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	tx, err := h.Svc.Create(ctx, caller(c), req)
	if err != nil {
		return fail(c, l, h.Metrics, "create_transaction", err)
	}
	return c.JSON(http.StatusCreated, tx)
}

func (h *TransactionsHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transactions.update")

	id, err := parseID(c, l, "update_transaction")
	if err != nil {
		return err
	}
	var req transport.TransactionUpdateRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_transaction_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	tx, err := h.Svc.Update(ctx, caller(c), id, req)
	if err != nil {
		return fail(c, l, h.Metrics, "update_transaction", err)
	}
	return c.JSON(http.StatusOK, tx)
}

func (h *TransactionsHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "transactions.delete")

	id, err := parseID(c, l, "delete_transaction")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, caller(c), id); err != nil {
		return fail(c, l, h.Metrics, "delete_transaction", err)
	}
	return c.NoContent(http.StatusNoContent)
}
