package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/finance_ledger/internal/logging"
	"github.com/Skotchmaster/finance_ledger/internal/observability"
	"github.com/Skotchmaster/finance_ledger/internal/service"
)

type ReportsHTTP struct {
	Svc     *service.ReportService
	Metrics *observability.Metrics
}

func (h *ReportsHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reports.summary")

	report, err := h.Svc.Summary(ctx, caller(c))
	if err != nil {
		return fail(c, l, h.Metrics, "report_summary", err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *ReportsHTTP) User(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reports.user")

	id, err := parseID(c, l, "report_user")
	if err != nil {
		return err
	}

	report, err := h.Svc.UserDeposits(ctx, caller(c), id)
	if err != nil {
		return fail(c, l, h.Metrics, "report_user", err)
	}
	return c.JSON(http.StatusOK, report)
}
