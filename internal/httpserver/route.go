package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/unrolled/secure"

	authmw "github.com/Skotchmaster/finance_ledger/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/finance_ledger/internal/middleware/logging"
	"github.com/Skotchmaster/finance_ledger/internal/observability"
)

const Version = "1.0.0"

type Deps struct {
	Logger       *slog.Logger
	Auth         *authmw.Middleware
	AuthHandler  *AuthHTTP
	Users        *UsersHTTP
	Transactions *TransactionsHTTP
	Reports      *ReportsHTTP
	Metrics      *observability.Metrics
	// Ready reports whether backing stores answer. Nil means always ready.
	Ready func(ctx context.Context) error

	AllowedOrigins []string
	LoginRateLimit int
	Production     bool
}

// New builds the echo instance with the global middleware chain and all
// routes.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	if d.Logger != nil {
		e.Use(loggingmw.RequestLogger(d.Logger))
	}
	e.Use(d.Metrics.Middleware())
	e.Use(echo.WrapMiddleware(secureHeaders(d.Production)))
	if len(d.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: d.AllowedOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}

	Register(e, d)
	return e
}

func secureHeaders(production bool) func(http.Handler) http.Handler {
	return secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	}).Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Finance ledger API", "version": Version})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

	limit := d.LoginRateLimit
	if limit <= 0 {
		limit = 10
	}
	loginLimiter := echo.WrapMiddleware(httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))

	auth := e.Group("/auth")
	auth.POST("/login", d.AuthHandler.Login, loginLimiter)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, d.Auth.RequireAuth)
	auth.POST("/register", d.Users.Create, d.Auth.RequireAuth, d.Auth.RequireAdmin)

	users := e.Group("/users", d.Auth.RequireAuth, d.Auth.RequireAdmin)
	users.GET("", d.Users.List)
	users.POST("", d.Users.Create)
	users.PUT("/:id", d.Users.Update)
	users.DELETE("/:id", d.Users.Delete)

	txs := e.Group("/transactions", d.Auth.RequireAuth)
	txs.GET("", d.Transactions.List)
	txs.GET("/search", d.Transactions.Search)
	txs.GET("/:id", d.Transactions.Get)
	txs.POST("", d.Transactions.Create, d.Auth.RequireMutation)
	txs.PUT("/:id", d.Transactions.Update, d.Auth.RequireMutation)
	txs.DELETE("/:id", d.Transactions.Delete, d.Auth.RequireMutation)

	reports := e.Group("/reports", d.Auth.RequireAuth)
	reports.GET("/summary", d.Reports.Summary, d.Auth.RequireSummary)
	reports.GET("/user/:id", d.Reports.User)
}
