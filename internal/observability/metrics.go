package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skotchmaster/finance_ledger/internal/tokens"
)

// Metrics holds the ledger's Prometheus collectors. A nil *Metrics is a
// valid no-op.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authFailures    *prometheus.CounterVec
	policyDenials   *prometheus.CounterVec
	tokensIssued    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	authFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_auth_failures_total",
		Help: "Rejected credentials and tokens by reason.",
	}, []string{"reason"})
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_policy_denials_total",
		Help: "Requests refused by the role policy.",
	}, []string{"action"})
	issued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_token_pairs_issued_total",
		Help: "Token pairs minted by login or refresh.",
	}, []string{"via"})
	registry.MustRegister(requests, duration, authFailures, denials, issued)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		authFailures:    authFailures,
		policyDenials:   denials,
		tokensIssued:    issued,
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if m == nil {
			return next
		}
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			route := c.Path()
			if route == "" {
				route = "unknown"
			}
			m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// AuthFailure counts a rejected credential. err is reduced to a fixed
// label set.
func (m *Metrics) AuthFailure(err error) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(authReason(err)).Inc()
}

func (m *Metrics) PolicyDenied(action string) {
	if m == nil {
		return
	}
	m.policyDenials.WithLabelValues(action).Inc()
}

func (m *Metrics) TokensIssued(via string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(via).Inc()
}

func authReason(err error) string {
	switch {
	case errors.Is(err, tokens.ErrMissingToken):
		return "missing"
	case errors.Is(err, tokens.ErrExpiredToken):
		return "expired"
	case errors.Is(err, tokens.ErrUnknownSubject):
		return "unknown_subject"
	case errors.Is(err, tokens.ErrRevokedToken):
		return "revoked"
	case errors.Is(err, tokens.ErrInvalidToken):
		return "invalid"
	}
	return "credentials"
}
