package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginOutcomes   *prometheus.CounterVec
	rbacDecisions   *prometheus.CounterVec
	backfillRows    *prometheus.CounterVec
}

// NewMetrics initializes the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "veritas_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "veritas_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "veritas_login_outcomes_total",
		Help: "Login attempts by resolution strategy and outcome.",
	}, []string{"strategy", "outcome"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "veritas_rbac_decisions_total",
		Help: "RBAC capability decisions by role and verdict.",
	}, []string{"role", "verdict"})
	backfill := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "veritas_backfill_rows_total",
		Help: "Backfill reconciliation rows by role and result.",
	}, []string{"role", "result"})
	registry.MustRegister(requests, duration, logins, decisions, backfill)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		loginOutcomes:   logins,
		rbacDecisions:   decisions,
		backfillRows:    backfill,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveLogin records one login attempt outcome.
func (m *Metrics) ObserveLogin(strategy, outcome string) {
	if m == nil {
		return
	}
	m.loginOutcomes.WithLabelValues(strategy, outcome).Inc()
}

// ObserveDecision records one RBAC decision.
func (m *Metrics) ObserveDecision(role string, allowed bool) {
	if m == nil {
		return
	}
	verdict := "deny"
	if allowed {
		verdict = "allow"
	}
	m.rbacDecisions.WithLabelValues(role, verdict).Inc()
}

// ObserveBackfill records backfill row results.
func (m *Metrics) ObserveBackfill(role, result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.backfillRows.WithLabelValues(role, result).Add(float64(n))
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
