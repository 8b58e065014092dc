package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tiergate"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Gate metrics
	gateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Gate evaluations by outcome and effective plan",
		},
		[]string{"outcome", "plan"},
	)

	// Ledger metrics
	ledgerTokensSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "tokens_settled_total",
			Help:      "Tokens recorded against user quotas",
		},
		[]string{"plan"},
	)

	ledgerRolloversTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rollovers_total",
			Help:      "Monthly usage rollovers applied",
		},
	)

	// Subscription metrics
	subscriptionDowngradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "downgrades_total",
			Help:      "Expired paid plans moved to the base plan",
		},
	)

	subscriptionChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "changes_total",
			Help:      "Explicit plan changes by target plan",
		},
		[]string{"plan"},
	)

	subscriptionRenewalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "renewals_total",
			Help:      "Paid terms extended by a renewal",
		},
		[]string{"plan"},
	)

	billingEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "webhook_events_total",
			Help:      "Stripe webhook events by type and result",
		},
		[]string{"type", "result"},
	)

	// Store metrics
	storePersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "persist_failures_total",
			Help:      "User record writes that failed",
		},
	)

	// Provider metrics
	providerGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "generation_duration_seconds",
			Help:      "Duration of AI provider generations in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model", "status"},
	)

	// Worker metrics
	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of subscription sweeps in seconds",
			Buckets:   []float64{.01, .1, .5, 1, 5, 10, 30, 60},
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		// Get route pattern from chi
		routePattern := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			routePattern = rctx.RoutePattern()
		}

		ObserveHTTP(r.Method, routePattern, wrapped.statusCode, time.Since(start))
	})
}

// ObserveHTTP records one served request. Routers other than chi call it
// directly.
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	httpRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordGateDecision counts one gate evaluation
func RecordGateDecision(outcome, plan string) {
	gateDecisionsTotal.WithLabelValues(outcome, plan).Inc()
}

// RecordTokensSettled adds settled tokens for a plan
func RecordTokensSettled(plan string, tokens int64) {
	ledgerTokensSettled.WithLabelValues(plan).Add(float64(tokens))
}

// RecordRollover counts one monthly rollover
func RecordRollover() {
	ledgerRolloversTotal.Inc()
}

// RecordDowngrade counts one expiry downgrade
func RecordDowngrade() {
	subscriptionDowngradesTotal.Inc()
}

// RecordPlanChange counts one explicit plan change
func RecordPlanChange(plan string) {
	subscriptionChangesTotal.WithLabelValues(plan).Inc()
}

// RecordRenewal counts one extended paid term
func RecordRenewal(plan string) {
	subscriptionRenewalsTotal.WithLabelValues(plan).Inc()
}

// RecordWebhookEvent counts one webhook delivery. result is applied,
// duplicate, ignored or failed.
func RecordWebhookEvent(eventType, result string) {
	billingEventsTotal.WithLabelValues(eventType, result).Inc()
}

// RecordPersistFailure counts one failed user record write
func RecordPersistFailure() {
	storePersistFailures.Inc()
}

// RecordGeneration records the duration of a provider call
func RecordGeneration(model, status string, duration time.Duration) {
	providerGenerationDuration.WithLabelValues(model, status).Observe(duration.Seconds())
}

// RecordSweep records the duration of one subscription sweep
func RecordSweep(duration time.Duration) {
	sweepDuration.Observe(duration.Seconds())
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
