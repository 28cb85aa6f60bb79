package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitguard_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitguard_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbitguard_propagation_duration_seconds",
			Help:    "Wall time of one propagation window.",
			Buckets: prometheus.DefBuckets,
		},
	)

	propagationSamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitguard_propagation_samples_total",
			Help: "Total geodetic samples produced by the propagator.",
		},
	)

	fluxLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitguard_flux_lookups_total",
			Help: "Flux table lookups by resolution outcome.",
		},
		[]string{"outcome"},
	)

	riskAssessmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orbitguard_risk_assessments_total",
			Help: "Total proximity risk assessments computed.",
		},
	)

	tleRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitguard_tle_records",
			Help: "Records in the current TLE store generation.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		propagationDurationSeconds,
		propagationSamplesTotal,
		fluxLookupsTotal,
		riskAssessmentsTotal,
		tleRecords,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPropagation records the duration and output size of one window.
func RecordPropagation(d time.Duration, samples int) {
	propagationDurationSeconds.Observe(d.Seconds())
	propagationSamplesTotal.Add(float64(samples))
}

// RecordFluxLookup counts a flux table lookup by outcome
// (interpolated, nearest, global_nearest).
func RecordFluxLookup(outcome string) {
	fluxLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordRiskAssessments counts scored candidates.
func RecordRiskAssessments(n int) {
	riskAssessmentsTotal.Add(float64(n))
}

// SetTLERecords updates the store size gauge.
func SetTLERecords(n int) {
	tleRecords.Set(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// knownRoutes is the closed set of path labels. Anything else (bots probing
// /wp-admin, stale clients) collapses to "other" to keep label cardinality
// bounded.
var knownRoutes = map[string]bool{
	"/healthz":               true,
	"/readyz":                true,
	"/metrics":               true,
	"/api/v1/tle/load":       true,
	"/api/v1/objects":        true,
	"/api/v1/propagate":      true,
	"/api/v1/risk/flux":      true,
	"/api/v1/risk/collision": true,
	"/api/v1/risk/proximity": true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
