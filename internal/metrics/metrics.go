package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitd_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitd_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitd_propagations_total",
			Help: "Total number of single-satellite propagations by result.",
		},
		[]string{"result"},
	)

	propagationBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbitd_propagation_batch_duration_seconds",
			Help:    "Duration of whole-dataset propagation batches in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	tleDatasetCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitd_tle_dataset_satellites",
			Help: "Number of satellites in the current TLE dataset.",
		},
	)

	tleDatasetAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitd_tle_dataset_age_seconds",
			Help: "Age of the current TLE dataset in seconds.",
		},
	)

	propagationWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitd_propagation_workers",
			Help: "Configured propagation worker pool size.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(propagationsTotal)
	prometheus.MustRegister(propagationBatchDuration)
	prometheus.MustRegister(tleDatasetCount)
	prometheus.MustRegister(tleDatasetAge)
	prometheus.MustRegister(propagationWorkers)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPropagationBatch records a whole-dataset propagation batch.
func RecordPropagationBatch(duration time.Duration, successCount, errorCount int) {
	propagationBatchDuration.Observe(duration.Seconds())
	propagationsTotal.WithLabelValues("ok").Add(float64(successCount))
	propagationsTotal.WithLabelValues("error").Add(float64(errorCount))
}

// RecordPropagation records a single propagation by result label
// (ok, decayed, hyperbolic, invalid, error).
func RecordPropagation(result string) {
	propagationsTotal.WithLabelValues(result).Inc()
}

// SetTLEDatasetCount updates the dataset satellite-count gauge.
func SetTLEDatasetCount(n int) {
	tleDatasetCount.Set(float64(n))
}

// SetTLEDatasetAge updates the dataset age gauge.
func SetTLEDatasetAge(seconds float64) {
	tleDatasetAge.Set(seconds)
}

// SetPropagationWorkersActive updates the worker pool size gauge.
func SetPropagationWorkersActive(n int) {
	propagationWorkers.Set(float64(n))
}

// knownRoutes are the exact paths kept as their own label: the API's fixed
// routes plus "/" and "/api/v1/tle/fetch", which the server does not
// register. Anything else collapses to "other" to bound label cardinality
// against bot traffic.
var knownRoutes = map[string]bool{
	"/":                    true,
	"/healthz":             true,
	"/readyz":              true,
	"/metrics":             true,
	"/api/v1/test":         true,
	"/api/v1/tle/metadata": true,
	"/api/v1/tle/fetch":    true,
}

// normalizeRoute maps a request path to a bounded metric label. Parameterized
// propagate routes collapse to a single label.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasPrefix(path, "/api/v1/propagate/") {
		return "/api/v1/propagate/{norad_id}"
	}
	return "other"
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
