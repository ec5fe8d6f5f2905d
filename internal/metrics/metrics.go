// Package metrics provides Prometheus metrics for the admin client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Outgoing API request metrics
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waynex_admin_api_requests_total",
			Help: "Total number of requests sent to the admin API",
		},
		[]string{"method", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waynex_admin_api_request_duration_seconds",
			Help:    "Admin API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Fetch cache metrics
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waynex_admin_fetches_total",
			Help: "Total resource fetches by outcome",
		},
		[]string{"result"},
	)

	cacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "waynex_admin_cache_entries",
			Help: "Number of fetch keys held in the cache",
		},
	)

	// Mutation metrics
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waynex_admin_mutations_total",
			Help: "Total mutations by method and outcome",
		},
		[]string{"method", "result"},
	)

	// Session metrics
	sessionChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waynex_admin_session_changes_total",
			Help: "Total session slot changes",
		},
		[]string{"type"},
	)
)

// Fetch outcomes.
const (
	FetchSuccess   = "success"
	FetchError     = "error"
	FetchStale     = "stale"
	FetchCancelled = "cancelled"
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest records an outgoing API request. A status of 0 means the
// request never got a response.
func RecordAPIRequest(method string, status int, duration time.Duration) {
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	apiRequestsTotal.WithLabelValues(method, label).Inc()
	apiRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordFetch records the outcome of a fetch.
func RecordFetch(result string) {
	fetchesTotal.WithLabelValues(result).Inc()
}

// SetCacheEntries sets the number of cached fetch keys.
func SetCacheEntries(count int) {
	cacheEntries.Set(float64(count))
}

// RecordMutation records a mutation outcome.
func RecordMutation(method string, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	mutationsTotal.WithLabelValues(method, result).Inc()
}

// RecordSessionChange records a session set/clear/reload.
func RecordSessionChange(changeType string) {
	sessionChangesTotal.WithLabelValues(changeType).Inc()
}
