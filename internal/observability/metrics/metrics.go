// Package metrics provides Prometheus instrumentation for trenddesk.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled     bool
	serviceName string

	// HTTP metrics
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec

	// Projects domain metrics
	projectSubmitTotal *prometheus.CounterVec

	// Verification domain metrics
	verificationTotal *prometheus.CounterVec

	// Votes domain metrics
	votesTotal *prometheus.CounterVec

	// Leaderboard metrics
	leaderboardPostTotal *prometheus.CounterVec
)

// Init initializes the metrics system.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		return
	}

	// HTTP request counter
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTP request duration histogram
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Project submission counter
	projectSubmitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_submit_total",
			Help: "Total number of project submissions",
		},
		[]string{"chain", "status"},
	)

	// Payment verification counter
	verificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verification_total",
			Help: "Total number of payment verification attempts",
		},
		[]string{"chain", "result"},
	)

	// Vote counter
	votesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_total",
			Help: "Total number of vote attempts",
		},
		[]string{"outcome"},
	)

	// Leaderboard post counter
	leaderboardPostTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_post_total",
			Help: "Total number of leaderboard announcements",
		},
		[]string{"status"},
	)

	// Note: Go runtime metrics (goroutines, memory, GC) are automatically
	// collected by prometheus/client_golang - no custom collector needed
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	if !enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.Handler()
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}

// ServiceName returns the configured service name for metric labels.
func ServiceName() string {
	return serviceName
}
