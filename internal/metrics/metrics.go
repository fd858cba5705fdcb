// Package metrics exposes Prometheus collectors for the poller.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Iteration outcomes used as the outcome label.
const (
	OutcomeSaved          = "saved"
	OutcomeTransportError = "transport_error"
	OutcomeStatusError    = "status_error"
	OutcomeDecodeError    = "decode_error"
	OutcomeStoreError     = "store_error"
)

var (
	iterationsTotal        *prometheus.CounterVec
	recordsSavedTotal      *prometheus.CounterVec
	httpResponsesTotal     *prometheus.CounterVec
	fetchDurationSeconds   prometheus.Histogram
	notificationsSentTotal prometheus.Counter
	notificationsFailed    prometheus.Counter
	serverRequestsTotal    *prometheus.CounterVec
	serverRequestDuration  *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		iterationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poller_iterations_total",
				Help: "Total number of poll iterations, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		recordsSavedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poller_records_saved_total",
				Help: "Total number of records persisted, labeled by store provider.",
			},
			[]string{"provider"},
		)

		httpResponsesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poller_http_responses_total",
				Help: "Total upstream responses, labeled by status code (0 for transport failures).",
			},
			[]string{"code"},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "poller_fetch_duration_seconds",
				Help:    "Histogram of upstream fetch latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		notificationsSentTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "poller_notifications_sent_total",
				Help: "Total number of save notifications published.",
			},
		)

		notificationsFailed = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "poller_notifications_failed_total",
				Help: "Total number of save notifications that could not be published.",
			},
		)

		serverRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "poller_server_requests_total",
				Help: "Requests served by the metrics/health server, labeled by route and status.",
			},
			[]string{"route", "code"},
		)

		serverRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "poller_server_request_duration_seconds",
				Help:    "Latency of requests served by the metrics/health server.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveIteration increments the iteration counter for the given outcome.
func ObserveIteration(outcome string) {
	Init()
	iterationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSave increments the saved-records counter for a store provider.
func ObserveSave(provider string) {
	Init()
	recordsSavedTotal.WithLabelValues(provider).Inc()
}

// ObserveFetch records one upstream round trip. Code 0 marks a transport failure.
func ObserveFetch(code int, duration time.Duration) {
	Init()
	httpResponsesTotal.WithLabelValues(strconv.Itoa(code)).Inc()
	fetchDurationSeconds.Observe(duration.Seconds())
}

// ObserveNotification increments the published-notifications counter.
func ObserveNotification() {
	Init()
	notificationsSentTotal.Inc()
}

// ObserveNotificationFailure increments the failed-notifications counter.
func ObserveNotificationFailure() {
	Init()
	notificationsFailed.Inc()
}

// ObserveServerRequest records one request served by the metrics/health server.
func ObserveServerRequest(route string, code int, duration time.Duration) {
	Init()
	serverRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	serverRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
