package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alumnisphere_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alumnisphere_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alumnisphere_rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// Chat Metrics
	ChatRoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alumnisphere_chat_rooms_created_total",
			Help: "Total number of chat rooms created",
		},
	)

	ChatMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alumnisphere_chat_messages_sent_total",
			Help: "Total number of chat messages persisted",
		},
	)

	ChatMessagesMarkedRead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alumnisphere_chat_messages_marked_read_total",
			Help: "Total number of chat messages flipped to read",
		},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alumnisphere_websocket_connections",
			Help: "Current number of open WebSocket connections",
		},
	)

	// Notification Metrics
	EmailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alumnisphere_email_deliveries_total",
			Help: "Email delivery attempts by kind and result",
		},
		[]string{"kind", "result"}, // result: "sent", "skipped", "failed", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "alumnisphere_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
