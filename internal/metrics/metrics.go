// Package metrics defines all custom Prometheus metrics for the fieldops
// client. It is the single source of truth for metric names, labels, and
// help strings; promauto registers everything with the default registry at
// import time.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fieldops"

// ── Request client metrics ────────────────────────────────────────────────────

// APIRequestsTotal counts outbound API calls by method and outcome.
// Labels:
//   - method: HTTP verb
//   - outcome: "ok", "http_error", "auth_error", "network_error"
var APIRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of outbound API requests, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// TokenRefreshTotal counts access-token refresh attempts.
// Label:
//   - result: "success" or "failure"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of access token refresh attempts, by result.",
	},
	[]string{"result"},
)

// APIRequestDuration measures outbound call latency end-to-end, including
// the transparent refresh-and-retry when one occurs.
var APIRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of outbound API requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Notification synchronizer metrics ─────────────────────────────────────────

// SocketReconnectsTotal counts reconnect attempts scheduled after an
// abnormal socket close.
var SocketReconnectsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "socket_reconnects_total",
		Help:      "Total number of notification socket reconnect attempts.",
	},
)

// NotificationsReceivedTotal counts notification payloads applied from
// socket frames.
var NotificationsReceivedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_received_total",
		Help:      "Total number of real-time notification payloads applied.",
	},
)

// UnreadNotifications tracks the current local unread counter.
var UnreadNotifications = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unread_notifications",
		Help:      "Current number of unread notifications held locally.",
	},
)
