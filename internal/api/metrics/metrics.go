// Package metrics defines and registers all custom Prometheus metrics for the
// credential service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default Prometheus registry through
// promauto when the package is loaded.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "credential"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthOperationsTotal counts authentication operations by result.
// Labels:
//   - operation: register, login, logout, password_forgot, password_reset, password_update
//   - outcome: "success" or the failure kind (e.g. "invalid_credentials")
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of authentication operations, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// AuthOperationDuration measures how long each operation takes, bcrypt included.
var AuthOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_operation_duration_seconds",
		Help:      "Duration of authentication operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// TokenVerificationsTotal counts session token checks made by the access guard.
// Label:
//   - result: "valid", "missing", "expired", "malformed" or "invalid"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of session token verifications, by result.",
	},
	[]string{"result"},
)

// ── Notice metrics ────────────────────────────────────────────────────────────

// NoticesTotal counts security notices by kind and result (sent/failed/dropped).
var NoticesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notices_total",
		Help:      "Total number of security notices, by kind and delivery result.",
	},
	[]string{"kind", "result"},
)

// NoticesQueueDepth tracks the current number of notices waiting in each worker channel.
var NoticesQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notices_queue_depth",
		Help:      "Current number of notices pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
