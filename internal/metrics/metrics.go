// Package metrics defines the Prometheus metrics exported by the storefront API.
// All metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopscript"

// LoginAttemptsTotal counts login attempts.
// Label:
//   - outcome: "success", "not_found", "invalid_credentials" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// RegistrationsTotal counts accounts created, by role.
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of user accounts created, by role.",
	},
	[]string{"role"},
)

// PasswordResetsTotal counts security-question reset attempts.
// Label:
//   - outcome: "success", "incorrect_answer", "user_not_found", "no_question" or "error"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset attempts via security question, by outcome.",
	},
	[]string{"outcome"},
)

// OrdersPlacedTotal counts orders placed, by payment method.
// Label:
//   - payment_method: "card", "paypal", "cod" or "other"
var OrdersPlacedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed, by payment method.",
	},
	[]string{"payment_method"},
)

// OrderStatusChangesTotal counts order status updates, by new status.
var OrderStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_status_changes_total",
		Help:      "Total number of order status updates, by resulting status.",
	},
	[]string{"status"},
)

// ImageUploadBytes observes the size of accepted image uploads.
var ImageUploadBytes = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "image_upload_bytes",
		Help:      "Size of accepted image uploads in bytes.",
		Buckets:   prometheus.ExponentialBuckets(16<<10, 4, 7), // 16KiB .. 64MiB
	},
)

// EventsPublishedTotal counts domain events handed to the message queue.
// Labels:
//   - type: event type, e.g. "order.created"
//   - result: "ok" or "error"
var EventsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total number of domain events published, by type and result.",
	},
	[]string{"type", "result"},
)
