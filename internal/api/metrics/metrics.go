// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace API. It is the single source of truth for metric names, labels,
// and help strings. Metrics self-register with the default registry via
// promauto at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok" or "failed" (failures are not broken down further to keep
//     the metric as enumeration-safe as the API response)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts successful registrations.
// Label:
//   - role: the registered role (vendor, supplier, customer)
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of successful user registrations, by role.",
	},
	[]string{"role"},
)

// ── Product metrics ───────────────────────────────────────────────────────────

// ProductsCreatedTotal counts newly created products.
// Label:
//   - category: the product category as supplied by the owner
var ProductsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "products_created_total",
		Help:      "Total number of products created, by category.",
	},
	[]string{"category"},
)

// ── Media metrics ─────────────────────────────────────────────────────────────

// MediaUploadsTotal counts individual blob uploads issued by the reconciler.
// Labels:
//   - category: "images" or "attachments"
//   - result:   "ok" or "failed"
var MediaUploadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploads_total",
		Help:      "Total number of blob uploads issued, by category and result.",
	},
	[]string{"category", "result"},
)

// MediaQuotaRejectionsTotal counts media updates rejected before any upload
// because they would exceed the category quota.
var MediaQuotaRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_quota_rejections_total",
		Help:      "Total number of media updates rejected for exceeding the quota.",
	},
	[]string{"category"},
)

// MediaUpdateDuration measures a full media update from fetch to persist.
// Label:
//   - result: "ok", "quota", "conflict", "upstream", or "error"
var MediaUpdateDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "media_update_duration_seconds",
		Help:      "Duration of media update operations end-to-end.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// OrphanCleanupTotal counts best-effort deletions of blobs that were uploaded
// but never referenced because a sibling upload failed.
// Label:
//   - result: "ok" or "failed"
var OrphanCleanupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphan_cleanup_total",
		Help:      "Total number of orphaned blob deletions attempted, by result.",
	},
	[]string{"result"},
)
