// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshRecordsCreated tracks refresh records issued at login/magic-link consumption.
	RefreshRecordsCreated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "refresh_records_created_total",
			Help:      "Total number of refresh records created",
		},
		[]string{"status"}, // success, failure
	)

	// RefreshRecordsActive tracks refresh records not yet expired or revoked.
	RefreshRecordsActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "refresh_records_active",
			Help:      "Number of currently active refresh records",
		},
	)

	// RefreshRecordsExpired tracks refresh records reaped by the sweeper.
	RefreshRecordsExpired = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "refresh_records_expired_total",
			Help:      "Total number of refresh records expired",
		},
	)

	// SessionKeyRotations tracks sliding-window key rotations.
	SessionKeyRotations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "key_rotations_total",
			Help:      "Total number of refresh-window key rotations",
		},
		[]string{"status"}, // rotated, skipped
	)

	// RefreshOperationDuration tracks refresh/rotate handler latency.
	RefreshOperationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "operation_duration_seconds",
			Help:      "Refresh/rotate operation duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 15),
		},
		[]string{"operation"}, // issue, refresh, rotate, revoke
	)

	// MagicLinksIssued tracks magic links sent to users.
	MagicLinksIssued = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "magic_links",
			Name:      "issued_total",
			Help:      "Total number of magic links issued",
		},
	)

	// MagicLinksConsumed tracks magic links redeemed for a session, by outcome.
	MagicLinksConsumed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "magic_links",
			Name:      "consumed_total",
			Help:      "Total number of magic links consumed",
		},
		[]string{"status"}, // success, expired, already_used, not_found
	)
)
