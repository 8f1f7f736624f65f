// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SecretsCreated tracks shared-secret creation by outcome.
	SecretsCreated = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "secrets",
			Name:      "created_total",
			Help:      "Total number of shared secrets created",
		},
		[]string{"status"}, // success, failure
	)

	// SecretsViewed tracks shared-secret reads by role and outcome.
	SecretsViewed = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "secrets",
			Name:      "viewed_total",
			Help:      "Total number of shared secret reads",
		},
		[]string{"role", "status"}, // sender/receiver, success/exhausted/not_found/otp_required
	)

	// SecretsDeleted tracks shared-secret deletions by trigger.
	SecretsDeleted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "secrets",
			Name:      "deleted_total",
			Help:      "Total number of shared secrets deleted",
		},
		[]string{"trigger"}, // explicit, cascade, sweeper
	)

	// SecretsActive tracks shared secrets not yet deleted or exhausted.
	SecretsActive = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "secrets",
			Name:      "active",
			Help:      "Number of currently active shared secrets",
		},
	)
)
