// SPDX-License-Identifier: LGPL-3.0-or-later

// Package metrics exposes HashRand's Prometheus series: everything the
// auth, session, and secret flows emit shares the Registry declared here.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "hashrand"

// Registry collects every metric this package registers. cmd/hashrand-server
// serves it at /metrics via Handler().
var Registry = prometheus.NewRegistry()
