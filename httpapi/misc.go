// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/hashrand-project/hashrand/internal/email"
	"github.com/hashrand-project/hashrand/pkg/version"
)

// handleVersion returns build info unwrapped (spec.md §6: "GET /api/version
// ... unwrapped").
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

// dryRunSwitch lets the test-only dry-run toggle endpoint flip email
// delivery without restarting the process. It wraps the Server's mailer
// selection behind an atomic flag so concurrent requests see a consistent
// choice.
type dryRunSwitch struct {
	enabled atomic.Bool
	real    email.Sender
	dryRun  *email.DryRunSender
}

func newDryRunSwitch(real email.Sender, startEnabled bool) *dryRunSwitch {
	d := &dryRunSwitch{real: real, dryRun: email.NewDryRunSender()}
	d.enabled.Store(startEnabled)
	return d
}

func (d *dryRunSwitch) Sender() email.Sender {
	if d.enabled.Load() {
		return d.dryRun
	}
	return d.real
}

// handleDryRunToggle flips email suppression mode. It is marked test-only
// in spec.md §6 and must never be reachable in a production deployment.
// Routes always registers it, but it answers 404 unless EnableDryRunToggle
// was called, which cmd/hashrand-server does only when HASHRAND_ENV is not
// "production".
func (s *Server) handleDryRunToggle(w http.ResponseWriter, r *http.Request) {
	if s.dryRunSwitch == nil {
		writeError(w, http.StatusNotFound, "NotFound", "dry-run toggle is not enabled")
		return
	}
	raw := r.URL.Query().Get("enabled")
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "enabled must be a boolean")
		return
	}
	s.dryRunSwitch.enabled.Store(enabled)
	s.Mailer = s.dryRunSwitch.Sender()
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}
