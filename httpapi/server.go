// SPDX-License-Identifier: LGPL-3.0-or-later

// Package httpapi wires the session, secret, identity, and envelope
// packages behind the HTTP endpoint table of spec.md §6. It owns no
// business logic of its own: every handler decodes a request envelope,
// calls into one of those packages, and seals the response.
package httpapi

import (
	"net/http"
	"time"

	hrcrypto "github.com/hashrand-project/hashrand/crypto"
	"github.com/hashrand-project/hashrand/internal/email"
	"github.com/hashrand-project/hashrand/internal/logger"
	"github.com/hashrand-project/hashrand/secret"
	"github.com/hashrand-project/hashrand/session"
	"github.com/hashrand-project/hashrand/storage"
)

const refreshCookieName = "hashrand_refresh"

// Server holds every collaborator HashRand's HTTP handlers need.
type Server struct {
	Sessions *session.Manager
	Secrets  *secret.Engine
	Store    storage.Store
	Mailer   email.Sender
	Log      logger.Logger

	Master [hrcrypto.MasterKeySize]byte
	UIHost string

	dryRunSwitch *dryRunSwitch
}

// NewServer builds a Server. Handlers are registered with Routes.
func NewServer(sessions *session.Manager, secrets *secret.Engine, store storage.Store, mailer email.Sender, log logger.Logger, master [hrcrypto.MasterKeySize]byte, uiHost string) *Server {
	return &Server{
		Sessions: sessions,
		Secrets:  secrets,
		Store:    store,
		Mailer:   mailer,
		Log:      log,
		Master:   master,
		UIHost:   uiHost,
	}
}

// EnableDryRunToggle wires the test-only GET /api/test/dry-run endpoint,
// which flips between real and in-memory email delivery. Production
// entry points must not call this.
func (s *Server) EnableDryRunToggle(startEnabled bool) {
	s.dryRunSwitch = newDryRunSwitch(s.Mailer, startEnabled)
	s.Mailer = s.dryRunSwitch.Sender()
}

// Routes registers every handler from spec.md §6 onto mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login/", s.handleLogin)
	mux.HandleFunc("POST /api/login/magiclink/", s.handleConsumeMagicLink)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("DELETE /api/login", s.handleLogout)
	mux.HandleFunc("POST /api/keys/rotate", s.handleRotateKeys)
	mux.HandleFunc("POST /api/shared-secret", s.handleCreateSecret)
	mux.HandleFunc("GET /api/shared-secret/{url_hash}", s.handleViewSecret)
	mux.HandleFunc("DELETE /api/shared-secret/{url_hash}", s.handleDeleteSecret)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /api/test/dry-run", s.handleDryRunToggle)
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
