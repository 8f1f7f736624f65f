// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net/http"

	hrcrypto "github.com/hashrand-project/hashrand/crypto"
	"github.com/hashrand-project/hashrand/crypto/keys"
	"github.com/hashrand-project/hashrand/envelope"
	"github.com/hashrand-project/hashrand/identity"
	"github.com/hashrand-project/hashrand/internal/email"
	"github.com/hashrand-project/hashrand/internal/logger"
	"github.com/hashrand-project/hashrand/session"
	"github.com/hashrand-project/hashrand/storage"
)

// loginRequest is /login's envelope payload (spec.md §4.D "Magic-link issuance").
type loginRequest struct {
	Email     string     `json:"email"`
	UIHost    string     `json:"ui_host"`
	Next      string     `json:"next"`
	EmailLang string     `json:"email_lang"`
	PubKey    pubKeyPair `json:"pub_key"`
}

func (req *loginRequest) tofuPubKey() (ed25519.PublicKey, error) {
	ed, _, err := req.PubKey.decode()
	if err != nil {
		return nil, err
	}
	return ed25519.PublicKey(ed[:]), nil
}

type loginAck struct {
	Sent         bool   `json:"sent"`
	ServerPubKey string `json:"server_pub_key"`
}

// handleLogin mints and emails a magic link. The caller's signature is
// verified TOFU-style against the ephemeral public key it declares in the
// same payload: for a brand-new identity there is nothing else to check
// it against.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	env, err := readEnvelope(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidEncoding", err.Error())
		return
	}

	var req loginRequest
	if err := decodeTOFU(env, &req); err != nil {
		writeEnvelopeError(w, err)
		return
	}

	clientEd, clientX, err := req.PubKey.decode()
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	token, err := s.Sessions.CreateMagicLink(r.Context(), identity.NormalizeEmail(req.Email), req.UIHost, req.Next, req.EmailLang, clientEd, clientX)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}

	link := fmt.Sprintf("%s/?magiclink=%s", req.UIHost, hrcrypto.Base58Encode([]byte(token)))
	if req.Next != "" {
		link += "&next=" + hrcrypto.B64URLEncode([]byte(req.Next))
	}
	msg := email.Message{
		To:      req.Email,
		Subject: "Your HashRand sign-in link",
		Body:    "Sign in: " + link,
	}
	if err := s.Mailer.Send(r.Context(), msg); err != nil {
		s.Log.Error("send magic link email", logger.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", "could not send email")
		return
	}

	sealLoginAck(w)
}

// sealLoginAck signs the /login ack with a one-off keypair minted and
// discarded for this single envelope: before a magic link is consumed
// there is no durable server identity for this client to pin against.
func sealLoginAck(w http.ResponseWriter) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}
	var pubArr [32]byte
	copy(pubArr[:], pub)
	if err := sealResponse(w, priv, loginAck{Sent: true, ServerPubKey: encodePubKey(pubArr)}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
	}
}

// magicLinkRequest is /login/magiclink's envelope payload.
type magicLinkRequest struct {
	MagicLink string `json:"magiclink"`
}

type magicLinkResponse struct {
	AccessToken             string `json:"access_token"`
	UserID                  string `json:"user_id"`
	ExpiresAt               int64  `json:"expires_at"`
	ServerPubKey            string `json:"server_pub_key"`
	ServerX25519PubKey      string `json:"server_x25519_pub_key"`
	EncryptedPrivkeyContext string `json:"encrypted_privkey_context"`
	Next                    string `json:"next,omitempty"`
}

// handleConsumeMagicLink redeems a magic link exactly once, starts the
// session, and delivers privkey_context encrypted to the client's
// declared X25519 key (spec.md §4.D steps 1-4).
func (s *Server) handleConsumeMagicLink(w http.ResponseWriter, r *http.Request) {
	env, err := readEnvelope(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidEncoding", err.Error())
		return
	}

	// The envelope's signer is the magic link's own declared ephemeral
	// key, not yet known until the link record is looked up, so this
	// payload is peeked before the link is consumed and verified
	// immediately after, against the key on file for that token.
	var peek magicLinkRequest
	if err := peekPayload(env, &peek); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidEncoding", err.Error())
		return
	}
	tokenBytes, err := hrcrypto.Base58Decode(peek.MagicLink)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidEncoding", "malformed magiclink")
		return
	}

	link, err := s.Sessions.ConsumeMagicLink(r.Context(), string(tokenBytes))
	if err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusConflict, "Conflict", "magic link already used or expired")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}

	if err := envelope.Open(ed25519PubFromArray(link.ClientEd25519Pub), env, &peek); err != nil {
		writeEnvelopeError(w, err)
		return
	}

	userID, err := identity.UserID(s.Master, link.Email)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}

	privCtx, err := s.Sessions.EnsurePrivkeyContext(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}

	peerX, err := ecdh.X25519().NewPublicKey(link.ClientX25519Pub[:])
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid client x25519 key")
		return
	}
	encryptedCtx, _, err := keys.HPKESealAndExportToX25519Peer(peerX, privCtx.Context[:], []byte("privkey_context_v1"), []byte("privkey_context_export"), 0)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}

	tokens, err := s.Sessions.BeginSession(r.Context(), userID, link.ClientEd25519Pub, link.ClientX25519Pub)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}

	record, err := currentRecord(r.Context(), s.Store, tokens.RefreshToken)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}
	s.setRefreshCookie(w, tokens.RefreshToken, record.RefreshExpiresAt)

	resp := magicLinkResponse{
		AccessToken:             tokens.AccessToken,
		UserID:                  fmt.Sprintf("%x", userID),
		ExpiresAt:               tokens.ExpiresAt.Unix(),
		ServerPubKey:            encodePubKey(tokens.ServerEd25519Pub),
		ServerX25519PubKey:      encodePubKey(tokens.ServerX25519Pub),
		EncryptedPrivkeyContext: hrcrypto.B64URLEncode(encryptedCtx),
		Next:                    link.Next,
	}

	signer, err := s.Sessions.ServerSigningKey(tokens.RefreshToken)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}
	if err := sealResponse(w, signer, resp); err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
	}
}

// refreshRequest is /refresh's envelope payload: the client's proposed
// next-window ephemeral keys, always sent regardless of whether the
// server ends up rotating.
type refreshRequest struct {
	NewEd string `json:"new_ed25519_pub_key"`
	NewX  string `json:"new_x25519_pub_key"`
}

type refreshResponse struct {
	AccessToken        string `json:"access_token"`
	ExpiresAt          int64  `json:"expires_at"`
	ServerPubKey       string `json:"server_pub_key,omitempty"`
	ServerX25519PubKey string `json:"server_x25519_pub_key,omitempty"`
}

// handleRefresh evaluates the sliding window and, per spec.md Testable
// Property 5, omits server_pub_key/server_x25519_pub_key entirely from
// the response when no rotation occurred.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := refreshCookieFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "InvalidSignature", err.Error())
		return
	}

	record, err := currentRecord(r.Context(), s.Store, refreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "InvalidSignature", "unknown refresh record")
		return
	}

	env, err := readEnvelope(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidEncoding", err.Error())
		return
	}
	var req refreshRequest
	if err := envelope.Open(ed25519PubFromArray(record.ClientEd25519Pub), env, &req); err != nil {
		writeEnvelopeError(w, err)
		return
	}

	newEdBytes, err := hrcrypto.B64URLDecode(req.NewEd)
	if err != nil || len(newEdBytes) != 32 {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid new_ed25519_pub_key")
		return
	}
	newXBytes, err := hrcrypto.B64URLDecode(req.NewX)
	if err != nil || len(newXBytes) != 32 {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid new_x25519_pub_key")
		return
	}
	var newEd, newX [32]byte
	copy(newEd[:], newEdBytes)
	copy(newX[:], newXBytes)

	result, err := s.Sessions.Refresh(r.Context(), refreshToken, newEd, newX)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}

	switch result.Decision {
	case session.Expired:
		writeError(w, http.StatusUnauthorized, "RefreshExpired", "session expired, please log in again")
		return
	case session.Rotate:
		s.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiresAt)
		resp := refreshResponse{
			AccessToken:        result.AccessToken,
			ExpiresAt:          result.ExpiresAt.Unix(),
			ServerPubKey:       encodePubKey(result.ServerEd25519Pub),
			ServerX25519PubKey: encodePubKey(result.ServerX25519Pub),
		}
		signer, err := s.Sessions.ServerSigningKey(result.RefreshToken)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
			return
		}
		if err := sealResponse(w, signer, resp); err != nil {
			writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		}
	default: // NoRotation
		resp := refreshResponse{AccessToken: result.AccessToken, ExpiresAt: result.ExpiresAt.Unix()}
		signer, err := s.Sessions.ServerSigningKey(refreshToken)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
			return
		}
		if err := sealResponse(w, signer, resp); err != nil {
			writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		}
	}
}

type logoutAck struct {
	LoggedOut bool `json:"logged_out"`
}

// handleLogout revokes the refresh record server-side and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ac, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "InvalidSignature", err.Error())
		return
	}

	// The signing key lives for the refresh window being revoked, so it
	// must be loaded before Revoke retires it.
	signer, signErr := s.Sessions.ServerSigningKey(ac.RefreshToken)

	if err := s.Sessions.Revoke(r.Context(), ac.RefreshToken); err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}
	s.clearRefreshCookie(w)

	if signErr != nil {
		writeJSON(w, http.StatusOK, logoutAck{LoggedOut: true})
		return
	}
	_ = sealResponse(w, signer, logoutAck{LoggedOut: true})
}

// rotateKeysRequest publishes a user's permanent Sistema B public keys.
type rotateKeysRequest struct {
	Ed25519PubKey string `json:"ed25519_pub_key"`
	X25519PubKey  string `json:"x25519_pub_key"`
}

type rotateKeysAck struct {
	Published bool `json:"published"`
}

// handleRotateKeys accepts a user's self-derived permanent public keys and
// persists them to storage.PublicKeyStore, keyed by user ID (spec.md §3:
// "Public halves are published to the server at /keys/rotate"). HashRand
// never learns the corresponding private halves; this endpoint only
// records the public ones that other users' clients will look up when
// addressing a shared secret.
func (s *Server) handleRotateKeys(w http.ResponseWriter, r *http.Request) {
	ac, err := s.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "InvalidSignature", err.Error())
		return
	}

	var req rotateKeysRequest
	if err := openAuthenticated(r, ac, &req); err != nil {
		writeEnvelopeError(w, err)
		return
	}

	edPub, xPub, err := pubKeyPair{Ed25519PubKey: req.Ed25519PubKey, X25519PubKey: req.X25519PubKey}.decode()
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	rec := &storage.PublicKeyRecord{
		UserID:        ac.UserID,
		Ed25519PubKey: edPub,
		X25519PubKey:  xPub,
	}
	if err := s.Store.PublicKeyStore().Upsert(r.Context(), rec); err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}

	signer, err := s.Sessions.ServerSigningKey(ac.RefreshToken)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
		return
	}
	if err := sealResponse(w, signer, rotateKeysAck{Published: true}); err != nil {
		writeError(w, http.StatusServiceUnavailable, "TransientStorage", err.Error())
	}
}

func ed25519PubFromArray(b [32]byte) ed25519.PublicKey {
	return ed25519.PublicKey(b[:])
}
