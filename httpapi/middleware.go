// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashrand-project/hashrand/envelope"
	"github.com/hashrand-project/hashrand/storage"
)

// authContext is the result of authenticating a request: the caller's
// identity from the access token, and the client ephemeral Ed25519 key
// the refresh record has on file, used to verify this request's envelope.
type authContext struct {
	UserID       [16]byte
	RefreshToken string
	ClientEdPub  ed25519.PublicKey
	ClientXPub   [32]byte
}

// authenticate validates the bearer access token and looks up the
// refresh record named by the refresh cookie to recover the client's
// ephemeral Ed25519 public key for envelope verification. Both are
// required: the access token proves who is calling, the refresh record
// supplies the key the call's signature must check out against.
func (s *Server) authenticate(r *http.Request) (*authContext, error) {
	tokenString, err := bearerToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := s.Sessions.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	userIDBytes, err := hex.DecodeString(claims.Subject)
	if err != nil || len(userIDBytes) != 16 {
		return nil, errors.New("invalid access token subject")
	}
	var userID [16]byte
	copy(userID[:], userIDBytes)

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return nil, errors.New("missing refresh cookie")
	}
	record, err := s.Store.RefreshStore().Get(r.Context(), cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("unknown refresh record: %w", err)
	}
	if record.UserID != userID {
		return nil, errors.New("access token does not match refresh record")
	}

	return &authContext{
		UserID:       userID,
		RefreshToken: cookie.Value,
		ClientEdPub:  record.ClientEd25519Pub[:],
		ClientXPub:   record.ClientX25519Pub,
	}, nil
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", errors.New("missing bearer token")
	}
	return strings.TrimPrefix(h, prefix), nil
}

// openAuthenticated reads and verifies a request envelope for an
// authenticated endpoint, against the client ephemeral key on file for
// the caller's refresh record.
func openAuthenticated(r *http.Request, ac *authContext, out interface{}) error {
	env, err := readEnvelope(r)
	if err != nil {
		return err
	}
	return envelope.Open(ac.ClientEdPub, env, out)
}

// refreshCookieFromRequest reads the raw refresh token, for endpoints
// (like /refresh itself) that authenticate purely via the cookie without
// also requiring a bearer access token.
func refreshCookieFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return "", errors.New("missing refresh cookie")
	}
	return cookie.Value, nil
}

// currentRecord fetches the refresh record for the cookie on r, for
// handlers that need the client's on-file ephemeral key before the
// session manager has evaluated the refresh window (e.g. to verify the
// /refresh request's own envelope, which is signed with the OLD
// ephemeral key, not the new one being proposed).
func currentRecord(ctx context.Context, store storage.Store, token string) (*storage.RefreshRecord, error) {
	return store.RefreshStore().Get(ctx, token)
}
