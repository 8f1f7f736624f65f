// Copyright (C) 2025 hashrand-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package session

import (
	"context"
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	hrcrypto "github.com/hashrand-project/hashrand/crypto"
	"github.com/hashrand-project/hashrand/crypto/keys"
	_ "github.com/hashrand-project/hashrand/internal/cryptoinit"
	"github.com/hashrand-project/hashrand/storage"
)

// LoginTokens is returned once a session is established, at magic-link
// consumption or at a rotating refresh.
type LoginTokens struct {
	AccessToken      string
	ExpiresAt        time.Time
	RefreshToken     string
	ServerEd25519Pub [32]byte
	ServerX25519Pub  [32]byte
}

// Manager owns the magic-link / refresh-record / access-token lifecycle
// (spec.md §4.D). Server-side ephemeral signing and ECDH keys live in an
// in-process hrcrypto.Manager keyed by refresh token, never in the durable
// storage.Store, so the durable side of a session is pure bookkeeping.
type Manager struct {
	store  storage.Store
	keys   *hrcrypto.Manager
	config Config

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

// NewManager creates a session manager backed by store, with a background
// sweep of expired refresh records and magic links every 30 seconds,
// mirroring the teacher's session cleanup ticker.
func NewManager(store storage.Store, cfg Config) *Manager {
	m := &Manager{
		store:       store,
		keys:        hrcrypto.NewManager(),
		config:      withDefaults(cfg),
		stopCleanup: make(chan struct{}),
	}
	m.cleanupTicker = time.NewTicker(30 * time.Second)
	go m.runCleanup()
	return m
}

// CreateMagicLink mints a single-use magic-link record bound to the
// caller's ephemeral keys and login intent (spec.md §4.D "Magic-link
// issuance"). The returned token is delivered to the user as
// `{ui_host}/?magiclink={token}` by the email adapter.
func (m *Manager) CreateMagicLink(ctx context.Context, email, uiHost, next, emailLang string, clientEd, clientX [32]byte) (string, error) {
	token := uuid.NewString()
	link := &storage.MagicLink{
		Token:            token,
		Email:            email,
		UIHost:           uiHost,
		Next:             next,
		EmailLang:        emailLang,
		ClientEd25519Pub: clientEd,
		ClientX25519Pub:  clientX,
		ExpiresAt:        time.Now().Add(m.config.MagicTTL),
		CreatedAt:        time.Now(),
	}
	if err := m.store.MagicLinkStore().Create(ctx, link); err != nil {
		return "", fmt.Errorf("create magic link: %w", err)
	}
	return token, nil
}

// ConsumeMagicLink redeems token exactly once (spec.md: "same magic_token
// cannot be consumed twice, enforced by deletion on success").
func (m *Manager) ConsumeMagicLink(ctx context.Context, token string) (*storage.MagicLink, error) {
	return m.store.MagicLinkStore().Consume(ctx, token)
}

// EnsurePrivkeyContext mints the per-user Sistema B derivation seed on
// first login, reusing it thereafter (spec.md §4.D step 1).
func (m *Manager) EnsurePrivkeyContext(ctx context.Context, userID [16]byte) (*storage.PrivkeyContext, error) {
	return m.store.PrivkeyContextStore().GetOrCreate(ctx, userID, func() ([32]byte, error) {
		var seed [32]byte
		if _, err := rand.Read(seed[:]); err != nil {
			return seed, fmt.Errorf("generate privkey context: %w", err)
		}
		return seed, nil
	})
}

// BeginSession mints a fresh server ephemeral keypair, a refresh record
// bound to the client's reported ephemeral keys, and an access token
// signed under the new server Ed25519 key. This is called once at
// magic-link consumption (spec.md §4.D steps 3-4).
func (m *Manager) BeginSession(ctx context.Context, userID [16]byte, clientEd, clientX [32]byte) (*LoginTokens, error) {
	token := uuid.NewString()
	now := time.Now()

	serverEdPub, serverXPub, err := m.mintServerKeys(token)
	if err != nil {
		return nil, err
	}

	record := &storage.RefreshRecord{
		Token:            token,
		UserID:           userID,
		IssuedAt:         now,
		RefreshExpiresAt: now.Add(m.config.RefreshTTL),
		ClientEd25519Pub: clientEd,
		ClientX25519Pub:  clientX,
	}
	if err := m.store.RefreshStore().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create refresh record: %w", err)
	}

	accessToken, expiresAt, err := m.signAccessToken(token, userID)
	if err != nil {
		return nil, err
	}

	return &LoginTokens{
		AccessToken:      accessToken,
		ExpiresAt:        expiresAt,
		RefreshToken:     token,
		ServerEd25519Pub: serverEdPub,
		ServerX25519Pub:  serverXPub,
	}, nil
}

// RefreshResult is the outcome of evaluating the sliding window.
type RefreshResult struct {
	Decision         RotationDecision
	AccessToken      string
	ExpiresAt        time.Time
	RefreshToken     string    // new token, set only when Decision == Rotate
	RefreshExpiresAt time.Time // new cookie expiry, set only when Decision == Rotate
	ServerEd25519Pub [32]byte  // set only when Decision == Rotate
	ServerX25519Pub  [32]byte  // set only when Decision == Rotate
}

// Refresh implements spec.md §4.D's sliding-window refresh: age < R/3 mints
// only an access token; R/3 <= age < R rotates the refresh record and
// server ephemeral keys; age >= R refuses.
func (m *Manager) Refresh(ctx context.Context, refreshToken string, newClientEd, newClientX [32]byte) (*RefreshResult, error) {
	record, err := m.store.RefreshStore().Get(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	age := time.Since(record.IssuedAt)
	third := m.config.RefreshTTL / 3

	if age >= m.config.RefreshTTL {
		return &RefreshResult{Decision: Expired}, nil
	}

	if age < third {
		accessToken, expiresAt, err := m.signAccessToken(refreshToken, record.UserID)
		if err != nil {
			return nil, err
		}
		return &RefreshResult{Decision: NoRotation, AccessToken: accessToken, ExpiresAt: expiresAt}, nil
	}

	freshToken := uuid.NewString()
	now := time.Now()
	fresh := &storage.RefreshRecord{
		Token:            freshToken,
		UserID:           record.UserID,
		IssuedAt:         now,
		RefreshExpiresAt: now.Add(m.config.RefreshTTL),
		ClientEd25519Pub: newClientEd,
		ClientX25519Pub:  newClientX,
	}
	if err := m.store.RefreshStore().Rotate(ctx, refreshToken, fresh); err != nil {
		return nil, fmt.Errorf("rotate refresh record: %w", err)
	}
	m.retireServerKeys(refreshToken)

	serverEdPub, serverXPub, err := m.mintServerKeys(freshToken)
	if err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := m.signAccessToken(freshToken, record.UserID)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		Decision:         Rotate,
		AccessToken:      accessToken,
		ExpiresAt:        expiresAt,
		RefreshToken:     freshToken,
		RefreshExpiresAt: fresh.RefreshExpiresAt,
		ServerEd25519Pub: serverEdPub,
		ServerX25519Pub:  serverXPub,
	}, nil
}

// Revoke invalidates refreshToken immediately (spec.md §4.D "Logout",
// optional server-side revoke).
func (m *Manager) Revoke(ctx context.Context, refreshToken string) error {
	m.retireServerKeys(refreshToken)
	return m.store.RefreshStore().Delete(ctx, refreshToken)
}

// Close stops the background sweep.
func (m *Manager) Close() error {
	close(m.stopCleanup)
	if m.cleanupTicker != nil {
		m.cleanupTicker.Stop()
	}
	return nil
}

// VerifyAccessToken parses and verifies tokenString against the server
// ephemeral Ed25519 public key identified by its "kid" header, an
// in-process lookup rather than a storage round-trip.
func (m *Manager) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != "EdDSA" {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		kid, _ := t.Header["kid"].(string)
		keyPair, err := m.keys.LoadKeyPair(edKeyID(kid))
		if err != nil {
			return nil, err
		}
		pub, ok := keyPair.PublicKey().(ed25519.PublicKey)
		if !ok {
			return nil, fmt.Errorf("stored key is not Ed25519")
		}
		return pub, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid access token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	sub, _ := claims["sub"].(string)
	exp, _ := claims["exp"].(float64)
	iat, _ := claims["iat"].(float64)

	return &AccessClaims{Subject: sub, ExpiresAt: int64(exp), IssuedAt: int64(iat)}, nil
}

// mintServerKeys generates fresh Ed25519/X25519 key material for the
// refresh window identified by token, then stores each under a
// token-derived id (not the key's own content-hash id) so a later
// signAccessToken/VerifyAccessToken lookup by token succeeds.
func (m *Manager) mintServerKeys(token string) (edPub, xPub [32]byte, err error) {
	_, edPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return edPub, xPub, fmt.Errorf("generate server ed25519 key: %w", err)
	}
	edKeyPair, err := keys.NewEd25519KeyPair(edPriv, edKeyID(token))
	if err != nil {
		return edPub, xPub, fmt.Errorf("wrap server ed25519 key: %w", err)
	}

	xPriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return edPub, xPub, fmt.Errorf("generate server x25519 key: %w", err)
	}
	xKeyPair, err := keys.NewX25519KeyPair(xPriv, xKeyID(token))
	if err != nil {
		return edPub, xPub, fmt.Errorf("wrap server x25519 key: %w", err)
	}

	if err := m.keys.StoreKeyPair(edKeyPair); err != nil {
		return edPub, xPub, err
	}
	if err := m.keys.StoreKeyPair(xKeyPair); err != nil {
		return edPub, xPub, err
	}

	edPubKey, ok := edKeyPair.PublicKey().(ed25519.PublicKey)
	if !ok {
		return edPub, xPub, fmt.Errorf("generated key is not Ed25519")
	}
	copy(edPub[:], edPubKey)

	xPubKey, ok := xKeyPair.PublicKey().(*ecdh.PublicKey)
	if !ok {
		return edPub, xPub, fmt.Errorf("generated key is not X25519")
	}
	copy(xPub[:], xPubKey.Bytes())

	return edPub, xPub, nil
}

func (m *Manager) retireServerKeys(token string) {
	_ = m.keys.DeleteKeyPair(edKeyID(token))
	_ = m.keys.DeleteKeyPair(xKeyID(token))
}

func (m *Manager) signAccessToken(token string, userID [16]byte) (string, time.Time, error) {
	keyPair, err := m.keys.LoadKeyPair(edKeyID(token))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("load server signing key: %w", err)
	}
	signer, ok := keyPair.PrivateKey().(ed25519.PrivateKey)
	if !ok {
		return "", time.Time{}, fmt.Errorf("server signing key is not Ed25519")
	}

	now := time.Now()
	expiresAt := now.Add(m.config.AccessTTL)
	claims := jwt.MapClaims{
		"sub": fmt.Sprintf("%x", userID),
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	jwtToken.Header["kid"] = token

	signed, err := jwtToken.SignedString(signer)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ServerSigningKey returns the ephemeral Ed25519 private key for the
// refresh window identified by refreshToken, for signing response
// envelopes (spec.md §4.B "bootstrapped on the first signed response
// after login").
func (m *Manager) ServerSigningKey(refreshToken string) (ed25519.PrivateKey, error) {
	keyPair, err := m.keys.LoadKeyPair(edKeyID(refreshToken))
	if err != nil {
		return nil, fmt.Errorf("load server signing key: %w", err)
	}
	signer, ok := keyPair.PrivateKey().(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("server signing key is not Ed25519")
	}
	return signer, nil
}

func edKeyID(token string) string { return token + ".ed25519" }
func xKeyID(token string) string  { return token + ".x25519" }

func (m *Manager) runCleanup() {
	for {
		select {
		case <-m.cleanupTicker.C:
			m.sweepExpired()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) sweepExpired() {
	ctx := context.Background()
	_, _ = m.store.RefreshStore().DeleteExpired(ctx)
	_, _ = m.store.MagicLinkStore().DeleteExpired(ctx)
}
