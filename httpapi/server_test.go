// SPDX-License-Identifier: LGPL-3.0-or-later

package httpapi

import (
	"bytes"
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	hrcrypto "github.com/hashrand-project/hashrand/crypto"
	"github.com/hashrand-project/hashrand/envelope"
	"github.com/hashrand-project/hashrand/internal/email"
	"github.com/hashrand-project/hashrand/internal/logger"
	"github.com/hashrand-project/hashrand/secret"
	"github.com/hashrand-project/hashrand/session"
	"github.com/hashrand-project/hashrand/storage/memory"
)

func testServer(t *testing.T) (*Server, *email.DryRunSender) {
	t.Helper()
	store := memory.NewStore()
	sessions := session.NewManager(store, session.Config{
		MagicTTL:   time.Minute,
		AccessTTL:  time.Minute,
		RefreshTTL: 9 * time.Minute, // R/3 = 3 minutes, comfortably above test runtime
	})
	t.Cleanup(func() { _ = sessions.Close() })

	var master [hrcrypto.MasterKeySize]byte
	_, err := rand.Read(master[:])
	require.NoError(t, err)

	engine := secret.NewEngine(store, master)
	mailer := email.NewDryRunSender()
	log := logger.New("error", "json")

	srv := NewServer(sessions, engine, store, mailer, log, master, "https://app.test")
	return srv, mailer
}

type clientKeys struct {
	edPub  ed25519.PublicKey
	edPriv ed25519.PrivateKey
	xPriv  *ecdh.PrivateKey
	xPub   [32]byte
}

func newClientKeys(t *testing.T) clientKeys {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	xPriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	require.NoError(t, err)
	var xPub [32]byte
	copy(xPub[:], xPriv.PublicKey().Bytes())
	return clientKeys{edPub: pub, edPriv: priv, xPriv: xPriv, xPub: xPub}
}

func (c clientKeys) pubKeyPair() pubKeyPair {
	var edArr [32]byte
	copy(edArr[:], c.edPub)
	return pubKeyPair{Ed25519PubKey: encodePubKey(edArr), X25519PubKey: encodePubKey(c.xPub)}
}

func sealedBody(t *testing.T, priv ed25519.PrivateKey, payload interface{}) *bytes.Reader {
	t.Helper()
	env, err := envelope.Seal(priv, payload)
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

// openUnverified peeks a response envelope's payload without checking the
// signature, mirroring the client's bootstrap step for a server key it
// does not know yet.
func openUnverified(t *testing.T, body []byte, out interface{}) {
	t.Helper()
	var env envelope.Envelope
	require.NoError(t, json.Unmarshal(body, &env))
	raw, err := hrcrypto.B64URLDecode(env.Payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

var magicLinkRe = regexp.MustCompile(`magiclink=([^&\s]+)`)

func TestLoginMagicLinkCreateViewDeleteFlow(t *testing.T) {
	srv, mailer := testServer(t)
	mux := http.NewServeMux()
	srv.Routes(mux)

	client := newClientKeys(t)

	// --- /login ---
	loginReq := loginRequest{
		Email:     "Alice@Example.com ",
		UIHost:    "https://app.test",
		Next:      "/",
		EmailLang: "en",
		PubKey:    client.pubKeyPair(),
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login/", sealedBody(t, client.edPriv, loginReq)))
	require.Equal(t, http.StatusOK, w.Code)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	match := magicLinkRe.FindStringSubmatch(sent[0].Body)
	require.Len(t, match, 2)
	magicToken := match[1]

	// --- /login/magiclink ---
	magicReq := magicLinkRequest{MagicLink: magicToken}
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login/magiclink/", sealedBody(t, client.edPriv, magicReq)))
	require.Equal(t, http.StatusOK, w.Code)

	var magicResp magicLinkResponse
	openUnverified(t, w.Body.Bytes(), &magicResp)
	require.NotEmpty(t, magicResp.AccessToken)
	require.NotEmpty(t, magicResp.ServerPubKey)
	require.NotEmpty(t, magicResp.EncryptedPrivkeyContext)

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	// --- POST /shared-secret ---
	createReq := createSecretRequest{
		SenderEmail:   "alice@example.com",
		ReceiverEmail: "bob@example.com",
		SecretText:    "the launch code is 1234",
		ExpiresHours:  24,
		MaxReads:      2,
	}
	req := httptest.NewRequest(http.MethodPost, "/api/shared-secret", sealedBody(t, client.edPriv, createReq))
	req.Header.Set("Authorization", "Bearer "+magicResp.AccessToken)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var createResp createSecretResponse
	openUnverified(t, w.Body.Bytes(), &createResp)
	require.NotEmpty(t, createResp.URLSender)
	require.NotEmpty(t, createResp.URLReceiver)

	// --- GET /shared-secret/{url_hash} as sender: never decrements ---
	urlHash := createResp.URLSender
	req = httptest.NewRequest(http.MethodGet, "/api/shared-secret/"+urlHash, nil)
	req.Header.Set("Authorization", "Bearer "+magicResp.AccessToken)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var viewResp viewSecretResponse
	openUnverified(t, w.Body.Bytes(), &viewResp)
	require.Equal(t, "the launch code is 1234", viewResp.SecretText)
	require.Equal(t, "sender", viewResp.Role)
	require.Equal(t, 2, viewResp.PendingReads)

	// --- DELETE /shared-secret/{url_hash} as sender: cascades ---
	req = httptest.NewRequest(http.MethodDelete, "/api/shared-secret/"+urlHash, nil)
	req.Header.Set("Authorization", "Bearer "+magicResp.AccessToken)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// A second delete must now see it gone.
	req = httptest.NewRequest(http.MethodDelete, "/api/shared-secret/"+urlHash, nil)
	req.Header.Set("Authorization", "Bearer "+magicResp.AccessToken)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusGone, w.Code)
}

func TestConsumeMagicLinkTwiceReturnsConflict(t *testing.T) {
	srv, mailer := testServer(t)
	mux := http.NewServeMux()
	srv.Routes(mux)

	client := newClientKeys(t)
	loginReq := loginRequest{Email: "carol@example.com", UIHost: "https://app.test", PubKey: client.pubKeyPair()}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login/", sealedBody(t, client.edPriv, loginReq)))
	require.Equal(t, http.StatusOK, w.Code)

	match := magicLinkRe.FindStringSubmatch(mailer.Sent()[0].Body)
	require.Len(t, match, 2)
	magicReq := magicLinkRequest{MagicLink: match[1]}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login/magiclink/", sealedBody(t, client.edPriv, magicReq)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/login/magiclink/", sealedBody(t, client.edPriv, magicReq)))
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestVersionEndpointIsUnwrapped(t *testing.T) {
	srv, _ := testServer(t)
	mux := http.NewServeMux()
	srv.Routes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body, "version")
}
