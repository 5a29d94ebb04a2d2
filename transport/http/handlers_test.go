package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"github.com/playsolmates/warden/adapters/store"
	"github.com/playsolmates/warden/adapters/tokenizer"
	"github.com/playsolmates/warden/config"
	"github.com/playsolmates/warden/core"
	"github.com/playsolmates/warden/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPublisher struct{}

func (nopPublisher) PublishLogin(ctx context.Context, wallet string) error  { return nil }
func (nopPublisher) PublishLogout(ctx context.Context, wallet string) error { return nil }

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
	priv   ed25519.PrivateKey
	wallet string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	memStore := store.NewMemoryStore()
	svc := service.NewAuthService(
		memStore,
		memStore,
		tokenizer.NewJWTTokenizer([]byte("test-signing-secret")),
		nopPublisher{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	cfg := &config.Config{
		AuthDomain:  "playsolmates.app",
		CORSOrigins: []string{"https://playsolmates.app"},
	}

	return &testServer{
		router: SetupRouter(svc, cfg),
		store:  memStore,
		priv:   priv,
		wallet: base58.Encode(pub),
	}
}

func (ts *testServer) post(t *testing.T, path string, body any, modify func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if modify != nil {
		modify(req)
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// login walks the full nonce -> sign -> verify flow and returns the response.
func (ts *testServer) login(t *testing.T) (*httptest.ResponseRecorder, string) {
	t.Helper()

	w := ts.post(t, "/auth/nonce", gin.H{"wallet": ts.wallet}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	nonce := body["nonce"].(string)
	message := body["messageToSign"].(string)
	require.Equal(t, float64(300), body["expiresIn"])

	sig := base64.StdEncoding.EncodeToString(ed25519.Sign(ts.priv, []byte(message)))
	return ts.post(t, "/auth/verify", gin.H{
		"wallet":    ts.wallet,
		"nonce":     nonce,
		"signature": sig,
	}, nil), nonce
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestNonceRequiresWallet(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post(t, "/auth/nonce", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNonceRejectsMalformedWallet(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post(t, "/auth/nonce", gin.H{"wallet": "definitely-not-a-key"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyFlow(t *testing.T) {
	ts := newTestServer(t)

	w, nonce := ts.login(t)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])

	user := body["user"].(map[string]any)
	assert.Equal(t, ts.wallet, user["wallet"])
	assert.Equal(t, "wallet", user["authProvider"])

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)

	// Replaying the consumed nonce fails.
	sig := base64.StdEncoding.EncodeToString(ed25519.Sign(ts.priv, []byte("whatever")))
	w = ts.post(t, "/auth/verify", gin.H{"wallet": ts.wallet, "nonce": nonce, "signature": sig}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyInvalidSignature(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post(t, "/auth/nonce", gin.H{"wallet": ts.wallet}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	nonce := decodeBody(t, w)["nonce"].(string)

	sig := base64.StdEncoding.EncodeToString(ed25519.Sign(ts.priv, []byte("wrong message")))
	w = ts.post(t, "/auth/verify", gin.H{"wallet": ts.wallet, "nonce": nonce, "signature": sig}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyUnknownNonce(t *testing.T) {
	ts := newTestServer(t)

	sig := base64.StdEncoding.EncodeToString(ed25519.Sign(ts.priv, []byte("msg")))
	w := ts.post(t, "/auth/verify", gin.H{"wallet": ts.wallet, "nonce": "never-issued", "signature": sig}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenEndpoint(t *testing.T) {
	ts := newTestServer(t)

	ts.store.SeedAccount(&core.Account{
		ID:            "user-1",
		Wallet:        "wallet-verified",
		Email:         "user@example.com",
		EmailVerified: true,
		DisplayName:   "Player One",
	})
	ts.store.SeedAccount(&core.Account{
		ID:     "user-2",
		Wallet: "wallet-unverified",
		Email:  "pending@example.com",
	})

	w := ts.post(t, "/auth/token", gin.H{"email": "user@example.com"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "user-1", user["id"])
	assert.Equal(t, "user@example.com", user["email"])
	assert.Equal(t, "Player One", user["displayName"])

	w = ts.post(t, "/auth/token", gin.H{"email": "pending@example.com"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.post(t, "/auth/token", gin.H{"email": "nobody@example.com"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.post(t, "/auth/token", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	ts := newTestServer(t)

	w := ts.post(t, "/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)

	// Idempotent: logging out twice is fine.
	w = ts.post(t, "/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMeWithSessionCookie(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.login(t)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie.Value})
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, ts.wallet, user["wallet"])
}

func TestMeWithBearerToken(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.login(t)
	require.Equal(t, http.StatusOK, w.Code)
	token := decodeBody(t, w)["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMeRejectsBadSessions(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		modify func(*http.Request)
	}{
		{"no credentials", func(r *http.Request) {}},
		{"tampered cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tampered.token.value"})
		}},
		{"foreign bearer", func(r *http.Request) {
			foreign, _ := tokenizer.NewJWTTokenizer([]byte("other-secret")).IssueSessionToken("wallet-abc")
			r.Header.Set("Authorization", "Bearer "+foreign)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			tt.modify(req)
			rec := httptest.NewRecorder()
			ts.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/auth/nonce", nil)
	req.Header.Set("Origin", "https://playsolmates.app")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://playsolmates.app", rec.Header().Get("Access-Control-Allow-Origin"))

	// Unlisted origins get no CORS grant.
	req = httptest.NewRequest(http.MethodOptions, "/auth/nonce", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
