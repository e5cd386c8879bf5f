package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/jobmarket/internal/platform"
	"github.com/jonathan/jobmarket/internal/server/ratelimit"
	"github.com/jonathan/jobmarket/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, rl *ratelimit.Config) *Server {
	t.Helper()
	verifiers, _ := testVerifiers()
	s := newServer("127.0.0.1:0", Dependencies{
		Store:     newMemoryStore(),
		Verifiers: verifiers,
		JWT:       testJWTConfig(),
		Password:  testPasswordConfig(),
		RateLimit: rl,
	})
	t.Cleanup(s.Close)
	return s
}

func serve(s *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_RootHealthProbe(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","service":"jobmarket-gateway"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(s, http.MethodGet, "/health", "", nil)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = serve(s, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "root route matches only /")
}

func TestServer_SignInThenMe(t *testing.T) {
	s := newTestServer(t, nil)

	w := serve(s, http.MethodPost, "/api/auth/line", `{"idToken":"valid:U9"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var auth types.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))

	bearer := http.Header{"Authorization": {"Bearer " + auth.Token}}

	w = serve(s, http.MethodPut, "/api/me/role", `{"role":"employer"}`, bearer)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(s, http.MethodGet, "/api/me", "", bearer)
	require.Equal(t, http.StatusOK, w.Code)
	var me types.IdentityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, auth.Identity.ID, me.Identity.ID)
	assert.Equal(t, types.RoleEmployer, *me.Identity.Role)
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown provider", http.MethodPost, "/api/auth/facebook", `{"idToken":"x"}`, http.StatusNotFound},
		{"missing id token", http.MethodPost, "/api/auth/google", `{}`, http.StatusBadRequest},
		{"invalid id token", http.MethodPost, "/api/auth/google", `{"idToken":"forged"}`, http.StatusUnauthorized},
		{"password route is not a provider", http.MethodPost, "/api/auth/password", `{"email":"a@example.com","password":"x"}`, http.StatusUnauthorized},
		{"me without token", http.MethodGet, "/api/me", "", http.StatusUnauthorized},
		{"role without token", http.MethodPut, "/api/me/role", `{"role":"seeker"}`, http.StatusUnauthorized},
		{"wrong method", http.MethodGet, "/api/auth/google", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, tt.method, tt.path, tt.body, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestServer_BadBearer(t *testing.T) {
	s := newTestServer(t, nil)
	w := serve(s, http.MethodGet, "/api/me", "", http.Header{"Authorization": {"Bearer not-a-jwt"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestServer_Platform(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name    string
		header  http.Header
		variant platform.Variant
	}{
		{"no markers", nil, platform.VariantWeb},
		{"messaging bridge", http.Header{platform.HeaderMessagingBridge: {"1"}}, platform.VariantMessagingClient},
		{"native android", http.Header{platform.HeaderNativeBridge: {"true"}, platform.HeaderNativeOS: {"Android"}}, platform.VariantNativeAndroid},
		{"messaging wins over native", http.Header{
			platform.HeaderMessagingBridge: {"1"},
			platform.HeaderNativeBridge:    {"1"},
			platform.HeaderNativeOS:        {"ios"},
		}, platform.VariantMessagingClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, http.MethodGet, "/api/platform", "", tt.header)
			require.Equal(t, http.StatusOK, w.Code)

			var resp PlatformResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.variant, resp.Variant)
			assert.Equal(t, platform.Resolve(tt.variant), resp.Capabilities)
		})
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	w := serve(s, http.MethodOptions, "/api/me", "", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), platform.HeaderNativeOS)
}

func TestServer_RateLimitsSignIn(t *testing.T) {
	s := newTestServer(t, &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Rules:         ratelimit.DefaultRules(20),
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		last = serve(s, http.MethodPost, "/api/auth/line", `{"idToken":"valid:U1"}`, nil)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))

	w := serve(s, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, "health probe is never limited")
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	http.DefaultClient.CloseIdleConnections()
}
