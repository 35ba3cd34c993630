package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"prop-backend/src/logger"
	"prop-backend/src/models"
	"prop-backend/src/state"
	"prop-backend/src/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, eaSecret string) *WebServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &models.MConfig{
		Name:           "test",
		Host:           "127.0.0.1",
		Port:           8080,
		LogLevel:       "ERROR",
		SessionSecret:  "test-session-secret",
		EASharedSecret: eaSecret,
		AdminUser:      "admin",
		Storage: models.MStorageConfig{
			DBType: "json",
			DBPath: filepath.Join(t.TempDir(), "state.json"),
		},
	}

	store, err := storage.NewJSONSnapshotStore(cfg, logger.NewLogger(cfg, "store"))
	require.NoError(t, err)
	require.NoError(t, store.Initialize())

	appState := state.NewAppState(store, logger.NewLogger(cfg, "state"))
	appState.Restore()

	return NewWebServer(cfg, appState, logger.NewLogger(cfg, "server"))
}

// -----------------------------------------------------------------------------
// Request helpers
// -----------------------------------------------------------------------------

func doJSON(s *WebServer, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func doForm(s *WebServer, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func doGet(s *WebServer, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func parseJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// loginAs runs the form login and returns the session cookies.
func loginAs(t *testing.T, s *WebServer, username, password string) []*http.Cookie {
	t.Helper()
	w := doForm(s, "/login", url.Values{"username": {username}, "password": {password}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

// -----------------------------------------------------------------------------
// Liveness
// -----------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	w := doGet(s, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

// -----------------------------------------------------------------------------
// Ingestion
// -----------------------------------------------------------------------------

func TestUpdateWithoutConfiguredSecret(t *testing.T) {
	s := newTestServer(t, "")
	w := doJSON(s, http.MethodPost, "/update", map[string]any{"login": "123"}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, parseJSON(t, w)["ok"])
}

func TestUpdateWrongSecret(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	w := doJSON(s, http.MethodPost, "/update",
		map[string]any{"login": "123", "balance": 1000},
		map[string]string{"x-api-key": "nope"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, s.State.AllLatest(), "telemetry table unchanged")
}

func TestUpdateMissingLogin(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	w := doJSON(s, http.MethodPost, "/update",
		map[string]any{"balance": 1000},
		map[string]string{"x-api-key": "ea-secret"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, parseJSON(t, w)["ok"])
}

func TestUpdateSecretInBody(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	w := doJSON(s, http.MethodPost, "/update",
		map[string]any{"apiKey": "ea-secret", "login": "123"}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, parseJSON(t, w)["ok"])
}

func TestUpdateNormalization(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	// Numeric login, no platform, positions not a sequence
	w := doJSON(s, http.MethodPost, "/update",
		map[string]any{"login": 95474178, "balance": 1000.5, "positions": "oops"},
		map[string]string{"x-api-key": "ea-secret"})
	require.Equal(t, http.StatusOK, w.Code)

	pkt, ok := s.State.Latest("95474178")
	require.True(t, ok)
	assert.Equal(t, "MT5", pkt.Platform)
	require.NotNil(t, pkt.Balance)
	assert.Equal(t, 1000.5, *pkt.Balance)
	assert.Nil(t, pkt.Equity, "missing numerics stay null")
	assert.Nil(t, pkt.Server)
	assert.NotNil(t, pkt.Positions)
	assert.Empty(t, pkt.Positions)
	assert.False(t, pkt.ReceivedAt.IsZero())
}

func TestUpdateLastWriteWins(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	headers := map[string]string{"x-api-key": "ea-secret"}

	doJSON(s, http.MethodPost, "/update", map[string]any{"login": "123", "balance": 1000}, headers)
	doJSON(s, http.MethodPost, "/update", map[string]any{"login": "123", "balance": 2500}, headers)

	pkt, ok := s.State.Latest("123")
	require.True(t, ok)
	require.NotNil(t, pkt.Balance)
	assert.Equal(t, 2500.0, *pkt.Balance)
	assert.Len(t, s.State.AllLatest(), 1)
}

func TestUpdateThenDiagReceived(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	doJSON(s, http.MethodPost, "/update",
		map[string]any{"login": "123", "balance": 1000},
		map[string]string{"x-api-key": "ea-secret"})

	w := doGet(s, "/diag-received", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := parseJSON(t, w)

	assert.Contains(t, out["keys"], "123")
	data := out["data"].(map[string]any)
	entry := data["123"].(map[string]any)
	assert.Equal(t, 1000.0, entry["balance"])
	assert.NotEmpty(t, entry["receivedAt"])
}

// -----------------------------------------------------------------------------
// Sessions
// -----------------------------------------------------------------------------

func TestLoginWrongCredentials(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	w := doForm(s, "/login", url.Values{"username": {"admin"}, "password": {"wrong"}}, nil)

	assert.Equal(t, http.StatusOK, w.Code, "failure carries no status signal")
	assert.Contains(t, w.Body.String(), "Retry")
	assert.Empty(t, w.Result().Cookies(), "no session established")
}

func TestLoginAndDashboard(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	cookies := loginAs(t, s, "marco.sabelli", "marco123")

	w := doGet(s, "/dashboard", cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Marco Sabelli")
	assert.Contains(t, w.Body.String(), "95474178")
	assert.Contains(t, w.Body.String(), "Awaiting data")
}

func TestDashboardRedirectsAnonymous(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	w := doGet(s, "/dashboard", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLogoutDestroysSession(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	cookies := loginAs(t, s, "admin", "admin123")

	w := doGet(s, "/logout", cookies)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// The expired cookie replaces the session
	expired := w.Result().Cookies()
	w = doGet(s, "/dashboard", expired)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

// -----------------------------------------------------------------------------
// Admin surface
// -----------------------------------------------------------------------------

func TestAdminGuardRejectsNonAdmin(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	cookies := loginAs(t, s, "marco.sabelli", "marco123")

	w := doGet(s, "/admin/bind", cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminGuardRedirectsAnonymous(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	w := doGet(s, "/admin/bind", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAdminCreateUserValidation(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	cookies := loginAs(t, s, "admin", "admin123")

	w := doForm(s, "/admin/users/new", url.Values{"username": {"alice"}}, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBindScenario(t *testing.T) {
	// Ingest for login 123, provision alice, bind, then read back through
	// the diagnostics surface.
	s := newTestServer(t, "ea-secret")

	w := doJSON(s, http.MethodPost, "/update",
		map[string]any{"login": "123", "balance": 1000},
		map[string]string{"x-api-key": "ea-secret"})
	require.Equal(t, http.StatusOK, w.Code)

	cookies := loginAs(t, s, "admin", "admin123")

	w = doForm(s, "/admin/users/new",
		url.Values{"username": {"alice"}, "password": {"alicepw"}, "displayName": {"Alice A"}}, cookies)
	require.Equal(t, http.StatusFound, w.Code)

	// The bind view offers 123 as unassigned
	w = doGet(s, "/admin/bind", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="123"`)

	w = doForm(s, "/admin/bind/do", url.Values{"user": {"alice"}, "login": {"123"}}, cookies)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/diag/alice", w.Header().Get("Location"))

	w = doGet(s, "/diag/alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := parseJSON(t, w)
	assert.Equal(t, "123", out["loginMT"])
	lastPacket := out["lastPacket"].(map[string]any)
	assert.Equal(t, 1000.0, lastPacket["balance"])

	// And 123 no longer shows up as unassigned
	w = doGet(s, "/admin/bind", cookies)
	assert.NotContains(t, w.Body.String(), `value="123"`)

	// Binding and displayName both survived
	acc, ok := s.State.Account("alice")
	require.True(t, ok)
	assert.Equal(t, "Alice A", acc.DisplayName)
	assert.Equal(t, "123", acc.LoginMT)
}

// -----------------------------------------------------------------------------
// Diagnostics
// -----------------------------------------------------------------------------

func TestDiagListsBindings(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	w := doGet(s, "/diag", nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := parseJSON(t, w)
	assert.Equal(t, true, out["ok"])

	slugs := out["slugs"].([]any)
	byUser := make(map[string]map[string]any, len(slugs))
	for _, raw := range slugs {
		row := raw.(map[string]any)
		byUser[row["user"].(string)] = row
	}

	marco := byUser["marco.sabelli"]
	require.NotNil(t, marco)
	assert.Equal(t, "95474178", marco["loginMT"])
	assert.Equal(t, false, marco["lastPacketExists"])
}

func TestDiagUnknownUser(t *testing.T) {
	s := newTestServer(t, "ea-secret")
	w := doGet(s, "/diag/nobody", nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := parseJSON(t, w)
	assert.Equal(t, true, out["ok"])
	assert.Nil(t, out["loginMT"])
	assert.Nil(t, out["lastPacket"])
}
