package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hpungsan/murmur/internal/auth"
	"github.com/hpungsan/murmur/internal/config"
	"github.com/hpungsan/murmur/internal/db"
	"github.com/hpungsan/murmur/internal/insight"
)

const adminPassword = "correct horse"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testServer struct {
	router http.Handler
	cookie *http.Cookie
}

func setupTest(t *testing.T) *testServer {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	authn := auth.New(auth.NewMemoryStore(), auth.Options{Password: adminPassword})

	router := NewRouter(Options{
		DB:        database,
		Config:    cfg,
		Auth:      authn,
		Generator: insight.NewEngine(nil),
		Logger:    zaptest.NewLogger(t),
	})
	return &testServer{router: router}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/login", `{"password":"`+adminPassword+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			s.cookie = c
		}
	}
	require.NotNil(t, s.cookie, "login should set the session cookie")
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, w)
	require.Equal(t, false, body["success"])
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "error object missing: %v", body)
	return errObj["code"].(string)
}

func TestSubmit(t *testing.T) {
	s := setupTest(t)

	w := s.do(t, http.MethodPost, "/api/feedback", `{"text":"  The app is slow  "}`)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	require.Equal(t, float64(1), body["id"])
	require.Equal(t, "Feedback submitted successfully", body["message"])
}

func TestSubmit_Invalid(t *testing.T) {
	s := setupTest(t)

	for _, body := range []string{`{"text":""}`, `{"text":"   "}`, `{}`, `not json`} {
		w := s.do(t, http.MethodPost, "/api/feedback", body)
		require.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		require.Equal(t, "INVALID_REQUEST", errorCode(t, w))
	}
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	s := setupTest(t)

	routes := []struct{ method, path, body string }{
		{http.MethodGet, "/api/feedback", ""},
		{http.MethodGet, "/api/feedback/1", ""},
		{http.MethodPut, "/api/feedback/1", `{"status":"resolved"}`},
		{http.MethodGet, "/api/insights", ""},
	}
	for _, r := range routes {
		w := s.do(t, r.method, r.path, r.body)
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", r.method, r.path)
		require.Equal(t, "UNAUTHORIZED", errorCode(t, w))
	}

	// A forged cookie is no better than none
	s.cookie = &http.Cookie{Name: SessionCookie, Value: "forged"}
	w := s.do(t, http.MethodGet, "/api/feedback", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin(t *testing.T) {
	s := setupTest(t)

	w := s.do(t, http.MethodPost, "/api/login", `{"password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/login", `{"password":""}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "password is required", body["error"].(map[string]any)["message"])

	s.login(t)
	require.True(t, s.cookie.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, s.cookie.SameSite)
	require.Equal(t, int(auth.DefaultTTL.Seconds()), s.cookie.MaxAge)
}

func TestLogin_NotConfigured(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	router := NewRouter(Options{
		DB:   database,
		Auth: auth.New(auth.NewMemoryStore(), auth.Options{}),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, "an internal error occurred", body["error"].(map[string]any)["message"])
}

func TestAdminWorkflow(t *testing.T) {
	s := setupTest(t)
	for _, text := range []string{"The app is slow", "Slow loading times", "Great design"} {
		w := s.do(t, http.MethodPost, "/api/feedback", `{"text":"`+text+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	s.login(t)

	// List
	w := s.do(t, http.MethodGet, "/api/feedback", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, float64(3), body["count"])
	require.Len(t, body["data"], 3)

	// Get
	w = s.do(t, http.MethodGet, "/api/feedback/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	require.Equal(t, "Slow loading times", data["text"])
	require.Equal(t, "new", data["status"])

	// Bad and missing ids
	w = s.do(t, http.MethodGet, "/api/feedback/abc", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid feedback ID", decodeBody(t, w)["error"].(map[string]any)["message"])

	w = s.do(t, http.MethodGet, "/api/feedback/99", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOT_FOUND", errorCode(t, w))

	// Status updates
	w = s.do(t, http.MethodPut, "/api/feedback/2", `{"status":"closed"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/feedback/99", `{"status":"resolved"}`)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/api/feedback/2", `{"status":"resolved"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, decodeBody(t, w)["success"])

	w = s.do(t, http.MethodGet, "/api/feedback/2", "")
	require.Equal(t, "resolved", decodeBody(t, w)["data"].(map[string]any)["status"])

	// Insights
	w = s.do(t, http.MethodGet, "/api/insights", "")
	require.Equal(t, http.StatusOK, w.Code)
	result := decodeBody(t, w)["data"].(map[string]any)
	require.Contains(t, result["summary"], "Analyzed 3 feedback submissions")
	clusters := result["clusters"].([]any)
	require.NotEmpty(t, clusters)
	require.Equal(t, "Slow Related", clusters[0].(map[string]any)["title"])

	// Logout invalidates the session
	w = s.do(t, http.MethodPost, "/api/logout", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/feedback", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInsights_EmptyCorpus(t *testing.T) {
	s := setupTest(t)
	s.login(t)

	w := s.do(t, http.MethodGet, "/api/insights", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t,
		`{"success":true,"data":{"summary":"No feedback available to analyze yet.","clusters":[]}}`,
		w.Body.String())
}

func TestList_EmptyIsArray(t *testing.T) {
	s := setupTest(t)
	s.login(t)

	w := s.do(t, http.MethodGet, "/api/feedback", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true,"data":[],"count":0}`, w.Body.String())
}

func TestNotFoundRoute(t *testing.T) {
	s := setupTest(t)

	w := s.do(t, http.MethodGet, "/api/nope", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestHealth(t *testing.T) {
	s := setupTest(t)

	w := s.do(t, http.MethodGet, "/healthz", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok","feedback":0}`, w.Body.String())
}

func TestMiddlewareHeaders(t *testing.T) {
	s := setupTest(t)

	w := s.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}
