package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"essayproxy-go/internal/config"
	"essayproxy-go/internal/constants"
	"essayproxy-go/internal/events"
	"essayproxy-go/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGemini answers generateContent with a per-key script.
type fakeGemini struct {
	mu     sync.Mutex
	byKey  map[string]int
	bodies map[int]string
	keys   []string
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	f.mu.Lock()
	f.keys = append(f.keys, key)
	status := f.byKey[key]
	f.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	switch {
	case status == http.StatusOK:
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"essay from ` + key + `"}]},"finishReason":"STOP"}]}`))
	case status == http.StatusBadRequest:
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"invalid topic","status":"INVALID_ARGUMENT"}}`))
	default:
		_, _ = w.Write([]byte(`{"error":{"message":"busy"}}`))
	}
}

type harness struct {
	engine  *gin.Engine
	gemini  *fakeGemini
	backend *storage.MemoryBackend
	hub     *events.Hub
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	fg := &fakeGemini{byKey: map[string]int{}}
	srv := httptest.NewServer(fg)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Upstream.BaseURL = srv.URL
	cfg.Upstream.APIKeys = []string{"k0", "k1", "k2"}
	cfg.Storage.Backend = config.BackendMemory
	cfg.Security.ManagementKey = "mgmt-key"
	cfg.Security.RequestLog = false
	if mutate != nil {
		mutate(cfg)
	}
	backend := storage.NewMemoryBackend()
	hub := events.NewHub()
	engine := BuildEngine(cfg, Dependencies{Store: storage.FailOpen(backend, 0), Events: hub})
	return &harness{engine: engine, gemini: fg, backend: backend, hub: hub}
}

func (h *harness) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

const essayBody = `{"topic":"燈","wordCount":600,"structure":"threeline"}`

func TestEndToEndRotationAcrossRequests(t *testing.T) {
	h := newHarness(t, nil)
	h.gemini.byKey["k0"] = http.StatusTooManyRequests

	var advanced int
	h.hub.Subscribe(events.TopicRotationAdvanced, func(context.Context, events.Event) { advanced++ })

	w := h.do(http.MethodPost, EssayPath, essayBody, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"essay":"essay from k1"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, 1, advanced)

	// the next request starts where the last one rotated to
	w = h.do(http.MethodPost, EssayPath, essayBody, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"k0", "k1", "k1"}, h.gemini.keys)
}

func TestEndToEndExhaustionAndClientError(t *testing.T) {
	h := newHarness(t, nil)
	for _, k := range []string{"k0", "k1", "k2"} {
		h.gemini.byKey[k] = http.StatusServiceUnavailable
	}
	w := h.do(http.MethodPost, EssayPath, essayBody, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	idx, _ := h.backend.Get(context.Background())
	assert.Equal(t, 0, idx)

	h.gemini.byKey["k0"] = http.StatusBadRequest
	w = h.do(http.MethodPost, EssayPath, essayBody, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid topic", body["error"])
}

func TestEssayMethodHandling(t *testing.T) {
	h := newHarness(t, nil)
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		w := h.do(m, EssayPath, "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, m)
		assert.Equal(t, "POST", w.Header().Get("Allow"), m)
		assert.Contains(t, w.Body.String(), "method not allowed")
	}
	w := h.do(http.MethodOptions, EssayPath, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestEssayBodyTooLarge(t *testing.T) {
	h := newHarness(t, nil)
	body := `{"topic":"` + strings.Repeat("x", int(constants.MaxRequestBodyBytes)) + `","wordCount":600,"structure":"classic"}`
	w := h.do(http.MethodPost, EssayPath, body, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "request body too large")
	assert.Empty(t, h.gemini.keys)
}

func TestBasePath(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Server.BasePath = "/essay" })
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/essay"+EssayPath, essayBody, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, EssayPath, essayBody, nil).Code)
}

func TestNoRouteIsJSON(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, w.Body.String(), `"error":"not found"`)
}

func TestHealthAndReadiness(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = h.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"memory"`)

	h = newHarness(t, func(c *config.Config) { c.Upstream.APIKeys = nil })
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/readyz", "", nil).Code)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/metrics", "", nil).Code)
}

func TestManagementRoutes(t *testing.T) {
	h := newHarness(t, nil)
	auth := map[string]string{"Authorization": "Bearer mgmt-key"}

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/management/rotation", "", nil).Code)

	w := h.do(http.MethodPut, "/api/management/rotation", `{"index":2}`, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodPost, EssayPath, essayBody, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"essay":"essay from k2"}`, w.Body.String())

	w = h.do(http.MethodGet, "/api/management/rotation", "", map[string]string{"X-Management-Key": "mgmt-key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"index":2`)

	h = newHarness(t, func(c *config.Config) { c.Security.ManagementKey = "" })
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/management/rotation", "", auth).Code)
}

func TestPanicsBecomeJSON(t *testing.T) {
	h := newHarness(t, nil)
	h.engine.GET("/panic", func(*gin.Context) { panic("boom") })
	w := h.do(http.MethodGet, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"internal_error"`)
}
