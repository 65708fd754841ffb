package management

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"essayproxy-go/internal/config"
	"essayproxy-go/internal/events"
	"essayproxy-go/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingBackend struct{ storage.NoopBackend }

func (failingBackend) Get(context.Context) (int, error) { return 0, errors.New("down") }
func (failingBackend) Set(context.Context, int) error { return errors.New("down") }

func setup(t *testing.T, backend storage.IndexBackend, hub *events.Hub) *gin.Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Upstream.APIKeys = []string{"AIzaFIRSTKEY0001", "AIzaSECONDKEY002", "AIzaTHIRDKEY0003"}
	h := NewRotationHandler(func() *config.Config { return cfg }, storage.FailOpen(backend, time.Second), time.Second, hub)
	r := gin.New()
	r.GET("/rotation", h.Get)
	r.PUT("/rotation", h.Set)
	return r
}

func do(r *gin.Engine, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/rotation", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRotationGetAndSet(t *testing.T) {
	backend := storage.NewMemoryBackend()
	hub := events.NewHub()
	var got []events.Event
	hub.Subscribe(events.TopicRotationIndexSet, func(_ context.Context, ev events.Event) { got = append(got, ev) })
	r := setup(t, backend, hub)

	w := do(r, http.MethodGet, "")
	require.Equal(t, http.StatusOK, w.Code)
	var st RotationState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "memory", st.Backend)
	assert.Equal(t, "current_gemini_key_index", st.Key)
	assert.Equal(t, 3, st.PoolSize)
	assert.Equal(t, 0, st.Position)
	assert.Equal(t, "AIza…0001", st.Credential)

	w = do(r, http.MethodPut, `{"index":4}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, "AIza…Y002", st.Credential)

	idx, err := backend.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Payload.(events.RotationEvent).Next)
}

func TestRotationSetValidation(t *testing.T) {
	r := setup(t, storage.NewMemoryBackend(), nil)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, `{"index":-1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, `nope`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPut, `{"index":0}`).Code)
}

func TestRotationStoreErrorsSurface(t *testing.T) {
	r := setup(t, failingBackend{}, nil)
	w := do(r, http.MethodGet, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "store_unavailable")
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPut, `{"index":1}`).Code)
}
