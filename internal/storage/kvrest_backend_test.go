package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	mu     sync.Mutex
	token  string
	values map[string]string
	// raw overrides the body returned for GET requests when set.
	raw    string
	status int
}

func (f *fakeKV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"WRONGPASS invalid token"}`)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
		return
	}
	switch {
	case r.URL.Path == "/ping":
		_, _ = io.WriteString(w, `{"result":"PONG"}`)
	case r.Method == http.MethodGet && len(r.URL.Path) > 5 && r.URL.Path[:5] == "/get/":
		if f.raw != "" {
			_, _ = io.WriteString(w, f.raw)
			return
		}
		v, ok := f.values[r.URL.Path[5:]]
		if !ok {
			_, _ = io.WriteString(w, `{"result":null}`)
			return
		}
		_, _ = io.WriteString(w, `{"result":"`+v+`"}`)
	case r.Method == http.MethodPost && len(r.URL.Path) > 5 && r.URL.Path[:5] == "/set/":
		body, _ := io.ReadAll(r.Body)
		f.values[r.URL.Path[5:]] = string(body)
		_, _ = io.WriteString(w, `{"result":"OK"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFakeKV(t *testing.T) (*fakeKV, *httptest.Server) {
	t.Helper()
	kv := &fakeKV{token: "tok", values: map[string]string{}}
	srv := httptest.NewServer(kv)
	t.Cleanup(srv.Close)
	return kv, srv
}

func TestKVRestRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakeKV(t)
	b := NewKVRestBackend(srv.URL+"/", "tok", "current_gemini_key_index", srv.Client())
	require.NoError(t, b.Initialize(ctx))

	idx, err := b.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "missing key reads as 0")

	require.NoError(t, b.Set(ctx, 2))
	idx, err = b.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestKVRestDoubleEncodedResult(t *testing.T) {
	kv, srv := newFakeKV(t)
	kv.raw = `{"result":"\"3\""}`
	b := NewKVRestBackend(srv.URL, "tok", "k", srv.Client())
	idx, err := b.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
}

func TestKVRestNumericResult(t *testing.T) {
	kv, srv := newFakeKV(t)
	kv.raw = `{"result":4}`
	b := NewKVRestBackend(srv.URL, "tok", "k", srv.Client())
	idx, err := b.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, idx)
}

func TestKVRestErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("bad token", func(t *testing.T) {
		_, srv := newFakeKV(t)
		b := NewKVRestBackend(srv.URL, "wrong", "k", srv.Client())
		_, err := b.Get(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
		require.Error(t, b.Set(ctx, 1))
		require.Error(t, b.Health(ctx))
	})

	t.Run("server error", func(t *testing.T) {
		kv, srv := newFakeKV(t)
		kv.status = http.StatusInternalServerError
		b := NewKVRestBackend(srv.URL, "tok", "k", srv.Client())
		_, err := b.Get(ctx)
		require.Error(t, err)
	})

	t.Run("garbage value", func(t *testing.T) {
		kv, srv := newFakeKV(t)
		kv.raw = `{"result":"not-a-number"}`
		b := NewKVRestBackend(srv.URL, "tok", "k", srv.Client())
		_, err := b.Get(ctx)
		var inv *ErrInvalidIndex
		require.ErrorAs(t, err, &inv)
	})

	t.Run("invalid json", func(t *testing.T) {
		kv, srv := newFakeKV(t)
		kv.raw = `<html>`
		b := NewKVRestBackend(srv.URL, "tok", "k", srv.Client())
		_, err := b.Get(ctx)
		require.Error(t, err)
	})

	t.Run("unreachable", func(t *testing.T) {
		b := NewKVRestBackend("http://127.0.0.1:1", "tok", "k", nil)
		_, err := b.Get(ctx)
		require.Error(t, err)
		// fail-open wrapper absorbs it
		assert.Equal(t, 0, FailOpen(b, 0).Read(ctx))
	})
}
