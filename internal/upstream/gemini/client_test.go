package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"essayproxy-go/internal/config"
	"essayproxy-go/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(config.UpstreamConfig{BaseURL: srv.URL + "/", Model: "gemini-test"}, srv.Client())
}

func TestClientAttemptRequestShape(t *testing.T) {
	var gotPath, gotKey, gotCT, gotBody, gotRID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotCT = r.Header.Get("Content-Type")
		gotRID = r.Header.Get("X-Client-Request-ID")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]},"finishReason":"STOP"}]}`))
	})

	ctx := upstream.WithRequestID(context.Background(), "rid-1")
	out := c.Attempt(ctx, "AIzaKEY", []byte(`{"contents":[]}`))

	assert.Equal(t, upstream.OutcomeSuccess, out.Kind)
	assert.Equal(t, "ok", out.Text)
	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "AIzaKEY", gotKey)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, `{"contents":[]}`, gotBody)
	assert.Equal(t, "rid-1", gotRID)
	assert.Equal(t, "gemini-test", c.Model())
}

func TestClientAttemptStatuses(t *testing.T) {
	status := http.StatusTooManyRequests
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
	})

	assert.Equal(t, upstream.OutcomeRateLimited, c.Attempt(context.Background(), "k", nil).Kind)

	status = http.StatusBadGateway
	assert.Equal(t, upstream.OutcomeServerError, c.Attempt(context.Background(), "k", nil).Kind)

	status = http.StatusUnauthorized
	out := c.Attempt(context.Background(), "k", nil)
	assert.Equal(t, upstream.OutcomeClientError, out.Kind)
	assert.Equal(t, 401, out.Status)
	assert.Equal(t, "nope", out.Message)
}

func TestClientAttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	out := c.Attempt(ctx, "k", nil)
	require.Equal(t, upstream.OutcomeNetworkFailure, out.Kind)
	assert.Equal(t, "timeout", out.Reason)
}

func TestClientAttemptCallerCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	assert.Equal(t, upstream.OutcomeCanceled, c.Attempt(ctx, "k", nil).Kind)
}

func TestClientAttemptConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	c := NewWithHTTPClient(config.UpstreamConfig{BaseURL: base}, &http.Client{})
	out := c.Attempt(context.Background(), "secret", nil)
	assert.Equal(t, upstream.OutcomeNetworkFailure, out.Kind)
	assert.NotEmpty(t, out.Reason)
}

func TestNewUsesDefaults(t *testing.T) {
	c := New(config.UpstreamConfig{})
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-pro:generateContent", c.endpoint())
	assert.NotNil(t, c.cli.Transport)
}
