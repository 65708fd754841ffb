package gemini

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"

	"essayproxy-go/internal/upstream"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   upstream.OutcomeKind
		reason string
		msg    string
	}{
		{"success", 200, `{"candidates":[{"content":{"parts":[{"text":"An essay."}]},"finishReason":"STOP"}]}`, upstream.OutcomeSuccess, "", ""},
		{"prompt blocked", 200, `{"promptFeedback":{"blockReason":"SAFETY"}}`, upstream.OutcomeBlocked, "SAFETY", ""},
		{"finish safety", 200, `{"candidates":[{"finishReason":"SAFETY"}]}`, upstream.OutcomeBlocked, "SAFETY", ""},
		{"finish safety with partial text", 200, `{"candidates":[{"content":{"parts":[{"text":"partial"}]},"finishReason":"SAFETY"}]}`, upstream.OutcomeBlocked, "SAFETY", ""},
		{"finish recitation", 200, `{"candidates":[{"content":{"parts":[{"text":"  "}]},"finishReason":"RECITATION"}]}`, upstream.OutcomeBlocked, "RECITATION", ""},
		{"empty text", 200, `{"candidates":[{"content":{"parts":[{"text":""}]},"finishReason":"STOP"}]}`, upstream.OutcomeBlocked, "empty", ""},
		{"no candidates", 200, `{"candidates":[]}`, upstream.OutcomeBlocked, "no_candidates", ""},
		{"invalid json", 200, `<html>`, upstream.OutcomeNetworkFailure, "invalid_json", ""},
		{"rate limited", 429, `{"error":{"message":"quota"}}`, upstream.OutcomeRateLimited, "", ""},
		{"server error", 503, ``, upstream.OutcomeServerError, "", ""},
		{"bad request", 400, `{"error":{"code":400,"message":"invalid topic","status":"INVALID_ARGUMENT"}}`, upstream.OutcomeClientError, "", "invalid topic"},
		{"forbidden raw body", 403, `denied`, upstream.OutcomeClientError, "", "denied"},
		{"not found empty body", 404, ``, upstream.OutcomeClientError, "", "Not Found"},
		{"request timeout is client", 408, `{}`, upstream.OutcomeClientError, "", "Request Timeout"},
		{"redirect", 302, ``, upstream.OutcomeNetworkFailure, "unexpected_status", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(tt.status, []byte(tt.body), nil, nil)
			assert.Equal(t, tt.kind, out.Kind)
			if tt.reason != "" {
				assert.Equal(t, tt.reason, out.Reason)
			}
			if tt.msg != "" {
				assert.Equal(t, tt.msg, out.Message)
			}
		})
	}
}

func TestClassifySuccessSkipsThoughtsAndReadsUsage(t *testing.T) {
	body := `{"response":{"candidates":[{"content":{"parts":[
		{"text":"planning...","thought":true},
		{"text":"Hello "},{"text":"world"}]},"finishReason":"STOP"}],
		"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":34,"totalTokenCount":46}}}`
	out := Classify(200, []byte(body), nil, nil)
	assert.Equal(t, upstream.OutcomeSuccess, out.Kind)
	assert.Equal(t, "Hello world", out.Text)
	assert.Equal(t, "STOP", out.FinishReason)
	assert.Equal(t, int64(46), out.Usage.TotalTokens)
}

func TestClassifyTransportErrors(t *testing.T) {
	dnsErr := &url.Error{Op: "Post", URL: "https://x?key=secret", Err: &net.DNSError{Err: "no such host", Name: "x"}}

	assert.Equal(t, upstream.OutcomeCanceled, Classify(0, nil, dnsErr, context.Canceled).Kind)

	out := Classify(0, nil, dnsErr, context.DeadlineExceeded)
	assert.Equal(t, upstream.OutcomeNetworkFailure, out.Kind)
	assert.Equal(t, "timeout", out.Reason)

	out = Classify(0, nil, dnsErr, nil)
	assert.Equal(t, upstream.OutcomeNetworkFailure, out.Kind)
	assert.Equal(t, "dns", out.Reason)

	out = Classify(0, nil, errors.New("read tcp: connection reset by peer"), nil)
	assert.Equal(t, "conn_reset", out.Reason)
}
