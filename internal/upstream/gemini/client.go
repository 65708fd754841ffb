package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"essayproxy-go/internal/config"
	"essayproxy-go/internal/constants"
	apierrors "essayproxy-go/internal/errors"
	"essayproxy-go/internal/monitoring/tracing"
	"essayproxy-go/internal/upstream"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 8 << 20

// Client performs single generateContent calls against the Gemini API. It
// never retries; rotation is the engine's job.
type Client struct {
	baseURL string
	model   string
	cli     *http.Client
}

// New builds a client with a pooled transport. Per-attempt deadlines come
// from the caller context, so the http.Client itself has no timeout.
func New(cfg config.UpstreamConfig) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   constants.DefaultDialTimeout,
			KeepAlive: constants.DefaultKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   constants.DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: constants.DefaultResponseHeaderTimeout,
		ExpectContinueTimeout: constants.DefaultExpectContinueTimeout,
		MaxIdleConns:          constants.BaseMaxIdleConns,
		MaxIdleConnsPerHost:   constants.BaseMaxIdleConnsPerHost,
		IdleConnTimeout:       constants.BaseIdleConnTimeout,
	}
	return NewWithHTTPClient(cfg, &http.Client{Transport: tr})
}

// NewWithHTTPClient lets tests inject a client bound to an httptest server.
func NewWithHTTPClient(cfg config.UpstreamConfig, cli *http.Client) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = constants.DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = constants.DefaultModel
	}
	if cli == nil {
		cli = http.DefaultClient
	}
	return &Client{baseURL: base, model: model, cli: cli}
}

// Model returns the model every request is sent to.
func (c *Client) Model() string { return c.model }

// endpoint is the generateContent URL without the credential.
func (c *Client) endpoint() string {
	return c.baseURL + "/v1beta/models/" + url.PathEscape(c.model) + ":generateContent"
}

// Attempt sends payload once with the given API key and classifies the
// result. It implements upstream.Attempter.
func (c *Client) Attempt(ctx context.Context, credential string, payload []byte) upstream.Outcome {
	ctx, span := tracing.StartSpan(ctx, "upstream/gemini", "Gemini.Attempt",
		trace.WithAttributes(
			attribute.String("http.method", http.MethodPost),
			attribute.String("http.url", c.endpoint()),
			attribute.String("upstream.model", c.model),
		))

	status, body, err := c.post(ctx, credential, payload)
	out := Classify(status, body, err, ctx.Err())

	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.String("upstream.outcome", out.Label()),
	)
	var spanErr error
	if err != nil {
		spanErr = apierrors.RedactURL(err)
	} else if out.Kind != upstream.OutcomeSuccess {
		spanErr = fmt.Errorf("upstream %s (status %d)", out.Label(), status)
	}
	tracing.EndSpan(span, spanErr)

	if err != nil {
		log.WithFields(log.Fields{
			"request_id": upstream.RequestID(ctx),
			"model":      c.model,
			"reason":     out.Reason,
		}).WithError(apierrors.RedactURL(err)).Debug("upstream transport error")
	}
	return out
}

func (c *Client) post(ctx context.Context, credential string, payload []byte) (int, []byte, error) {
	u := c.endpoint() + "?key=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	applyDefaultHeaders(ctx, req)

	start := time.Now()
	resp, err := c.cli.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		// a body cut off mid-read is a transport failure whatever the status
		return 0, nil, err
	}
	log.WithFields(log.Fields{
		"request_id": upstream.RequestID(ctx),
		"status":     resp.StatusCode,
		"bytes":      len(body),
		"latency_ms": time.Since(start).Milliseconds(),
	}).Debug("upstream response")
	return resp.StatusCode, body, nil
}
