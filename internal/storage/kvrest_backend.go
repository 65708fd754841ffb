package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const kvMaxBody = 64 << 10

// KVRestBackend talks to an Upstash-compatible REST key-value store
// (Vercel KV). Reads are GET {base}/get/{key}, writes POST {base}/set/{key}
// with the raw value as body.
type KVRestBackend struct {
	baseURL string
	token   string
	key     string
	client  *http.Client
}

func NewKVRestBackend(baseURL, token, key string, client *http.Client) *KVRestBackend {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &KVRestBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		key:     key,
		client:  client,
	}
}

// Initialize verifies reachability and the token with a PING.
func (k *KVRestBackend) Initialize(ctx context.Context) error {
	return k.Health(ctx)
}

func (k *KVRestBackend) Close() error {
	k.client.CloseIdleConnections()
	return nil
}

func (k *KVRestBackend) Health(ctx context.Context) error {
	res, err := k.do(ctx, http.MethodGet, "/ping", nil)
	if err != nil {
		return err
	}
	if !strings.EqualFold(res.String(), "PONG") {
		return fmt.Errorf("kv ping: unexpected result %q", res.Raw)
	}
	return nil
}

func (k *KVRestBackend) Get(ctx context.Context) (int, error) {
	res, err := k.do(ctx, http.MethodGet, "/get/"+url.PathEscape(k.key), nil)
	if err != nil {
		return 0, err
	}
	switch res.Type {
	case gjson.Null:
		return 0, nil
	case gjson.Number:
		return int(res.Int()), nil
	case gjson.String:
		return ParseIndex(res.String())
	default:
		return 0, &ErrInvalidIndex{Raw: res.Raw}
	}
}

func (k *KVRestBackend) Set(ctx context.Context, idx int) error {
	_, err := k.do(ctx, http.MethodPost, "/set/"+url.PathEscape(k.key), strings.NewReader(strconv.Itoa(idx)))
	return err
}

// do performs one REST command and returns the "result" member.
func (k *KVRestBackend) do(ctx context.Context, method, path string, body io.Reader) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, method, k.baseURL+path, body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("kv %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+k.token)
	if body != nil {
		req.Header.Set("Content-Type", "text/plain")
	}

	resp, err := k.client.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("kv %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, kvMaxBody))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("kv read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(data, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return gjson.Result{}, fmt.Errorf("kv %s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("kv %s %s: invalid json response", method, path)
	}
	if e := gjson.GetBytes(data, "error"); e.Exists() {
		return gjson.Result{}, fmt.Errorf("kv %s %s: %s", method, path, e.String())
	}
	return gjson.GetBytes(data, "result"), nil
}
