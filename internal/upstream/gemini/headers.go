package gemini

import (
	"context"
	"net/http"
	"runtime"
	"strings"

	"essayproxy-go/internal/upstream"
	"essayproxy-go/internal/version"
)

func userAgent() string {
	return "essayproxy/" + version.Version + " (" + runtime.GOOS + "; " + runtime.GOARCH + ")"
}

func goClientHeader() string {
	gv := strings.TrimPrefix(runtime.Version(), "go")
	if gv == "" {
		gv = "unknown"
	}
	return "gl-go/" + gv
}

// applyDefaultHeaders sets the headers every upstream call carries. The
// credential travels in the query string, never in a header.
func applyDefaultHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent())
	req.Header.Set("X-Goog-Api-Client", goClientHeader())
	if rid := upstream.RequestID(ctx); rid != "" {
		req.Header.Set("X-Client-Request-ID", rid)
	}
}
