package errors

import (
	"strings"

	"github.com/tidwall/gjson"

	"essayproxy-go/internal/constants"
)

// MapHTTPError maps an upstream client-class response to a ClientError that
// preserves the upstream status and message.
func MapHTTPError(statusCode int, upstreamBody []byte) *APIError {
	return Client(statusCode, ExtractUpstreamMessage(upstreamBody))
}

// ExtractUpstreamMessage returns error.message from a Google-style error body,
// or the raw body truncated.
func ExtractUpstreamMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
			return msg
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > constants.MaxErrorMessageLength {
		return msg[:constants.MaxErrorMessageLength] + "..."
	}
	return msg
}

func firstNonEmpty(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}
	return ""
}
