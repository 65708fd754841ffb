package common

import (
	"context"

	"essayproxy-go/internal/logging"
	"essayproxy-go/internal/upstream"

	"github.com/gin-gonic/gin"
)

// RequestContext returns the request context tagged with the request id so
// that upstream logs and headers can be correlated with the inbound call.
func RequestContext(c *gin.Context) context.Context {
	return upstream.WithRequestID(c.Request.Context(), logging.RequestID(c))
}
