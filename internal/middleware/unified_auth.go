package middleware

import (
	"net/http"
	"strings"

	apperrors "essayproxy-go/internal/errors"
	hcommon "essayproxy-go/internal/handlers/common"
	"essayproxy-go/internal/logging"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ManagementAuth guards operator endpoints. The key is taken from
// Authorization: Bearer or X-Management-Key. When enabled reports false the
// endpoints answer 404 as if they did not exist.
func ManagementAuth(enabled func() bool, validate func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if enabled != nil && !enabled() {
			hcommon.AbortWithAPIError(c, apperrors.New(http.StatusNotFound, "not_found", apperrors.KindValidation, "not found"))
			return
		}
		key := extractManagementKey(c)
		if key == "" {
			respondUnauthorized(c, "management key not provided")
			return
		}
		if validate == nil || !validate(key) {
			logging.WithReq(c, log.Fields{}).Warn("management request with invalid key")
			respondUnauthorized(c, "invalid management key")
			return
		}
		c.Next()
	}
}

func extractManagementKey(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.GetHeader("X-Management-Key"))
}

func respondUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	hcommon.AbortWithAPIError(c, apperrors.New(http.StatusUnauthorized, "unauthorized", apperrors.KindValidation, message))
}
