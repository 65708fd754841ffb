package common

import (
	"net/http"

	apperrors "essayproxy-go/internal/errors"
	"essayproxy-go/internal/logging"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AbortWithAPIError serializes err as {"error": "...", "code": "..."} and aborts the request.
func AbortWithAPIError(c *gin.Context, err *apperrors.APIError) {
	if err == nil {
		err = apperrors.Internal("")
	}
	status := safeStatus(err.HTTPStatus)
	c.Set(ErrorKindKey, string(err.Kind))

	payload, marshalErr := err.ToJSON()
	if marshalErr != nil {
		logging.WithReq(c, log.Fields{"error": marshalErr}).Error("failed to encode error body")
		c.AbortWithStatusJSON(status, gin.H{"error": err.Message})
		return
	}
	c.Data(status, "application/json; charset=utf-8", payload)
	c.Abort()
}

// ErrorKindKey is the gin context key holding the kind of the error written
// for the request, read by the request logger.
const ErrorKindKey = "error_kind"

func safeStatus(status int) int {
	if status >= 400 && status <= 599 {
		return status
	}
	return http.StatusInternalServerError
}
