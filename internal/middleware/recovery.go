package middleware

import (
	"runtime/debug"
	"time"

	apperrors "essayproxy-go/internal/errors"
	hcommon "essayproxy-go/internal/handlers/common"
	"essayproxy-go/internal/logging"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Recovery 返回一个 panic 恢复中间件，总是写出 JSON 错误体
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logging.WithReq(c, log.Fields{
					"error":      err,
					"stack":      string(debug.Stack()),
					"user_agent": c.Request.UserAgent(),
					"timestamp":  time.Now().Format(time.RFC3339),
				}).Error("Panic recovered")

				if c.Writer.Written() {
					c.Abort()
					return
				}
				hcommon.AbortWithAPIError(c, apperrors.Internal(""))
			}
		}()

		c.Next()
	}
}
