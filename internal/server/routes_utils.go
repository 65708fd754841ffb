package server

import (
	"context"
	"net/http"
	pp "net/http/pprof"

	"essayproxy-go/internal/constants"
	mw "essayproxy-go/internal/middleware"
	"essayproxy-go/internal/version"

	"github.com/gin-gonic/gin"
)

// registerHealthRoutes mounts probes and metrics at the root, outside the
// base path, where orchestrators expect them.
func registerHealthRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), constants.IndexStoreTimeout)
		defer cancel()
		body := gin.H{"version": version.Version, "store": deps.Store.Label()}
		if err := deps.Store.Backend().Health(ctx); err != nil {
			body["status"] = "unavailable"
			body["error"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		if !deps.Config().CredentialsConfigured() {
			body["status"] = "unconfigured"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["status"] = "ready"
		c.JSON(http.StatusOK, body)
	})
	r.GET("/metrics", mw.MetricsHandler)
}

func registerPprof(r *gin.Engine) {
	ppGroup := r.Group("/debug/pprof")
	ppGroup.GET("/", gin.WrapF(pp.Index))
	ppGroup.GET("/cmdline", gin.WrapF(pp.Cmdline))
	ppGroup.GET("/profile", gin.WrapF(pp.Profile))
	ppGroup.POST("/symbol", gin.WrapF(pp.Symbol))
	ppGroup.GET("/symbol", gin.WrapF(pp.Symbol))
	ppGroup.GET("/trace", gin.WrapF(pp.Trace))
	ppGroup.GET("/heap", gin.WrapF(pp.Handler("heap").ServeHTTP))
	ppGroup.GET("/goroutine", gin.WrapF(pp.Handler("goroutine").ServeHTTP))
}
