package server

import (
	"essayproxy-go/internal/config"
	mw "essayproxy-go/internal/middleware"

	"github.com/gin-gonic/gin"
)

// applyStandardEngineSettings installs the middleware chain. Recovery is
// outermost so every fault still ends in a JSON body.
func applyStandardEngineSettings(engine *gin.Engine, cfg *config.Config, serverLabel string) {
	if !cfg.Security.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	_ = engine.SetTrustedProxies(nil)

	engine.Use(mw.Recovery(), mw.RequestID(), mw.Metrics(serverLabel))
	// CORS answers preflight before rate limiting so browsers are not throttled on OPTIONS.
	engine.Use(mw.CORS())
	if cfg.Security.RequestLog {
		engine.Use(mw.RequestLogger())
	}
	if cfg.RateLimit.Enabled {
		engine.Use(mw.RateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
}
