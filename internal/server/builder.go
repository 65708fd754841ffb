package server

import (
	"net/http"

	"essayproxy-go/internal/config"
	apperrors "essayproxy-go/internal/errors"
	"essayproxy-go/internal/events"
	"essayproxy-go/internal/handlers/essay"
	hcommon "essayproxy-go/internal/handlers/common"
	"essayproxy-go/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Dependencies encapsulates runtime services required to build the HTTP engine.
type Dependencies struct {
	// Config returns the live configuration snapshot. When nil the startup
	// configuration is used for every request.
	Config func() *config.Config
	Store  *storage.FailOpenStore
	Events *events.Hub
	// Attempters overrides the upstream client factory, mainly for tests.
	Attempters essay.AttempterFactory
}

// BuildEngine constructs the gin engine serving the essay API, health,
// metrics and management routes. Route layout is fixed at startup; handler
// behaviour follows the live configuration.
func BuildEngine(cfg *config.Config, deps Dependencies) *gin.Engine {
	if deps.Config == nil {
		snapshot := cfg.Clone()
		deps.Config = func() *config.Config { return snapshot }
	}
	if deps.Store == nil {
		deps.Store = storage.FailOpen(nil, cfg.Storage.Timeout)
	}
	// Debug headers reveal pool positions, so they only ever apply in debug mode.
	if !cfg.Security.Debug && cfg.Routing.DebugHeaders {
		log.Warn("Debug=false -> ignoring ROUTING_DEBUG_HEADERS")
	}

	engine := gin.New()
	applyStandardEngineSettings(engine, cfg, "essay")

	registerHealthRoutes(engine, deps)
	root := engine.Group(cfg.Server.BasePath)
	RegisterEssayRoutes(root, deps)
	RegisterManagementRoutes(root, cfg, deps)

	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) {
		hcommon.AbortWithAPIError(c, apperrors.New(http.StatusNotFound, "not_found", apperrors.KindValidation, "not found"))
	})
	engine.NoMethod(func(c *gin.Context) {
		hcommon.AbortWithAPIError(c, apperrors.New(http.StatusMethodNotAllowed, "method_not_allowed", apperrors.KindValidation, "method not allowed"))
	})

	if cfg.Security.Debug {
		registerPprof(engine)
	}
	return engine
}
