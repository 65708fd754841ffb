package server

import (
	"essayproxy-go/internal/config"
	"essayproxy-go/internal/handlers/management"
	mw "essayproxy-go/internal/middleware"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RegisterManagementRoutes mounts the operator API. The routes exist even
// without a configured key so that adding one to the config file takes
// effect on reload; until then they answer 404.
func RegisterManagementRoutes(r *gin.RouterGroup, cfg *config.Config, deps Dependencies) {
	if !cfg.ManagementEnabled() {
		log.Info("management API disabled (no MANAGEMENT_KEY)")
	}
	enabled := func() bool { return deps.Config().ManagementEnabled() }
	g := r.Group("/api/management", mw.ManagementAuth(enabled, config.ManagementKeyValidator(deps.Config)))

	rot := management.NewRotationHandler(deps.Config, deps.Store, cfg.Storage.Timeout, deps.Events)
	g.GET("/rotation", rot.Get)
	g.PUT("/rotation", rot.Set)
}
