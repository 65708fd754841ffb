package server

import (
	"net/http"

	"essayproxy-go/internal/constants"
	"essayproxy-go/internal/handlers/essay"

	"github.com/gin-gonic/gin"
)

// EssayPath is the generation endpoint relative to the base path.
const EssayPath = "/api/generate-essay"

// RegisterEssayRoutes mounts the generation endpoint. Every method other
// than POST (and the OPTIONS preflight handled by CORS) answers 405.
func RegisterEssayRoutes(r *gin.RouterGroup, deps Dependencies) *essay.Handler {
	h := essay.New(essay.Deps{
		Config:     deps.Config,
		Store:      deps.Store,
		Publisher:  deps.Events,
		Attempters: deps.Attempters,
	})
	r.POST(EssayPath, limitBody(constants.MaxRequestBodyBytes), h.Generate)
	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead} {
		r.Handle(m, EssayPath, essay.MethodNotAllowed)
	}
	return h
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
