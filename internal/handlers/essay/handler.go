// Package essay serves the essay generation endpoint.
package essay

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"essayproxy-go/internal/config"
	"essayproxy-go/internal/credential"
	apperrors "essayproxy-go/internal/errors"
	"essayproxy-go/internal/events"
	hcommon "essayproxy-go/internal/handlers/common"
	"essayproxy-go/internal/logging"
	"essayproxy-go/internal/prompt"
	"essayproxy-go/internal/upstream"
	"essayproxy-go/internal/upstream/gemini"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AttempterFactory builds the upstream client for a configuration snapshot.
type AttempterFactory func(cfg config.UpstreamConfig) upstream.Attempter

// Deps wires a Handler.
type Deps struct {
	// Config returns the current configuration snapshot. It is called once
	// per request so credential lists are derived fresh each time.
	Config    func() *config.Config
	Store     upstream.IndexStore
	Publisher events.Publisher
	// Attempters overrides the Gemini client, mainly for tests.
	Attempters AttempterFactory
}

// Handler answers POST /api/generate-essay.
type Handler struct {
	deps    Deps
	prompts prompt.Cache

	mu      sync.Mutex
	clients map[string]upstream.Attempter
}

func New(d Deps) *Handler {
	if d.Attempters == nil {
		d.Attempters = func(cfg config.UpstreamConfig) upstream.Attempter { return gemini.New(cfg) }
	}
	return &Handler{deps: d, clients: make(map[string]upstream.Attempter)}
}

// attempterFor reuses one client per base URL and model so connections
// are pooled across requests.
func (h *Handler) attempterFor(cfg config.UpstreamConfig) upstream.Attempter {
	key := cfg.BaseURL + "|" + cfg.Model
	h.mu.Lock()
	defer h.mu.Unlock()
	if a, ok := h.clients[key]; ok {
		return a
	}
	a := h.deps.Attempters(cfg)
	h.clients[key] = a
	return a
}

// Generate validates the request, checks configuration, then runs the
// rotation engine. Checks happen in that order so a malformed request never
// reveals configuration state.
func (h *Handler) Generate(c *gin.Context) {
	var req GenerationRequest
	if be := hcommon.BindJSON(c, &req); be != nil {
		logging.WithReq(c, log.Fields{"error": be.Error()}).Debug("rejected essay request")
		hcommon.AbortWithAPIError(c, validationError(be))
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		hcommon.AbortWithAPIError(c, apperrors.Validation(MissingParamsMessage))
		return
	}

	cfg := h.deps.Config()
	if cfg == nil {
		hcommon.AbortWithAPIError(c, apperrors.Config(""))
		return
	}
	if apiErr := checkConfig(c, cfg); apiErr != nil {
		hcommon.AbortWithAPIError(c, apiErr)
		return
	}
	pool, err := credential.NewPool(cfg.Credentials())
	if err != nil {
		logging.WithReq(c, nil).Error("credential list is empty after trimming")
		hcommon.AbortWithAPIError(c, apperrors.Config("no valid credentials"))
		return
	}

	builder, perr := h.prompts.For(cfg.Prompt.ExemplarsFile)
	if perr != nil {
		logging.WithReq(c, log.Fields{"error": perr}).Warn("exemplars file unreadable, using embedded exemplars")
	}
	text, err := builder.Build(req.PromptRequest())
	if err != nil {
		hcommon.AbortWithAPIError(c, apperrors.Validation(err.Error()))
		return
	}
	payload, err := gemini.BuildPayload(text, cfg.Generation)
	if err != nil {
		logging.WithReq(c, log.Fields{"error": err}).Error("failed to build upstream payload")
		hcommon.AbortWithAPIError(c, apperrors.Config(""))
		return
	}

	engine := upstream.NewEngine(h.attempterFor(cfg.Upstream), h.deps.Store, upstream.Options{
		AttemptTimeout:  cfg.Upstream.Timeout,
		ExhaustedStatus: cfg.Upstream.ExhaustedStatus,
		Model:           cfg.Upstream.Model,
		Publisher:       h.deps.Publisher,
	})
	res := engine.Run(hcommon.RequestContext(c), pool, payload)

	if cfg.Routing.DebugHeaders && cfg.Security.Debug {
		c.Header("X-Credential-Index", strconv.Itoa(res.LastPosition()))
		c.Header("X-Rotation-Attempts", strconv.Itoa(len(res.Attempts)))
	}

	fields := log.Fields{
		"pool_size": pool.Size(),
		"start":     res.Start,
		"attempts":  len(res.Attempts),
		"topic_len": len([]rune(req.Topic)),
		"structure": req.Structure,
	}
	if !res.OK() {
		fields["failure"] = res.Failure.Class.String()
		logging.WithReq(c, fields).Warn("essay generation failed")
		hcommon.AbortWithAPIError(c, res.Failure.APIError())
		return
	}
	fields["credential"] = pool.Masked(res.LastPosition())
	logging.WithReq(c, fields).Info("essay generated")
	c.JSON(http.StatusOK, gin.H{"essay": res.Text})
}

// checkConfig rejects requests the service cannot serve. Missing settings
// answer "service misconfigured"; the details only go to the log.
func checkConfig(c *gin.Context, cfg *config.Config) *apperrors.APIError {
	if !cfg.CredentialsConfigured() {
		logging.WithReq(c, nil).Error("GEMINI_API_KEYS is not set")
		return apperrors.Config("")
	}
	if missing := cfg.Storage.MissingParams(); len(missing) > 0 && cfg.Storage.Strict {
		logging.WithReq(c, log.Fields{"backend": cfg.Storage.Backend, "missing": missing}).
			Error("index store is not configured")
		return apperrors.Config("")
	}
	return nil
}

// MethodNotAllowed answers any non-POST method on the essay path.
func MethodNotAllowed(c *gin.Context) {
	c.Header("Allow", http.MethodPost)
	hcommon.AbortWithAPIError(c, apperrors.New(http.StatusMethodNotAllowed, "method_not_allowed", apperrors.KindValidation, "method not allowed"))
}
