// Package management exposes operator endpoints for the rotation index.
package management

import (
	"context"
	"net/http"
	"time"

	"essayproxy-go/internal/config"
	"essayproxy-go/internal/credential"
	apperrors "essayproxy-go/internal/errors"
	"essayproxy-go/internal/events"
	hcommon "essayproxy-go/internal/handlers/common"
	"essayproxy-go/internal/logging"
	"essayproxy-go/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RotationHandler reads and overrides the shared rotation index.
type RotationHandler struct {
	cfg       func() *config.Config
	backend   storage.IndexBackend
	label     string
	timeout   time.Duration
	publisher events.Publisher
}

func NewRotationHandler(cfg func() *config.Config, store *storage.FailOpenStore, timeout time.Duration, pub events.Publisher) *RotationHandler {
	var backend storage.IndexBackend = storage.NoopBackend{}
	label := "none"
	if store != nil {
		backend, label = store.Backend(), store.Label()
	}
	return &RotationHandler{cfg: cfg, backend: backend, label: label, timeout: timeout, publisher: pub}
}

// RotationState is the GET response body.
type RotationState struct {
	Backend    string `json:"backend"`
	Key        string `json:"key"`
	Index      int    `json:"index"`
	PoolSize   int    `json:"pool_size"`
	Position   int    `json:"position"`
	Credential string `json:"credential,omitempty"`
}

type setRequest struct {
	Index *int `json:"index" binding:"required,gte=0"`
}

// Get reports the raw stored index and the credential it points at.
// Unlike the rotation path, store errors are surfaced here.
func (h *RotationHandler) Get(c *gin.Context) {
	ctx, cancel := h.bound(c.Request.Context())
	defer cancel()
	idx, err := h.backend.Get(ctx)
	if err != nil {
		logging.WithReq(c, log.Fields{"backend": h.label, "error": err}).Warn("rotation index read failed")
		hcommon.AbortWithAPIError(c, storeUnavailable())
		return
	}
	c.JSON(http.StatusOK, h.state(idx))
}

// Set writes a new index, reduced modulo the current pool size.
func (h *RotationHandler) Set(c *gin.Context) {
	var req setRequest
	if be := hcommon.BindJSON(c, &req); be != nil {
		hcommon.AbortWithAPIError(c, apperrors.Validation(`body must be {"index": <non-negative integer>}`))
		return
	}
	idx := *req.Index
	cfg := h.config()
	poolSize := 0
	if pool, err := credential.NewPool(cfg.Credentials()); err == nil {
		idx = pool.Position(idx)
		poolSize = pool.Size()
	}

	ctx, cancel := h.bound(c.Request.Context())
	defer cancel()
	if err := h.backend.Set(ctx, idx); err != nil {
		logging.WithReq(c, log.Fields{"backend": h.label, "error": err}).Warn("rotation index write failed")
		hcommon.AbortWithAPIError(c, storeUnavailable())
		return
	}
	if h.publisher != nil {
		h.publisher.Publish(c.Request.Context(), events.TopicRotationIndexSet, events.RotationEvent{
			Next:     idx,
			PoolSize: poolSize,
			Outcome:  "manual",
		}, map[string]string{"request_id": logging.RequestID(c)})
	}
	logging.WithReq(c, log.Fields{"backend": h.label, "index": idx}).Info("rotation index set")
	c.JSON(http.StatusOK, h.state(idx))
}

func storeUnavailable() *apperrors.APIError {
	return apperrors.New(http.StatusServiceUnavailable, "store_unavailable", apperrors.KindInternal, "index store unavailable")
}

func (h *RotationHandler) state(idx int) RotationState {
	cfg := h.config()
	st := RotationState{Backend: h.label, Key: cfg.Storage.IndexKey, Index: idx}
	if pool, err := credential.NewPool(cfg.Credentials()); err == nil {
		st.PoolSize = pool.Size()
		st.Position = pool.Position(idx)
		st.Credential = pool.Masked(idx)
	}
	return st
}

func (h *RotationHandler) config() *config.Config {
	if h.cfg != nil {
		if cfg := h.cfg(); cfg != nil {
			return cfg
		}
	}
	return config.Default()
}

func (h *RotationHandler) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}
