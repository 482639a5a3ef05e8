package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/internal/infrastructure/monitor"
	"github.com/fastygo/taskflow/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
	driver  string
}

// NewHealthHandler reports dependency status. mon is nil for the memory driver.
func NewHealthHandler(mon *monitor.Monitor, driver string, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		driver:      driver,
	}
}

type healthResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	Storage   string          `json:"storage"`
	Services  *monitor.Status `json:"services,omitempty"`
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	payload := healthResponse{
		Timestamp: time.Now().UTC(),
		Storage:   h.driver,
	}
	if h.monitor == nil {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}

	status := h.monitor.GetStatus()
	payload.Services = &status
	if status.Healthy() {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.Failure("DEGRADED", "dependencies unhealthy").WithMeta(payload))
}
