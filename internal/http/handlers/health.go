package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wolfman30/clinic-portal/pkg/logging"
)

type backendPinger interface {
	Ping(ctx context.Context) error
}

type gatewayStateChecker interface {
	Connected(ctx context.Context) (bool, error)
}

// HealthHandler reports the portal's own liveness plus the reachability
// of the two upstreams it depends on.
type HealthHandler struct {
	backend backendPinger
	gateway gatewayStateChecker
	logger  *logging.Logger
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(backend backendPinger, gateway gatewayStateChecker, logger *logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &HealthHandler{backend: backend, gateway: gateway, logger: logger}
}

// HealthResponse summarizes upstream status.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Gateway string `json:"gateway"`
}

// Health always answers 200 while the process is up; degraded upstreams
// show in the body, not the status code, so load balancers don't restart
// the portal for a backend outage.
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Backend: "ok", Gateway: "ok"}
	if h.backend != nil {
		if err := h.backend.Ping(ctx); err != nil {
			resp.Backend = "unreachable"
			resp.Status = "degraded"
		}
	} else {
		resp.Backend = "disabled"
	}
	if h.gateway != nil {
		connected, err := h.gateway.Connected(ctx)
		switch {
		case err != nil:
			resp.Gateway = "unreachable"
			resp.Status = "degraded"
		case !connected:
			resp.Gateway = "disconnected"
			resp.Status = "degraded"
		}
	} else {
		resp.Gateway = "disabled"
	}
	writeJSON(w, http.StatusOK, resp)
}
