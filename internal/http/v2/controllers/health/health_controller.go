// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	"github.com/dropDatabas3/actionlink/internal/http/v2/helpers"
	svc "github.com/dropDatabas3/actionlink/internal/http/v2/services/health"
	"github.com/dropDatabas3/actionlink/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := c.service.Check(ctx)

	if resp.Version != "" {
		w.Header().Set("X-Service-Version", resp.Version)
	}
	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}

	logger.From(ctx).Debug("health check completed",
		logger.Op("HealthController.Readyz"),
		logger.String("status", resp.Status),
		logger.Int("components_count", len(resp.Components)),
	)
	helpers.WriteJSON(w, status, resp)
}

// Healthz maneja GET /healthz: liveness, sin dependencias.
func (c *HealthController) Healthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
