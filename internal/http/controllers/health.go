package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/cognitogate/internal/http/helpers"
	"github.com/dropDatabas3/cognitogate/internal/jwks"
	"github.com/dropDatabas3/cognitogate/internal/observability/logger"
)

// HealthController handles GET /healthz and GET /readyz.
type HealthController struct {
	keys *jwks.Cache
}

// NewHealthController creates a new health controller.
func NewHealthController(keys *jwks.Cache) *HealthController {
	return &HealthController{keys: keys}
}

// Healthz is the liveness probe: the process is up.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz is the readiness probe: el gate no puede verificar tokens sin el
// JWKS, así que ready = JWKS alcanzable (o ya cacheado).
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := c.keys.Keys(ctx); err != nil {
		logger.From(r.Context()).Warn("readiness check failed", logger.Err(err))
		helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
