package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aiser-platform/aiser-gateway/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	origins config.Origins
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(origins config.Origins, v Version) *HealthHandler {
	return &HealthHandler{origins: origins, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns gateway status information, including the origins the
// process resolved at startup.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":       "ok",
		"version":      string(h.version),
		"chart_origin": h.origins.Chart,
		"auth_origin":  h.origins.Auth,
	})
}
