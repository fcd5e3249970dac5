package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// proxyMethods is the method surface of the catch-all proxy routes.
var proxyMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
}

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, gw *GatewayHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/gateway/status", health.Status)

	e.POST("/api/chat/analyze", gw.ChatAnalyze)
	e.POST("/api/chat/stream", gw.ChatStream)
	e.GET("/api/models", gw.Models)
	e.GET("/api/organizations", gw.Organizations)

	e.Match(proxyMethods, "/api/charts", gw.Charts)
	e.Match(proxyMethods, "/api/charts/*", gw.Charts)
	e.Match(proxyMethods, "/api/queries/*", gw.Queries)

	e.GET("/api/rbac/organizations", gw.RBACOrganizations)
	e.GET("/api/rbac/permissions", gw.RBACPermissions)
	e.Match(proxyMethods, "/api/auth/*", gw.Auth)
}
