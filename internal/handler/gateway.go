package handler

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aiser-platform/aiser-gateway/internal/config"
	"github.com/aiser-platform/aiser-gateway/internal/gateway"
	"github.com/aiser-platform/aiser-gateway/internal/model"
)

// Backend labels, bounded for metrics.
const (
	backendChart = "chart"
	backendAuth  = "auth"
)

// GatewayHandler owns the edge routes. Each handler is a thin shim: it names
// the backend and resource prefix, collects catch-all segments if the route
// has them, and hands everything to the forwarding core.
type GatewayHandler struct {
	forwarder *gateway.Forwarder
	relay     *gateway.Relay
	origins   config.Origins
	logger    *slog.Logger
}

// NewGatewayHandler creates a GatewayHandler.
func NewGatewayHandler(fw *gateway.Forwarder, relay *gateway.Relay, origins config.Origins, logger *slog.Logger) *GatewayHandler {
	return &GatewayHandler{
		forwarder: fw,
		relay:     relay,
		origins:   origins,
		logger:    logger.With("component", "gateway_handler"),
	}
}

// ChatAnalyze proxies chat analysis requests; the body may request SSE via a
// stream flag.
func (h *GatewayHandler) ChatAnalyze(c echo.Context) error {
	return h.proxy(c, backendChart, h.origins.Chart, "chat/analyze", nil, false)
}

// ChatStream proxies the always-streaming chat endpoint.
func (h *GatewayHandler) ChatStream(c echo.Context) error {
	return h.proxy(c, backendChart, h.origins.Chart, "chat/stream", nil, true)
}

// Models proxies the model listing.
func (h *GatewayHandler) Models(c echo.Context) error {
	return h.proxy(c, backendChart, h.origins.Chart, "models", nil, false)
}

// Charts proxies chart asset CRUD, with an optional trailing id path.
func (h *GatewayHandler) Charts(c echo.Context) error {
	segments := gateway.SplitWildcard(c.Param("*"))
	return h.proxy(c, backendChart, h.origins.Chart, "charts", segments, false)
}

// Organizations proxies the organization listing.
func (h *GatewayHandler) Organizations(c echo.Context) error {
	return h.proxy(c, backendChart, h.origins.Chart, "organizations", nil, false)
}

// Queries is the generic catch-all proxy for the query API.
func (h *GatewayHandler) Queries(c echo.Context) error {
	segments := gateway.SplitWildcard(c.Param("*"))
	return h.proxy(c, backendChart, h.origins.Chart, "queries", segments, false)
}

// RBACOrganizations proxies the RBAC organization listing to the auth service.
func (h *GatewayHandler) RBACOrganizations(c echo.Context) error {
	return h.proxy(c, backendAuth, h.origins.Auth, "rbac/organizations", nil, false)
}

// RBACPermissions proxies the RBAC permission listing to the auth service.
func (h *GatewayHandler) RBACPermissions(c echo.Context) error {
	return h.proxy(c, backendAuth, h.origins.Auth, "rbac/permissions", nil, false)
}

// Auth is the catch-all proxy for the auth service.
func (h *GatewayHandler) Auth(c echo.Context) error {
	segments := gateway.SplitWildcard(c.Param("*"))
	return h.proxy(c, backendAuth, h.origins.Auth, "auth", segments, false)
}

// proxy runs one inbound call through the forwarding core: credentials,
// target composition, outbound call, then buffered or streamed relay. Every
// failure funnels through the error normalizer, which emits the envelope
// only while no response bytes have been written.
func (h *GatewayHandler) proxy(c echo.Context, backend, origin, prefix string, segments []string, forceStream bool) error {
	req := c.Request()
	creds := gateway.ExtractCredentials(req.Header)

	var body []byte
	if req.Method == http.MethodPost || req.Method == http.MethodPut {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return gateway.WriteError(c, h.logger, fmt.Errorf("read request body: %w", err))
		}
		body = b
	}

	stream := forceStream || gateway.StreamIntent(req.Header.Get("Accept"), body)
	target := gateway.BuildTarget(backend, origin, prefix, segments, req.URL.RawQuery)

	fr := model.ForwardRequest{
		Ctx:         req.Context(),
		Method:      req.Method,
		Target:      target,
		Credentials: creds,
		ContentType: req.Header.Get(echo.HeaderContentType),
		Stream:      stream,
	}
	if len(body) > 0 {
		fr.Body = bytes.NewReader(body)
	}

	resp, err := h.forwarder.Forward(fr)
	if err != nil {
		return gateway.WriteError(c, h.logger, err)
	}

	if stream {
		err = h.relay.Stream(c, resp)
	} else {
		err = h.relay.Buffered(c, resp)
	}
	if err != nil {
		return gateway.WriteError(c, h.logger, err)
	}
	return nil
}
