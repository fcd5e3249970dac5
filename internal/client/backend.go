// Package client provides the pooled HTTP clients for the backend services.
package client

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/aiser-platform/aiser-gateway/internal/config"
	"github.com/aiser-platform/aiser-gateway/internal/metrics"
	"github.com/aiser-platform/aiser-gateway/internal/model"
)

// BackendClient sends requests to the backend services. It holds two
// http.Clients over a shared transport: the buffered client enforces an
// overall deadline, the stream client does not — an SSE response is
// long-lived by design and must only be bounded by header arrival and by
// the caller's context.
type BackendClient struct {
	buffered *http.Client
	stream   *http.Client
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewBackendClient creates a BackendClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewBackendClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *BackendClient {
	dial := (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext

	transport := &http.Transport{
		MaxIdleConns:        cfg.Backend.IdleConnections,
		MaxIdleConnsPerHost: cfg.Backend.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext:         dial,
	}

	streamTransport := &http.Transport{
		MaxIdleConns:          cfg.Backend.IdleConnections,
		MaxIdleConnsPerHost:   cfg.Backend.IdleConnections,
		IdleConnTimeout:       90 * time.Second,
		DialContext:           dial,
		ResponseHeaderTimeout: time.Duration(cfg.Backend.StreamFirstByteSeconds) * time.Second,
	}

	return &BackendClient{
		buffered: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
		},
		stream: &http.Client{
			Transport: streamTransport,
		},
		logger:  logger.With("component", "backend_client"),
		metrics: m,
	}
}

// Do executes an HTTP request against the named backend and returns the raw
// response. The caller is responsible for closing the response body. When
// stream is true the undeadlined client is used, so the request lives until
// the context is canceled or the upstream closes the stream.
func (c *BackendClient) Do(req *http.Request, backend string, stream bool) (*model.UpstreamResponse, error) {
	c.logger.Debug("upstream request",
		"backend", backend,
		"method", req.Method,
		"path", req.URL.Path,
		"stream", stream,
	)

	hc := c.buffered
	if stream {
		hc = c.stream
	}

	start := time.Now()
	resp, err := hc.Do(req) //nolint:bodyclose // body ownership transfers to caller via UpstreamResponse
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(backend, method).Observe(duration)
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.UpstreamDuration.WithLabelValues(backend, method).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(backend, method, status).Inc()
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}
