package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aiser-platform/aiser-gateway/internal/config"
	"github.com/aiser-platform/aiser-gateway/internal/metrics"
	"github.com/aiser-platform/aiser-gateway/internal/model"
)

// streamChunkSize is the relay read buffer. Chunks are written and flushed
// exactly as read, so upstream event boundaries survive the relay.
const streamChunkSize = 32 * 1024

// maxErrorBodyBytes caps how much of a failed upstream body is read for the
// error envelope.
const maxErrorBodyBytes = 64 * 1024

// skippedHeaders are never copied from upstream to the outbound response.
// The outbound transport recomputes framing and encoding itself; copying
// these verbatim corrupts the response when the body is re-chunked or
// re-compressed. Content-Type is set explicitly by each relay path.
var skippedHeaders = map[string]bool{
	"Transfer-Encoding": true,
	"Connection":        true,
	"Content-Encoding":  true,
	"Content-Length":    true,
	"Content-Type":      true,
}

// dataEnvelope wraps non-JSON upstream bodies so the client always receives
// JSON on the buffered path.
type dataEnvelope struct {
	Data string `json:"data"`
}

// Relay turns a raw upstream response into the final outbound response,
// either buffered or streamed. The choice is made before the first byte is
// written and never changes mid-flight.
type Relay struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	firstByte time.Duration
}

// NewRelay creates a Relay. The metrics parameter is optional.
func NewRelay(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Relay {
	return &Relay{
		logger:    logger.With("component", "relay"),
		metrics:   m,
		firstByte: time.Duration(cfg.Backend.StreamFirstByteSeconds) * time.Second,
	}
}

// Buffered reads the whole upstream body and writes it to the caller.
// Non-success statuses become an UpstreamStatus error carrying the upstream
// body text. JSON bodies are relayed unchanged after validation; non-JSON
// bodies are wrapped in a {"data": ...} envelope rather than rejected, since
// not every proxied endpoint returns JSON.
func (r *Relay) Buffered(c echo.Context, resp *model.UpstreamResponse) error {
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return NetworkError(fmt.Errorf("read upstream body: %w", err))
	}

	// 204 and 304 carry no body by definition; the transport rejects any
	// write after such a status, so relay status and headers only.
	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotModified {
		copyHeaders(c.Response().Header(), resp.Header)
		return c.NoContent(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UpstreamStatusError(resp.StatusCode, strings.TrimSpace(string(data)))
	}

	copyHeaders(c.Response().Header(), resp.Header)

	if isJSON(resp.Header.Get("Content-Type")) {
		if !json.Valid(data) {
			return ParseError(resp.StatusCode)
		}
		return c.Blob(resp.StatusCode, echo.MIMEApplicationJSON, data)
	}

	return c.JSON(resp.StatusCode, dataEnvelope{Data: string(data)})
}

// Stream relays the upstream byte stream to the caller incrementally.
//
// Nothing is written to the caller until the first upstream chunk arrives,
// so every failure up to that point still degrades to the JSON error
// envelope. Once bytes have been sent, failures terminate the stream — the
// transport cannot retroactively change the content type mid-flight.
//
// Chunks are relayed in arrival order with a flush per chunk, and the read
// pace is the caller's write pace: the relay reads at most one chunk ahead,
// because an event stream is unbounded by design.
func (r *Relay) Stream(c echo.Context, resp *model.UpstreamResponse) error {
	if resp.Body == nil {
		status := resp.StatusCode
		if status >= 200 && status < 300 {
			// A success status with no body has no meaningful code to relay.
			status = 0
		}
		return MissingBodyError(status)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return UpstreamStatusError(resp.StatusCode, strings.TrimSpace(string(data)))
	}

	// Closing the body unblocks a pending read in the reader goroutine and
	// releases the upstream connection; relayDone stops the goroutine from
	// sending into a relay that already returned.
	defer func() { _ = resp.Body.Close() }()
	relayDone := make(chan struct{})
	defer close(relayDone)

	type chunk struct {
		buf []byte
		n   int
		err error
	}

	ctx := c.Request().Context()

	// A single reader goroutine feeds the relay loop so caller
	// disconnection is observed even while a read is pending. Two buffers
	// alternate: the unbuffered channel guarantees the previous chunk was
	// consumed before its buffer is reused.
	chunks := make(chan chunk)
	go func() {
		defer close(chunks)
		var bufs [2][]byte
		bufs[0] = make([]byte, streamChunkSize)
		bufs[1] = make([]byte, streamChunkSize)
		for i := 0; ; i ^= 1 {
			n, err := resp.Body.Read(bufs[i])
			select {
			case chunks <- chunk{bufs[i], n, err}:
			case <-ctx.Done():
				return
			case <-relayDone:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(r.firstByte)
	defer timer.Stop()

	var cur chunk
	select {
	case cur = <-chunks:
	case <-timer.C:
		// Stalled before the first byte; nothing has been written, so the
		// failure still degrades to the JSON error envelope.
		return &Error{
			Kind:           KindNetworkFailure,
			UpstreamStatus: http.StatusGatewayTimeout,
			Message:        "Backend stream produced no data",
			Details:        fmt.Sprintf("no bytes within %s", r.firstByte),
		}
	case <-ctx.Done():
		// Caller is gone; nothing to send anywhere.
		return nil
	}

	if cur.err != nil && cur.n == 0 && cur.err != io.EOF {
		return NetworkError(fmt.Errorf("read upstream stream: %w", cur.err))
	}

	h := c.Response().Header()
	copyHeaders(h, resp.Header)
	// Forced on every stream: intermediate proxies must not buffer or
	// re-frame, or the live-update experience is destroyed.
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(resp.StatusCode)

	if r.metrics != nil {
		r.metrics.StreamsActive.Inc()
		defer r.metrics.StreamsActive.Dec()
	}

	w := c.Response()

	for {
		if cur.n > 0 {
			if _, werr := w.Write(cur.buf[:cur.n]); werr != nil {
				// Caller disconnected mid-stream; stop draining upstream.
				r.logger.Debug("caller disconnected mid-stream", "err", werr)
				return nil
			}
			w.Flush()
		}
		if cur.err != nil {
			if cur.err != io.EOF {
				// Upstream failed mid-stream; the truncated stream is all
				// the caller gets, since headers are already on the wire.
				r.logger.Error("upstream stream terminated", "err", cur.err)
			}
			return nil
		}

		var ok bool
		select {
		case cur, ok = <-chunks:
			if !ok {
				return nil
			}
		case <-ctx.Done():
			// Caller disconnected mid-stream; release the upstream
			// connection instead of draining it.
			return nil
		}
	}
}

// copyHeaders copies upstream headers onto the outbound response, skipping
// transport-owned headers. Every Set-Cookie occurrence is re-added
// individually so multi-cookie responses survive intact.
func copyHeaders(dst, src http.Header) {
	for key, vals := range src {
		if skippedHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range vals {
			dst.Add(key, v)
		}
	}
}

// isJSON reports whether a Content-Type denotes a JSON body.
func isJSON(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}
