package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aiser-platform/aiser-gateway/internal/client"
	"github.com/aiser-platform/aiser-gateway/internal/model"
)

const userAgent = "aiser-gateway/1.0"

// Forwarder issues outbound calls to the backend services.
type Forwarder struct {
	client *client.BackendClient
	logger *slog.Logger
}

// NewForwarder creates a Forwarder.
func NewForwarder(c *client.BackendClient, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		client: c,
		logger: logger.With("component", "forwarder"),
	}
}

// Forward performs one outbound call and returns the raw upstream response.
// The caller is responsible for closing the response body. Exactly one
// attempt is made per inbound call; retries, if any, belong to the caller.
//
// Only explicitly selected headers cross to the upstream — there is no
// blanket pass-through of inbound metadata. The inbound request context
// bounds the call, so a caller disconnect cancels the upstream exchange.
func (f *Forwarder) Forward(fr model.ForwardRequest) (*model.UpstreamResponse, error) {
	body := fr.Body
	if !methodCarriesBody(fr.Method) {
		body = nil
	}

	req, err := http.NewRequestWithContext(fr.Ctx, fr.Method, fr.Target.URL, body)
	if err != nil {
		return nil, NetworkError(fmt.Errorf("build upstream request: %w", err))
	}

	req.Header = f.outboundHeaders(fr)

	f.logger.Debug("forwarding request",
		"backend", fr.Target.Backend,
		"method", fr.Method,
		"url", fr.Target.URL,
		"stream", fr.Stream,
		"subject", fr.Credentials.Subject,
	)

	resp, err := f.client.Do(req, fr.Target.Backend, fr.Stream)
	if err != nil {
		return nil, NetworkError(err)
	}
	return resp, nil
}

// outboundHeaders builds the selected header set for the upstream call.
func (f *Forwarder) outboundHeaders(fr model.ForwardRequest) http.Header {
	h := make(http.Header)

	ct := fr.ContentType
	if ct == "" {
		ct = "application/json"
	}
	h.Set("Content-Type", ct)

	if fr.Stream {
		h.Set("Accept", "text/event-stream")
	} else {
		h.Set("Accept", "application/json")
	}

	if fr.Credentials.Authorization != "" {
		h.Set("Authorization", fr.Credentials.Authorization)
	}
	if fr.Credentials.Cookie != "" {
		h.Set("Cookie", fr.Credentials.Cookie)
	}

	h.Set("User-Agent", userAgent)
	return h
}

// methodCarriesBody reports whether the method conventionally carries a
// request body. For GET/DELETE the inbound body is never read or forwarded.
func methodCarriesBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}

// streamFlags mirrors the body fields that signal SSE intent.
type streamFlags struct {
	Stream      bool `json:"stream"`
	UserContext struct {
		Stream bool `json:"stream"`
	} `json:"user_context"`
}

// StreamIntent reports whether the inbound request asked for an event-stream
// response: either an Accept header requiring text/event-stream, or a
// `stream` / `user_context.stream` flag in the JSON body. A body that is not
// JSON simply signals no intent.
func StreamIntent(accept string, body []byte) bool {
	if strings.Contains(accept, "text/event-stream") {
		return true
	}
	if len(body) == 0 {
		return false
	}

	var flags streamFlags
	if err := json.Unmarshal(body, &flags); err != nil {
		return false
	}
	return flags.Stream || flags.UserContext.Stream
}
