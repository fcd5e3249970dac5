// Package model defines shared types for the gateway.
package model

import (
	"context"
	"io"
	"net/http"
)

// Credentials carries the authentication material extracted from an inbound
// request. Either field may be empty; an empty value is simply not forwarded.
// An explicit Authorization header always wins over a token reconstructed
// from cookies. Subject is informational only (request logging) and is never
// trusted for authorization decisions.
type Credentials struct {
	Authorization string
	Cookie        string
	Subject       string
}

// Target describes the fully resolved upstream URL for one call: origin
// without a trailing slash, path without a leading slash on the joined
// segments, and the inbound raw query appended verbatim.
type Target struct {
	Backend string // bounded metric label: "chart" or "auth"
	URL     string
}

// ForwardRequest is everything the forwarder needs to issue the outbound
// call. Body is only consumed for methods that carry one (POST, PUT).
type ForwardRequest struct {
	Ctx         context.Context
	Method      string
	Target      Target
	Credentials Credentials
	ContentType string
	Body        io.Reader
	Stream      bool
}

// UpstreamResponse represents the raw upstream response. For streamed calls
// the Body is a live handle the relay drains incrementally; for buffered
// calls it is read to completion before anything is written to the caller.
// The caller owns the Body and must close it.
type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
