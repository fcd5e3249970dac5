// Package gateway implements the forwarding core: credential extraction,
// upstream URL composition, request forwarding, response relay, and error
// normalization.
package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorKind classifies a gateway failure.
type ErrorKind int

const (
	// KindUpstreamStatus means the backend was reachable but returned a
	// non-success status.
	KindUpstreamStatus ErrorKind = iota
	// KindNetworkFailure means the backend was unreachable or the forwarding
	// attempt failed unexpectedly.
	KindNetworkFailure
	// KindParseFailure means the body claimed to be JSON but failed to parse.
	KindParseFailure
	// KindMissingBody means a streaming response was expected but the
	// upstream transport returned none.
	KindMissingBody
)

// Error is the single failure type crossing the gateway boundary. Every
// route handler defers to WriteError rather than constructing its own
// envelope, so clients see one consistent shape.
type Error struct {
	Kind           ErrorKind
	UpstreamStatus int    // original upstream status, 0 if not applicable
	Message        string
	Details        string
	cause          error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// HTTPStatus maps the error to the client-facing status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUpstreamStatus:
		return e.UpstreamStatus
	case KindMissingBody:
		if e.UpstreamStatus != 0 {
			return e.UpstreamStatus
		}
		return http.StatusBadGateway
	case KindParseFailure:
		return http.StatusBadGateway
	case KindNetworkFailure:
		if e.UpstreamStatus != 0 {
			return e.UpstreamStatus
		}
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// UpstreamStatusError builds an Error for a reachable backend that answered
// with a non-success status. The upstream body text becomes the client-facing
// message when present.
func UpstreamStatusError(status int, body string) *Error {
	msg := body
	if msg == "" {
		msg = fmt.Sprintf("Backend error: %d", status)
	}
	return &Error{
		Kind:           KindUpstreamStatus,
		UpstreamStatus: status,
		Message:        msg,
	}
}

// NetworkError wraps a transport-level failure.
func NetworkError(err error) *Error {
	return &Error{
		Kind:    KindNetworkFailure,
		Message: "Failed to proxy request to backend",
		Details: err.Error(),
		cause:   err,
	}
}

// ParseError marks an upstream body that claimed JSON but did not parse.
func ParseError(status int) *Error {
	return &Error{
		Kind:           KindParseFailure,
		UpstreamStatus: status,
		Message:        "Backend returned malformed JSON",
		Details:        fmt.Sprintf("upstream status %d", status),
	}
}

// MissingBodyError marks a streaming response whose transport returned no body.
func MissingBodyError(status int) *Error {
	return &Error{
		Kind:           KindMissingBody,
		UpstreamStatus: status,
		Message:        "Backend returned no stream body",
	}
}

// errorEnvelope is the stable client-facing error shape.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteError normalizes any failure into the JSON error envelope and writes
// it with the mapped status. Errors that are not already a gateway Error are
// treated as unexpected forwarding failures. Stack traces never reach the
// client; Details carries at most the underlying error text.
func WriteError(c echo.Context, logger *slog.Logger, err error) error {
	var ge *Error
	if !errors.As(err, &ge) {
		ge = NetworkError(err)
	}

	logger.Error("gateway error",
		"kind", ge.Kind,
		"upstream_status", ge.UpstreamStatus,
		"err", ge.Error(),
		"path", c.Request().URL.Path,
	)

	return c.JSON(ge.HTTPStatus(), errorEnvelope{
		Success: false,
		Error:   ge.Message,
		Details: ge.Details,
	})
}
