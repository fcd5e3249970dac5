package gateway

import (
	"strings"

	"github.com/aiser-platform/aiser-gateway/internal/model"
)

// BuildTarget composes the upstream URL from an origin, a fixed resource
// prefix, optional catch-all segments, and the inbound raw query string.
//
// Invariants: the origin carries no trailing slash, joined segments carry no
// leading slash, and the parts are concatenated with exactly one separating
// slash. An empty prefix with no segments collapses to the bare origin
// rather than a trailing slash. The query is appended once, verbatim: it is NOT
// re-encoded, because the inbound query may already carry percent-encoded
// tokens (auth callback paths with '/' or ':') that a second encoding pass
// would corrupt.
func BuildTarget(backend, origin, prefix string, segments []string, rawQuery string) model.Target {
	origin = strings.TrimRight(origin, "/")
	path := strings.Trim(prefix, "/")

	if joined := JoinSegments(segments); joined != "" {
		if path == "" {
			path = joined
		} else {
			path += "/" + joined
		}
	}

	u := origin
	if path != "" {
		u += "/" + path
	}
	if rawQuery != "" {
		u += "?" + rawQuery
	}

	return model.Target{Backend: backend, URL: u}
}

// JoinSegments joins catch-all path segments with '/', dropping empties.
func JoinSegments(segments []string) string {
	parts := segments[:0:0]
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// SplitWildcard splits a route's catch-all parameter into segments. Echo
// delivers the wildcard as one already-decoded string; leading, trailing and
// repeated slashes all collapse.
func SplitWildcard(wildcard string) []string {
	if wildcard == "" {
		return nil
	}
	raw := strings.Split(wildcard, "/")
	segments := raw[:0]
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
