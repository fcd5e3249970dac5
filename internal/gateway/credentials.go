package gateway

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aiser-platform/aiser-gateway/internal/model"
)

// accessTokenCookie is the session cookie the dashboard sets at login.
const accessTokenCookie = "access_token"

// ExtractCredentials derives the forwardable credentials from the inbound
// headers. An explicit Authorization header wins; otherwise the access-token
// cookie, when present, is re-wrapped as a Bearer token. The raw Cookie
// header is always preserved independently — some backends authenticate via
// cookie, others via bearer token, and both must keep working at once.
//
// Extraction never fails: a request with no credentials proceeds
// unauthenticated and rejection is left to the backend.
func ExtractCredentials(h http.Header) model.Credentials {
	creds := model.Credentials{Cookie: h.Get("Cookie")}

	if auth := h.Get("Authorization"); auth != "" {
		creds.Authorization = auth
	} else if tok := cookieValue(h, accessTokenCookie); tok != "" {
		creds.Authorization = "Bearer " + tok
	}

	creds.Subject = tokenSubject(creds.Authorization)
	return creds
}

// cookieValue returns the named cookie's value from a raw Cookie header,
// or empty string.
func cookieValue(h http.Header, name string) string {
	r := http.Request{Header: h}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// tokenSubject peeks at the bearer token's subject claim for request logging.
// The token is NOT verified here — the gateway forwards credentials, it does
// not validate them — so the result must never feed an authorization decision.
func tokenSubject(authorization string) string {
	tok, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || tok == "" {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
