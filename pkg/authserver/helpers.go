package authserver

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strings"

	gwerrors "github.com/finmcp/gateway/pkg/errors"
)

var errInvalidRedirectURI = errors.New("authserver: redirect_uri must be http or https")

// isSecureRequest reports whether r arrived over TLS, directly or via a
// trusted reverse proxy's X-Forwarded-Proto, so session cookies only get
// the Secure flag when the browser will actually send them back.
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// writeOAuthError writes err as an RFC 6749 §5.2 error body, deriving both
// the HTTP status and the wire "error" code from err's Type via
// pkg/errors rather than repeating that mapping by hand at each call site.
func writeOAuthError(w http.ResponseWriter, err *gwerrors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(gwerrors.Code(err))
	_ = json.NewEncoder(w).Encode(oauthError{Error: string(err.Type), ErrorDescription: err.Message})
}

func htmlError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("<html><body><h1>" + http.StatusText(status) + "</h1><p>" + html.EscapeString(message) + "</p></body></html>"))
}
