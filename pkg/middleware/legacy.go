package middleware

import (
	"net/http"
	"strings"
)

// Legacy extracts the raw upstream credential from headers or query
// parameters on the legacy mount and attaches it to request-local state.
// There is no failure mode here: absence is reported later by the Upstream
// Credential Sink.
func Legacy() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cred, ok := UpstreamCredentialFromContext(r.Context()); ok && cred != "" {
				next.ServeHTTP(w, r)
				return
			}

			if cred := fromBearerHeader(r); cred != "" {
				next.ServeHTTP(w, r.WithContext(WithUpstreamCredential(r.Context(), cred)))
				return
			}

			if cred := r.Header.Get("X-API-Key"); cred != "" {
				next.ServeHTTP(w, r.WithContext(WithUpstreamCredential(r.Context(), cred)))
				return
			}

			for _, param := range []string{"apikey", "api_key", "api-key", "api_token"} {
				if cred := r.URL.Query().Get(param); cred != "" {
					next.ServeHTTP(w, r.WithContext(WithUpstreamCredential(r.Context(), cred)))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// fromBearerHeader extracts the raw credential from Authorization: Bearer.
// On the legacy mount this is the raw upstream credential, not a signed
// token.
func fromBearerHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}
