package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	gwerrors "github.com/finmcp/gateway/pkg/errors"
	"github.com/finmcp/gateway/pkg/logger"
	"github.com/finmcp/gateway/pkg/store"
	"github.com/finmcp/gateway/pkg/tokencodec"
)

// ProtectedConfig configures the Protected-Resource middleware for one
// tool-protocol mount.
type ProtectedConfig struct {
	Codec *tokencodec.Codec
	Store store.Store

	// ExpectedAudience is the mount-root absolute URL tokens must carry.
	ExpectedAudience string

	// ResourceMetadataURL is the RFC 9728 discovery URL advertised on 401
	// challenges, built with the path-insertion form.
	ResourceMetadataURL string

	// Realm is the RFC 6750 realm value.
	Realm string

	// DefaultScope is advertised on 401 challenges.
	DefaultScope string

	// ExcludedPaths bypass token validation entirely (e.g. health checks).
	ExcludedPaths map[string]bool
}

// Protected returns the bearer-token validation middleware for cfg's mount.
func Protected(cfg ProtectedConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if cfg.ExcludedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				challenge(w, cfg, gwerrors.ErrInvalidRequest, "missing or malformed Authorization header")
				return
			}
			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if tokenString == "" {
				challenge(w, cfg, gwerrors.ErrInvalidRequest, "missing bearer token")
				return
			}

			claims, err := cfg.Codec.Verify(tokenString)
			if err != nil {
				challenge(w, cfg, gwerrors.ErrInvalidToken, "token signature or expiry check failed")
				return
			}

			if !audienceMatches(claims.Audience, cfg.ExpectedAudience) {
				challenge(w, cfg, gwerrors.ErrInvalidToken, "token audience does not match this resource")
				return
			}
			if strings.TrimSpace(claims.Subject) == "" {
				challenge(w, cfg, gwerrors.ErrInvalidToken, "token is missing a subject")
				return
			}

			raw, ok, err := cfg.Store.Get(r.Context(), store.AccessTokens, store.HashKey(tokenString))
			if err != nil {
				logger.Errorw("protected middleware: store lookup failed", "error", err)
				challenge(w, cfg, gwerrors.ErrInvalidToken, "token lookup failed")
				return
			}
			if !ok {
				challenge(w, cfg, gwerrors.ErrInvalidToken, "token is not present in the store")
				return
			}

			var at store.AccessToken
			if err := json.Unmarshal(raw, &at); err != nil {
				logger.Errorw("protected middleware: malformed stored token", "error", err)
				challenge(w, cfg, gwerrors.ErrInvalidToken, "stored token record is malformed")
				return
			}
			if time.Now().After(at.ExpiresAt) {
				challenge(w, cfg, gwerrors.ErrInvalidToken, "token has expired")
				return
			}

			userRaw, ok, err := cfg.Store.Get(r.Context(), store.Users, claims.Subject)
			if err != nil || !ok {
				logger.Errorw("protected middleware: user lookup failed", "subject", claims.Subject, "error", err)
				challenge(w, cfg, gwerrors.ErrInvalidToken, "subject does not resolve to a known user")
				return
			}
			var u store.User
			if err := json.Unmarshal(userRaw, &u); err != nil {
				logger.Errorw("protected middleware: malformed stored user", "error", err)
				challenge(w, cfg, gwerrors.ErrInvalidToken, "stored user record is malformed")
				return
			}

			ctx := WithUpstreamCredential(r.Context(), u.UpstreamCredential)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// audienceMatches implements the comparison required by spec: if the
// caller provided no audience, accept; otherwise require any element to
// equal expected under trailing-slash-tolerant comparison.
func audienceMatches(audience []string, expected string) bool {
	if len(audience) == 0 {
		return true
	}
	expectedNorm := strings.TrimRight(expected, "/")
	for _, a := range audience {
		if strings.TrimRight(a, "/") == expectedNorm {
			return true
		}
	}
	return false
}

// challenge writes an RFC 6750 bearer challenge for errType. Unlike the
// authorization server's JSON error responses, a bearer challenge is
// always 401 regardless of errType (RFC 6750 section 3 reserves 403 for
// insufficient_scope alone, which this middleware never emits) -- so the
// status here is fixed rather than derived from gwerrors.Code.
func challenge(w http.ResponseWriter, cfg ProtectedConfig, errType gwerrors.Type, description string) {
	w.Header().Set("WWW-Authenticate", buildWWWAuthenticate(cfg, errType, description))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   string(errType),
		"message": description,
	})
}

// buildWWWAuthenticate builds the RFC 6750 / RFC 9728 challenge value.
func buildWWWAuthenticate(cfg ProtectedConfig, errType gwerrors.Type, description string) string {
	parts := []string{fmt.Sprintf(`realm="%s"`, escapeQuotes(cfg.Realm))}
	if cfg.ResourceMetadataURL != "" {
		parts = append(parts, fmt.Sprintf(`resource_metadata="%s"`, escapeQuotes(cfg.ResourceMetadataURL)))
	}
	if cfg.DefaultScope != "" {
		parts = append(parts, fmt.Sprintf(`scope="%s"`, escapeQuotes(cfg.DefaultScope)))
	}
	parts = append(parts, fmt.Sprintf(`error="%s"`, escapeQuotes(string(errType))))
	if description != "" {
		parts = append(parts, fmt.Sprintf(`error_description="%s"`, escapeQuotes(description)))
	}
	return "Bearer " + strings.Join(parts, ", ")
}

func escapeQuotes(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
