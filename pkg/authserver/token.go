package authserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finmcp/gateway/pkg/authserver/crypto"
	gwerrors "github.com/finmcp/gateway/pkg/errors"
	"github.com/finmcp/gateway/pkg/logger"
	"github.com/finmcp/gateway/pkg/store"
	"github.com/finmcp/gateway/pkg/tokencodec"
)

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, gwerrors.NewInvalidRequestError("malformed form body", err))
		return
	}

	if r.FormValue("grant_type") != "authorization_code" {
		writeOAuthError(w, gwerrors.NewUnsupportedGrantTypeError("only authorization_code is supported", nil))
		return
	}

	clientID, clientSecret, ok := clientCredentials(r)
	if !ok {
		writeOAuthError(w, gwerrors.NewInvalidRequestError("client authentication is malformed", nil))
		return
	}

	client, cerr := s.resolveClient(r, clientID)
	if cerr != nil {
		writeOAuthError(w, cerr)
		return
	}
	if client.TokenAuthMethod != "none" {
		if clientSecret == "" || client.ClientSecretHash == "" || !crypto.CompareSecret(client.ClientSecretHash, clientSecret) {
			writeOAuthError(w, gwerrors.NewInvalidClientError("client secret is missing or incorrect", nil))
			return
		}
	}

	code := r.FormValue("code")
	raw, ok, err := s.store.Consume(r.Context(), store.AuthCodes, code)
	if err != nil {
		logger.Errorw("token: failed to consume authorization code", "error", err)
		writeOAuthError(w, gwerrors.NewInternalError("storage failure", err))
		return
	}
	if !ok {
		writeOAuthError(w, gwerrors.NewInvalidGrantError("authorization code is missing, expired, or already used", nil))
		return
	}

	var ac store.AuthorizationCode
	if err := json.Unmarshal(raw, &ac); err != nil {
		logger.Errorw("token: malformed stored authorization code", "error", err)
		writeOAuthError(w, gwerrors.NewInternalError("storage failure", err))
		return
	}

	if ac.ClientID != client.ClientID {
		writeOAuthError(w, gwerrors.NewInvalidGrantError("authorization code was issued to a different client", nil))
		return
	}
	if ac.RedirectURI != r.FormValue("redirect_uri") {
		writeOAuthError(w, gwerrors.NewInvalidGrantError("redirect_uri does not match the authorization request", nil))
		return
	}

	expectedResource := s.baseURL(r) + s.cfg.OAuthMountPath
	resource := r.FormValue("resource")
	if resource == "" {
		resource = expectedResource
	}
	if resource != expectedResource {
		writeOAuthError(w, gwerrors.NewInvalidTargetError("resource does not match this authorization server's mount", nil))
		return
	}

	if ac.CodeChallenge != "" {
		verifier := r.FormValue("code_verifier")
		if ac.CodeChallengeMethod != "S256" || verifier == "" || !crypto.VerifyS256(verifier, ac.CodeChallenge) {
			writeOAuthError(w, gwerrors.NewInvalidGrantError("PKCE verification failed", nil))
			return
		}
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTokenLifespan)
	scope := strings.Join(ac.Scopes, " ")
	claims := tokencodec.Claims{
		Issuer:    s.baseURL(r),
		Subject:   ac.UserID,
		Audience:  []string{resource},
		ClientID:  client.ClientID,
		Scope:     scope,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
		JTI:       uuid.NewString(),
	}

	accessToken, err := s.codec.Issue(claims)
	if err != nil {
		logger.Errorw("token: failed to issue access token", "error", err)
		writeOAuthError(w, gwerrors.NewInternalError("could not issue token", err))
		return
	}

	at := store.AccessToken{
		ClientID:  client.ClientID,
		UserID:    ac.UserID,
		Scopes:    ac.Scopes,
		ExpiresAt: expiresAt,
		IssuedAt:  now,
	}
	atRaw, err := json.Marshal(at)
	if err != nil {
		logger.Errorw("token: failed to encode access token record", "error", err)
		writeOAuthError(w, gwerrors.NewInternalError("could not issue token", err))
		return
	}
	if err := s.store.Put(r.Context(), store.AccessTokens, store.HashKey(accessToken), atRaw, s.cfg.AccessTokenLifespan); err != nil {
		logger.Errorw("token: failed to persist access token", "error", err)
		writeOAuthError(w, gwerrors.NewInternalError("could not issue token", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.cfg.AccessTokenLifespan.Seconds()),
		Scope:       scope,
	})
}

// clientCredentials extracts client_id/client_secret from form fields or
// HTTP Basic auth.
func clientCredentials(r *http.Request) (clientID, clientSecret string, ok bool) {
	if user, pass, basicOK := r.BasicAuth(); basicOK {
		return user, pass, true
	}
	clientID = r.FormValue("client_id")
	clientSecret = r.FormValue("client_secret")
	if clientID == "" {
		return "", "", false
	}
	return clientID, clientSecret, true
}
