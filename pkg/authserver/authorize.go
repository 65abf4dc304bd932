package authserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finmcp/gateway/pkg/authserver/crypto"
	gwerrors "github.com/finmcp/gateway/pkg/errors"
	"github.com/finmcp/gateway/pkg/logger"
	"github.com/finmcp/gateway/pkg/store"
)

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	claims, loggedIn := s.sess.read(r)
	if !loggedIn || claims.Email == "" {
		if err := s.sess.write(w, isSecureRequest(r), "", r.URL.RequestURI()); err != nil {
			logger.Errorw("authorize: failed to save return_to", "error", err)
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	q := r.URL.Query()
	if q.Get("response_type") != "code" {
		htmlError(w, http.StatusBadRequest, "response_type must be \"code\"")
		return
	}
	clientID := q.Get("client_id")
	redirectURI := q.Get("redirect_uri")
	if clientID == "" || redirectURI == "" {
		htmlError(w, http.StatusBadRequest, "client_id and redirect_uri are required")
		return
	}

	client, cerr := s.resolveClient(r, clientID)
	if cerr != nil {
		status := gwerrors.Code(cerr)
		if gwerrors.IsInvalidClient(cerr) {
			// No client authentication happens here, so an unknown client is
			// a 400 error page rather than invalid_client's usual 401.
			status = http.StatusBadRequest
		}
		htmlError(w, status, cerr.Message)
		return
	}

	if !redirectURIRegistered(client, redirectURI) {
		if _, err := validateRedirectURI(redirectURI); err != nil {
			htmlError(w, http.StatusBadRequest, "redirect_uri is not registered for this client")
			return
		}
		redirectWithError(w, r, redirectURI, q.Get("state"), "invalid_request")
		return
	}

	challengeMethod := q.Get("code_challenge_method")
	challenge := q.Get("code_challenge")
	if challengeMethod != "" && challengeMethod != "S256" {
		redirectWithError(w, r, redirectURI, q.Get("state"), "invalid_request")
		return
	}
	if challengeMethod == "S256" && challenge == "" {
		redirectWithError(w, r, redirectURI, q.Get("state"), "invalid_request")
		return
	}

	scope := q.Get("scope")
	if scope == "" {
		scope = s.cfg.DefaultScope
	}

	code, err := crypto.GenerateRandomToken()
	if err != nil {
		logger.Errorw("authorize: failed to generate authorization code", "error", err)
		htmlError(w, http.StatusInternalServerError, "could not issue authorization code")
		return
	}

	ac := store.AuthorizationCode{
		Code:                code,
		ClientID:            client.ClientID,
		RedirectURI:         redirectURI,
		UserID:              claims.Email,
		Scopes:              strings.Fields(scope),
		Resource:            s.baseURL(r) + s.cfg.OAuthMountPath,
		ExpiresAt:           time.Now().Add(s.cfg.AuthCodeLifespan),
		CodeChallenge:       challenge,
		CodeChallengeMethod: challengeMethod,
	}
	raw, err := json.Marshal(ac)
	if err != nil {
		logger.Errorw("authorize: failed to encode authorization code", "error", err)
		htmlError(w, http.StatusInternalServerError, "could not issue authorization code")
		return
	}
	if err := s.store.Put(r.Context(), store.AuthCodes, code, raw, s.cfg.AuthCodeLifespan); err != nil {
		logger.Errorw("authorize: failed to persist authorization code", "error", err)
		htmlError(w, http.StatusInternalServerError, "could not issue authorization code")
		return
	}

	dest, _ := url.Parse(redirectURI)
	vals := dest.Query()
	vals.Set("code", code)
	if state := q.Get("state"); state != "" {
		vals.Set("state", state)
	}
	dest.RawQuery = vals.Encode()
	http.Redirect(w, r, dest.String(), http.StatusSeeOther)
}

// resolveClient looks up clientID in the Store, or resolves it via the
// Client ID Metadata Document flow when it is an HTTPS URL. The returned
// error, when non-nil, is a *gwerrors.Error so JSON-endpoint callers (token)
// can hand it straight to writeOAuthError and HTML-endpoint callers
// (authorize) can derive a status via gwerrors.Code (authorize shows
// invalid_client as 400).
func (s *Server) resolveClient(r *http.Request, clientID string) (store.RegisteredClient, *gwerrors.Error) {
	raw, ok, err := s.store.Get(r.Context(), store.Clients, clientID)
	if err == nil && ok {
		var c store.RegisteredClient
		if json.Unmarshal(raw, &c) == nil {
			return c, nil
		}
	}

	if strings.HasPrefix(clientID, "https://") {
		c, err := s.resolver.Resolve(r.Context(), clientID, s.store)
		if err != nil {
			logger.Warnw("authorize: client metadata resolution failed", "client_id", clientID, "error", err)
			if ce, ok := err.(*gwerrors.Error); ok {
				return store.RegisteredClient{}, ce
			}
			return store.RegisteredClient{}, gwerrors.NewInvalidClientError("client metadata resolution failed", err)
		}
		return c, nil
	}

	return store.RegisteredClient{}, gwerrors.NewInvalidClientError("unknown client", nil)
}

func redirectURIRegistered(client store.RegisteredClient, redirectURI string) bool {
	for _, ru := range client.RedirectURIs {
		if ru == redirectURI {
			return true
		}
	}
	return false
}

func redirectWithError(w http.ResponseWriter, r *http.Request, redirectURI, state, code string) {
	dest, err := url.Parse(redirectURI)
	if err != nil {
		htmlError(w, http.StatusBadRequest, "invalid redirect_uri")
		return
	}
	vals := dest.Query()
	vals.Set("error", code)
	if state != "" {
		vals.Set("state", state)
	}
	dest.RawQuery = vals.Encode()
	http.Redirect(w, r, dest.String(), http.StatusSeeOther)
}
