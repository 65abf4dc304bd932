package authserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/finmcp/gateway/pkg/authserver/crypto"
	gwerrors "github.com/finmcp/gateway/pkg/errors"
	"github.com/finmcp/gateway/pkg/logger"
	"github.com/finmcp/gateway/pkg/store"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOAuthError(w, gwerrors.NewInvalidRequestError("malformed JSON body", err))
		return
	}

	if len(req.RedirectURIs) == 0 {
		writeOAuthError(w, gwerrors.NewInvalidClientMetaError("redirect_uris must be a non-empty list", nil))
		return
	}
	for _, ru := range req.RedirectURIs {
		u, err := validateRedirectURI(ru)
		if err != nil {
			writeOAuthError(w, gwerrors.NewInvalidClientMetaError("redirect_uris must be http or https URLs", err))
			return
		}
		_ = u
	}

	clientID, err := crypto.GenerateOpaqueID()
	if err != nil {
		logger.Errorw("register: failed to generate client_id", "error", err)
		writeOAuthError(w, gwerrors.NewInternalError("could not generate client_id", err))
		return
	}

	authMethod := req.TokenEndpointAuthMethod
	public := authMethod == "none"
	if authMethod == "" {
		authMethod = "client_secret_post"
	}

	var plainSecret, secretHash string
	if !public {
		plainSecret, err = crypto.GenerateClientSecret()
		if err != nil {
			logger.Errorw("register: failed to generate client secret", "error", err)
			writeOAuthError(w, gwerrors.NewInternalError("could not generate client secret", err))
			return
		}
		secretHash, err = crypto.HashSecret(plainSecret)
		if err != nil {
			logger.Errorw("register: failed to hash client secret", "error", err)
			writeOAuthError(w, gwerrors.NewInternalError("could not store client secret", err))
			return
		}
	}

	client := store.RegisteredClient{
		ClientID:         clientID,
		ClientSecretHash: secretHash,
		RedirectURIs:     req.RedirectURIs,
		ClientName:       req.ClientName,
		GrantTypes:       []string{"authorization_code"},
		ResponseTypes:    []string{"code"},
		TokenAuthMethod:  authMethod,
		CreatedAt:        time.Now(),
	}

	raw, err := json.Marshal(client)
	if err != nil {
		logger.Errorw("register: failed to encode client record", "error", err)
		writeOAuthError(w, gwerrors.NewInternalError("could not persist client", err))
		return
	}
	if err := s.store.Put(r.Context(), store.Clients, client.ClientID, raw, 0); err != nil {
		logger.Errorw("register: failed to persist client record", "error", err)
		writeOAuthError(w, gwerrors.NewInternalError("could not persist client", err))
		return
	}

	resp := registrationResponse{
		ClientID:                client.ClientID,
		ClientSecret:            plainSecret,
		RedirectURIs:            client.RedirectURIs,
		ClientName:              client.ClientName,
		GrantTypes:              client.GrantTypes,
		ResponseTypes:           client.ResponseTypes,
		TokenEndpointAuthMethod: client.TokenAuthMethod,
	}
	if !public {
		resp.ClientSecretExpiresAt = 0
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}

func validateRedirectURI(raw string) (string, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "", errInvalidRedirectURI
	}
	return raw, nil
}
