package authserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleASMetadata(w http.ResponseWriter, r *http.Request) {
	base := s.baseURL(r)
	meta := authServerMetadata{
		Issuer:                             base,
		AuthorizationEndpoint:              base + "/authorize",
		TokenEndpoint:                      base + "/token",
		RegistrationEndpoint:               base + "/register",
		IntrospectionEndpoint:              base + "/introspect",
		ResponseTypesSupported:             []string{"code"},
		GrantTypesSupported:                []string{"authorization_code"},
		CodeChallengeMethodsSupported:      []string{"S256"},
		TokenEndpointAuthMethodsSupported:  []string{"client_secret_post", "client_secret_basic", "none"},
		ScopesSupported:                    []string{s.cfg.DefaultScope},
		ClientIDMetadataDocumentSupported:  true,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(meta)
}

func (s *Server) handlePRMetadata(w http.ResponseWriter, r *http.Request) {
	base := s.baseURL(r)

	resourcePath := chi.URLParam(r, "*")
	if resourcePath == "" {
		resourcePath = strings.TrimPrefix(s.cfg.OAuthMountPath, "/")
	}
	resourcePath = strings.TrimPrefix(resourcePath, "/")

	meta := protectedResourceMetadata{
		Resource:                base + "/" + resourcePath,
		AuthorizationServers:    []string{base},
		BearerMethodsSupported:  []string{"header"},
		ScopesSupported:         []string{s.cfg.DefaultScope},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(meta)
}
