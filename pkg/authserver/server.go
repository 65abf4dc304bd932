// Package authserver implements the gateway's self-contained OAuth 2.1
// Authorization Server: dynamic client registration, login, authorization
// code grant with PKCE, token issuance, introspection, and discovery.
package authserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/finmcp/gateway/pkg/clientmeta"
	"github.com/finmcp/gateway/pkg/identity"
	"github.com/finmcp/gateway/pkg/store"
	"github.com/finmcp/gateway/pkg/tokencodec"
)

// Server holds the authorization server's dependencies and exposes its
// routes for inlining into the outer dispatcher router.
type Server struct {
	cfg      Config
	store    store.Store
	codec    *tokencodec.Codec
	resolver *clientmeta.Resolver
	identity *identity.Client
	sess     *session
}

// New builds a Server. cfg must already be validated.
func New(cfg Config, st store.Store, codec *tokencodec.Codec, resolver *clientmeta.Resolver, identityClient *identity.Client) *Server {
	return &Server{
		cfg:      cfg,
		store:    st,
		codec:    codec,
		resolver: resolver,
		identity: identityClient,
		sess:     newSession(cfg.SessionSecret),
	}
}

// Register inlines the AS's routes directly onto r, rather than mounting
// them under a prefix, so discovery paths never conflict with the
// dispatcher's mount-root exact handlers.
func (s *Server) Register(r chi.Router) {
	r.Post("/register", s.handleRegister)

	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLoginSubmit)

	r.Get("/authorize", s.handleAuthorize)

	r.Post("/token", s.handleToken)
	r.Post("/introspect", s.handleIntrospect)

	r.Get("/.well-known/oauth-authorization-server", s.handleASMetadata)
	r.Get("/.well-known/oauth-protected-resource", s.handlePRMetadata)
	r.Get("/.well-known/oauth-protected-resource/*", s.handlePRMetadata)
}

// baseURL derives the canonical external base URL: a configured Issuer
// takes precedence; otherwise X-Forwarded-Proto/Host; otherwise the
// request's own scheme and host.
func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.Issuer != "" {
		return strings.TrimRight(s.cfg.Issuer, "/")
	}

	proto := r.Header.Get("X-Forwarded-Proto")
	host := r.Header.Get("X-Forwarded-Host")
	if proto != "" && host != "" {
		return proto + "://" + host
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
