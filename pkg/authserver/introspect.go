package authserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/finmcp/gateway/pkg/logger"
	"github.com/finmcp/gateway/pkg/store"
)

func (s *Server) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeInactive(w)
		return
	}

	token := r.FormValue("token")
	if token == "" {
		writeInactive(w)
		return
	}

	claims, err := s.codec.Verify(token)
	if err != nil {
		writeInactive(w)
		return
	}

	raw, ok, err := s.store.Get(r.Context(), store.AccessTokens, store.HashKey(token))
	if err != nil {
		logger.Errorw("introspect: store lookup failed", "error", err)
		writeInactive(w)
		return
	}
	if !ok {
		writeInactive(w)
		return
	}

	var at store.AccessToken
	if err := json.Unmarshal(raw, &at); err != nil {
		logger.Errorw("introspect: malformed stored token", "error", err)
		writeInactive(w)
		return
	}
	if time.Now().After(at.ExpiresAt) {
		writeInactive(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(introspectionResponse{
		Active:   true,
		Issuer:   claims.Issuer,
		Subject:  claims.Subject,
		Audience: claims.Audience,
		ClientID: claims.ClientID,
		Scope:    strings.Join(at.Scopes, " "),
		ExpireAt: claims.ExpiresAt,
		IssuedAt: claims.IssuedAt,
	})
}

func writeInactive(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(introspectionResponse{Active: false})
}
