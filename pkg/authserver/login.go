package authserver

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/finmcp/gateway/pkg/logger"
	"github.com/finmcp/gateway/pkg/store"
)

var loginPageTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign in</title></head>
<body>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="POST" action="/login">
  <input type="text" name="credential" placeholder="API credential" autofocus />
  <input type="hidden" name="return_to" value="{{.ReturnTo}}" />
  <button type="submit">Sign in</button>
</form>
</body>
</html>`))

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	returnTo := "/"
	if claims, ok := s.sess.read(r); ok && claims.ReturnTo != "" {
		returnTo = claims.ReturnTo
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = loginPageTemplate.Execute(w, struct {
		Error    string
		ReturnTo string
	}{
		Error:    r.URL.Query().Get("error"),
		ReturnTo: returnTo,
	})
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectToLoginError(w, r, "invalid_form")
		return
	}

	credential := r.FormValue("credential")
	returnTo := r.FormValue("return_to")
	if returnTo == "" {
		if claims, ok := s.sess.read(r); ok && claims.ReturnTo != "" {
			returnTo = claims.ReturnTo
		} else {
			returnTo = "/"
		}
	}

	if credential == "" {
		redirectToLoginError(w, r, "missing_credential")
		return
	}

	if email, ok := s.lookupByCredential(r, credential); ok {
		if err := s.sess.write(w, isSecureRequest(r), email, returnTo); err != nil {
			logger.Errorw("login: failed to write session cookie", "error", err)
			redirectToLoginError(w, r, "session_error")
			return
		}
		http.Redirect(w, r, returnTo, http.StatusSeeOther)
		return
	}

	verified, err := s.identity.Verify(r.Context(), credential)
	if err != nil {
		logger.Warnw("login: identity verification failed", "error", err)
		redirectToLoginError(w, r, "verification_failed")
		return
	}

	user := store.User{
		Email:              verified.Email,
		UpstreamCredential: credential,
		Name:               verified.Name,
		SubscriptionType:   verified.SubscriptionType,
		Scopes:             []string{s.cfg.DefaultScope},
		CreatedAt:          time.Now(),
	}
	if err := s.upsertUser(r, user); err != nil {
		logger.Errorw("login: failed to persist user", "error", err)
		redirectToLoginError(w, r, "storage_error")
		return
	}

	if err := s.sess.write(w, isSecureRequest(r), user.Email, returnTo); err != nil {
		logger.Errorw("login: failed to write session cookie", "error", err)
		redirectToLoginError(w, r, "session_error")
		return
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

func redirectToLoginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+code, http.StatusSeeOther)
}

// lookupByCredential checks whether credential already maps to a known
// user via the credential index (I6), so returning users skip the
// identity-verify round trip.
func (s *Server) lookupByCredential(r *http.Request, credential string) (string, bool) {
	raw, ok, err := s.store.Get(r.Context(), store.CredentialIndex, store.HashKey(credential))
	if err != nil || !ok {
		return "", false
	}
	return string(raw), true
}

func (s *Server) upsertUser(r *http.Request, user store.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.store.Put(r.Context(), store.Users, user.Email, raw, 0); err != nil {
		return err
	}
	return s.store.Put(r.Context(), store.CredentialIndex, store.HashKey(user.UpstreamCredential), []byte(user.Email), 0)
}
