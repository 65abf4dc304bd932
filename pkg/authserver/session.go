package authserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionCookieName = "finmcp_as_session"

// sessionClaims is the payload of the session cookie. It only ever bridges
// /login to /authorize, per the design note that no general session
// framework is needed.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email,omitempty"`
	ReturnTo   string `json:"return_to,omitempty"`
}

// session wraps the signed-cookie read/write pair used by /login and
// /authorize.
type session struct {
	secret []byte
}

func newSession(secret string) *session {
	return &session{secret: []byte(secret)}
}

func (s *session) write(w http.ResponseWriter, secure bool, email, returnTo string) error {
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(30 * time.Minute)),
		},
		Email:    email,
		ReturnTo: returnTo,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return fmt.Errorf("authserver: sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * time.Minute),
	})
	return nil
}

func (s *session) read(r *http.Request) (sessionClaims, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return sessionClaims{}, false
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return sessionClaims{}, false
	}
	return claims, true
}

func (s *session) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
