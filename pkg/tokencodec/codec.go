// Package tokencodec issues and verifies the compact signed tokens used as
// OAuth access tokens. The gateway is its own issuer, so verification uses
// a single shared HMAC secret rather than a remote JWKS.
package tokencodec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the full claim set carried by an access token.
type Claims struct {
	Issuer    string   `json:"iss"`
	Subject   string   `json:"sub"`
	Audience  []string `json:"aud"`
	ClientID  string   `json:"client_id"`
	Scope     string   `json:"scope"`
	IssuedAt  int64    `json:"iat"`
	ExpiresAt int64    `json:"exp"`
	JTI       string   `json:"jti"`
}

type jwtClaims struct {
	jwt.RegisteredClaims
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

// Codec issues and verifies HMAC-SHA256 compact tokens.
type Codec struct {
	secret []byte
}

// New builds a Codec using secret as the HMAC key.
func New(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue signs claims and returns the compact token string.
func (c *Codec) Issue(claims Claims) (string, error) {
	jc := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    claims.Issuer,
			Subject:   claims.Subject,
			Audience:  jwt.ClaimStrings(claims.Audience),
			IssuedAt:  jwt.NewNumericDate(time.Unix(claims.IssuedAt, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0)),
			ID:        claims.JTI,
		},
		ClientID: claims.ClientID,
		Scope:    claims.Scope,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jc)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("tokencodec: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns its claims.
// Signature-only validity is not sufficient for authorization: callers must
// additionally confirm Store presence (see pkg/middleware).
func (c *Codec) Verify(tokenString string) (Claims, error) {
	var jc jwtClaims
	token, err := jwt.ParseWithClaims(tokenString, &jc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("tokencodec: verify token: %w", err)
	}
	if !token.Valid {
		return Claims{}, fmt.Errorf("tokencodec: token invalid")
	}

	var exp, iat int64
	if jc.ExpiresAt != nil {
		exp = jc.ExpiresAt.Unix()
	}
	if jc.IssuedAt != nil {
		iat = jc.IssuedAt.Unix()
	}

	return Claims{
		Issuer:    jc.Issuer,
		Subject:   jc.Subject,
		Audience:  []string(jc.Audience),
		ClientID:  jc.ClientID,
		Scope:     jc.Scope,
		IssuedAt:  iat,
		ExpiresAt: exp,
		JTI:       jc.ID,
	}, nil
}
