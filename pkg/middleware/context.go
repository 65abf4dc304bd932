// Package middleware implements the gateway's two request-local
// authentication paths: the Protected-Resource bearer-token middleware
// (OAuth mount) and the Legacy Identity middleware (legacy mount).
package middleware

import "context"

// credentialContextKey is the context key under which the resolved
// upstream credential is attached. An empty struct prevents collisions
// with other packages' context keys.
type credentialContextKey struct{}

// WithUpstreamCredential attaches the resolved upstream credential to ctx.
// If credential is empty, ctx is returned unchanged.
func WithUpstreamCredential(ctx context.Context, credential string) context.Context {
	if credential == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialContextKey{}, credential)
}

// UpstreamCredentialFromContext retrieves the upstream credential attached
// by either middleware, if any.
func UpstreamCredentialFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(credentialContextKey{}).(string)
	return v, ok
}
