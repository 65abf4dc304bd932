// Package dispatcher is the gateway's multi-mount request router: it
// registers exact-path handlers for each tool-protocol mount root so a
// client posting to the bare mount never hits chi's prefix-to-slash
// redirect, inlines the authorization server's own routes at the document
// root, and composes sub-application lifecycle hooks.
package dispatcher

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mount binds a tool-protocol application (a *server.StreamableHTTPServer,
// wrapped in whatever auth middleware applies to this mount) to a path
// prefix.
type Mount struct {
	// Prefix is the mount root, e.g. "/v1/mcp" or "/v2/mcp". It must not
	// have a trailing slash.
	Prefix string

	// Inner serves the tool-protocol application at path "/".
	Inner http.Handler

	// Middleware wraps Inner before it is registered, e.g. the legacy or
	// protected-resource middleware. May be nil.
	Middleware func(http.Handler) http.Handler

	// Lifecycle are this mount's optional startup/teardown hooks.
	Lifecycle Lifecycle
}

// Dispatcher is the outer chi.Router composed of the authorization server's
// inlined routes plus one or more tool-protocol Mounts.
type Dispatcher struct {
	router chi.Router
	mounts []Mount
}

// New builds an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{router: chi.NewRouter()}
}

// RegisterAuthServer inlines the authorization server's routes directly
// onto the dispatcher's router, rather than mounting them under a prefix,
// so discovery paths (served from the document root) never conflict with a
// mount-root exact handler.
func (d *Dispatcher) RegisterAuthServer(register func(chi.Router)) {
	register(d.router)
}

// Mount registers a tool-protocol application. It mounts the prefix and
// *then* adds exact-path handlers for GET, POST, and OPTIONS at the bare
// mount root: chi's Mount installs its own all-methods handler on the bare
// root, and the later per-method registration replaces it, so those
// requests reach the inner application with the path rewritten to "/".
func (d *Dispatcher) Mount(m Mount) {
	d.mounts = append(d.mounts, m)

	handler := m.Inner
	if m.Middleware != nil {
		handler = m.Middleware(handler)
	}

	d.router.Mount(m.Prefix, handler)
	exact := rewritePath(handler, "/")
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodOptions} {
		d.router.Method(method, m.Prefix, exact)
	}
}

// Handler returns the composed http.Handler for the whole dispatcher.
func (d *Dispatcher) Handler() http.Handler {
	return d.router
}

// Start runs every mount's startup hook outer-first (the order Mount was
// called), stopping at the first error.
func (d *Dispatcher) Start(ctx context.Context) error {
	return d.lifecycle().Start(ctx)
}

// Stop runs every mount's teardown hook inner-first (the reverse of Mount
// order), running every hook regardless of earlier errors.
func (d *Dispatcher) Stop(ctx context.Context) error {
	return d.lifecycle().Stop(ctx)
}

func (d *Dispatcher) lifecycle() Lifecycle {
	hooks := make([]Lifecycle, len(d.mounts))
	for i, m := range d.mounts {
		hooks[i] = m.Lifecycle
	}
	return ComposeLifecycle(hooks...)
}

// rewritePath returns a handler that serves r as if its path were newPath,
// the concrete mechanism for forwarding an exact mount-root request to an
// inner application configured to serve at "/".
func rewritePath(h http.Handler, newPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = newPath
		h.ServeHTTP(w, r2)
	})
}
