package dispatcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Path", r.URL.Path)
		_, _ = w.Write([]byte(body))
	})
}

func TestMountServesExactRootAndTrailingSlashIdentically(t *testing.T) {
	d := New()
	d.Mount(Mount{Prefix: "/v2/mcp", Inner: echoHandler("inner")})

	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	respExact, err := http.Get(srv.URL + "/v2/mcp")
	require.NoError(t, err)
	defer respExact.Body.Close()
	assert.Equal(t, http.StatusOK, respExact.StatusCode)
	assert.Equal(t, "/", respExact.Header.Get("X-Path"))

	respSlash, err := http.Get(srv.URL + "/v2/mcp/")
	require.NoError(t, err)
	defer respSlash.Body.Close()
	assert.Equal(t, http.StatusOK, respSlash.StatusCode)
}

func TestMountServesSubPathsUnderPrefix(t *testing.T) {
	d := New()
	d.Mount(Mount{Prefix: "/v1/mcp", Inner: echoHandler("inner")})

	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/mcp/sub/path")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMountAppliesMiddleware(t *testing.T) {
	d := New()
	called := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}
	d.Mount(Mount{Prefix: "/v1/mcp", Inner: echoHandler("inner"), Middleware: mw})

	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/mcp")
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, called, "expected middleware to run for the exact mount-root request")
}

func TestRegisterAuthServerInlinesRoutes(t *testing.T) {
	d := New()
	d.RegisterAuthServer(func(r chi.Router) {
		r.Get("/.well-known/oauth-authorization-server", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("metadata"))
		})
	})
	d.Mount(Mount{Prefix: "/v2/mcp", Inner: echoHandler("inner")})

	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/.well-known/oauth-authorization-server")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLifecycleStartsOuterFirstStopsInnerFirst(t *testing.T) {
	var order []string

	d := New()
	d.Mount(Mount{Prefix: "/v1/mcp", Inner: echoHandler("a"), Lifecycle: Lifecycle{
		Start: func(context.Context) error { order = append(order, "start-outer"); return nil },
		Stop:  func(context.Context) error { order = append(order, "stop-outer"); return nil },
	}})
	d.Mount(Mount{Prefix: "/v2/mcp", Inner: echoHandler("b"), Lifecycle: Lifecycle{
		Start: func(context.Context) error { order = append(order, "start-inner"); return nil },
		Stop:  func(context.Context) error { order = append(order, "stop-inner"); return nil },
	}})

	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Stop(context.Background()))

	assert.Equal(t, []string{"start-outer", "start-inner", "stop-inner", "stop-outer"}, order)
}

func TestLifecycleSkipsMissingHooks(t *testing.T) {
	d := New()
	d.Mount(Mount{Prefix: "/v1/mcp", Inner: echoHandler("a")})

	assert.NoError(t, d.Start(context.Background()))
	assert.NoError(t, d.Stop(context.Background()))
}

func TestLifecycleStopRunsAllHooksAndReportsFirstError(t *testing.T) {
	var stopped []string
	errBoom := errors.New("boom")

	d := New()
	d.Mount(Mount{Prefix: "/v1/mcp", Inner: echoHandler("a"), Lifecycle: Lifecycle{
		Stop: func(context.Context) error { stopped = append(stopped, "outer"); return errBoom },
	}})
	d.Mount(Mount{Prefix: "/v2/mcp", Inner: echoHandler("b"), Lifecycle: Lifecycle{
		Stop: func(context.Context) error { stopped = append(stopped, "inner"); return nil },
	}})

	err := d.Stop(context.Background())
	assert.Equal(t, []string{"inner", "outer"}, stopped, "expected inner-first teardown order")
	assert.True(t, errors.Is(err, errBoom), "expected the first stop error to propagate")
}
