// Package upstream is the Upstream Credential Sink: it owns the single
// shared HTTP client used to call the upstream financial-data API,
// resolves which credential to inject into each outbound call, and maps
// upstream responses into the tool-response shapes the spec requires.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/finmcp/gateway/pkg/middleware"
)

const (
	requestTimeout  = 30 * time.Second
	maxResponseBody = 10 << 20
	maxErrorText    = 2000
)

// Sink calls the upstream API, injecting a resolved credential into every
// request and shaping the response for tool consumption.
type Sink struct {
	baseURL       string
	envCredential string
	client        *http.Client
}

// New builds a Sink bound to baseURL. envCredential is the process-wide
// fallback credential used only when the call has no request-local
// credential (the non-HTTP-transport path in §4.8).
func New(baseURL, envCredential string) *Sink {
	return &Sink{
		baseURL:       baseURL,
		envCredential: envCredential,
		client:        &http.Client{Timeout: requestTimeout},
	}
}

// Get issues GET <baseURL><path>?<query>&api_token=<credential> and maps
// the response per §4.8. It never returns a Go error for anything an
// upstream caller can observe in the response body; the returned value is
// always the shape to hand back to the tool-protocol client.
func (s *Sink) Get(ctx context.Context, path string, query url.Values) (any, error) {
	u, err := url.Parse(s.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("upstream: invalid path %q: %w", path, err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if q.Get("api_token") == "" {
		credential, ok := resolveCredential(ctx, s.envCredential)
		if !ok {
			return map[string]any{"error": "Missing API token. Provide it via the request's bearer token, apikey, X-API-Key, or the upstream credential environment variable."}, nil
		}
		q.Set("api_token", credential)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return map[string]any{"error": err.Error()}, nil
	}
	defer resp.Body.Close()

	return mapResponse(resp), nil
}

// resolveCredential implements §4.8's resolution order: request-local
// state first (written by the Protected-Resource or Legacy Identity
// middleware), then the process-wide environment credential for non-HTTP
// transport contexts, otherwise failure.
func resolveCredential(ctx context.Context, envCredential string) (string, bool) {
	if credential, ok := middleware.UpstreamCredentialFromContext(ctx); ok && credential != "" {
		return credential, true
	}
	// net/http attaches ServerContextKey to every request context it serves,
	// so its presence marks a call made on behalf of an HTTP request.
	if ctx.Value(http.ServerContextKey) != nil {
		return "", false
	}
	if envCredential != "" {
		return envCredential, true
	}
	return "", false
}

func mapResponse(resp *http.Response) any {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	contentType := resp.Header.Get("Content-Type")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return map[string]any{
			"error":       fmt.Sprintf("upstream returned status %d", resp.StatusCode),
			"status_code": resp.StatusCode,
			"text":        truncate(string(body), maxErrorText),
		}
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return map[string]any{
			"error":        "upstream response is not valid JSON",
			"status_code":  resp.StatusCode,
			"content_type": contentType,
			"text":         truncate(string(body), maxErrorText),
		}
	}
	return parsed
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
