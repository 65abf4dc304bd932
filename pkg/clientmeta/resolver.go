// Package clientmeta resolves a URL-shaped OAuth client_id into a
// RegisteredClient by fetching and validating the Client ID Metadata
// Document it points to, guarding against SSRF and caching successful
// fetches for their advertised TTL.
package clientmeta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/finmcp/gateway/pkg/errors"
	"github.com/finmcp/gateway/pkg/store"
)

// Config bounds the resolver's HTTP fetch and cache TTLs.
type Config struct {
	HTTPTimeout time.Duration
	MaxBytes    int64
	DefaultTTL  time.Duration
	MinTTL      time.Duration
	MaxTTL      time.Duration
}

// document is the wire shape of a Client ID Metadata Document.
type document struct {
	ClientID                string   `json:"client_id"`
	RedirectURIs            []string `json:"redirect_uris"`
	ClientName              string   `json:"client_name,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
}

type cacheEntry struct {
	client    store.RegisteredClient
	expiresAt time.Time
}

// Resolver fetches and caches Client ID Metadata Documents.
type Resolver struct {
	cfg    Config
	client *http.Client

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// New builds a Resolver. The HTTP client follows no redirects and never
// dials a resolved address outside the global-routable classes.
func New(cfg Config) *Resolver {
	r := &Resolver{cfg: cfg, cache: make(map[string]cacheEntry)}
	r.client = &http.Client{
		Timeout: cfg.HTTPTimeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Transport: &http.Transport{
			DialContext: r.guardedDialContext,
		},
	}
	return r
}

// guardedDialContext resolves the host and refuses to dial any address that
// is not globally routable, implementing the SSRF guard independently of
// whatever DNS answer the hostname returns at fetch time.
func (r *Resolver) guardedDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	resolver := &net.Resolver{}
	ips, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("clientmeta: resolve host: %w", err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("clientmeta: host %q did not resolve", host)
	}
	for _, ipAddr := range ips {
		if !isGloballyRoutable(ipAddr.IP) {
			return nil, fmt.Errorf("clientmeta: host %q resolves to a non-routable address %s", host, ipAddr.IP)
		}
	}

	dialer := &net.Dialer{}
	return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
}

func isGloballyRoutable(ip net.IP) bool {
	switch {
	case ip.IsPrivate():
	case ip.IsLoopback():
	case ip.IsLinkLocalUnicast():
	case ip.IsLinkLocalMulticast():
	case ip.IsMulticast():
	case ip.IsUnspecified():
	default:
		return true
	}
	return false
}

// validateURL enforces the structural rules on the client_id URL itself,
// before any network activity.
func validateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.NewInvalidClientError("malformed client_id URL", err)
	}
	if u.Scheme != "https" {
		return nil, errors.NewInvalidClientError("client_id URL must use https", nil)
	}
	if u.Host == "" {
		return nil, errors.NewInvalidClientError("client_id URL must have a host", nil)
	}
	if u.Path == "" || u.Path == "/" {
		return nil, errors.NewInvalidClientError("client_id URL must have a non-root path", nil)
	}
	if u.Fragment != "" {
		return nil, errors.NewInvalidClientError("client_id URL must not have a fragment", nil)
	}
	if u.User != nil {
		return nil, errors.NewInvalidClientError("client_id URL must not contain userinfo", nil)
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "." || seg == ".." {
			return nil, errors.NewInvalidClientError("client_id URL path must not contain dot segments", nil)
		}
	}
	return u, nil
}

// Resolve fetches and validates the metadata document at clientIDURL,
// persisting the resulting RegisteredClient into st.
func (r *Resolver) Resolve(ctx context.Context, clientIDURL string, st store.Store) (store.RegisteredClient, error) {
	if _, err := validateURL(clientIDURL); err != nil {
		return store.RegisteredClient{}, err
	}

	if cached, ok := r.fromCache(clientIDURL); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, clientIDURL, nil)
	if err != nil {
		return store.RegisteredClient{}, errors.NewInvalidClientError("could not build metadata request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return store.RegisteredClient{}, errors.NewInvalidClientError("metadata fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return store.RegisteredClient{}, errors.NewInvalidClientError(
			fmt.Sprintf("metadata fetch returned status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.cfg.MaxBytes+1))
	if err != nil {
		return store.RegisteredClient{}, errors.NewInvalidClientError("could not read metadata body", err)
	}
	if int64(len(body)) > r.cfg.MaxBytes {
		return store.RegisteredClient{}, errors.NewInvalidClientError("metadata body exceeds size limit", nil)
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return store.RegisteredClient{}, errors.NewInvalidClientError("metadata body is not valid JSON", err)
	}
	if doc.ClientID != clientIDURL {
		return store.RegisteredClient{}, errors.NewInvalidClientError("metadata client_id does not match requested URL", nil)
	}
	if len(doc.RedirectURIs) == 0 {
		return store.RegisteredClient{}, errors.NewInvalidClientError("metadata redirect_uris must be non-empty", nil)
	}
	for _, ru := range doc.RedirectURIs {
		if strings.TrimSpace(ru) == "" {
			return store.RegisteredClient{}, errors.NewInvalidClientError("metadata redirect_uris must not contain empty entries", nil)
		}
	}
	if doc.TokenEndpointAuthMethod != "" && doc.TokenEndpointAuthMethod != "none" {
		return store.RegisteredClient{}, errors.NewInvalidClientError("metadata token_endpoint_auth_method must be absent, empty, or none", nil)
	}

	ttl := ttlFromCacheControl(resp.Header.Get("Cache-Control"), r.cfg)

	client := store.RegisteredClient{
		ClientID:        clientIDURL,
		RedirectURIs:    doc.RedirectURIs,
		ClientName:      doc.ClientName,
		GrantTypes:      []string{"authorization_code"},
		ResponseTypes:   []string{"code"},
		TokenAuthMethod: "none",
		CreatedAt:       time.Now(),
	}

	r.storeCache(clientIDURL, client, ttl)

	raw, err := json.Marshal(client)
	if err != nil {
		return store.RegisteredClient{}, errors.NewInternalError("could not encode resolved client", err)
	}
	if err := st.Put(ctx, store.Clients, client.ClientID, raw, 0); err != nil {
		return store.RegisteredClient{}, errors.NewInternalError("could not persist resolved client", err)
	}

	return client, nil
}

func ttlFromCacheControl(header string, cfg Config) time.Duration {
	ttl := cfg.DefaultTTL
	for _, directive := range strings.Split(header, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, "max-age=") {
			continue
		}
		seconds, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
		if err != nil {
			continue
		}
		ttl = time.Duration(seconds) * time.Second
	}
	if ttl < cfg.MinTTL {
		ttl = cfg.MinTTL
	}
	if ttl > cfg.MaxTTL {
		ttl = cfg.MaxTTL
	}
	return ttl
}

func (r *Resolver) fromCache(clientIDURL string) (store.RegisteredClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.cache[clientIDURL]
	if !ok || time.Now().After(e.expiresAt) {
		return store.RegisteredClient{}, false
	}
	return e.client, true
}

func (r *Resolver) storeCache(clientIDURL string, client store.RegisteredClient, ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[clientIDURL] = cacheEntry{client: client, expiresAt: time.Now().Add(ttl)}
}
