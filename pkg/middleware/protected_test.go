package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finmcp/gateway/pkg/store"
	"github.com/finmcp/gateway/pkg/tokencodec"
)

func setupProtected(t *testing.T) (ProtectedConfig, *tokencodec.Codec, store.Store) {
	t.Helper()
	codec := tokencodec.New("test-secret")
	st := store.NewMemoryStore()

	userRaw, err := json.Marshal(store.User{Email: "alice@example.test", UpstreamCredential: "UPSTREAM-CRED"})
	require.NoError(t, err)
	require.NoError(t, st.Put(context.Background(), store.Users, "alice@example.test", userRaw, 0))

	cfg := ProtectedConfig{
		Codec:               codec,
		Store:               st,
		ExpectedAudience:    "https://gateway.test/v2/mcp",
		ResourceMetadataURL: "https://gateway.test/.well-known/oauth-protected-resource/v2/mcp",
		Realm:               "gateway",
		DefaultScope:        "full-access",
		ExcludedPaths:       map[string]bool{},
	}
	return cfg, codec, st
}

func issueAndStoreToken(t *testing.T, cfg ProtectedConfig, codec *tokencodec.Codec, st store.Store, aud string, expiresIn time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := tokencodec.Claims{
		Issuer:    "https://gateway.test",
		Subject:   "alice@example.test",
		Audience:  []string{aud},
		ClientID:  "client-1",
		Scope:     "full-access",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(expiresIn).Unix(),
		JTI:       "jti-1",
	}
	token, err := codec.Issue(claims)
	require.NoError(t, err)

	at := store.AccessToken{ClientID: claims.ClientID, UserID: claims.Subject, Scopes: []string{"full-access"}, ExpiresAt: now.Add(expiresIn), IssuedAt: now}
	raw, err := json.Marshal(at)
	require.NoError(t, err)
	require.NoError(t, st.Put(context.Background(), store.AccessTokens, store.HashKey(token), raw, expiresIn))
	return token
}

func TestProtectedAcceptsValidToken(t *testing.T) {
	cfg, codec, st := setupProtected(t)
	token := issueAndStoreToken(t, cfg, codec, st, cfg.ExpectedAudience, time.Hour)

	var gotCred string
	handler := Protected(cfg)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotCred, _ = UpstreamCredentialFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v2/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "UPSTREAM-CRED", gotCred)
}

func TestProtectedRejectsMissingAuthHeader(t *testing.T) {
	cfg, _, _ := setupProtected(t)
	handler := Protected(cfg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v2/mcp", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestProtectedRejectsAudienceMismatch(t *testing.T) {
	cfg, codec, st := setupProtected(t)
	token := issueAndStoreToken(t, cfg, codec, st, "https://gateway.test/v3/mcp", time.Hour)

	handler := Protected(cfg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v2/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestProtectedRejectsTokenMissingFromStore(t *testing.T) {
	cfg, codec, _ := setupProtected(t)
	now := time.Now()
	token, err := codec.Issue(tokencodec.Claims{
		Subject:   "alice@example.test",
		Audience:  []string{cfg.ExpectedAudience},
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	handler := Protected(cfg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v2/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a signature-valid token absent from the store must still be rejected")
}

func TestProtectedOptionsPassesThrough(t *testing.T) {
	cfg, _, _ := setupProtected(t)
	called := false
	handler := Protected(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/v2/mcp", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, called, "expected OPTIONS request to pass through unchallenged")
}

func TestAudienceMatchesTrailingSlashTolerant(t *testing.T) {
	assert.True(t, audienceMatches([]string{"https://gateway.test/v2/mcp/"}, "https://gateway.test/v2/mcp"))
	assert.False(t, audienceMatches([]string{"https://gateway.test/v3/mcp"}, "https://gateway.test/v2/mcp"))
	assert.True(t, audienceMatches(nil, "https://gateway.test/v2/mcp"))
}
