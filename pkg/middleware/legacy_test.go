package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureCredential(t *testing.T, req *http.Request) string {
	t.Helper()
	var got string
	handler := Legacy()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = UpstreamCredentialFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return got
}

func TestLegacyBearerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/mcp", nil)
	req.Header.Set("Authorization", "Bearer RAWCRED")
	assert.Equal(t, "RAWCRED", captureCredential(t, req))
}

func TestLegacyAPIKeyHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/mcp", nil)
	req.Header.Set("X-API-Key", "HEADERCRED")
	assert.Equal(t, "HEADERCRED", captureCredential(t, req))
}

func TestLegacyQueryParamPriority(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/mcp?api_token=LOWERCRED&api_key=QUERYCRED", nil)
	assert.Equal(t, "QUERYCRED", captureCredential(t, req))
}

func TestLegacyNoCredentialDoesNotFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/mcp", nil)
	reached := false
	handler := Legacy()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLegacyBearerTakesPriorityOverQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/mcp?apikey=QUERYCRED", nil)
	req.Header.Set("Authorization", "Bearer BEARERCRED")
	assert.Equal(t, "BEARERCRED", captureCredential(t, req))
}
