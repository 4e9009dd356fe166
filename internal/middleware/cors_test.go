package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func runCORS(t *testing.T, allowlist []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, "/api/v1/search", nil)
	if origin != "" {
		c.Request.Header.Set("Origin", origin)
	}
	CORS(allowlist)(c)
	return rec
}

func TestCORSWildcardWhenUnrestricted(t *testing.T) {
	rec := runCORS(t, nil, http.MethodPost, "https://example.com")
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSAllowlist(t *testing.T) {
	allowlist := []string{"https://app.example.com"}

	rec := runCORS(t, allowlist, http.MethodPost, "https://app.example.com")
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", rec.Header().Get("Vary"))

	rec = runCORS(t, allowlist, http.MethodPost, "https://evil.example.com")
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	rec := runCORS(t, nil, http.MethodOptions, "https://example.com")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
