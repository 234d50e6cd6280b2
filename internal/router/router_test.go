package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/next-assist/internal/handler"
	"github.com/ashwinyue/next-assist/internal/service/auth"
	"github.com/ashwinyue/next-assist/internal/service/catalog"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := auth.NewService("secret", "test")
	require.NoError(t, err)
	h := &handler.Handlers{
		Assistant: handler.NewAssistantHandler(nil),
		Tenant:    handler.NewTenantHandler(nil),
	}
	return SetupRouter(h, tokens, nil), tokens
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAssistantRoutesRequireAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/assistant/session", "/api/v1/assistant/menu", "/api/v1/assistant/archive"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestMenuWithToken(t *testing.T) {
	r, tokens := newTestRouter(t)
	token, err := tokens.Issue(catalog.Identity{TenantID: "t1", OperatorID: "op1", OperatorRole: "reseller"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assistant/menu", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"reseller"`)
}

func TestConfigRequiresAdministrator(t *testing.T) {
	r, tokens := newTestRouter(t)
	token, err := tokens.Issue(catalog.Identity{TenantID: "t1", CustomerID: "c1"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assistant/config", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/assistant/session", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
