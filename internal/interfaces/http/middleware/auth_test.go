package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-api/internal/pkg/auth"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Storefront API", Environment: "test"},
		JWT: config.JWTConfig{
			Secret:             "test-secret-key-that-is-long-enough-for-validation",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
	}
}

func setupRouter(cfg *config.Config, adminOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	grp := r.Group("")
	grp.Use(middleware.AuthMiddleware(cfg))
	if adminOnly {
		grp.Use(middleware.AdminMiddleware())
	}
	grp.GET("/restricted", func(c *gin.Context) {
		userID, _ := middleware.GetUserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func mintToken(t *testing.T, cfg *config.Config, userID uint, email string, isAdmin bool) string {
	t.Helper()
	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(userID, email, isAdmin)
	require.NoError(t, err)
	return token
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/restricted", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRejectsMissingOrBadTokens(t *testing.T) {
	cfg := testConfig()
	r := setupRouter(cfg, false)

	w := doRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Authorization header required", body["message"])

	// Wrong scheme
	w = doRequest(r, "Token abcdef")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token
	w = doRequest(r, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewarePopulatesPrincipal(t *testing.T) {
	cfg := testConfig()
	r := setupRouter(cfg, false)
	token := mintToken(t, cfg, 7, "user@example.com", false)

	w := doRequest(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["user_id"])
}

func TestAdminMiddleware(t *testing.T) {
	cfg := testConfig()
	r := setupRouter(cfg, true)

	// Non-admin token is rejected
	token := mintToken(t, cfg, 7, "user@example.com", false)
	w := doRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Admin access required", body["message"])

	// Admin token passes
	token = mintToken(t, cfg, 1, "admin@example.com", true)
	w = doRequest(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminMiddlewareWithoutAuthContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/restricted", middleware.AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/restricted", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
