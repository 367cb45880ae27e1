package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortlyapp/shortly/internal/auth"
	"github.com/shortlyapp/shortly/internal/middleware"
	"github.com/shortlyapp/shortly/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authTestRouter(tm *auth.TokenManager) *gin.Engine {
	router := gin.New()
	router.GET("/protected", middleware.RequireAuth(tm), func(c *gin.Context) {
		id, _ := middleware.UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	return router
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	router := authTestRouter(auth.NewTokenManager("secret"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	router := authTestRouter(auth.NewTokenManager("secret"))

	for _, header := range []string{"sometoken", "Basic abc", "Bearer"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", header)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	router := authTestRouter(auth.NewTokenManager("secret"))

	// Signed with a different secret
	other, err := auth.NewTokenManager("other-secret").Generate(&models.User{ID: "u1", Email: "a@b.com"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tm := auth.NewTokenManager("secret")
	router := authTestRouter(tm)

	token, err := tm.Generate(&models.User{ID: "u1", Email: "a@b.com"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

func csrfTestRouter(cfg middleware.CSRFConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CSRF(cfg))
	router.GET("/csrf-token", middleware.CSRFTokenHandler(cfg))
	router.GET("/read", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/write", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestCSRF_SafeMethodSetsCookie(t *testing.T) {
	router := csrfTestRouter(middleware.CSRFConfig{Enforce: true})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/read", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "csrf_token", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestCSRF_MissingToken(t *testing.T) {
	router := csrfTestRouter(middleware.CSRFConfig{Enforce: true})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/write", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCSRF_TokenMismatch(t *testing.T) {
	router := csrfTestRouter(middleware.CSRFConfig{Enforce: true})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/write", nil)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "cookie-value"})
	req.Header.Set("X-CSRF-Token", "different-value")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCSRF_TokenMatch(t *testing.T) {
	router := csrfTestRouter(middleware.CSRFConfig{Enforce: true})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/write", nil)
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "token-value"})
	req.Header.Set("X-CSRF-Token", "token-value")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCSRF_BearerRequestsExempt(t *testing.T) {
	router := csrfTestRouter(middleware.CSRFConfig{Enforce: true})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/write", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCSRF_NotEnforcedInDevelopment(t *testing.T) {
	router := csrfTestRouter(middleware.CSRFConfig{Enforce: false})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/write", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCSRF_TokenEndpoint(t *testing.T) {
	router := csrfTestRouter(middleware.CSRFConfig{Enforce: true})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/csrf-token", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")
}
