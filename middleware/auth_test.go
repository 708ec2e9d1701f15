package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillhq/quill/config"
	"github.com/quillhq/quill/middleware"
	"github.com/quillhq/quill/utils"
)

func TestMain(m *testing.M) {
	config.Override(config.AppConfig{GinMode: "test", JWTSecret: "test-secret"})
	if err := utils.InitLogger(config.Get()); err != nil {
		panic(err)
	}
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/protected", middleware.AuthRequired(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"user_id":  ctx.GetUint(middleware.ContextUserIDKey),
			"username": ctx.GetString(middleware.ContextUsernameKey),
		})
	})
	return r
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	protectedRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsGarbageToken(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	protectedRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsExpiredToken(t *testing.T) {
	token, err := utils.GenerateToken(7, "alice", -time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protectedRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	token, err := utils.GenerateToken(7, "alice", time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protectedRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestAuthRequiredRejectsRevokedToken(t *testing.T) {
	token, err := utils.GenerateToken(7, "alice", time.Hour)
	require.NoError(t, err)
	utils.BlacklistToken(token, time.Now().Add(time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protectedRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenFromRequestSources(t *testing.T) {
	r := gin.New()
	r.GET("/echo", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, middleware.TokenFromRequest(ctx))
	})

	// Authorization header wins
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/echo?token=from-query", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: "from-cookie"})
	r.ServeHTTP(w, req)
	assert.Equal(t, "from-header", w.Body.String())

	// cookie before query
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/echo?token=from-query", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: "from-cookie"})
	r.ServeHTTP(w, req)
	assert.Equal(t, "from-cookie", w.Body.String())

	// query parameter carries the websocket handshake
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/echo?token=from-query", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, "from-query", w.Body.String())
}
