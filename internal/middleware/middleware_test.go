package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/repository"
	"github.com/wfunc/grimoire/internal/service"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *service.Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	services := service.NewServices(repository.TestDB(t), service.DefaultConfig(), nil)
	auth := NewAuthMiddleware(services.Auth)

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		id, _ := GetStorytellerID(c)
		name, _ := GetStorytellerName(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "name": name, "authed": IsAuthenticated(c)})
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r, services
}

func TestRequireAuth(t *testing.T) {
	r, services := newAuthRouter(t)
	token, err := services.JWT.GenerateAccessToken(3, "alice")
	require.NoError(t, err)
	refresh, err := services.JWT.GenerateRefreshToken(3, "alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(req *http.Request)
		status int
	}{
		{"缺少令牌", func(req *http.Request) {}, http.StatusUnauthorized},
		{"Bearer令牌", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"小写bearer", func(req *http.Request) { req.Header.Set("Authorization", "bearer "+token) }, http.StatusOK},
		{"X-Access-Token", func(req *http.Request) { req.Header.Set("X-Access-Token", token) }, http.StatusOK},
		{"Query令牌", func(req *http.Request) { req.URL.RawQuery = "token=" + token }, http.StatusOK},
		{"刷新令牌不可访问", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+refresh) }, http.StatusUnauthorized},
		{"伪造令牌", func(req *http.Request) { req.Header.Set("Authorization", "Bearer abc.def.ghi") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)

			if tt.status == http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, float64(3), body["id"])
				assert.Equal(t, "alice", body["name"])
				assert.Equal(t, true, body["authed"])
			} else {
				var body errors.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.False(t, body.Success)
				assert.Empty(t, body.Error.Stack)
				assert.NotEmpty(t, body.RequestID)
			}
		})
	}
}

func TestRecoveryAndRequestID(t *testing.T) {
	r, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrUnknown, body.Error.Code)
	assert.Equal(t, "req-1", body.RequestID)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"http://grimoire.local"}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://grimoire.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://grimoire.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
