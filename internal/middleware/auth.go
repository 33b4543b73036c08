package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/service"
)

const (
	ctxStorytellerID   = "storytellerID"
	ctxStorytellerName = "storytellerName"
	ctxToken           = "token"
)

// AuthMiddleware JWT认证中间件
type AuthMiddleware struct {
	authService service.AuthService
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAuth 需要认证的中间件
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			abort(c, errors.New(errors.ErrAuthentication, "缺少认证令牌"))
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abort(c, errors.Wrap(err, errors.ErrTokenInvalid))
			return
		}

		c.Set(ctxStorytellerID, claims.StorytellerID)
		c.Set(ctxStorytellerName, claims.Name)
		c.Set(ctxToken, token)

		c.Next()
	}
}

func abort(c *gin.Context, err *errors.AppError) {
	status := err.HTTPStatus()
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		status = http.StatusUnauthorized
	}
	c.AbortWithStatusJSON(status, errors.NewErrorResponse(Public(err), GetRequestID(c)))
}

// ExtractToken 从请求中提取令牌
func ExtractToken(c *gin.Context) string {
	// 1. 从Authorization Header获取 (Bearer Token)
	bearerToken := c.GetHeader("Authorization")
	if bearerToken != "" {
		parts := strings.SplitN(bearerToken, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	// 2. 从X-Access-Token Header获取
	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}

	// 3. 从Query参数获取，浏览器WebSocket无法设置Header
	return c.Query("token")
}

// GetStorytellerID 从上下文获取说书人ID
func GetStorytellerID(c *gin.Context) (uint, bool) {
	if v, exists := c.Get(ctxStorytellerID); exists {
		if id, ok := v.(uint); ok {
			return id, true
		}
	}
	return 0, false
}

// GetStorytellerName 从上下文获取说书人名称
func GetStorytellerName(c *gin.Context) (string, bool) {
	if v, exists := c.Get(ctxStorytellerName); exists {
		if name, ok := v.(string); ok {
			return name, true
		}
	}
	return "", false
}

// IsAuthenticated 检查是否已认证
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ctxStorytellerID)
	return exists
}

// Public 去掉调用栈后的错误，用于响应体
func Public(err *errors.AppError) *errors.AppError {
	return &errors.AppError{
		Code:    err.Code,
		Message: err.Message,
		Details: err.Details,
	}
}
