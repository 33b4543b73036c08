package service

import (
	"context"

	"github.com/wfunc/grimoire/internal/models"
)

// AuthService 说书人认证服务接口
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)

	// EnsureStoryteller 名称不存在时创建说书人，用于启动时的默认账户
	EnsureStoryteller(ctx context.Context, name, pin string) (*models.Storyteller, error)
	GetStoryteller(ctx context.Context, id uint) (*models.Storyteller, error)
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=50"`
	PIN        string `json:"pin" binding:"required"`
	ConfirmPIN string `json:"confirm_pin" binding:"required,eqfield=PIN"`
	IP         string `json:"-"` // 客户端IP，由handler设置
}

// LoginRequest 登录请求
type LoginRequest struct {
	Name string `json:"name" binding:"required"`
	PIN  string `json:"pin" binding:"required"`
	IP   string `json:"-"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	Storyteller  *models.Storyteller `json:"storyteller"`
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token,omitempty"`
	ExpiresIn    int64               `json:"expires_in"`
	TokenType    string              `json:"token_type"`
}

// TokenClaims 令牌中的说书人信息
type TokenClaims struct {
	StorytellerID uint   `json:"storyteller_id"`
	Name          string `json:"name"`
	TokenID       string `json:"jti"`
	IssuedAt      int64  `json:"iat"`
	ExpiresAt     int64  `json:"exp"`
}
