package service

import (
	"time"

	"github.com/wfunc/grimoire/internal/config"
	"github.com/wfunc/grimoire/internal/repository"
	"github.com/wfunc/grimoire/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	JWTSecret          string
	JWTIssuer          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:          "grimoire-dev-secret",
		JWTIssuer:          "grimoire",
		AccessTokenExpiry:  24 * time.Hour,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// ConfigFromSecurity 从安全配置构造服务配置
func ConfigFromSecurity(cfg *config.SecurityConfig) *Config {
	c := DefaultConfig()
	if cfg.JWT.Secret != "" {
		c.JWTSecret = cfg.JWT.Secret
	}
	if cfg.JWT.Issuer != "" {
		c.JWTIssuer = cfg.JWT.Issuer
	}
	if cfg.JWT.ExpireHours > 0 {
		c.AccessTokenExpiry = time.Duration(cfg.JWT.ExpireHours) * time.Hour
	}
	if cfg.JWT.RefreshHours > 0 {
		c.RefreshTokenExpiry = time.Duration(cfg.JWT.RefreshHours) * time.Hour
	}
	return c
}

// Services 服务集合
type Services struct {
	Auth AuthService
	JWT  *utils.JWTManager
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, config *Config, log *zap.Logger) *Services {
	jwtManager := utils.NewJWTManager(
		config.JWTSecret,
		config.JWTIssuer,
		config.AccessTokenExpiry,
		config.RefreshTokenExpiry,
	)

	return &Services{
		Auth: NewAuthService(repository.NewManager(db).Storyteller(), jwtManager, log),
		JWT:  jwtManager,
	}
}
