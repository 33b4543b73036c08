package service

import (
	"context"
	stderrors "errors"

	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/models"
	"github.com/wfunc/grimoire/internal/repository"
	"github.com/wfunc/grimoire/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// authService 认证服务实现
type authService struct {
	storytellers repository.StorytellerRepository
	jwtManager   *utils.JWTManager
	log          *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(storytellers repository.StorytellerRepository, jwtManager *utils.JWTManager, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		storytellers: storytellers,
		jwtManager:   jwtManager,
		log:          log,
	}
}

// Register 注册说书人
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.PIN != req.ConfirmPIN {
		return nil, errors.New(errors.ErrInvalidParam, "两次输入的PIN不一致")
	}

	st, err := s.create(ctx, req.Name, req.PIN)
	if err != nil {
		return nil, err
	}

	s.log.Info("说书人注册成功", zap.Uint("storyteller_id", st.ID), zap.String("name", st.Name))
	return s.issue(st)
}

func (s *authService) create(ctx context.Context, name, pin string) (*models.Storyteller, error) {
	if err := utils.ValidatePIN(pin); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidParam, err.Error())
	}

	exists, err := s.storytellers.ExistsByName(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	if exists {
		return nil, errors.New(errors.ErrAlreadyExists, "说书人名称已存在")
	}

	hash, err := utils.HashPIN(pin)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEncryption)
	}

	st := &models.Storyteller{Name: name, PinHash: hash, Status: "active"}
	if err := s.storytellers.Create(ctx, st); err != nil {
		s.log.Error("创建说书人失败", zap.Error(err))
		return nil, errors.Wrap(err, errors.ErrDatabaseInsert)
	}
	return st, nil
}

// Login 说书人登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	st, err := s.storytellers.FindByName(ctx, req.Name)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("登录失败: 说书人不存在", zap.String("name", req.Name))
			return nil, errors.New(errors.ErrAuthentication, "名称或PIN错误")
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	if !st.IsActive() {
		return nil, errors.New(errors.ErrAuthorization, "账户已停用")
	}

	valid, err := utils.VerifyPIN(req.PIN, st.PinHash)
	if err != nil || !valid {
		s.log.Warn("登录失败: PIN错误", zap.Uint("storyteller_id", st.ID))
		return nil, errors.New(errors.ErrAuthentication, "名称或PIN错误")
	}

	if err := s.storytellers.UpdateLoginInfo(ctx, st.ID, req.IP); err != nil {
		s.log.Warn("更新登录信息失败", zap.Error(err))
	}

	s.log.Info("说书人登录成功", zap.Uint("storyteller_id", st.ID))
	return s.issue(st)
}

// RefreshToken 刷新访问令牌
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	access, claims, err := s.jwtManager.RefreshAccessToken(refreshToken)
	if err != nil {
		return nil, tokenError(err)
	}

	st, err := s.storytellers.FindByID(ctx, claims.StorytellerID)
	if err != nil {
		return nil, errors.New(errors.ErrTokenInvalid, "说书人不存在")
	}
	if !st.IsActive() {
		return nil, errors.New(errors.ErrAuthorization, "账户已停用")
	}

	return &AuthResponse{
		Storyteller: st,
		AccessToken: access,
		ExpiresIn:   int64(s.jwtManager.GetTokenExpiry(utils.TokenTypeAccess).Seconds()),
		TokenType:   "Bearer",
	}, nil
}

// ValidateToken 验证访问令牌
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, tokenError(err)
	}

	out := &TokenClaims{
		StorytellerID: claims.StorytellerID,
		Name:          claims.Name,
		TokenID:       claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return out, nil
}

// EnsureStoryteller 确保默认说书人存在
func (s *authService) EnsureStoryteller(ctx context.Context, name, pin string) (*models.Storyteller, error) {
	st, err := s.storytellers.FindByName(ctx, name)
	if err == nil {
		return st, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}

	st, err = s.create(ctx, name, pin)
	if err != nil {
		return nil, err
	}
	s.log.Info("已创建默认说书人", zap.String("name", name))
	return st, nil
}

// GetStoryteller 查询说书人
func (s *authService) GetStoryteller(ctx context.Context, id uint) (*models.Storyteller, error) {
	st, err := s.storytellers.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrNotFound, "说书人不存在")
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return st, nil
}

func (s *authService) issue(st *models.Storyteller) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(st.ID, st.Name)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEncryption, "生成访问令牌失败")
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(st.ID, st.Name)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEncryption, "生成刷新令牌失败")
	}

	return &AuthResponse{
		Storyteller:  st,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry(utils.TokenTypeAccess).Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func tokenError(err error) error {
	if stderrors.Is(err, utils.ErrExpiredToken) {
		return errors.Wrap(err, errors.ErrTokenExpired)
	}
	return errors.Wrap(err, errors.ErrTokenInvalid)
}
