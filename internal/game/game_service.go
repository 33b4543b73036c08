package game

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/models"
	"github.com/wfunc/grimoire/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GameService 游戏服务（业务逻辑层）
type GameService struct {
	sessionManager *SessionManager
	records        repository.GameRecordRepository
	logger         *zap.Logger
	cleanupEvery   time.Duration
}

// GameServiceConfig 游戏服务配置
type GameServiceConfig struct {
	DB              *gorm.DB
	Logger          *zap.Logger
	Engine          Options
	SessionTimeout  time.Duration
	MaxSessions     int
	CleanupInterval time.Duration
	CacheTTL        time.Duration
}

// NewGameService 创建游戏服务，DB为空时只使用内存持久化
func NewGameService(config *GameServiceConfig) *GameService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var persister StatePersister = NewMemoryStatePersister()
	var records repository.GameRecordRepository
	if config.DB != nil {
		persister = NewCacheStatePersister(persister, NewDatabaseStatePersister(config.DB), config.CacheTTL)
		records = repository.NewManager(config.DB).GameRecord()
	}

	cleanupEvery := config.CleanupInterval
	if cleanupEvery <= 0 {
		cleanupEvery = 5 * time.Minute
	}

	return &GameService{
		sessionManager: NewSessionManager(&SessionConfig{
			Logger:         logger,
			Persister:      persister,
			Records:        records,
			Engine:         config.Engine,
			SessionTimeout: config.SessionTimeout,
			MaxSessions:    config.MaxSessions,
		}),
		records:      records,
		logger:       logger,
		cleanupEvery: cleanupEvery,
	}
}

// Sessions 会话管理器
func (s *GameService) Sessions() *SessionManager {
	return s.sessionManager
}

// History 对局历史
func (s *GameService) History(ctx context.Context, storytellerID uint, p *repository.Pagination) ([]*models.GameRecord, error) {
	if s.records == nil {
		return nil, errors.New(errors.ErrNotImplemented, "未配置数据库")
	}
	records, err := s.records.List(ctx, storytellerID, p)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return records, nil
}

// Record 单条对局记录
func (s *GameService) Record(ctx context.Context, recordID string) (*models.GameRecord, error) {
	if s.records == nil {
		return nil, errors.New(errors.ErrNotImplemented, "未配置数据库")
	}
	record, err := s.records.FindByRecordID(ctx, recordID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.ErrNotFound, "记录 %s", recordID)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return record, nil
}

// Statistics 胜负统计
func (s *GameService) Statistics(ctx context.Context, storytellerID uint, since time.Time) (*repository.RecordStatistics, error) {
	if s.records == nil {
		return nil, errors.New(errors.ErrNotImplemented, "未配置数据库")
	}
	stats, err := s.records.GetStatistics(ctx, storytellerID, since, time.Now())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return stats, nil
}

// Start 启动游戏服务
func (s *GameService) Start(ctx context.Context) {
	s.sessionManager.StartCleanupTask(ctx, s.cleanupEvery)
	s.logger.Info("游戏服务已启动")
}

// Stop 保存所有活跃会话
func (s *GameService) Stop(ctx context.Context) {
	sm := s.sessionManager
	sm.mu.RLock()
	sessions := make([]*GameSession, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}
	sm.mu.RUnlock()

	for _, session := range sessions {
		session.mu.Lock()
		if err := sm.persist(ctx, session); err != nil {
			s.logger.Error("保存会话失败",
				zap.String("session_id", session.ID),
				zap.Error(err))
		}
		session.mu.Unlock()
	}

	s.logger.Info("游戏服务已停止", zap.Int("sessions", len(sessions)))
}
