package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/logger"
	"github.com/wfunc/grimoire/internal/models"
	"github.com/wfunc/grimoire/internal/repository"
	"go.uber.org/zap"
)

// SessionListener 会话状态变更回调
type SessionListener func(sessionID string, view View)

// SessionManager 游戏会话管理器，每个会话独占一个引擎并串行执行操作
type SessionManager struct {
	mu              sync.RWMutex
	sessions        map[string]*GameSession
	listeners       []SessionListener
	logger          *zap.Logger
	persister       StatePersister
	records         repository.GameRecordRepository
	recoveryManager *RecoveryManager
	engineOpts      Options
	sessionTimeout  time.Duration
	maxSessions     int
}

// GameSession 游戏会话
type GameSession struct {
	ID            string
	StorytellerID uint
	StartTime     time.Time
	LastActivity  time.Time
	engine        *Engine
	mu            sync.Mutex
}

// SessionConfig 会话管理器配置
type SessionConfig struct {
	Logger         *zap.Logger
	Persister      StatePersister
	Records        repository.GameRecordRepository
	Engine         Options
	SessionTimeout time.Duration
	MaxSessions    int
}

// NewSessionManager 创建会话管理器
func NewSessionManager(config *SessionConfig) *SessionManager {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	persister := config.Persister
	if persister == nil {
		persister = NewMemoryStatePersister()
	}
	maxSessions := config.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 100
	}
	engineOpts := config.Engine
	if engineOpts.Logger == nil {
		engineOpts.Logger = logger
	}

	return &SessionManager{
		sessions:        make(map[string]*GameSession),
		logger:          logger,
		persister:       persister,
		records:         config.Records,
		recoveryManager: NewRecoveryManager(logger, persister, config.SessionTimeout),
		engineOpts:      engineOpts,
		sessionTimeout:  config.SessionTimeout,
		maxSessions:     maxSessions,
	}
}

// Subscribe 注册状态变更回调
func (sm *SessionManager) Subscribe(fn SessionListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, fn)
}

// options 会话专属的引擎配置
func (sm *SessionManager) options(session *GameSession) Options {
	opts := sm.engineOpts
	opts.Logger = sm.logger.With(zap.String("session_id", session.ID))
	opts.OnGameOver = func(rec *Record) {
		sm.saveRecord(context.Background(), session.ID, session.StorytellerID, rec)
	}
	return opts
}

// CreateSession 创建新会话
func (sm *SessionManager) CreateSession(ctx context.Context, storytellerID uint) (*GameSession, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.maxSessions {
		return nil, errors.Newf(errors.ErrSessionLimit, "上限 %d", sm.maxSessions)
	}

	sessionID := uuid.New().String()
	now := time.Now()
	session := &GameSession{
		ID:            sessionID,
		StorytellerID: storytellerID,
		StartTime:     now,
		LastActivity:  now,
	}
	engine, err := New(sm.options(session))
	if err != nil {
		return nil, err
	}
	session.engine = engine
	sm.sessions[sessionID] = session

	if err := sm.persist(ctx, session); err != nil {
		sm.logger.Error("保存初始状态失败", zap.String("session_id", sessionID), zap.Error(err))
	}

	sm.logger.Info("创建游戏会话",
		zap.String("session_id", sessionID),
		zap.Uint("storyteller_id", storytellerID))

	return session, nil
}

// GetSession 获取会话，内存中不存在时尝试从持久化恢复
func (sm *SessionManager) GetSession(ctx context.Context, sessionID string) (*GameSession, error) {
	sm.mu.RLock()
	session, exists := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if exists {
		return session, nil
	}
	return sm.recover(ctx, sessionID)
}

// recover 从持久化恢复会话
func (sm *SessionManager) recover(ctx context.Context, sessionID string) (*GameSession, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[sessionID]; exists {
		return session, nil
	}
	if len(sm.sessions) >= sm.maxSessions {
		return nil, errors.Newf(errors.ErrSessionLimit, "上限 %d", sm.maxSessions)
	}

	session := &GameSession{ID: sessionID}
	engine, data, err := sm.recoveryManager.RecoverSession(ctx, sessionID, sm.options(session))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session.StorytellerID = data.StorytellerID
	session.StartTime = data.Snapshot.StartedAt
	session.LastActivity = now
	session.engine = engine
	if session.StartTime.IsZero() {
		session.StartTime = now
	}
	sm.sessions[sessionID] = session

	sm.logger.Info("恢复游戏会话",
		zap.String("session_id", sessionID),
		zap.String("phase", string(engine.Phase())))
	return session, nil
}

// Do 在会话锁内执行操作，成功后持久化并通知订阅者
func (sm *SessionManager) Do(ctx context.Context, sessionID string, fn func(e *Engine) error) (View, error) {
	session, err := sm.GetSession(ctx, sessionID)
	if err != nil {
		return View{}, err
	}

	session.mu.Lock()
	opErr := fn(session.engine)
	view := session.engine.View()
	session.LastActivity = time.Now()
	var saveErr error
	if opErr == nil {
		saveErr = sm.persist(ctx, session)
	}
	session.mu.Unlock()

	if opErr != nil {
		return view, opErr
	}
	if saveErr != nil {
		sm.logger.Error("保存会话状态失败", zap.String("session_id", sessionID), zap.Error(saveErr))
	}
	sm.notify(sessionID, view)
	return view, nil
}

// View 读取会话视图
func (sm *SessionManager) View(ctx context.Context, sessionID string) (View, error) {
	session, err := sm.GetSession(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.engine.View(), nil
}

// persist 保存会话快照，调用方持有会话锁
func (sm *SessionManager) persist(ctx context.Context, session *GameSession) error {
	return sm.persister.Save(ctx, &SessionData{
		SessionID:     session.ID,
		StorytellerID: session.StorytellerID,
		Phase:         session.engine.Phase(),
		Snapshot:      session.engine.Snapshot(),
		LastUpdate:    time.Now(),
	})
}

func (sm *SessionManager) notify(sessionID string, view View) {
	sm.mu.RLock()
	listeners := append([]SessionListener(nil), sm.listeners...)
	sm.mu.RUnlock()
	for _, fn := range listeners {
		fn(sessionID, view)
	}
}

// saveRecord 保存对局记录
func (sm *SessionManager) saveRecord(ctx context.Context, sessionID string, storytellerID uint, rec *Record) {
	if sm.records == nil || rec == nil {
		return
	}
	record, err := recordModel(sessionID, storytellerID, rec)
	if err != nil {
		sm.logger.Error("序列化对局记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if err := sm.records.Create(ctx, record); err != nil {
		sm.logger.Error("保存对局记录失败", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	sm.logger.Info("保存对局记录",
		zap.String("session_id", sessionID),
		zap.String("record_id", rec.ID),
		zap.String("winner", string(rec.WinResult)))
	logger.LogGameEvent("game_over", sessionID, map[string]interface{}{
		"record_id": rec.ID,
		"winner":    rec.WinResult,
		"reason":    rec.WinReason,
	})
}

// recordModel 转换为数据库模型
func recordModel(sessionID string, storytellerID uint, rec *Record) (*models.GameRecord, error) {
	seats, err := json.Marshal(rec.Seats)
	if err != nil {
		return nil, err
	}
	logs, err := json.Marshal(rec.Logs)
	if err != nil {
		return nil, err
	}

	days := 0
	for _, l := range rec.Logs {
		if l.Day > days {
			days = l.Day
		}
	}
	return &models.GameRecord{
		RecordID:      rec.ID,
		SessionID:     sessionID,
		StorytellerID: storytellerID,
		ScriptName:    rec.ScriptName,
		PlayerCount:   len(rec.Seats),
		StartedAt:     rec.StartedAt,
		EndedAt:       rec.EndedAt,
		WinResult:     string(rec.WinResult),
		WinReason:     rec.WinReason,
		Seats:         string(seats),
		Logs:          string(logs),
		Summary:       models.JSONMap{"days": days, "log_count": len(rec.Logs)},
	}, nil
}

// RemoveSession 保存最终状态后移出内存
func (sm *SessionManager) RemoveSession(ctx context.Context, sessionID string) error {
	sm.mu.Lock()
	session, exists := sm.sessions[sessionID]
	if exists {
		delete(sm.sessions, sessionID)
	}
	sm.mu.Unlock()

	if !exists {
		return errors.Newf(errors.ErrSessionNotFound, "会话 %s", sessionID)
	}

	session.mu.Lock()
	err := sm.persist(ctx, session)
	phase := session.engine.Phase()
	session.mu.Unlock()
	if err != nil {
		sm.logger.Error("保存会话状态失败", zap.String("session_id", sessionID), zap.Error(err))
	}

	sm.logger.Info("移除游戏会话",
		zap.String("session_id", sessionID),
		zap.String("phase", string(phase)))
	return nil
}

// DeleteSession 移出内存并删除持久化状态
func (sm *SessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()
	return sm.persister.Delete(ctx, sessionID)
}

// CleanupInactiveSessions 清理不活跃的会话
func (sm *SessionManager) CleanupInactiveSessions(ctx context.Context) {
	if sm.sessionTimeout <= 0 {
		return
	}

	sm.mu.Lock()
	now := time.Now()
	var expired []*GameSession
	for id, session := range sm.sessions {
		session.mu.Lock()
		idle := now.Sub(session.LastActivity)
		session.mu.Unlock()
		if idle > sm.sessionTimeout {
			expired = append(expired, session)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, session := range expired {
		session.mu.Lock()
		if err := sm.persist(ctx, session); err != nil {
			sm.logger.Error("保存超时会话状态失败",
				zap.String("session_id", session.ID),
				zap.Error(err))
		}
		session.mu.Unlock()

		sm.logger.Info("清理超时会话",
			zap.String("session_id", session.ID),
			zap.Duration("inactive", now.Sub(session.LastActivity)))
	}

	if _, err := sm.recoveryManager.CleanupExpiredSessions(ctx); err != nil {
		sm.logger.Error("清理过期快照失败", zap.Error(err))
	}
}

// StartCleanupTask 启动清理任务
func (sm *SessionManager) StartCleanupTask(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				sm.logger.Info("停止会话清理任务")
				return
			case <-ticker.C:
				sm.CleanupInactiveSessions(ctx)
			}
		}
	}()
}

// GetActiveSessions 获取活跃会话数
func (sm *SessionManager) GetActiveSessions() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ListSessions 列出内存中的会话，storytellerID为0时列出全部
func (sm *SessionManager) ListSessions(storytellerID uint) []SessionInfo {
	sm.mu.RLock()
	sessions := make([]*GameSession, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		if storytellerID == 0 || s.StorytellerID == storytellerID {
			sessions = append(sessions, s)
		}
	}
	sm.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// GetSessionStats 获取会话信息
func (sm *SessionManager) GetSessionStats(ctx context.Context, sessionID string) (*SessionInfo, error) {
	session, err := sm.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	info := session.Info()
	return &info, nil
}

// Info 会话摘要
func (gs *GameSession) Info() SessionInfo {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	info := SessionInfo{
		SessionID:     gs.ID,
		StorytellerID: gs.StorytellerID,
		Phase:         gs.engine.Phase(),
		NightCount:    gs.engine.NightCount(),
		StartTime:     gs.StartTime,
		LastActivity:  gs.LastActivity,
		Duration:      time.Since(gs.StartTime).Seconds(),
		ValidEvents:   gs.engine.machine.ValidEvents(),
	}
	if sc := gs.engine.Script(); sc != nil {
		info.Script = sc.ID
	}
	info.PlayerCount = len(gs.engine.store.InPlay())
	if v := gs.engine.Verdict(); v != nil {
		info.Winner = string(v.Winner)
	}
	return info
}
