package game

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/models"
	"github.com/wfunc/grimoire/internal/repository"
	"gorm.io/gorm"
)

// SessionData 持久化的会话数据
type SessionData struct {
	SessionID     string    `json:"session_id"`
	StorytellerID uint      `json:"storyteller_id"`
	Phase         Phase     `json:"phase"`
	Snapshot      Snapshot  `json:"snapshot"`
	LastUpdate    time.Time `json:"last_update"`
}

// StatePersister 会话持久化接口
type StatePersister interface {
	Save(ctx context.Context, data *SessionData) error
	Load(ctx context.Context, sessionID string) (*SessionData, error)
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStatePersister 内存状态持久化（用于测试）
type MemoryStatePersister struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemoryStatePersister 创建内存持久化器
func NewMemoryStatePersister() *MemoryStatePersister {
	return &MemoryStatePersister{
		states: make(map[string][]byte),
	}
}

// Save 保存状态
func (p *MemoryStatePersister) Save(ctx context.Context, data *SessionData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidParam, "序列化状态失败")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[data.SessionID] = b
	return nil
}

// Load 加载状态
func (p *MemoryStatePersister) Load(ctx context.Context, sessionID string) (*SessionData, error) {
	p.mu.RLock()
	b, exists := p.states[sessionID]
	p.mu.RUnlock()
	if !exists {
		return nil, errors.Newf(errors.ErrSessionNotFound, "状态不存在: %s", sessionID)
	}

	var data SessionData
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidParam, "反序列化状态失败")
	}
	return &data, nil
}

// Delete 删除状态
func (p *MemoryStatePersister) Delete(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.states, sessionID)
	return nil
}

// DatabaseStatePersister 数据库状态持久化
type DatabaseStatePersister struct {
	repo repository.GameStateRepository
}

// NewDatabaseStatePersister 创建数据库持久化器
func NewDatabaseStatePersister(db *gorm.DB) *DatabaseStatePersister {
	return &DatabaseStatePersister{
		repo: repository.NewGameStateRepository(db),
	}
}

// Save 保存状态到数据库
func (p *DatabaseStatePersister) Save(ctx context.Context, data *SessionData) error {
	snapshotJSON, err := json.Marshal(data.Snapshot)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidParam, "序列化状态失败")
	}

	state := &models.GameState{
		SessionID:     data.SessionID,
		StorytellerID: data.StorytellerID,
		Phase:         string(data.Phase),
		StateData:     string(snapshotJSON),
		UpdatedAt:     data.LastUpdate,
	}
	if err := p.repo.Save(ctx, state); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseUpdate, "保存状态失败")
	}
	return nil
}

// Load 从数据库加载状态
func (p *DatabaseStatePersister) Load(ctx context.Context, sessionID string) (*SessionData, error) {
	state, err := p.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.ErrSessionNotFound, "游戏状态不存在: %s", sessionID)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery, "查询状态失败")
	}

	data := &SessionData{
		SessionID:     state.SessionID,
		StorytellerID: state.StorytellerID,
		Phase:         Phase(state.Phase),
		LastUpdate:    state.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(state.StateData), &data.Snapshot); err != nil {
		return nil, errors.Wrap(err, errors.ErrDataIntegrity, "反序列化状态失败")
	}
	return data, nil
}

// Delete 从数据库删除状态
func (p *DatabaseStatePersister) Delete(ctx context.Context, sessionID string) error {
	if err := p.repo.Delete(ctx, sessionID); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseDelete, "删除状态失败")
	}
	return nil
}

// CacheStatePersister 带缓存的持久化器（装饰器模式）
type CacheStatePersister struct {
	cache    StatePersister // 缓存层
	storage  StatePersister // 存储层（如数据库）
	cacheTTL time.Duration
}

// NewCacheStatePersister 创建带缓存的持久化器
func NewCacheStatePersister(cache, storage StatePersister, cacheTTL time.Duration) *CacheStatePersister {
	return &CacheStatePersister{
		cache:    cache,
		storage:  storage,
		cacheTTL: cacheTTL,
	}
}

// Save 保存状态（同时保存到缓存和存储）
func (p *CacheStatePersister) Save(ctx context.Context, data *SessionData) error {
	if err := p.storage.Save(ctx, data); err != nil {
		return err
	}
	// 缓存失败不影响主流程
	_ = p.cache.Save(ctx, data)
	return nil
}

// Load 加载状态（优先从缓存加载，过期的缓存视为未命中）
func (p *CacheStatePersister) Load(ctx context.Context, sessionID string) (*SessionData, error) {
	if data, err := p.cache.Load(ctx, sessionID); err == nil {
		if p.cacheTTL <= 0 || time.Since(data.LastUpdate) <= p.cacheTTL {
			return data, nil
		}
	}

	data, err := p.storage.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	_ = p.cache.Save(ctx, data)
	return data, nil
}

// Delete 删除状态（同时删除缓存和存储）
func (p *CacheStatePersister) Delete(ctx context.Context, sessionID string) error {
	_ = p.cache.Delete(ctx, sessionID)
	return p.storage.Delete(ctx, sessionID)
}

// ExpiringPersister 支持批量清理过期状态的持久化器
type ExpiringPersister interface {
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// DeleteBefore 清理过期状态
func (p *MemoryStatePersister) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var n int64
	for id, b := range p.states {
		var data SessionData
		if err := json.Unmarshal(b, &data); err != nil || data.LastUpdate.Before(before) {
			delete(p.states, id)
			n++
		}
	}
	return n, nil
}

// DeleteBefore 清理过期状态
func (p *DatabaseStatePersister) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	n, err := p.repo.DeleteBefore(ctx, before)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrDatabaseDelete, "清理过期状态失败")
	}
	return n, nil
}

// DeleteBefore 清理过期状态
func (p *CacheStatePersister) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	if c, ok := p.cache.(ExpiringPersister); ok {
		_, _ = c.DeleteBefore(ctx, before)
	}
	if s, ok := p.storage.(ExpiringPersister); ok {
		return s.DeleteBefore(ctx, before)
	}
	return 0, nil
}
