package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	// 仓储实例（使用懒加载）
	storytellerOnce sync.Once
	storyteller     StorytellerRepository

	gameRecordOnce sync.Once
	gameRecord     GameRecordRepository

	gameStateOnce sync.Once
	gameState     GameStateRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// GetDB 获取数据库实例
func (m *Manager) GetDB() *gorm.DB {
	return m.db
}

// Transaction 在事务中执行，回调内使用新的管理器
func (m *Manager) Transaction(ctx context.Context, fn func(tx *Manager) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewManager(tx))
	})
}

// Storyteller 获取说书人仓储
func (m *Manager) Storyteller() StorytellerRepository {
	m.storytellerOnce.Do(func() {
		m.storyteller = NewStorytellerRepository(m.db)
	})
	return m.storyteller
}

// GameRecord 获取对局记录仓储
func (m *Manager) GameRecord() GameRecordRepository {
	m.gameRecordOnce.Do(func() {
		m.gameRecord = NewGameRecordRepository(m.db)
	})
	return m.gameRecord
}

// GameState 获取会话快照仓储
func (m *Manager) GameState() GameStateRepository {
	m.gameStateOnce.Do(func() {
		m.gameState = NewGameStateRepository(m.db)
	})
	return m.gameState
}
