package repository

import (
	"context"
	"time"

	"github.com/wfunc/grimoire/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameStateRepository 会话快照仓储接口
type GameStateRepository interface {
	BaseRepository
	Save(ctx context.Context, state *models.GameState) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.GameState, error)
	FindActive(ctx context.Context, since time.Time) ([]*models.GameState, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// gameStateRepo 会话快照仓储实现
type gameStateRepo struct {
	*BaseRepo
}

// NewGameStateRepository 创建会话快照仓储
func NewGameStateRepository(db *gorm.DB) GameStateRepository {
	return &gameStateRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Save 按会话ID插入或更新
func (r *gameStateRepo) Save(ctx context.Context, state *models.GameState) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"storyteller_id", "phase", "state_data", "updated_at"}),
	}).Create(state).Error
}

// FindBySessionID 根据会话ID查找
func (r *gameStateRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.GameState, error) {
	var state models.GameState
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// FindActive 查找指定时间后更新过的快照
func (r *gameStateRepo) FindActive(ctx context.Context, since time.Time) ([]*models.GameState, error) {
	var states []*models.GameState
	err := r.db.WithContext(ctx).
		Where("updated_at >= ?", since).
		Order("updated_at DESC").
		Find(&states).Error
	return states, err
}

// Delete 删除快照
func (r *gameStateRepo) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.GameState{}).Error
}

// DeleteBefore 清理过期快照
func (r *gameStateRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated_at < ?", before).
		Delete(&models.GameState{})
	return result.RowsAffected, result.Error
}
