package repository

import (
	"context"
	"time"

	"github.com/wfunc/grimoire/internal/models"
	"gorm.io/gorm"
)

// StorytellerRepository 说书人仓储接口
type StorytellerRepository interface {
	BaseRepository
	Create(ctx context.Context, st *models.Storyteller) error
	FindByID(ctx context.Context, id uint) (*models.Storyteller, error)
	FindByName(ctx context.Context, name string) (*models.Storyteller, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	UpdateLoginInfo(ctx context.Context, id uint, ip string) error
	UpdateStatus(ctx context.Context, id uint, status string) error
}

// storytellerRepo 说书人仓储实现
type storytellerRepo struct {
	*BaseRepo
}

// NewStorytellerRepository 创建说书人仓储
func NewStorytellerRepository(db *gorm.DB) StorytellerRepository {
	return &storytellerRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建说书人
func (r *storytellerRepo) Create(ctx context.Context, st *models.Storyteller) error {
	return r.db.WithContext(ctx).Create(st).Error
}

// FindByID 根据ID查找
func (r *storytellerRepo) FindByID(ctx context.Context, id uint) (*models.Storyteller, error) {
	var st models.Storyteller
	if err := r.db.WithContext(ctx).First(&st, id).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

// FindByName 根据名称查找
func (r *storytellerRepo) FindByName(ctx context.Context, name string) (*models.Storyteller, error) {
	var st models.Storyteller
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ExistsByName 名称是否已存在
func (r *storytellerRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Storyteller{}).
		Where("name = ?", name).
		Count(&count).Error
	return count > 0, err
}

// UpdateLoginInfo 更新登录信息
func (r *storytellerRepo) UpdateLoginInfo(ctx context.Context, id uint, ip string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.Storyteller{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": &now,
			"last_login_ip": ip,
		}).Error
}

// UpdateStatus 更新状态
func (r *storytellerRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Storyteller{}).
		Where("id = ?", id).
		Update("status", status).Error
}
