package repository

import (
	"context"
	"time"

	"github.com/wfunc/grimoire/internal/models"
	"gorm.io/gorm"
)

// GameRecordRepository 对局记录仓储接口
type GameRecordRepository interface {
	BaseRepository
	Create(ctx context.Context, record *models.GameRecord) error
	FindByID(ctx context.Context, id uint) (*models.GameRecord, error)
	FindByRecordID(ctx context.Context, recordID string) (*models.GameRecord, error)
	List(ctx context.Context, storytellerID uint, p *Pagination) ([]*models.GameRecord, error)
	Delete(ctx context.Context, recordID string) error
	GetStatistics(ctx context.Context, storytellerID uint, startTime, endTime time.Time) (*RecordStatistics, error)
}

// RecordStatistics 对局统计
type RecordStatistics struct {
	TotalGames  int64   `json:"total_games"`
	GoodWins    int64   `json:"good_wins"`
	EvilWins    int64   `json:"evil_wins"`
	GoodWinRate float64 `json:"good_win_rate"`
}

// gameRecordRepo 对局记录仓储实现
type gameRecordRepo struct {
	*BaseRepo
}

// NewGameRecordRepository 创建对局记录仓储
func NewGameRecordRepository(db *gorm.DB) GameRecordRepository {
	return &gameRecordRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 保存对局记录
func (r *gameRecordRepo) Create(ctx context.Context, record *models.GameRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByID 根据ID查找
func (r *gameRecordRepo) FindByID(ctx context.Context, id uint) (*models.GameRecord, error) {
	var record models.GameRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByRecordID 根据记录ID查找
func (r *gameRecordRepo) FindByRecordID(ctx context.Context, recordID string) (*models.GameRecord, error) {
	var record models.GameRecord
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List 分页查询，storytellerID为0时查询全部
func (r *gameRecordRepo) List(ctx context.Context, storytellerID uint, p *Pagination) ([]*models.GameRecord, error) {
	var records []*models.GameRecord
	query := r.db.WithContext(ctx).Model(&models.GameRecord{})
	if storytellerID > 0 {
		query = query.Where("storyteller_id = ?", storytellerID)
	}

	if p != nil {
		if err := query.Count(&p.Total).Error; err != nil {
			return nil, err
		}
		query = query.Scopes(Paginate(p))
	}

	err := query.Order("ended_at DESC").Find(&records).Error
	return records, err
}

// Delete 删除记录
func (r *gameRecordRepo) Delete(ctx context.Context, recordID string) error {
	result := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Delete(&models.GameRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetStatistics 统计胜负
func (r *gameRecordRepo) GetStatistics(ctx context.Context, storytellerID uint, startTime, endTime time.Time) (*RecordStatistics, error) {
	var rows []struct {
		WinResult string
		Count     int64
	}

	query := r.db.WithContext(ctx).Model(&models.GameRecord{}).
		Select("win_result, COUNT(*) as count").
		Where("ended_at BETWEEN ? AND ?", startTime, endTime)
	if storytellerID > 0 {
		query = query.Where("storyteller_id = ?", storytellerID)
	}
	if err := query.Group("win_result").Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &RecordStatistics{}
	for _, row := range rows {
		stats.TotalGames += row.Count
		switch row.WinResult {
		case "good":
			stats.GoodWins = row.Count
		case "evil":
			stats.EvilWins = row.Count
		}
	}
	if stats.TotalGames > 0 {
		stats.GoodWinRate = float64(stats.GoodWins) / float64(stats.TotalGames)
	}
	return stats, nil
}
