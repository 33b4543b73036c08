package database

import (
	"fmt"
	"path/filepath"

	"github.com/wfunc/grimoire/internal/logger"
	"github.com/wfunc/grimoire/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate 迁移全局数据库
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}
	return Migrate(DB)
}

// Migrate 迁移表结构并创建复合索引
func Migrate(db *gorm.DB) error {
	// 获取迁移锁，避免多个进程同时迁移同一个 sqlite 文件
	if dbPath := sqlitePath(db); dbPath != "" {
		CleanupStaleLocks(filepath.Dir(dbPath))
		lockFile, err := acquireMigrationLock(dbPath, 30)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")

	for _, model := range models.AllModels() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	createIndexes(db)

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建查询历史用的复合索引
func createIndexes(db *gorm.DB) {
	indexes := map[string]string{
		"idx_game_records_storyteller_ended": "CREATE INDEX IF NOT EXISTS idx_game_records_storyteller_ended ON game_records(storyteller_id, ended_at)",
		"idx_game_states_phase_updated":      "CREATE INDEX IF NOT EXISTS idx_game_states_phase_updated ON game_states(phase, updated_at)",
	}
	for name, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", name), zap.Error(err))
		}
	}
}

// DropAllTables 删除所有表（仅用于测试环境）
func DropAllTables(db *gorm.DB) error {
	for _, model := range models.AllModels() {
		if err := db.Migrator().DropTable(model); err != nil {
			logger.Error("删除表失败", zap.String("model", fmt.Sprintf("%T", model)), zap.Error(err))
			return err
		}
	}
	logger.Info("所有表已删除")
	return nil
}
