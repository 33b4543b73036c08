package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/grimoire/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 创建测试数据库（内存SQLite）
func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库每个连接独立，限制为单连接
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// CreateTestRecord 构造测试对局记录
func CreateTestRecord(recordID, winResult string, endedAt time.Time) *models.GameRecord {
	return &models.GameRecord{
		RecordID:    recordID,
		SessionID:   "session-" + recordID,
		ScriptName:  "暗流涌动",
		PlayerCount: 7,
		StartedAt:   endedAt.Add(-time.Hour),
		EndedAt:     endedAt,
		WinResult:   winResult,
		WinReason:   "demon_executed",
		Seats:       "[]",
		Logs:        "[]",
		Summary:     models.JSONMap{"days": float64(3)},
	}
}

// AssertGameRecord 断言对局记录
func AssertGameRecord(t *testing.T, expected, actual *models.GameRecord) {
	assert.Equal(t, expected.RecordID, actual.RecordID)
	assert.Equal(t, expected.SessionID, actual.SessionID)
	assert.Equal(t, expected.ScriptName, actual.ScriptName)
	assert.Equal(t, expected.WinResult, actual.WinResult)
	assert.Equal(t, expected.WinReason, actual.WinReason)
}
