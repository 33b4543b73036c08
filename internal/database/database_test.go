package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/grimoire/internal/config"
	"github.com/wfunc/grimoire/internal/models"
)

func sqliteConfig(dsn string) *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             dsn,
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
		LogLevel:        "silent",
	}
}

func TestOpenAndMigrate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	dbPath := filepath.Join(dir, "grimoire.db")

	db, err := Open(sqliteConfig(dbPath))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	// 数据目录自动创建
	_, err = os.Stat(dir)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	for _, model := range models.AllModels() {
		assert.True(t, db.Migrator().HasTable(model))
	}
	assert.True(t, db.Migrator().HasIndex("game_records", "idx_game_records_storyteller_ended"))

	// 迁移完成后释放锁文件
	_, err = os.Stat(dbPath + ".migration.lock")
	assert.True(t, os.IsNotExist(err))

	// 重复迁移是幂等的
	require.NoError(t, Migrate(db))

	require.NoError(t, DropAllTables(db))
	assert.False(t, db.Migrator().HasTable(&models.GameRecord{}))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrationLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "grimoire.db")

	first, err := acquireMigrationLock(dbPath, 1)
	require.NoError(t, err)

	// 锁被占用时获取失败
	_, err = acquireMigrationLock(dbPath, 1)
	assert.Error(t, err)

	releaseMigrationLock(first)
	second, err := acquireMigrationLock(dbPath, 1)
	require.NoError(t, err)
	releaseMigrationLock(second)
}

func TestAutoMigrateWithoutInit(t *testing.T) {
	saved := DB
	DB = nil
	defer func() { DB = saved }()

	assert.Error(t, AutoMigrate())
	assert.False(t, IsConnected())
}
