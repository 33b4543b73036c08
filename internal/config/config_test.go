package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "sqlite", c.Database.Driver)
	assert.Equal(t, "./data/grimoire.db", c.Database.DSN)
	assert.Equal(t, 15, c.Game.SeatCount)
	assert.Equal(t, 12*time.Hour, c.Game.SessionTimeout)
	assert.Equal(t, "grimoire.log", c.Log.File.Filename)
	assert.Equal(t, 24, c.Security.JWT.ExpireHours)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
game:
  seat_count: 12
  default_script: tb
  session_timeout: 30m
log:
  level: debug
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 12, c.Game.SeatCount)
	assert.Equal(t, "tb", c.Game.DefaultScript)
	assert.Equal(t, 30*time.Minute, c.Game.SessionTimeout)
	assert.Equal(t, "debug", c.Log.Level)
	// 未配置项保留默认值
	assert.Equal(t, 100, c.Game.MaxSessions)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("GRIMOIRE_GAME_SEAT_COUNT", "9")
	t.Setenv("GRIMOIRE_DATABASE_DRIVER", "postgres")

	c, err := Load(writeConfig(t, "game:\n  seat_count: 12\n"))
	require.NoError(t, err)
	assert.Equal(t, 9, c.Game.SeatCount)
	assert.Equal(t, "postgres", c.Database.Driver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"端口非法", "server:\n  port: 70000\n"},
		{"驱动不支持", "database:\n  driver: oracle\n"},
		{"座位数过少", "game:\n  seat_count: 3\n"},
		{"JWT密钥为空", "security:\n  jwt:\n    secret: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
