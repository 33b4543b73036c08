package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/grimoire/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitFileOutput(t *testing.T) {
	dir := t.TempDir()
	err := Init(&config.LogConfig{
		Level:  "debug",
		Format: "json",
		Output: "file",
		File: config.LogFileConfig{
			Path:     dir,
			Filename: "grimoire.log",
			MaxSize:  1,
		},
		Modules: map[string]string{"game": "warn"},
	})
	require.NoError(t, err)

	Info("服务启动", zap.Int("port", 8080))
	Error("测试错误")
	LogGameEvent("phase_change", "s-1", map[string]interface{}{"phase": "firstNight"})
	require.NoError(t, Sync())

	data, err := os.ReadFile(filepath.Join(dir, "grimoire.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "服务启动")
	assert.Contains(t, string(data), "测试错误")
	// game 模块级别为 warn，Info 事件不输出
	assert.NotContains(t, string(data), "game_event")

	errData, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errData), "测试错误")
	assert.NotContains(t, string(errData), "服务启动")
}

func TestSetLevel(t *testing.T) {
	SetLevel("error")
	assert.Equal(t, zapcore.ErrorLevel, Level())
	SetLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, Level())
	SetLevel("unknown")
	assert.Equal(t, zapcore.InfoLevel, Level())
}

func TestGetModuleLoggerFallback(t *testing.T) {
	assert.NotNil(t, GetModuleLogger("not-configured"))
}
