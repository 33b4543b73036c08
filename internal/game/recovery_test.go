package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/repository"
	"go.uber.org/zap"
)

// saveEngine 把引擎快照写入持久化器
func saveEngine(t *testing.T, p StatePersister, sessionID string, e *Engine, at time.Time) {
	t.Helper()
	require.NoError(t, p.Save(context.Background(), &SessionData{
		SessionID:     sessionID,
		StorytellerID: 7,
		Phase:         e.Phase(),
		Snapshot:      e.Snapshot(),
		LastUpdate:    at,
	}))
}

func TestRecoveryManager(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("从黄昏恢复后继续对局", func(t *testing.T) {
		persister := NewMemoryStatePersister()
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)
		saveEngine(t, persister, "s-1", e, time.Now())

		rm := NewRecoveryManager(logger, persister, 30*time.Minute)
		restored, data, err := rm.RecoverSession(ctx, "s-1", Options{})
		require.NoError(t, err)
		assert.Equal(t, uint(7), data.StorytellerID)
		assert.Equal(t, PhaseDusk, restored.Phase())
		assert.Equal(t, e.View().GameID, restored.View().GameID)
		require.NoError(t, restored.Nominate(2, 0))
	})

	t.Run("等待中的交互被保留", func(t *testing.T) {
		persister := NewMemoryStatePersister()
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		saveEngine(t, persister, "s-2", e, time.Now())

		rm := NewRecoveryManager(logger, persister, time.Hour)
		restored, _, err := rm.RecoverSession(ctx, "s-2", Options{})
		require.NoError(t, err)
		require.NotNil(t, restored.Pending())
		assert.Equal(t, ability.KindDeathReport, restored.Pending().Kind)
		require.NoError(t, restored.ResolveInteraction(ability.KindDeathReport, ability.Payload{}))
		require.NoError(t, restored.AdvanceToDay())
	})

	t.Run("超时会话被删除", func(t *testing.T) {
		persister := NewMemoryStatePersister()
		e := setupGame(t, sevenPlayers...)
		saveEngine(t, persister, "s-3", e, time.Now().Add(-2*time.Hour))

		rm := NewRecoveryManager(logger, persister, time.Hour)
		_, _, err := rm.RecoverSession(ctx, "s-3", Options{})
		assert.True(t, errors.Is(err, errors.ErrSessionExpired))

		_, err = persister.Load(ctx, "s-3")
		assert.True(t, errors.Is(err, errors.ErrSessionNotFound))
	})

	t.Run("不存在的会话", func(t *testing.T) {
		rm := NewRecoveryManager(logger, NewMemoryStatePersister(), time.Hour)
		_, _, err := rm.RecoverSession(ctx, "missing", Options{})
		assert.True(t, errors.Is(err, errors.ErrSessionNotFound))
	})

	t.Run("准备阶段缺少剧本时重置", func(t *testing.T) {
		persister := NewMemoryStatePersister()
		e := newEngine(t)
		snap := e.Snapshot()
		snap.Phase = PhaseSetup
		require.NoError(t, persister.Save(ctx, &SessionData{SessionID: "s-4", Phase: PhaseSetup, Snapshot: snap, LastUpdate: time.Now()}))

		rm := NewRecoveryManager(logger, persister, time.Hour)
		restored, _, err := rm.RecoverSession(ctx, "s-4", Options{})
		require.NoError(t, err)
		assert.Equal(t, PhaseScriptSelection, restored.Phase())
	})

	t.Run("清理过期快照", func(t *testing.T) {
		persister := NewMemoryStatePersister()
		e := newEngine(t)
		saveEngine(t, persister, "old", e, time.Now().Add(-2*time.Hour))
		saveEngine(t, persister, "new", e, time.Now())

		rm := NewRecoveryManager(logger, persister, time.Hour)
		n, err := rm.CleanupExpiredSessions(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		_, err = persister.Load(ctx, "new")
		assert.NoError(t, err)
	})
}

func TestDatabaseStatePersister(t *testing.T) {
	ctx := context.Background()
	db := repository.TestDB(t)
	persister := NewDatabaseStatePersister(db)

	e := setupGame(t, sevenPlayers...)
	finishNight(t, e, nil)
	saveEngine(t, persister, "db-1", e, time.Now())

	data, err := persister.Load(ctx, "db-1")
	require.NoError(t, err)
	assert.Equal(t, PhaseDawnReport, data.Phase)
	assert.Equal(t, uint(7), data.StorytellerID)
	require.NotNil(t, data.Snapshot.Pending)

	restored := newEngine(t)
	require.NoError(t, restored.Restore(data.Snapshot))
	assert.Equal(t, PhaseDawnReport, restored.Phase())

	require.NoError(t, persister.Delete(ctx, "db-1"))
	_, err = persister.Load(ctx, "db-1")
	assert.True(t, errors.Is(err, errors.ErrSessionNotFound))
}

func TestCacheStatePersister(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryStatePersister()
	storage := NewMemoryStatePersister()
	persister := NewCacheStatePersister(cache, storage, time.Minute)

	e := newEngine(t)
	saveEngine(t, persister, "c-1", e, time.Now())

	_, err := cache.Load(ctx, "c-1")
	require.NoError(t, err)

	require.NoError(t, cache.Delete(ctx, "c-1"))
	_, err = persister.Load(ctx, "c-1")
	require.NoError(t, err)
	_, err = cache.Load(ctx, "c-1")
	assert.NoError(t, err, "未命中时回填缓存")

	require.NoError(t, persister.Delete(ctx, "c-1"))
	_, err = storage.Load(ctx, "c-1")
	assert.Error(t, err)
}
