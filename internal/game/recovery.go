package game

import (
	"context"
	"time"

	"github.com/wfunc/grimoire/internal/errors"
	"go.uber.org/zap"
)

// RecoveryManager 游戏恢复管理器
type RecoveryManager struct {
	logger    *zap.Logger
	persister StatePersister
	timeout   time.Duration // 会话超时时间
}

// NewRecoveryManager 创建恢复管理器
func NewRecoveryManager(logger *zap.Logger, persister StatePersister, timeout time.Duration) *RecoveryManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecoveryManager{
		logger:    logger,
		persister: persister,
		timeout:   timeout,
	}
}

// RecoverSession 从持久化快照恢复引擎
func (rm *RecoveryManager) RecoverSession(ctx context.Context, sessionID string, opts Options) (*Engine, *SessionData, error) {
	data, err := rm.persister.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if rm.timeout > 0 && time.Since(data.LastUpdate) > rm.timeout {
		rm.logger.Warn("会话已超时",
			zap.String("session_id", sessionID),
			zap.Time("last_update", data.LastUpdate),
			zap.Duration("timeout", rm.timeout))

		if err := rm.persister.Delete(ctx, sessionID); err != nil {
			rm.logger.Error("删除超时会话失败", zap.Error(err))
		}
		return nil, nil, errors.Newf(errors.ErrSessionExpired, "会话 %s", sessionID)
	}

	if len(data.Snapshot.Seats) > 0 {
		opts.SeatCount = len(data.Snapshot.Seats)
	}
	engine, err := New(opts)
	if err != nil {
		return nil, nil, err
	}
	if err := engine.Restore(data.Snapshot); err != nil {
		return nil, nil, err
	}

	strategy := rm.getRecoveryStrategy(engine.Phase())
	if err := strategy(ctx, engine); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrDataIntegrity, "执行恢复策略失败")
	}

	rm.logger.Info("会话恢复成功",
		zap.String("session_id", sessionID),
		zap.String("phase", string(engine.Phase())),
		zap.Int("night", engine.NightCount()))

	return engine, data, nil
}

// getRecoveryStrategy 根据阶段获取恢复策略
func (rm *RecoveryManager) getRecoveryStrategy(phase Phase) func(context.Context, *Engine) error {
	strategies := map[Phase]func(context.Context, *Engine) error{
		PhaseScriptSelection: rm.recoverIdle,
		PhaseSetup:           rm.recoverSetup,
		PhaseCheck:           rm.recoverSetup,
		PhaseFirstNight:      rm.recoverNight,
		PhaseNight:           rm.recoverNight,
		PhaseDay:             rm.recoverIdle,
		PhaseDusk:            rm.recoverIdle,
		PhaseDawnReport:      rm.recoverIdle,
		PhaseGameOver:        rm.recoverGameOver,
	}

	if strategy, exists := strategies[phase]; exists {
		return strategy
	}

	// 默认策略：重置
	return rm.recoverToIdle
}

// recoverIdle 无需特殊处理
func (rm *RecoveryManager) recoverIdle(ctx context.Context, e *Engine) error {
	return nil
}

// recoverSetup 准备阶段必须已选择剧本
func (rm *RecoveryManager) recoverSetup(ctx context.Context, e *Engine) error {
	if e.Script() == nil {
		rm.logger.Warn("准备阶段缺少剧本，重置对局", zap.String("game_id", e.gameID))
		return rm.recoverToIdle(ctx, e)
	}
	return nil
}

// recoverNight 校验行动队列游标
func (rm *RecoveryManager) recoverNight(ctx context.Context, e *Engine) error {
	queue, cursor := e.Queue()
	if cursor < 0 || cursor > len(queue) {
		return errors.Newf(errors.ErrInvariantViolation, "游标 %d 超出队列长度 %d", cursor, len(queue))
	}
	if cursor == len(queue) && e.Pending() == nil {
		rm.logger.Info("夜晚队列已完成，补发死亡报告", zap.String("game_id", e.gameID))
		e.endNight()
	}
	return nil
}

// recoverGameOver 结束阶段必须有胜负结果
func (rm *RecoveryManager) recoverGameOver(ctx context.Context, e *Engine) error {
	if e.Verdict() == nil {
		return errors.New(errors.ErrInvariantViolation, "游戏结束但没有胜负结果")
	}
	return nil
}

// recoverToIdle 默认恢复策略：重置到选择剧本
func (rm *RecoveryManager) recoverToIdle(ctx context.Context, e *Engine) error {
	rm.logger.Warn("使用默认恢复策略，重置对局",
		zap.String("game_id", e.gameID),
		zap.String("from_phase", string(e.Phase())))

	e.Reset()
	return nil
}

// CleanupExpiredSessions 清理过期会话（定期任务）
func (rm *RecoveryManager) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	p, ok := rm.persister.(ExpiringPersister)
	if !ok || rm.timeout <= 0 {
		return 0, nil
	}
	n, err := p.DeleteBefore(ctx, time.Now().Add(-rm.timeout))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		rm.logger.Info("清理过期会话", zap.Int64("count", n))
	}
	return n, nil
}
