package api

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game"
	"github.com/wfunc/grimoire/internal/middleware"
	"go.uber.org/zap"
)

// SessionHandler 对局会话处理器，每个接口对应引擎的一个操作
type SessionHandler struct {
	sessions      *game.SessionManager
	defaultScript string
	logger        *zap.Logger
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(sessions *game.SessionManager, defaultScript string, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:      sessions,
		defaultScript: defaultScript,
		logger:        logger,
	}
}

// Create 创建会话
func (h *SessionHandler) Create(c *gin.Context) {
	storytellerID, _ := middleware.GetStorytellerID(c)
	ctx := c.Request.Context()

	session, err := h.sessions.CreateSession(ctx, storytellerID)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.sessions.View(ctx, session.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if h.defaultScript != "" {
		view, err = h.sessions.Do(ctx, session.ID, func(e *game.Engine) error {
			return e.SelectScript(h.defaultScript)
		})
		if err != nil {
			h.logger.Warn("默认剧本不可用", zap.String("script", h.defaultScript), zap.Error(err))
		}
	}

	respondCreated(c, gin.H{"session": session.Info(), "view": view})
}

// List 当前说书人的会话
func (h *SessionHandler) List(c *gin.Context) {
	storytellerID, _ := middleware.GetStorytellerID(c)
	respondOK(c, h.sessions.ListSessions(storytellerID))
}

// ownedSession 读取会话并校验归属
func ownedSession(ctx context.Context, sessions *game.SessionManager, storytellerID uint, sessionID string) (*game.GameSession, error) {
	session, err := sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.StorytellerID != storytellerID {
		return nil, errors.New(errors.ErrPermissionDenied, "不是该会话的说书人")
	}
	return session, nil
}

// owned 校验会话归属
func (h *SessionHandler) owned(c *gin.Context) (*game.GameSession, bool) {
	storytellerID, _ := middleware.GetStorytellerID(c)
	session, err := ownedSession(c.Request.Context(), h.sessions, storytellerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return session, true
}

// Get 会话当前视图
func (h *SessionHandler) Get(c *gin.Context) {
	session, ok := h.owned(c)
	if !ok {
		return
	}
	view, err := h.sessions.View(c.Request.Context(), session.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

// Stats 会话摘要
func (h *SessionHandler) Stats(c *gin.Context) {
	session, ok := h.owned(c)
	if !ok {
		return
	}
	info, err := h.sessions.GetSessionStats(c.Request.Context(), session.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, info)
}

// Delete 删除会话
func (h *SessionHandler) Delete(c *gin.Context) {
	session, ok := h.owned(c)
	if !ok {
		return
	}
	if err := h.sessions.DeleteSession(c.Request.Context(), session.ID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"session_id": session.ID})
}

// run 在会话上执行操作并返回新视图
func (h *SessionHandler) run(c *gin.Context, fn func(e *game.Engine) error) {
	session, ok := h.owned(c)
	if !ok {
		return
	}
	view, err := h.sessions.Do(c.Request.Context(), session.ID, fn)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

func seatParam(c *gin.Context) (int, bool) {
	seat, err := strconv.Atoi(c.Param("seat"))
	if err != nil || seat < 0 {
		respondError(c, errors.Newf(errors.ErrInvalidParam, "座位号 %q", c.Param("seat")))
		return 0, false
	}
	return seat, true
}

// SelectScript 选择剧本
func (h *SessionHandler) SelectScript(c *gin.Context) {
	var req game.SelectScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.run(c, func(e *game.Engine) error { return e.SelectScript(req.ScriptID) })
}

// Reset 重置为选择剧本阶段
func (h *SessionHandler) Reset(c *gin.Context) {
	h.run(c, func(e *game.Engine) error {
		e.Reset()
		return nil
	})
}

// AssignRole 分配角色
func (h *SessionHandler) AssignRole(c *gin.Context) {
	seat, ok := seatParam(c)
	if !ok {
		return
	}
	var req game.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.run(c, func(e *game.Engine) error { return e.AssignRole(seat, req.RoleID) })
}

// ClearSeat 清空座位
func (h *SessionHandler) ClearSeat(c *gin.Context) {
	seat, ok := seatParam(c)
	if !ok {
		return
	}
	h.run(c, func(e *game.Engine) error { return e.ClearSeat(seat) })
}

// SetSeatName 设置玩家名
func (h *SessionHandler) SetSeatName(c *gin.Context) {
	seat, ok := seatParam(c)
	if !ok {
		return
	}
	var req game.SeatNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.run(c, func(e *game.Engine) error { return e.SetSeatName(seat, req.Name) })
}

// BeginCheck 进入检查阶段
func (h *SessionHandler) BeginCheck(c *gin.Context) {
	h.run(c, func(e *game.Engine) error { return e.BeginCheck() })
}

// CancelCheck 返回配置阶段
func (h *SessionHandler) CancelCheck(c *gin.Context) {
	h.run(c, func(e *game.Engine) error { return e.CancelCheck() })
}

// StartNight 开始夜晚
func (h *SessionHandler) StartNight(c *gin.Context) {
	var req game.StartNightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.run(c, func(e *game.Engine) error { return e.StartNight(req.First) })
}

// SelectTarget 选择目标
func (h *SessionHandler) SelectTarget(c *gin.Context) {
	var req game.SelectTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.run(c, func(e *game.Engine) error { return e.SelectTarget(req.SeatID) })
}

// Confirm 确认当前行动
func (h *SessionHandler) Confirm(c *gin.Context) {
	h.run(c, func(e *game.Engine) error { return e.ConfirmAction() })
}

// StepBack 撤销上一步
func (h *SessionHandler) StepBack(c *gin.Context) {
	h.run(c, func(e *game.Engine) error { return e.StepBack() })
}

// ResolveInteraction 解决待处理交互
func (h *SessionHandler) ResolveInteraction(c *gin.Context) {
	var req game.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.run(c, func(e *game.Engine) error { return e.ResolveInteraction(req.Kind, req.Payload) })
}

// AdvanceToDay 进入白天
func (h *SessionHandler) AdvanceToDay(c *gin.Context) {
	h.run(c, func(e *game.Engine) error { return e.AdvanceToDay() })
}

// UseDayAbility 白天技能
func (h *SessionHandler) UseDayAbility(c *gin.Context) {
	var req game.DayAbilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.run(c, func(e *game.Engine) error { return e.UseDayAbility(req.ActorID, req.Targets, req.Guesses) })
}

// OpenDusk 进入黄昏
func (h *SessionHandler) OpenDusk(c *gin.Context) {
	h.run(c, func(e *game.Engine) error { return e.OpenDusk() })
}

// Nominate 提名
func (h *SessionHandler) Nominate(c *gin.Context) {
	var req game.NominateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.run(c, func(e *game.Engine) error { return e.Nominate(req.NominatorID, req.NomineeID) })
}

// Vote 登记票数
func (h *SessionHandler) Vote(c *gin.Context) {
	var req game.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.run(c, func(e *game.Engine) error { return e.SubmitVote(req.NomineeID, req.Count) })
}

// Execute 执行处决判定
func (h *SessionHandler) Execute(c *gin.Context) {
	h.run(c, func(e *game.Engine) error { return e.ExecuteJudgment() })
}

// Toggle 手动切换座位状态
func (h *SessionHandler) Toggle(c *gin.Context) {
	seat, ok := seatParam(c)
	if !ok {
		return
	}
	var req game.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.run(c, func(e *game.Engine) error { return e.ToggleSeatStatus(req.Kind, seat) })
}
