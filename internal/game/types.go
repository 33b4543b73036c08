package game

import (
	"time"

	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
)

// SessionInfo 会话信息
type SessionInfo struct {
	SessionID     string    `json:"session_id"`
	StorytellerID uint      `json:"storyteller_id"`
	Phase         Phase     `json:"phase"`
	Script        string    `json:"script,omitempty"`
	NightCount    int       `json:"night_count"`
	PlayerCount   int       `json:"player_count"`
	Winner        string    `json:"winner,omitempty"`
	StartTime     time.Time `json:"start_time"`
	LastActivity  time.Time `json:"last_activity"`
	Duration      float64   `json:"duration"`
	ValidEvents   []string  `json:"valid_events"`
}

// SelectScriptRequest 选择剧本请求
type SelectScriptRequest struct {
	ScriptID string `json:"script_id" binding:"required"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	RoleID string `json:"role_id" binding:"required"`
}

// SeatNameRequest 设置玩家名请求
type SeatNameRequest struct {
	Name string `json:"name" binding:"max=32"`
}

// StartNightRequest 开始夜晚请求
type StartNightRequest struct {
	First bool `json:"first"`
}

// SelectTargetRequest 选择目标请求
type SelectTargetRequest struct {
	SeatID int `json:"seat_id" binding:"min=0"`
}

// ResolveRequest 解决交互请求
type ResolveRequest struct {
	Kind    ability.InteractionKind `json:"kind" binding:"required"`
	Payload ability.Payload         `json:"payload"`
}

// DayAbilityRequest 白天技能请求
type DayAbilityRequest struct {
	ActorID int              `json:"actor_id" binding:"min=0"`
	Targets []int            `json:"targets"`
	Guesses []grimoire.Guess `json:"guesses"`
}

// NominateRequest 提名请求
type NominateRequest struct {
	NominatorID int `json:"nominator_id" binding:"min=0"`
	NomineeID   int `json:"nominee_id" binding:"min=0"`
}

// VoteRequest 计票请求
type VoteRequest struct {
	NomineeID int `json:"nominee_id" binding:"min=0"`
	Count     int `json:"count" binding:"min=0"`
}

// ToggleRequest 手动切换状态请求
type ToggleRequest struct {
	Kind   ToggleKind `json:"kind" binding:"required"`
	SeatID int        `json:"seat_id" binding:"min=0"`
}
