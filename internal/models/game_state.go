package models

import (
	"time"
)

// GameState 会话快照（用于恢复进行中的对局）
type GameState struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     string    `gorm:"uniqueIndex;size:64;not null" json:"session_id"`
	StorytellerID uint      `gorm:"index" json:"storyteller_id"`
	Phase         string    `gorm:"size:20;not null" json:"phase"`
	StateData     string    `gorm:"type:text" json:"state_data"` // JSON格式的引擎快照
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (GameState) TableName() string {
	return "game_states"
}
