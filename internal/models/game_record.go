package models

import (
	"time"
)

// GameRecord 对局记录
type GameRecord struct {
	BaseModel
	RecordID      string    `gorm:"uniqueIndex;size:64;not null" json:"record_id"`
	SessionID     string    `gorm:"index;size:64" json:"session_id"`
	StorytellerID uint      `gorm:"index" json:"storyteller_id"`
	ScriptName    string    `gorm:"size:100" json:"script_name"`
	PlayerCount   int       `json:"player_count"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `gorm:"index" json:"ended_at"`
	WinResult     string    `gorm:"size:10;index" json:"win_result"` // good, evil
	WinReason     string    `gorm:"size:50" json:"win_reason"`
	Seats         string    `gorm:"type:text" json:"seats"` // JSON
	Logs          string    `gorm:"type:text" json:"logs"`  // JSON
	Summary       JSONMap   `gorm:"type:json" json:"summary"`
}

// TableName 指定表名
func (GameRecord) TableName() string {
	return "game_records"
}

// Duration 对局时长
func (r *GameRecord) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
