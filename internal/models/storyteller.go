package models

import (
	"time"
)

// Storyteller 说书人账户
type Storyteller struct {
	BaseModel
	Name        string     `gorm:"uniqueIndex;size:50;not null" json:"name"`
	PinHash     string     `gorm:"size:255;not null" json:"-"`
	Status      string     `gorm:"size:20;default:'active'" json:"status"` // active, disabled
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP string     `gorm:"size:50" json:"last_login_ip"`
}

// TableName 指定表名
func (Storyteller) TableName() string {
	return "storytellers"
}

// IsActive 是否可用
func (s *Storyteller) IsActive() bool {
	return s.Status == "" || s.Status == "active"
}

// AllModels 需要迁移的全部模型
func AllModels() []interface{} {
	return []interface{}{
		&Storyteller{},
		&GameRecord{},
		&GameState{},
	}
}
