package grimoire

import (
	"github.com/wfunc/grimoire/internal/game/role"
)

// Guess 杂耍艺人的白天猜测
type Guess struct {
	SeatID int    `json:"seat_id"`
	RoleID string `json:"role_id"`
}

// Seat 座位状态
type Seat struct {
	ID          int            `json:"id"`
	Name        string         `json:"name,omitempty"`
	Role        *role.Role     `json:"role,omitempty"`
	CharadeRole *role.Role     `json:"charade_role,omitempty"`
	DisplayRole *role.Role     `json:"display_role,omitempty"`
	Alignment   role.Alignment `json:"alignment,omitempty"`

	IsDead                 bool `json:"is_dead"`
	IsDrunk                bool `json:"is_drunk"`
	IsPoisoned             bool `json:"is_poisoned"`
	IsProtected            bool `json:"is_protected"`
	IsDemonSuccessor       bool `json:"is_demon_successor"`
	IsFirstDeathForZombuul bool `json:"is_first_death_for_zombuul"`
	IsZombuulTrulyDead     bool `json:"is_zombuul_truly_dead"`
	AbilityUsed            bool `json:"ability_used"`
	HasBeenNominated       bool `json:"has_been_nominated"`
	HasGhostVote           bool `json:"has_ghost_vote"`

	ProtectedBy *int    `json:"protected_by,omitempty"`
	MasterID    *int    `json:"master_id,omitempty"`
	TwinID      *int    `json:"twin_id,omitempty"`
	Charge      int     `json:"charge,omitempty"`
	LastTargets []int   `json:"last_targets,omitempty"`
	Guesses     []Guess `json:"guesses,omitempty"`

	StatusDetails []string       `json:"status_details,omitempty"`
	StatusEffects []StatusEffect `json:"status_effects,omitempty"`
	Notes         []string       `json:"notes,omitempty"`
}

// InPlay 是否已分配角色
func (s *Seat) InPlay() bool {
	return s.Role != nil
}

// IsFeigning 僵怖假死
func (s *Seat) IsFeigning() bool {
	return s.IsDead && s.IsFirstDeathForZombuul && !s.IsZombuulTrulyDead
}

// IsAlive 胜负判定意义上的存活，假死计为存活
func (s *Seat) IsAlive() bool {
	return s.InPlay() && (!s.IsDead || s.IsFeigning())
}

// RegistersAlive 对其他角色能力而言是否存活，假死的僵怖按死亡计
func (s *Seat) RegistersAlive() bool {
	return s.InPlay() && !s.IsDead
}

// Disabled 中毒或醉酒
func (s *Seat) Disabled() bool {
	return s.IsPoisoned || s.IsDrunk
}

// IsEvil 胜负判定意义上的邪恶
func (s *Seat) IsEvil() bool {
	return s.Alignment == role.Evil || s.IsDemonSuccessor
}

// IsRole 真实角色判断
func (s *Seat) IsRole(id string) bool {
	return s.Role != nil && s.Role.ID == id
}

// IsType 真实角色类型判断
func (s *Seat) IsType(t role.Type) bool {
	return s.Role != nil && s.Role.Type == t
}

// ActingRole 夜间按此角色唤醒（酒鬼与疯子使用伪装角色）
func (s *Seat) ActingRole() *role.Role {
	if s.CharadeRole != nil {
		return s.CharadeRole
	}
	return s.Role
}

// HasStatus 是否带有某种状态
func (s *Seat) HasStatus(kind StatusKind) bool {
	for _, e := range s.StatusEffects {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// HasStatusFrom 是否带有指定来源的某种状态
func (s *Seat) HasStatusFrom(kind StatusKind, source int) bool {
	for _, e := range s.StatusEffects {
		if e.Kind == kind && e.SourceID != nil && *e.SourceID == source {
			return true
		}
	}
	return false
}

// Clone 深拷贝
func (s Seat) Clone() Seat {
	c := s
	c.ProtectedBy = clonePtr(s.ProtectedBy)
	c.MasterID = clonePtr(s.MasterID)
	c.TwinID = clonePtr(s.TwinID)
	c.LastTargets = append([]int(nil), s.LastTargets...)
	c.Guesses = append([]Guess(nil), s.Guesses...)
	c.StatusDetails = append([]string(nil), s.StatusDetails...)
	c.Notes = append([]string(nil), s.Notes...)
	if s.StatusEffects != nil {
		c.StatusEffects = make([]StatusEffect, len(s.StatusEffects))
		for i, e := range s.StatusEffects {
			e.SourceID = clonePtr(e.SourceID)
			c.StatusEffects[i] = e
		}
	}
	return c
}

// CloneSeats 深拷贝座位列表
func CloneSeats(seats []Seat) []Seat {
	out := make([]Seat, len(seats))
	for i := range seats {
		out[i] = seats[i].Clone()
	}
	return out
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
