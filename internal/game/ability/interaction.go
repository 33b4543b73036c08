package ability

import (
	"github.com/wfunc/grimoire/internal/errors"
)

// InteractionKind 待处理交互的种类
type InteractionKind string

const (
	KindDeathReport InteractionKind = "death_report"
	KindSeatChoice  InteractionKind = "seat_choice"
	KindRoleChoice  InteractionKind = "role_choice"
	KindRuling      InteractionKind = "ruling"
)

// Topic 恢复令牌，标记交互解决后继续执行的操作
type Topic string

const (
	TopicNightEnd       Topic = "night_end"
	TopicSuccessor      Topic = "successor"
	TopicSailorDrunk    Topic = "sailor_drunk"
	TopicInnkeeperDrunk Topic = "innkeeper_drunk"
	TopicMayorBounce    Topic = "mayor_bounce"
	TopicRegurgitate    Topic = "shabaloth_regurgitate"
	TopicPoKills        Topic = "po_kills"
	TopicGossip         Topic = "gossip"
	TopicGambler        Topic = "gambler"
	TopicPitHagRole     Topic = "pit_hag_role"
	TopicDrunkCharade   Topic = "drunk_charade"
	TopicLunaticCharade Topic = "lunatic_charade"
	TopicMoonchild      Topic = "moonchild"
	TopicSweetheart     Topic = "sweetheart"
	TopicKlutz          Topic = "klutz"
	TopicBarber         Topic = "barber"
	TopicEvilTwin       Topic = "evil_twin"
)

// Request 等待说书人输入的请求，只携带最少的恢复数据
type Request struct {
	Kind    InteractionKind `json:"kind"`
	Topic   Topic           `json:"topic"`
	ActorID int             `json:"actor_id"`
	Options []int           `json:"options,omitempty"`
	Roles   []string        `json:"roles,omitempty"`
	Min     int             `json:"min"`
	Max     int             `json:"max"`
	Message string          `json:"message"`
	Data    []int           `json:"data,omitempty"`
	RoleID  string          `json:"role_id,omitempty"`
}

// Payload 说书人的输入
type Payload struct {
	SeatIDs []int  `json:"seat_ids,omitempty"`
	RoleID  string `json:"role_id,omitempty"`
	Confirm bool   `json:"confirm,omitempty"`
}

// Validate 校验输入是否符合请求
func (r *Request) Validate(p Payload) error {
	switch r.Kind {
	case KindRoleChoice:
		if !containsStr(r.Roles, p.RoleID) {
			return errors.Newf(errors.ErrInvalidTarget, "role %q is not an option", p.RoleID)
		}
		return nil
	case KindDeathReport:
		return nil
	}
	if len(p.SeatIDs) < r.Min || len(p.SeatIDs) > r.Max {
		return errors.Newf(errors.ErrInvalidTarget, "expected %d-%d seats, got %d", r.Min, r.Max, len(p.SeatIDs))
	}
	seen := make(map[int]bool, len(p.SeatIDs))
	for _, id := range p.SeatIDs {
		if seen[id] {
			return errors.Newf(errors.ErrInvalidTarget, "seat %d chosen twice", id)
		}
		seen[id] = true
		if !contains(r.Options, id) {
			return errors.Newf(errors.ErrInvalidTarget, "seat %d is not an option", id)
		}
	}
	return nil
}
