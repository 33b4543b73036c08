package ability

import (
	"sort"

	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

// Registry 角色ID到能力的映射，是唤醒队列、目标合法性与效果的唯一来源
type Registry struct {
	catalog *role.Catalog
	entries map[string]*Entry
}

// NewRegistry 创建并登记全部内置角色
func NewRegistry(catalog *role.Catalog) *Registry {
	r := &Registry{
		catalog: catalog,
		entries: make(map[string]*Entry),
	}
	registerInformation(r)
	registerTownsfolk(r)
	registerOutsiders(r)
	registerMinions(r)
	registerDemons(r)
	return r
}

// Register 登记角色能力
func (r *Registry) Register(roleID string, e Entry) {
	entry := e
	r.entries[roleID] = &entry
}

// Entry 查找角色能力
func (r *Registry) Entry(roleID string) (*Entry, bool) {
	e, ok := r.entries[roleID]
	return e, ok
}

// Behavior 查找角色某一时段的能力
func (r *Registry) Behavior(roleID string, k Kind) (*Behavior, bool) {
	e, ok := r.entries[roleID]
	if !ok {
		return nil, false
	}
	b := e.Behavior(k)
	return b, b != nil
}

// Registered 已登记的角色ID
func (r *Registry) Registered() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Catalog 角色目录
func (r *Registry) Catalog() *role.Catalog {
	return r.catalog
}

// Order 行动顺序：OrderFunc > Order > 目录中的夜晚顺序
func (r *Registry) Order(b *Behavior, seat grimoire.Seat, k Kind) int {
	if b.OrderFunc != nil {
		return b.OrderFunc(seat)
	}
	if b.Order != 0 {
		return b.Order
	}
	acting := seat.ActingRole()
	if acting == nil {
		return 0
	}
	return acting.NightOrder(k == FirstNight)
}

// CanTarget 目标是否合法
func (b *Behavior) CanTarget(candidate, actor grimoire.Seat, seats []grimoire.Seat, chosen []int) bool {
	if !candidate.InPlay() {
		return false
	}
	if contains(chosen, candidate.ID) {
		return false
	}
	if b.Eligible == nil {
		return true
	}
	return b.Eligible(candidate, actor, seats, chosen)
}
