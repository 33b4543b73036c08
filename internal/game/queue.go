package game

import (
	"sort"

	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
)

// BuildQueue 今晚的唤醒顺序：按能力顺序升序，相同时按座位号升序
func BuildQueue(reg *ability.Registry, seats []grimoire.Seat, firstNight bool) []int {
	k := ability.OtherNight
	if firstNight {
		k = ability.FirstNight
	}
	type entry struct {
		id, order int
	}
	var entries []entry
	for _, s := range seats {
		if !s.InPlay() {
			continue
		}
		b := behaviorFor(reg, s, k)
		if b == nil {
			continue
		}
		entries = append(entries, entry{id: s.ID, order: reg.Order(b, s, k)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return entries[i].id < entries[j].id
	})
	queue := make([]int, 0, len(entries))
	for _, en := range entries {
		queue = append(queue, en.id)
	}
	return queue
}

// InsertAfterCursor 把新行动者插到游标之后第一个顺序更大的位置之前，游标及之前的条目不变
func InsertAfterCursor(queue []int, id, cursor int, order func(id int) int) []int {
	start := cursor + 1
	if start < 0 {
		start = 0
	}
	if start > len(queue) {
		start = len(queue)
	}
	o := order(id)
	pos := len(queue)
	for i := start; i < len(queue); i++ {
		if order(queue[i]) > o {
			pos = i
			break
		}
	}
	out := make([]int, 0, len(queue)+1)
	out = append(out, queue[:pos]...)
	out = append(out, id)
	return append(out, queue[pos:]...)
}

// behaviorFor 座位当前行动角色在该时段的能力
func behaviorFor(reg *ability.Registry, s grimoire.Seat, k ability.Kind) *ability.Behavior {
	acting := s.ActingRole()
	if acting == nil {
		return nil
	}
	b, ok := reg.Behavior(acting.ID, k)
	if !ok {
		return nil
	}
	return b
}
