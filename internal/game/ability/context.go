package ability

import (
	"sort"

	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

// Actor 行动者
func (c *Context) Actor() *grimoire.Seat {
	return c.Seat(c.ActorID)
}

// Seat 按ID取座位
func (c *Context) Seat(id int) *grimoire.Seat {
	for i := range c.Seats {
		if c.Seats[i].ID == id {
			return &c.Seats[i]
		}
	}
	return nil
}

// Target 第i个目标
func (c *Context) Target(i int) *grimoire.Seat {
	if i < 0 || i >= len(c.Targets) {
		return nil
	}
	return c.Seat(c.Targets[i])
}

// Lies 是否需要给出假信息
func (c *Context) Lies() bool {
	return c.Disabled || c.Falsify
}

// Players 已入座的座位，按ID排序
func (c *Context) Players() []*grimoire.Seat {
	var out []*grimoire.Seat
	for i := range c.Seats {
		if c.Seats[i].InPlay() {
			out = append(out, &c.Seats[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AliveCount 存活人数
func (c *Context) AliveCount() int {
	return grimoire.AliveCount(c.Seats)
}

// Filter 按条件筛选已入座的座位
func (c *Context) Filter(keep func(s *grimoire.Seat) bool) []*grimoire.Seat {
	var out []*grimoire.Seat
	for _, s := range c.Players() {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// Others 除指定座位外的已入座座位
func (c *Context) Others(exclude ...int) []*grimoire.Seat {
	return c.Filter(func(s *grimoire.Seat) bool {
		return !contains(exclude, s.ID)
	})
}

// Pick 随机取一个
func (c *Context) Pick(seats []*grimoire.Seat) *grimoire.Seat {
	if len(seats) == 0 {
		return nil
	}
	return seats[c.Rand.Intn(len(seats))]
}

// PickRole 从剧本中随机取一个指定类型的角色
func (c *Context) PickRole(exclude []string, types ...role.Type) *role.Role {
	var pool []*role.Role
	if c.Script != nil {
		pool = c.Catalog.ScriptRoles(c.Script, types...)
	}
	if len(pool) == 0 {
		for _, r := range c.Catalog.Roles() {
			for _, t := range types {
				if r.Type == t {
					pool = append(pool, r)
				}
			}
		}
	}
	var filtered []*role.Role
	for _, r := range pool {
		if !containsStr(exclude, r.ID) {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered[c.Rand.Intn(len(filtered))]
}

// WrongNumber 返回[0,max]内不同于truth的数
func (c *Context) WrongNumber(truth, max int) int {
	if max < 1 {
		return truth + 1
	}
	n := c.Rand.Intn(max)
	if n >= truth {
		n++
	}
	return n
}

// Ring 按座位顺序排列的已入座座位
func (c *Context) Ring() []*grimoire.Seat {
	return c.Players()
}

// AliveNeighbors 左右最近的存活邻座，跳过假死的僵怖
func (c *Context) AliveNeighbors(id int) []*grimoire.Seat {
	return c.neighbors(id, func(s *grimoire.Seat) bool { return s.RegistersAlive() })
}

// neighbors 两侧第一个满足条件的座位
func (c *Context) neighbors(id int, keep func(s *grimoire.Seat) bool) []*grimoire.Seat {
	ring := c.Ring()
	idx := -1
	for i, s := range ring {
		if s.ID == id {
			idx = i
		}
	}
	if idx < 0 || len(ring) < 2 {
		return nil
	}
	var out []*grimoire.Seat
	for _, step := range []int{-1, 1} {
		for k := 1; k < len(ring); k++ {
			s := ring[((idx+step*k)%len(ring)+len(ring))%len(ring)]
			if keep(s) {
				if len(out) == 0 || out[0].ID != s.ID {
					out = append(out, s)
				}
				break
			}
		}
	}
	return out
}

// NotSelf 不能选择自己
func NotSelf(candidate, actor grimoire.Seat, _ []grimoire.Seat, _ []int) bool {
	return candidate.ID != actor.ID
}

// AliveOnly 只能选择存活者
func AliveOnly(candidate, _ grimoire.Seat, _ []grimoire.Seat, _ []int) bool {
	return candidate.IsAlive()
}

// AliveOther 存活且不是自己
func AliveOther(candidate, actor grimoire.Seat, seats []grimoire.Seat, chosen []int) bool {
	return AliveOnly(candidate, actor, seats, chosen) && NotSelf(candidate, actor, seats, chosen)
}

// DeadOnly 只能选择死者
func DeadOnly(candidate, _ grimoire.Seat, _ []grimoire.Seat, _ []int) bool {
	return candidate.IsDead
}

// NotLastTarget 不能与上次相同
func NotLastTarget(candidate, actor grimoire.Seat, _ []grimoire.Seat, _ []int) bool {
	return !contains(actor.LastTargets, candidate.ID)
}

// All 组合多个条件
func All(preds ...Eligibility) Eligibility {
	return func(candidate, actor grimoire.Seat, seats []grimoire.Seat, chosen []int) bool {
		for _, p := range preds {
			if !p(candidate, actor, seats, chosen) {
				return false
			}
		}
		return true
	}
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsStr(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func seatIDs(seats []*grimoire.Seat) []int {
	out := make([]int, 0, len(seats))
	for _, s := range seats {
		out = append(out, s.ID)
	}
	return out
}

func roleName(s *grimoire.Seat) string {
	if s == nil || s.Role == nil {
		return "nobody"
	}
	return s.Role.Name
}
