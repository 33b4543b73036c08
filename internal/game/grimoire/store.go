package grimoire

import (
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/role"
)

// Cause 死亡原因
type Cause string

const (
	CauseDemon       Cause = "demon"
	CauseMinion      Cause = "minion"
	CauseAbility     Cause = "ability"
	CauseExecution   Cause = "execution"
	CauseVirgin      Cause = "virgin"
	CauseWitch       Cause = "witch"
	CauseStarPass    Cause = "star_pass"
	CauseStoryteller Cause = "storyteller"
)

// Death 死亡记录
type Death struct {
	SeatID  int   `json:"seat_id"`
	Cause   Cause `json:"cause"`
	Feigned bool  `json:"feigned"`
}

// Store 座位仓库，所有修改都经过命名操作
type Store struct {
	seats   []Seat
	version uint64
	deaths  []Death
}

// NewStore 创建固定数量的空座位
func NewStore(n int) *Store {
	s := &Store{seats: make([]Seat, n)}
	for i := range s.seats {
		s.seats[i].ID = i
	}
	return s
}

// Len 座位数
func (s *Store) Len() int {
	return len(s.seats)
}

// Version 修改版本号
func (s *Store) Version() uint64 {
	return s.version
}

// Seat 返回座位副本
func (s *Store) Seat(id int) (Seat, bool) {
	if id < 0 || id >= len(s.seats) {
		return Seat{}, false
	}
	return s.seats[id].Clone(), true
}

// Seats 返回全部座位副本
func (s *Store) Seats() []Seat {
	return CloneSeats(s.seats)
}

// InPlay 已分配角色的座位副本
func (s *Store) InPlay() []Seat {
	var out []Seat
	for i := range s.seats {
		if s.seats[i].InPlay() {
			out = append(out, s.seats[i].Clone())
		}
	}
	return out
}

// AliveCount 存活人数（含假死）
func (s *Store) AliveCount() int {
	return AliveCount(s.seats)
}

// Restore 用快照覆盖全部座位
func (s *Store) Restore(seats []Seat) {
	s.seats = CloneSeats(seats)
	s.deaths = nil
	s.version++
}

// TakeDeaths 取出并清空死亡记录
func (s *Store) TakeDeaths() []Death {
	d := s.deaths
	s.deaths = nil
	return d
}

func (s *Store) get(id int) (*Seat, error) {
	if id < 0 || id >= len(s.seats) {
		return nil, errors.Newf(errors.ErrSeatNotFound, "seat %d", id)
	}
	return &s.seats[id], nil
}

func (s *Store) touch(seat *Seat) {
	refresh(seat)
	s.version++
}

// MarkDead 标记死亡，僵怖首次死亡转为假死
func (s *Store) MarkDead(id int, cause Cause) (Death, error) {
	seat, err := s.get(id)
	if err != nil {
		return Death{}, err
	}
	d := Death{SeatID: id, Cause: cause}
	switch {
	case seat.IsFeigning():
		seat.IsZombuulTrulyDead = true
		seat.HasGhostVote = true
	case seat.IsDead:
		return Death{}, nil
	case seat.IsRole(role.Zombuul) && !seat.IsFirstDeathForZombuul:
		seat.IsDead = true
		seat.IsFirstDeathForZombuul = true
		d.Feigned = true
	default:
		seat.IsDead = true
		seat.HasGhostVote = true
	}
	s.deaths = append(s.deaths, d)
	s.touch(seat)
	return d, nil
}

// Revive 复活，清除非永久状态
func (s *Store) Revive(id int) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	if !seat.IsDead {
		return nil
	}
	seat.IsDead = false
	seat.IsZombuulTrulyDead = false
	seat.HasGhostVote = false
	rebuild(seat, func(StatusEffect) (StatusEffect, bool) { return StatusEffect{}, false })
	s.touch(seat)
	return nil
}

// ApplyStatus 添加状态，同种类同来源的旧标记被替换
func (s *Store) ApplyStatus(id int, e StatusEffect) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	kept := seat.StatusEffects[:0:0]
	for _, old := range seat.StatusEffects {
		if old.Kind == e.Kind && old.SameSource(e.SourceID) {
			continue
		}
		kept = append(kept, old)
	}
	seat.StatusEffects = append(kept, e)
	s.touch(seat)
	return nil
}

// ClearStatus 显式移除状态（含永久标记），source为nil时移除该种类全部标记
func (s *Store) ClearStatus(id int, kind StatusKind, source *int) (int, error) {
	seat, err := s.get(id)
	if err != nil {
		return 0, err
	}
	removed := 0
	var kept []StatusEffect
	for _, e := range seat.StatusEffects {
		if e.Kind == kind && (source == nil || e.SameSource(source)) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0, nil
	}
	seat.StatusEffects = kept
	s.touch(seat)
	return removed, nil
}

// SetRole 更换角色，清除非永久状态与能力使用记录
func (s *Store) SetRole(id int, r *role.Role) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	if seat.Role == nil && r != nil {
		seat.Alignment = r.Alignment()
	}
	seat.Role = r
	seat.CharadeRole = nil
	seat.AbilityUsed = false
	seat.Charge = 0
	seat.LastTargets = nil
	seat.Guesses = nil
	rebuild(seat, func(StatusEffect) (StatusEffect, bool) { return StatusEffect{}, false })
	s.touch(seat)
	return nil
}

// SetDisplayRole 设置展示角色
func (s *Store) SetDisplayRole(id int, r *role.Role) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.DisplayRole = r
	s.touch(seat)
	return nil
}

// SetCharadeRole 设置伪装角色（酒鬼、疯子）
func (s *Store) SetCharadeRole(id int, r *role.Role) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.CharadeRole = r
	s.touch(seat)
	return nil
}

// SetAlignment 设置阵营
func (s *Store) SetAlignment(id int, a role.Alignment) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.Alignment = a
	s.touch(seat)
	return nil
}

// SetSuccessor 标记为继任恶魔
func (s *Store) SetSuccessor(id int, v bool) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.IsDemonSuccessor = v
	s.touch(seat)
	return nil
}

// SpendAbility 标记一次性能力已使用
func (s *Store) SpendAbility(id int) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.AbilityUsed = true
	s.touch(seat)
	return nil
}

// RestoreAbility 恢复一次性能力
func (s *Store) RestoreAbility(id int) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.AbilityUsed = false
	s.touch(seat)
	return nil
}

// MarkNominated 标记已被提名
func (s *Store) MarkNominated(id int) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.HasBeenNominated = true
	s.touch(seat)
	return nil
}

// SetGhostVote 设置幽灵票
func (s *Store) SetGhostVote(id int, v bool) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.HasGhostVote = v
	s.touch(seat)
	return nil
}

// SetMaster 设置管家的主人
func (s *Store) SetMaster(id int, master *int) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.MasterID = clonePtr(master)
	s.touch(seat)
	return nil
}

// SetTwin 设置双子关联
func (s *Store) SetTwin(id int, twin *int) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.TwinID = clonePtr(twin)
	s.touch(seat)
	return nil
}

// SetCharge 设置计数（珀的蓄力、方古的转化）
func (s *Store) SetCharge(id, n int) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.Charge = n
	s.touch(seat)
	return nil
}

// SetLastTargets 记录上一次的目标
func (s *Store) SetLastTargets(id int, targets []int) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.LastTargets = append([]int(nil), targets...)
	s.touch(seat)
	return nil
}

// SetGuesses 记录猜测
func (s *Store) SetGuesses(id int, guesses []Guess) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.Guesses = append([]Guess(nil), guesses...)
	s.touch(seat)
	return nil
}

// SetName 设置玩家名
func (s *Store) SetName(id int, name string) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.Name = name
	s.touch(seat)
	return nil
}

// AddNote 追加备注
func (s *Store) AddNote(id int, note string) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	seat.Notes = append(seat.Notes, note)
	s.touch(seat)
	return nil
}

// ClearSeat 清空座位
func (s *Store) ClearSeat(id int) error {
	seat, err := s.get(id)
	if err != nil {
		return err
	}
	name := seat.Name
	*seat = Seat{ID: id, Name: name}
	s.version++
	return nil
}

// Reset 清空全部座位
func (s *Store) Reset() {
	for i := range s.seats {
		s.seats[i] = Seat{ID: i}
	}
	s.deaths = nil
	s.version++
}

// DawnSweep 黎明清理：移除仅限今晚的标记
func (s *Store) DawnSweep() {
	for i := range s.seats {
		seat := &s.seats[i]
		rebuild(seat, func(e StatusEffect) (StatusEffect, bool) {
			return e, e.Duration != ThisNight
		})
		refresh(seat)
	}
	s.version++
}

// DuskSweep 黄昏清理：移除到黄昏为止的标记，多日标记递减
func (s *Store) DuskSweep() {
	for i := range s.seats {
		seat := &s.seats[i]
		rebuild(seat, func(e StatusEffect) (StatusEffect, bool) {
			switch e.Duration {
			case UntilNextDusk:
				return e, false
			case Days:
				e.RemainingDays--
				return e, e.RemainingDays > 0
			}
			return e, true
		})
		refresh(seat)
	}
	s.version++
}

// rebuild 重建状态列表，永久标记总是保留
func rebuild(seat *Seat, keep func(StatusEffect) (StatusEffect, bool)) {
	var kept []StatusEffect
	for _, e := range seat.StatusEffects {
		if e.Duration == Permanent {
			kept = append(kept, e)
			continue
		}
		if next, ok := keep(e); ok {
			kept = append(kept, next)
		}
	}
	seat.StatusEffects = kept
}

// refresh 从状态列表同步布尔标记与描述
func refresh(seat *Seat) {
	seat.IsPoisoned = false
	seat.IsDrunk = seat.IsRole(role.Drunk)
	seat.IsProtected = false
	seat.ProtectedBy = nil
	seat.StatusDetails = nil
	for _, e := range seat.StatusEffects {
		switch e.Kind {
		case StatusPoisoned:
			seat.IsPoisoned = true
		case StatusDrunk:
			seat.IsDrunk = true
		case StatusProtected, StatusShielded:
			seat.IsProtected = true
			seat.ProtectedBy = clonePtr(e.SourceID)
		}
		seat.StatusDetails = append(seat.StatusDetails, e.String())
	}
}

// AliveCount 存活人数（含假死）
func AliveCount(seats []Seat) int {
	n := 0
	for i := range seats {
		if seats[i].IsAlive() {
			n++
		}
	}
	return n
}
