package grimoire

import (
	"fmt"

	"github.com/wfunc/grimoire/internal/game/role"
)

// Mutation 声明式座位修改，由引擎统一应用
type Mutation interface {
	Apply(s *Store) error
	String() string
}

// Kill 标记死亡
type Kill struct {
	SeatID int
	Cause  Cause
}

func (m Kill) Apply(s *Store) error {
	_, err := s.MarkDead(m.SeatID, m.Cause)
	return err
}

func (m Kill) String() string { return fmt.Sprintf("kill seat %d (%s)", m.SeatID, m.Cause) }

// Resurrect 复活
type Resurrect struct {
	SeatID int
}

func (m Resurrect) Apply(s *Store) error { return s.Revive(m.SeatID) }

func (m Resurrect) String() string { return fmt.Sprintf("revive seat %d", m.SeatID) }

// AddStatus 添加状态
type AddStatus struct {
	SeatID int
	Effect StatusEffect
}

func (m AddStatus) Apply(s *Store) error { return s.ApplyStatus(m.SeatID, m.Effect) }

func (m AddStatus) String() string { return fmt.Sprintf("seat %d gains %s", m.SeatID, m.Effect) }

// RemoveStatus 移除状态
type RemoveStatus struct {
	SeatID   int
	Kind     StatusKind
	SourceID *int
}

func (m RemoveStatus) Apply(s *Store) error {
	_, err := s.ClearStatus(m.SeatID, m.Kind, m.SourceID)
	return err
}

func (m RemoveStatus) String() string { return fmt.Sprintf("seat %d loses %s", m.SeatID, m.Kind) }

// ChangeRole 更换角色
type ChangeRole struct {
	SeatID int
	Role   *role.Role
}

func (m ChangeRole) Apply(s *Store) error { return s.SetRole(m.SeatID, m.Role) }

func (m ChangeRole) String() string {
	return fmt.Sprintf("seat %d becomes %s", m.SeatID, roleName(m.Role))
}

// ChangeCharade 设置伪装角色
type ChangeCharade struct {
	SeatID int
	Role   *role.Role
}

func (m ChangeCharade) Apply(s *Store) error { return s.SetCharadeRole(m.SeatID, m.Role) }

func (m ChangeCharade) String() string {
	return fmt.Sprintf("seat %d believes they are %s", m.SeatID, roleName(m.Role))
}

// ChangeAlignment 更换阵营
type ChangeAlignment struct {
	SeatID    int
	Alignment role.Alignment
}

func (m ChangeAlignment) Apply(s *Store) error { return s.SetAlignment(m.SeatID, m.Alignment) }

func (m ChangeAlignment) String() string {
	return fmt.Sprintf("seat %d turns %s", m.SeatID, m.Alignment)
}

// PromoteSuccessor 成为继任恶魔
type PromoteSuccessor struct {
	SeatID int
	Demon  *role.Role
}

func (m PromoteSuccessor) Apply(s *Store) error {
	if err := s.SetRole(m.SeatID, m.Demon); err != nil {
		return err
	}
	if err := s.SetAlignment(m.SeatID, role.Evil); err != nil {
		return err
	}
	return s.SetSuccessor(m.SeatID, true)
}

func (m PromoteSuccessor) String() string {
	return fmt.Sprintf("seat %d becomes the %s", m.SeatID, roleName(m.Demon))
}

// SpendAbility 消耗一次性能力
type SpendAbility struct {
	SeatID int
}

func (m SpendAbility) Apply(s *Store) error { return s.SpendAbility(m.SeatID) }

func (m SpendAbility) String() string { return fmt.Sprintf("seat %d spends their ability", m.SeatID) }

// AssignMaster 设置主人
type AssignMaster struct {
	SeatID   int
	MasterID int
}

func (m AssignMaster) Apply(s *Store) error { return s.SetMaster(m.SeatID, Ptr(m.MasterID)) }

func (m AssignMaster) String() string {
	return fmt.Sprintf("seat %d serves seat %d", m.SeatID, m.MasterID)
}

// LinkTwins 关联双子
type LinkTwins struct {
	EvilID int
	GoodID int
}

func (m LinkTwins) Apply(s *Store) error {
	if err := s.SetTwin(m.EvilID, Ptr(m.GoodID)); err != nil {
		return err
	}
	return s.SetTwin(m.GoodID, Ptr(m.EvilID))
}

func (m LinkTwins) String() string {
	return fmt.Sprintf("seats %d and %d are twins", m.EvilID, m.GoodID)
}

// Charge 设置计数
type Charge struct {
	SeatID int
	Value  int
}

func (m Charge) Apply(s *Store) error { return s.SetCharge(m.SeatID, m.Value) }

func (m Charge) String() string { return fmt.Sprintf("seat %d charge %d", m.SeatID, m.Value) }

// Remember 记录本次目标
type Remember struct {
	SeatID  int
	Targets []int
}

func (m Remember) Apply(s *Store) error { return s.SetLastTargets(m.SeatID, m.Targets) }

func (m Remember) String() string {
	return fmt.Sprintf("seat %d remembers %v", m.SeatID, m.Targets)
}

// RecordGuesses 记录猜测
type RecordGuesses struct {
	SeatID  int
	Guesses []Guess
}

func (m RecordGuesses) Apply(s *Store) error { return s.SetGuesses(m.SeatID, m.Guesses) }

func (m RecordGuesses) String() string {
	return fmt.Sprintf("seat %d records %d guesses", m.SeatID, len(m.Guesses))
}

// Note 追加备注
type Note struct {
	SeatID int
	Text   string
}

func (m Note) Apply(s *Store) error { return s.AddNote(m.SeatID, m.Text) }

func (m Note) String() string { return fmt.Sprintf("seat %d: %s", m.SeatID, m.Text) }

// SwapRoles 交换两个座位的角色与阵营
type SwapRoles struct {
	A, B        int
	SwapAligned bool
}

func (m SwapRoles) Apply(s *Store) error {
	a, err := s.get(m.A)
	if err != nil {
		return err
	}
	b, err := s.get(m.B)
	if err != nil {
		return err
	}
	ra, rb := a.Role, b.Role
	aa, ab := a.Alignment, b.Alignment
	if err := s.SetRole(m.A, rb); err != nil {
		return err
	}
	if err := s.SetRole(m.B, ra); err != nil {
		return err
	}
	if m.SwapAligned {
		if err := s.SetAlignment(m.A, ab); err != nil {
			return err
		}
		return s.SetAlignment(m.B, aa)
	}
	return nil
}

func (m SwapRoles) String() string { return fmt.Sprintf("seats %d and %d swap characters", m.A, m.B) }

// ApplyAll 按顺序应用
func ApplyAll(s *Store, ms []Mutation) error {
	for _, m := range ms {
		if err := m.Apply(s); err != nil {
			return err
		}
	}
	return nil
}

func roleName(r *role.Role) string {
	if r == nil {
		return "nobody"
	}
	return r.Name
}
