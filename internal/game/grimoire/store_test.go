package grimoire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/role"
)

func mustRole(t *testing.T, id string) *role.Role {
	t.Helper()
	r, ok := role.MustDefault().Get(id)
	require.True(t, ok, "角色 %s 不存在", id)
	return r
}

func newTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	s := NewStore(15)
	for i, id := range ids {
		require.NoError(t, s.SetRole(i, mustRole(t, id)))
	}
	return s
}

func TestStore_MarkDead(t *testing.T) {
	s := newTestStore(t, role.Imp, role.Empath, role.Zombuul)

	d, err := s.MarkDead(1, CauseDemon)
	require.NoError(t, err)
	assert.False(t, d.Feigned)
	seat, _ := s.Seat(1)
	assert.True(t, seat.IsDead)
	assert.True(t, seat.HasGhostVote)
	assert.False(t, seat.IsAlive())

	// 重复死亡无效果
	d, err = s.MarkDead(1, CauseDemon)
	require.NoError(t, err)
	assert.Equal(t, Death{}, d)
	assert.Len(t, s.TakeDeaths(), 1)

	_, err = s.MarkDead(99, CauseDemon)
	assert.True(t, errors.Is(err, errors.ErrSeatNotFound))
}

func TestStore_ZombuulFeignDeath(t *testing.T) {
	s := newTestStore(t, role.Zombuul, role.Empath, role.Chef)

	d, err := s.MarkDead(0, CauseExecution)
	require.NoError(t, err)
	assert.True(t, d.Feigned)

	seat, _ := s.Seat(0)
	assert.True(t, seat.IsDead, "假死时看起来是死亡的")
	assert.True(t, seat.IsFeigning())
	assert.True(t, seat.IsAlive(), "假死计为存活")
	assert.Equal(t, 3, s.AliveCount())

	d, err = s.MarkDead(0, CauseExecution)
	require.NoError(t, err)
	assert.False(t, d.Feigned)
	seat, _ = s.Seat(0)
	assert.True(t, seat.IsZombuulTrulyDead)
	assert.False(t, seat.IsAlive())
	assert.Equal(t, 2, s.AliveCount())
}

func TestStore_Sweeps(t *testing.T) {
	s := newTestStore(t, role.Poisoner, role.Empath, role.Monk, role.Chef)
	src := Ptr(0)

	require.NoError(t, s.ApplyStatus(1, NewEffect(StatusPoisoned, UntilNextDusk, src)))
	require.NoError(t, s.ApplyStatus(1, NewEffect(StatusProtected, ThisNight, Ptr(2))))
	require.NoError(t, s.ApplyStatus(3, ForDays(StatusDrunk, 2, nil)))
	require.NoError(t, s.ApplyStatus(3, NewEffect(StatusRedHerring, Permanent, nil)))

	seat, _ := s.Seat(1)
	assert.True(t, seat.IsPoisoned)
	assert.True(t, seat.IsProtected)
	require.NotNil(t, seat.ProtectedBy)
	assert.Equal(t, 2, *seat.ProtectedBy)
	assert.Len(t, seat.StatusDetails, 2)

	s.DawnSweep()
	seat, _ = s.Seat(1)
	assert.True(t, seat.IsPoisoned, "到黄昏为止的中毒在黎明保留")
	assert.False(t, seat.IsProtected, "仅限今晚的保护在黎明清除")
	assert.Nil(t, seat.ProtectedBy)

	s.DuskSweep()
	seat, _ = s.Seat(1)
	assert.False(t, seat.IsPoisoned)

	seat, _ = s.Seat(3)
	assert.True(t, seat.IsDrunk, "两日醉酒在第一个黄昏后保留")
	s.DuskSweep()
	seat, _ = s.Seat(3)
	assert.False(t, seat.IsDrunk)
	assert.True(t, seat.HasStatus(StatusRedHerring))
}

func TestStore_PermanentMarksSurvive(t *testing.T) {
	s := newTestStore(t, role.Imp, role.SnakeCharmer, role.Empath)
	require.NoError(t, s.ApplyStatus(1, NewEffect(StatusPoisoned, Permanent, nil)))
	require.NoError(t, s.ApplyStatus(1, NewEffect(StatusDrunk, ThisNight, nil)))

	cases := []struct {
		name string
		op   func()
	}{
		{"黎明清理", s.DawnSweep},
		{"黄昏清理", s.DuskSweep},
		{"死亡后复活", func() {
			_, _ = s.MarkDead(1, CauseDemon)
			_ = s.Revive(1)
		}},
		{"角色转换", func() { _ = s.SetRole(1, mustRole(t, role.Imp)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.op()
			seat, _ := s.Seat(1)
			assert.True(t, seat.IsPoisoned)
			assert.True(t, seat.HasStatus(StatusPoisoned))
		})
	}

	// 说书人显式移除
	n, err := s.ClearStatus(1, StatusPoisoned, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	seat, _ := s.Seat(1)
	assert.False(t, seat.IsPoisoned)
}

func TestStore_ApplyStatusReplacesSameSource(t *testing.T) {
	s := newTestStore(t, role.Poisoner, role.Empath)
	require.NoError(t, s.ApplyStatus(1, NewEffect(StatusPoisoned, ThisNight, Ptr(0))))
	require.NoError(t, s.ApplyStatus(1, NewEffect(StatusPoisoned, UntilNextDusk, Ptr(0))))
	require.NoError(t, s.ApplyStatus(1, NewEffect(StatusPoisoned, UntilNextDusk, nil)))

	seat, _ := s.Seat(1)
	assert.Len(t, seat.StatusEffects, 2)
}

func TestStore_SetRole(t *testing.T) {
	s := newTestStore(t, role.Drunk, role.Empath)
	seat, _ := s.Seat(0)
	assert.True(t, seat.IsDrunk, "酒鬼始终醉酒")
	assert.Equal(t, role.Good, seat.Alignment)

	require.NoError(t, s.SetCharadeRole(0, mustRole(t, role.Empath)))
	require.NoError(t, s.SpendAbility(0))
	require.NoError(t, s.SetRole(0, mustRole(t, role.Imp)))
	seat, _ = s.Seat(0)
	assert.False(t, seat.IsDrunk)
	assert.Nil(t, seat.CharadeRole)
	assert.False(t, seat.AbilityUsed)
	assert.Equal(t, role.Good, seat.Alignment, "换角色保留原阵营")
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := newTestStore(t, role.Imp, role.Empath)
	require.NoError(t, s.ApplyStatus(1, NewEffect(StatusPoisoned, UntilNextDusk, Ptr(0))))
	snap := s.Seats()

	snap[1].StatusEffects[0].Kind = StatusDrunk
	*snap[1].StatusEffects[0].SourceID = 7

	seat, _ := s.Seat(1)
	assert.Equal(t, StatusPoisoned, seat.StatusEffects[0].Kind)
	assert.Equal(t, 0, *seat.StatusEffects[0].SourceID)

	v := s.Version()
	s.Restore(snap)
	assert.Greater(t, s.Version(), v)
	seat, _ = s.Seat(1)
	assert.Equal(t, StatusDrunk, seat.StatusEffects[0].Kind)
}

func TestMutations(t *testing.T) {
	s := newTestStore(t, role.EvilTwin, role.Empath, role.ScarletWoman, role.Imp)

	err := ApplyAll(s, []Mutation{
		LinkTwins{EvilID: 0, GoodID: 1},
		PromoteSuccessor{SeatID: 2, Demon: mustRole(t, role.Imp)},
		SwapRoles{A: 1, B: 3, SwapAligned: true},
		AssignMaster{SeatID: 1, MasterID: 0},
		Note{SeatID: 1, Text: "mad as chef"},
	})
	require.NoError(t, err)

	seats := s.Seats()
	assert.Equal(t, 1, *seats[0].TwinID)
	assert.Equal(t, 0, *seats[1].TwinID)
	assert.True(t, seats[2].IsRole(role.Imp))
	assert.True(t, seats[2].IsDemonSuccessor)
	assert.True(t, seats[2].IsEvil())
	assert.True(t, seats[1].IsRole(role.Imp))
	assert.Equal(t, role.Evil, seats[1].Alignment)
	assert.True(t, seats[3].IsRole(role.Empath))
	assert.Equal(t, role.Good, seats[3].Alignment)
	assert.Equal(t, []string{"mad as chef"}, seats[1].Notes)
}
