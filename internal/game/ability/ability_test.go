package ability

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

func newStore(t *testing.T, ids ...string) *grimoire.Store {
	t.Helper()
	cat := role.MustDefault()
	s := grimoire.NewStore(15)
	for i, id := range ids {
		r, ok := cat.Get(id)
		require.True(t, ok, "角色 %s 不存在", id)
		require.NoError(t, s.SetRole(i, r))
	}
	return s
}

func newContext(s *grimoire.Store, kind Kind, actor int, targets ...int) *Context {
	return &Context{
		Kind:        kind,
		NightCount:  2,
		Seats:       s.Seats(),
		ActorID:     actor,
		Targets:     targets,
		Rand:        rand.New(rand.NewSource(7)),
		Catalog:     role.MustDefault(),
		AliveBefore: s.AliveCount(),
	}
}

func apply(t *testing.T, s *grimoire.Store, res Result) {
	t.Helper()
	require.NoError(t, grimoire.ApplyAll(s, res.Mutations))
}

func hasKill(res Result, id int) bool {
	return killed(&res, id)
}

func TestRegistry_RegisteredRolesExist(t *testing.T) {
	reg := NewRegistry(role.MustDefault())
	for _, id := range reg.Registered() {
		_, ok := reg.Catalog().Get(id)
		assert.True(t, ok, "登记的角色 %s 不在目录中", id)
	}
	_, ok := reg.Behavior(role.Imp, FirstNight)
	assert.False(t, ok, "小恶魔首夜不行动")
	_, ok = reg.Behavior(role.Imp, OtherNight)
	assert.True(t, ok)
	_, ok = reg.Behavior(role.Soldier, OtherNight)
	assert.False(t, ok, "士兵没有主动能力")
}

func TestRegistry_Order(t *testing.T) {
	reg := NewRegistry(role.MustDefault())
	s := newStore(t, role.Poisoner, role.Imp, role.Empath)
	seats := s.Seats()

	pb, _ := reg.Behavior(role.Poisoner, OtherNight)
	ib, _ := reg.Behavior(role.Imp, OtherNight)
	eb, _ := reg.Behavior(role.Empath, OtherNight)
	p := reg.Order(pb, seats[0], OtherNight)
	i := reg.Order(ib, seats[1], OtherNight)
	e := reg.Order(eb, seats[2], OtherNight)
	assert.Less(t, p, i, "投毒者先于恶魔")
	assert.Less(t, i, e, "恶魔先于共情者")
}

func TestBehavior_CanTarget(t *testing.T) {
	reg := NewRegistry(role.MustDefault())
	s := newStore(t, role.Monk, role.Imp, role.Empath)
	seats := s.Seats()
	monk, _ := reg.Behavior(role.Monk, OtherNight)

	assert.False(t, monk.CanTarget(seats[0], seats[0], seats, nil), "僧侣不能保护自己")
	assert.True(t, monk.CanTarget(seats[2], seats[0], seats, nil))
	assert.False(t, monk.CanTarget(seats[2], seats[0], seats, []int{2}), "不能重复选择")
	assert.False(t, monk.CanTarget(seats[9], seats[0], seats, nil), "空座位不能选择")
}

func TestEmpath(t *testing.T) {
	s := newStore(t, role.Imp, role.Empath, role.Poisoner, role.Chef, role.Monk)

	res := empath(newContext(s, OtherNight, 1))
	assert.Equal(t, "2 of your alive neighbours are evil.", res.Hint)

	_, err := s.MarkDead(2, grimoire.CauseDemon)
	require.NoError(t, err)
	res = empath(newContext(s, OtherNight, 1))
	assert.Equal(t, "1 of your alive neighbours are evil.", res.Hint, "跳过死亡的邻座")

	ctx := newContext(s, OtherNight, 1)
	ctx.Disabled = true
	res = empath(ctx)
	assert.NotEqual(t, "1 of your alive neighbours are evil.", res.Hint, "失效时给出错误信息")
}

func TestAttemptKill_Protection(t *testing.T) {
	s := newStore(t, role.Imp, role.Monk, role.Empath, role.Soldier, role.Poisoner)
	require.NoError(t, s.ApplyStatus(2, grimoire.NewEffect(grimoire.StatusProtected, grimoire.ThisNight, grimoire.Ptr(1))))

	res := AttemptKill(newContext(s, OtherNight, 0, 2), 2, grimoire.CauseDemon, false)
	assert.False(t, hasKill(res, 2), "僧侣保护的目标不会死")

	res = AttemptKill(newContext(s, OtherNight, 0, 3), 3, grimoire.CauseDemon, false)
	assert.False(t, hasKill(res, 3), "士兵免疫恶魔")

	require.NoError(t, s.ApplyStatus(3, grimoire.NewEffect(grimoire.StatusPoisoned, grimoire.UntilNextDusk, grimoire.Ptr(4))))
	res = AttemptKill(newContext(s, OtherNight, 0, 3), 3, grimoire.CauseDemon, false)
	assert.True(t, hasKill(res, 3), "中毒的士兵会死")

	res = AttemptKill(newContext(s, OtherNight, 0, 2), 2, grimoire.CauseMinion, false)
	assert.True(t, hasKill(res, 2), "僧侣只防恶魔")
}

func TestAttemptKill_MayorBounce(t *testing.T) {
	s := newStore(t, role.Imp, role.Mayor, role.Empath, role.Chef, role.Poisoner)
	res := AttemptKill(newContext(s, OtherNight, 0, 1), 1, grimoire.CauseDemon, false)
	assert.Empty(t, res.Mutations)
	require.Len(t, res.Interactions, 1)
	assert.Equal(t, TopicMayorBounce, res.Interactions[0].Topic)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.Interactions[0].Options)
}

func TestImp_StarPass(t *testing.T) {
	reg := NewRegistry(role.MustDefault())
	s := newStore(t, role.Imp, role.Poisoner, role.Empath, role.Chef, role.Monk)
	b, _ := reg.Behavior(role.Imp, OtherNight)

	ctx := newContext(s, OtherNight, 0, 0)
	res := b.Handler(ctx)
	apply(t, s, res)
	deaths := s.TakeDeaths()
	require.Len(t, deaths, 1)
	assert.Equal(t, grimoire.CauseStarPass, deaths[0].Cause)

	ctx = newContext(s, OtherNight, 0)
	ctx.AliveBefore = 5
	succ := Succession(ctx, deaths[0])
	apply(t, s, succ)
	seat, _ := s.Seat(1)
	assert.True(t, seat.IsRole(role.Imp), "唯一的爪牙接过恶魔")
	assert.True(t, seat.IsDemonSuccessor)
	assert.True(t, seat.IsEvil())
}

func TestSuccession_ManyMinions(t *testing.T) {
	s := newStore(t, role.Imp, role.Poisoner, role.Spy, role.Chef, role.Monk)
	d, err := s.MarkDead(0, grimoire.CauseStarPass)
	require.NoError(t, err)

	res := Succession(newContext(s, OtherNight, 0), d)
	require.Len(t, res.Interactions, 1)
	req := res.Interactions[0]
	assert.Equal(t, TopicSuccessor, req.Topic)
	assert.Equal(t, role.Imp, req.RoleID)
	assert.ElementsMatch(t, []int{1, 2}, req.Options)

	reg := NewRegistry(role.MustDefault())
	out, err := reg.Resume(newContext(s, OtherNight, 0), req, Payload{SeatIDs: []int{2}})
	require.NoError(t, err)
	apply(t, s, out)
	seat, _ := s.Seat(2)
	assert.True(t, seat.IsRole(role.Imp))
}

func TestSuccession_ScarletWoman(t *testing.T) {
	s := newStore(t, role.Imp, role.ScarletWoman, role.Empath, role.Chef, role.Monk)
	d, err := s.MarkDead(0, grimoire.CauseExecution)
	require.NoError(t, err)

	ctx := newContext(s, Day, 0)
	ctx.AliveBefore = 5
	apply(t, s, Succession(ctx, d))
	seat, _ := s.Seat(1)
	assert.True(t, seat.IsRole(role.Imp), "红唇女郎继任")

	// 存活不足5人时不继任
	s = newStore(t, role.Imp, role.ScarletWoman, role.Empath, role.Chef)
	d, _ = s.MarkDead(0, grimoire.CauseExecution)
	ctx = newContext(s, Day, 0)
	ctx.AliveBefore = 4
	assert.Empty(t, Succession(ctx, d).Mutations)
}

func TestPo_Charge(t *testing.T) {
	reg := NewRegistry(role.MustDefault())
	s := newStore(t, role.Po, role.Empath, role.Chef, role.Monk, role.Poisoner)
	b, _ := reg.Behavior(role.Po, OtherNight)

	seat, _ := s.Seat(0)
	lo, hi := b.TargetBounds(seat)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 1, hi)

	apply(t, s, b.Handler(newContext(s, OtherNight, 0)))
	seat, _ = s.Seat(0)
	assert.Equal(t, 1, seat.Charge)
	_, hi = b.TargetBounds(seat)
	assert.Equal(t, 3, hi, "蓄力后可选3人")

	res := b.Handler(newContext(s, OtherNight, 0, 1, 2, 3))
	require.Len(t, res.Interactions, 1)
	assert.Equal(t, TopicPoKills, res.Interactions[0].Topic)
	apply(t, s, res)
	seat, _ = s.Seat(0)
	assert.Equal(t, 0, seat.Charge)

	out, err := reg.Resume(newContext(s, OtherNight, 0), res.Interactions[0], Payload{SeatIDs: []int{1, 3}})
	require.NoError(t, err)
	assert.True(t, hasKill(out, 1))
	assert.True(t, hasKill(out, 3))
}

func TestFangGu_Jump(t *testing.T) {
	reg := NewRegistry(role.MustDefault())
	s := newStore(t, role.FangGu, role.Mutant, role.Chef, role.Monk, role.Poisoner)
	b, _ := reg.Behavior(role.FangGu, OtherNight)

	apply(t, s, b.Handler(newContext(s, OtherNight, 0, 1)))
	old, _ := s.Seat(0)
	assert.True(t, old.IsDead, "原方古死亡")
	nu, _ := s.Seat(1)
	assert.True(t, nu.IsRole(role.FangGu))
	assert.Equal(t, role.Evil, nu.Alignment)
	assert.Equal(t, 1, nu.Charge)

	// 新方古不会再次跳跃，改为击杀
	res := b.Handler(newContext(s, OtherNight, 1, 2))
	assert.True(t, hasKill(res, 2))
}

func TestPukka_DelayedKill(t *testing.T) {
	reg := NewRegistry(role.MustDefault())
	s := newStore(t, role.Pukka, role.Empath, role.Chef, role.Monk, role.Poisoner)
	b, _ := reg.Behavior(role.Pukka, FirstNight)

	apply(t, s, b.Handler(newContext(s, FirstNight, 0, 1)))
	seat, _ := s.Seat(1)
	assert.True(t, seat.IsPoisoned)
	assert.False(t, seat.IsDead)

	res := b.Handler(newContext(s, OtherNight, 0, 2))
	assert.True(t, hasKill(res, 1), "上一晚的目标死亡")
	apply(t, s, res)
	seat, _ = s.Seat(1)
	assert.False(t, seat.HasStatusFrom(grimoire.StatusPoisoned, 0))
	seat, _ = s.Seat(2)
	assert.True(t, seat.IsPoisoned)
}

func TestNominationHook_Virgin(t *testing.T) {
	s := newStore(t, role.Virgin, role.Chef, role.Spy, role.Imp, role.Empath)

	res, preempt := NominationHook(newContext(s, Day, 1), 1, 0)
	assert.True(t, preempt)
	assert.True(t, hasKill(res, 1))

	s = newStore(t, role.Virgin, role.Chef, role.Spy, role.Imp, role.Empath)
	res, preempt = NominationHook(newContext(s, Day, 2), 2, 0)
	assert.False(t, preempt, "非镇民提名不触发")
	assert.False(t, hasKill(res, 2))
	apply(t, s, res)
	seat, _ := s.Seat(0)
	assert.True(t, seat.AbilityUsed, "能力仍被消耗")
}

func TestResume(t *testing.T) {
	reg := NewRegistry(role.MustDefault())
	s := newStore(t, role.Klutz, role.Chef, role.Imp, role.Empath, role.Poisoner)
	req := Request{Kind: KindSeatChoice, Topic: TopicKlutz, ActorID: 0, Options: []int{1, 2, 3, 4}, Min: 1, Max: 1}

	t.Run("选项之外", func(t *testing.T) {
		_, err := reg.Resume(newContext(s, Day, 0), req, Payload{SeatIDs: []int{0}})
		assert.True(t, errors.Is(err, errors.ErrInvalidTarget))
	})
	t.Run("数量不符", func(t *testing.T) {
		_, err := reg.Resume(newContext(s, Day, 0), req, Payload{SeatIDs: []int{1, 2}})
		assert.True(t, errors.Is(err, errors.ErrInvalidTarget))
	})
	t.Run("呆瓜选中邪恶", func(t *testing.T) {
		res, err := reg.Resume(newContext(s, Day, 0), req, Payload{SeatIDs: []int{2}})
		require.NoError(t, err)
		require.NotNil(t, res.Verdict)
		assert.Equal(t, role.Evil, res.Verdict.Winner)
	})
	t.Run("呆瓜选中善良", func(t *testing.T) {
		res, err := reg.Resume(newContext(s, Day, 0), req, Payload{SeatIDs: []int{3}})
		require.NoError(t, err)
		assert.Nil(t, res.Verdict)
	})
	t.Run("未知主题", func(t *testing.T) {
		_, err := reg.Resume(newContext(s, Day, 0), Request{Kind: KindDeathReport, Topic: TopicNightEnd}, Payload{})
		assert.True(t, errors.Is(err, errors.ErrInteractionMismatch))
	})
}

func TestNoDashiiAura(t *testing.T) {
	s := newStore(t, role.NoDashii, role.Saint, role.Chef, role.Monk, role.Empath)

	apply(t, s, Result{Mutations: NoDashiiAura(newContext(s, OtherNight, 0))})
	chef, _ := s.Seat(2)
	assert.True(t, chef.IsPoisoned, "跳过外来者找到最近的镇民")
	empath, _ := s.Seat(4)
	assert.True(t, empath.IsPoisoned)
	monk, _ := s.Seat(3)
	assert.False(t, monk.IsPoisoned)

	_, err := s.MarkDead(2, grimoire.CauseDemon)
	require.NoError(t, err)
	apply(t, s, Result{Mutations: NoDashiiAura(newContext(s, OtherNight, 0))})
	chef, _ = s.Seat(2)
	assert.False(t, chef.IsPoisoned)
	monk, _ = s.Seat(3)
	assert.True(t, monk.IsPoisoned, "邻座死亡后毒性移到下一位")
}

func TestExecutionSave_Sailor(t *testing.T) {
	s := newStore(t, role.Sailor, role.Imp, role.Chef, role.Monk, role.Poisoner)

	_, saved := ExecutionSave(newContext(s, Day, 0), 0)
	assert.True(t, saved, "健康的水手不会死")

	require.NoError(t, s.ApplyStatus(0, grimoire.NewEffect(grimoire.StatusDrunk, grimoire.UntilNextDusk, grimoire.Ptr(0))))
	_, saved = ExecutionSave(newContext(s, Day, 0), 0)
	assert.False(t, saved, "醉酒的水手会被处决")

	_, saved = ExecutionSave(newContext(s, Day, 2), 2)
	assert.False(t, saved)
}

func TestGambler_Guess(t *testing.T) {
	reg := NewRegistry(role.MustDefault())
	s := newStore(t, role.Gambler, role.Imp, role.Chef, role.Monk, role.Poisoner)
	b, ok := reg.Behavior(role.Gambler, OtherNight)
	require.True(t, ok)
	_, ok = reg.Behavior(role.Gambler, FirstNight)
	assert.False(t, ok, "赌徒首夜不行动")

	res := b.Handler(newContext(s, OtherNight, 0, 1))
	require.Len(t, res.Interactions, 1)
	req := res.Interactions[0]
	assert.Equal(t, KindRoleChoice, req.Kind)
	assert.Equal(t, TopicGambler, req.Topic)
	assert.Equal(t, []int{1}, req.Data)
	assert.Contains(t, req.Roles, role.Imp)

	out, err := reg.Resume(newContext(s, OtherNight, 0), req, Payload{RoleID: role.Imp})
	require.NoError(t, err)
	assert.False(t, hasKill(out, 0), "猜对不死")

	out, err = reg.Resume(newContext(s, OtherNight, 0), req, Payload{RoleID: role.Chef})
	require.NoError(t, err)
	assert.True(t, hasKill(out, 0), "猜错死亡")

	_, err = reg.Resume(newContext(s, OtherNight, 0), req, Payload{RoleID: "nobody"})
	assert.True(t, errors.Is(err, errors.ErrInvalidTarget))
}

func TestNeighbors_FeignedZombuul(t *testing.T) {
	s := newStore(t, role.Empath, role.Zombuul, role.Chef, role.Monk, role.Poisoner)
	res := empath(newContext(s, OtherNight, 0))
	assert.Equal(t, "2 of your alive neighbours are evil.", res.Hint)

	d, err := s.MarkDead(1, grimoire.CauseExecution)
	require.NoError(t, err)
	require.True(t, d.Feigned)
	res = empath(newContext(s, OtherNight, 0))
	assert.Equal(t, "1 of your alive neighbours are evil.", res.Hint, "假死的僵怖按死亡计")

	s = newStore(t, role.TeaLady, role.Zombuul, role.Chef, role.Monk, role.Empath)
	assert.False(t, TeaLadyProtects(s.Seats(), 4), "邻座是邪恶时不保护")
	_, err = s.MarkDead(1, grimoire.CauseExecution)
	require.NoError(t, err)
	assert.True(t, TeaLadyProtects(s.Seats(), 4))
	assert.True(t, TeaLadyProtects(s.Seats(), 2))
}
