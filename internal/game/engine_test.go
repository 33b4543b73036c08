package game

import (
	"encoding/json"
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

// 标准七人局：恶魔、红唇女郎与五名善良玩家
var sevenPlayers = []string{
	role.Imp, role.ScarletWoman, role.Chef, role.Empath, role.Virgin, role.Soldier, role.Saint,
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Options{Seed: 42})
	require.NoError(t, err)
	return e
}

// setupGame 选择暗流涌动、分配角色并进入首夜
func setupGame(t *testing.T, roles ...string) *Engine {
	t.Helper()
	e := newEngine(t)
	require.NoError(t, e.SelectScript("tb"))
	for i, r := range roles {
		require.NoError(t, e.AssignRole(i, r))
	}
	require.NoError(t, e.BeginCheck())
	require.Nil(t, e.Pending())
	require.NoError(t, e.StartNight(true))
	return e
}

// finishNight 依次确认每个行动者，picks指定座位的目标
func finishNight(t *testing.T, e *Engine, picks map[int][]int) {
	t.Helper()
	for {
		id, ok := e.CurrentSeat()
		if !ok {
			break
		}
		for _, target := range picks[id] {
			require.NoError(t, e.SelectTarget(target))
		}
		require.NoError(t, e.ConfirmAction())
	}
	require.Equal(t, PhaseDawnReport, e.Phase())
}

// toDusk 宣布死亡并进入黄昏
func toDusk(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.ResolveInteraction(ability.KindDeathReport, ability.Payload{}))
	require.NoError(t, e.AdvanceToDay())
	require.NoError(t, e.OpenDusk())
}

func seatOf(t *testing.T, e *Engine, id int) grimoire.Seat {
	t.Helper()
	s, ok := e.Seat(id)
	require.True(t, ok)
	return s
}

func TestScenarios(t *testing.T) {
	t.Run("恶魔夜杀无保护的镇民", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)
		require.NoError(t, e.StartNight(false))
		assert.Equal(t, PhaseNight, e.Phase())
		assert.Equal(t, 2, e.NightCount())

		finishNight(t, e, map[int][]int{0: {4}})
		assert.True(t, seatOf(t, e, 4).IsDead)
		assert.Equal(t, []int{4}, e.Snapshot().Night.Dead)
		require.NotNil(t, e.Pending())
		assert.Equal(t, ability.KindDeathReport, e.Pending().Kind)
		assert.Equal(t, []int{4}, e.Pending().Options)
		assert.Nil(t, e.Verdict())
	})

	t.Run("只剩恶魔与另一人时邪恶获胜", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		require.NoError(t, e.ResolveInteraction(ability.KindDeathReport, ability.Payload{}))
		require.NoError(t, e.AdvanceToDay())

		for _, id := range []int{1, 2, 3, 4, 5} {
			require.NoError(t, e.ToggleSeatStatus(ToggleDead, id))
		}
		assert.Equal(t, PhaseGameOver, e.Phase())
		require.NotNil(t, e.Verdict())
		assert.Equal(t, role.Evil, e.Verdict().Winner)
		assert.Equal(t, grimoire.ReasonTwoAlive, e.Verdict().Reason)

		err := e.OpenDusk()
		assert.True(t, errors.Is(err, errors.ErrGameOver))
	})

	t.Run("镇民提名贞洁者立即被处决", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)

		require.NoError(t, e.Nominate(3, 4))
		assert.True(t, seatOf(t, e, 3).IsDead)
		assert.True(t, seatOf(t, e, 4).HasBeenNominated)
		assert.True(t, seatOf(t, e, 4).AbilityUsed)

		err := e.SubmitVote(4, 5)
		assert.True(t, errors.Is(err, errors.ErrNominationRejected))
		assert.Empty(t, e.Votes())
		assert.Nil(t, e.Verdict())
	})

	t.Run("恶魔被处决时红唇女郎继任", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)

		require.NoError(t, e.Nominate(2, 0))
		require.NoError(t, e.SubmitVote(0, 4))
		require.NoError(t, e.ExecuteJudgment())

		assert.True(t, seatOf(t, e, 0).IsDead)
		sw := seatOf(t, e, 1)
		assert.True(t, sw.IsDemonSuccessor)
		assert.Equal(t, role.Imp, sw.Role.ID)
		assert.Nil(t, e.Verdict())
		assert.Equal(t, PhaseDusk, e.Phase())
	})

	t.Run("中毒的投毒者行动无效", func(t *testing.T) {
		e := setupGame(t, role.Imp, role.Poisoner, role.Chef, role.Empath, role.Virgin, role.Soldier, role.Saint)
		id, ok := e.CurrentSeat()
		require.True(t, ok)
		require.Equal(t, 1, id)

		require.NoError(t, e.ToggleSeatStatus(TogglePoisoned, 1))
		require.NoError(t, e.SelectTarget(3))
		require.NoError(t, e.ConfirmAction())

		assert.False(t, seatOf(t, e, 3).IsPoisoned)
		next, ok := e.CurrentSeat()
		require.True(t, ok)
		assert.NotEqual(t, 1, next)

		found := false
		for _, l := range e.Logs() {
			if strings.Contains(l.Message, "no effect") {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestSetup(t *testing.T) {
	t.Run("未知剧本", func(t *testing.T) {
		e := newEngine(t)
		err := e.SelectScript("missing")
		assert.True(t, errors.Is(err, errors.ErrScriptNotFound))
		assert.Equal(t, PhaseScriptSelection, e.Phase())
	})

	t.Run("同一角色不能分配两次", func(t *testing.T) {
		e := newEngine(t)
		require.NoError(t, e.SelectScript("tb"))
		require.NoError(t, e.AssignRole(0, role.Imp))
		err := e.AssignRole(1, role.Imp)
		assert.True(t, errors.Is(err, errors.ErrInvalidTarget))
		assert.Nil(t, seatOf(t, e, 1).Role)
	})

	t.Run("阶段不符时拒绝", func(t *testing.T) {
		e := newEngine(t)
		err := e.AssignRole(0, role.Imp)
		assert.True(t, errors.Is(err, errors.ErrIllegalPhase))
		err = e.StartNight(true)
		assert.True(t, errors.Is(err, errors.ErrIllegalPhase))
	})

	t.Run("取消核对回到分配阶段", func(t *testing.T) {
		e := newEngine(t)
		require.NoError(t, e.SelectScript("tb"))
		for i, r := range sevenPlayers {
			require.NoError(t, e.AssignRole(i, r))
		}
		require.NoError(t, e.BeginCheck())
		assert.Equal(t, PhaseCheck, e.Phase())
		require.NoError(t, e.CancelCheck())
		assert.Equal(t, PhaseSetup, e.Phase())
		assert.Empty(t, e.Warnings())
	})

	t.Run("重置清空座位", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		oldID := e.View().GameID
		e.Reset()
		assert.Equal(t, PhaseScriptSelection, e.Phase())
		assert.Empty(t, e.Snapshot().Logs)
		assert.Nil(t, seatOf(t, e, 0).Role)
		assert.NotEqual(t, oldID, e.View().GameID)
	})
}

func TestHistory(t *testing.T) {
	t.Run("回退恢复到操作前的快照", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)

		before := e.Snapshot()
		require.NoError(t, e.Nominate(2, 0))
		require.NoError(t, e.SubmitVote(0, 4))
		require.NoError(t, e.StepBack())
		require.NoError(t, e.StepBack())
		assert.Equal(t, before, e.Snapshot())
	})

	t.Run("没有历史时回退失败", func(t *testing.T) {
		e := newEngine(t)
		err := e.StepBack()
		assert.True(t, errors.Is(err, errors.ErrHistoryEmpty))
	})

	t.Run("被拒绝的操作不改变状态", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		before := e.Snapshot()
		err := e.SelectTarget(99)
		assert.Error(t, err)
		assert.Equal(t, before, e.Snapshot())
	})

	t.Run("交互只能解决一次", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		require.NoError(t, e.ResolveInteraction(ability.KindDeathReport, ability.Payload{}))
		err := e.ResolveInteraction(ability.KindDeathReport, ability.Payload{})
		assert.True(t, errors.Is(err, errors.ErrNoInteraction))
	})

	t.Run("交互种类不符", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		err := e.ResolveInteraction(ability.KindSeatChoice, ability.Payload{SeatIDs: []int{1}})
		assert.True(t, errors.Is(err, errors.ErrInteractionMismatch))
		assert.NotNil(t, e.Pending())
	})

	t.Run("等待交互时拒绝其他操作", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		err := e.AdvanceToDay()
		assert.True(t, errors.Is(err, errors.ErrInteractionPending))
	})

	t.Run("快照经JSON恢复到新引擎", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)
		require.NoError(t, e.Nominate(2, 0))

		b, err := json.Marshal(e.Snapshot())
		require.NoError(t, err)
		var snap Snapshot
		require.NoError(t, json.Unmarshal(b, &snap))

		restored := newEngine(t)
		require.NoError(t, restored.Restore(snap))
		again, err := json.Marshal(restored.Snapshot())
		require.NoError(t, err)
		assert.JSONEq(t, string(b), string(again))
		assert.Equal(t, PhaseDusk, restored.Phase())
		assert.Equal(t, 0, restored.HistoryLen())

		require.NoError(t, restored.SubmitVote(0, 4))
		require.NoError(t, restored.ExecuteJudgment())
		assert.True(t, seatOf(t, restored, 1).IsDemonSuccessor)
	})

	t.Run("座位数不同的快照被拒绝", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		small, err := New(Options{SeatCount: 5})
		require.NoError(t, err)
		err = small.Restore(e.Snapshot())
		assert.True(t, errors.Is(err, errors.ErrInvariantViolation))
	})
}

func TestNominations(t *testing.T) {
	t.Run("每人每天只能提名一次", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)

		require.NoError(t, e.Nominate(2, 0))
		err := e.Nominate(2, 1)
		assert.True(t, errors.Is(err, errors.ErrNominationRejected))
		err = e.Nominate(3, 0)
		assert.True(t, errors.Is(err, errors.ErrNominationRejected))
		assert.Equal(t, map[int]int{0: 2}, e.Nominations())
	})

	t.Run("死者不能提名", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)
		require.NoError(t, e.ToggleSeatStatus(ToggleDead, 2))
		err := e.Nominate(2, 0)
		assert.True(t, errors.Is(err, errors.ErrNominationRejected))
	})

	t.Run("票数超出范围", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)
		require.NoError(t, e.Nominate(2, 0))
		err := e.SubmitVote(0, 8)
		assert.True(t, errors.Is(err, errors.ErrInvalidParam))
	})

	t.Run("平票无人被处决", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)
		require.NoError(t, e.Nominate(2, 0))
		require.NoError(t, e.SubmitVote(0, 4))
		require.NoError(t, e.Nominate(3, 5))
		require.NoError(t, e.SubmitVote(5, 4))
		require.NoError(t, e.ExecuteJudgment())
		assert.False(t, seatOf(t, e, 0).IsDead)
		assert.False(t, seatOf(t, e, 5).IsDead)

		err := e.ExecuteJudgment()
		assert.True(t, errors.Is(err, errors.ErrNominationRejected))
	})

	t.Run("处决圣徒邪恶获胜", func(t *testing.T) {
		e := setupGame(t, sevenPlayers...)
		finishNight(t, e, nil)
		toDusk(t, e)
		require.NoError(t, e.Nominate(2, 6))
		require.NoError(t, e.SubmitVote(6, 4))
		require.NoError(t, e.ExecuteJudgment())
		require.NotNil(t, e.Verdict())
		assert.Equal(t, role.Evil, e.Verdict().Winner)
		assert.Equal(t, grimoire.ReasonSaintExecuted, e.Verdict().Reason)
	})
}

func TestThresholdAndCandidate(t *testing.T) {
	tests := []struct {
		name  string
		votes map[int]int
		alive int
		want  int
		ok    bool
	}{
		{"无人投票", map[int]int{}, 7, 0, false},
		{"未达门槛", map[int]int{1: 3}, 7, 0, false},
		{"刚好达到门槛", map[int]int{1: 4}, 7, 1, true},
		{"最高票唯一", map[int]int{1: 4, 2: 5}, 7, 2, true},
		{"最高票平票", map[int]int{1: 5, 2: 5}, 7, 0, false},
		{"偶数存活", map[int]int{3: 3}, 6, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Candidate(tt.votes, tt.alive)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
	assert.Equal(t, 4, Threshold(7))
	assert.Equal(t, 3, Threshold(6))
	assert.Equal(t, 1, Threshold(1))
}

func TestInsertAfterCursor(t *testing.T) {
	order := func(id int) int { return id % 10 }

	t.Run("插入到第一个顺序更大的位置", func(t *testing.T) {
		q := InsertAfterCursor([]int{1, 3, 5, 7}, 4, 1, order)
		assert.Equal(t, []int{1, 3, 4, 5, 7}, q)
	})

	t.Run("没有更大的顺序时追加到末尾", func(t *testing.T) {
		q := InsertAfterCursor([]int{1, 3}, 9, 0, order)
		assert.Equal(t, []int{1, 3, 9}, q)
	})

	t.Run("游标及之前的条目不变", func(t *testing.T) {
		f := func(raw []uint8, id uint8, cur uint8) bool {
			queue := make([]int, len(raw))
			for i, r := range raw {
				queue[i] = int(r)
			}
			cursor := 0
			if len(queue) > 0 {
				cursor = int(cur) % len(queue)
			}
			out := InsertAfterCursor(queue, int(id), cursor, order)
			if len(out) != len(queue)+1 {
				return false
			}
			for i := 0; i <= cursor && i < len(queue); i++ {
				if out[i] != queue[i] {
					return false
				}
			}
			return contains(out[cursor:], int(id)) || len(queue) == 0 && out[0] == int(id)
		}
		assert.NoError(t, quick.Check(f, nil))
	})
}

func TestBuildQueue(t *testing.T) {
	e := setupGame(t, role.Imp, role.Poisoner, role.Chef, role.Empath, role.Virgin, role.Soldier, role.Saint)
	queue, cursor := e.Queue()
	assert.Equal(t, 0, cursor)
	assert.Equal(t, []int{1, 2, 3}, queue)

	reg := e.Registry()
	second := BuildQueue(reg, e.Seats(), false)
	require.NotEmpty(t, second)
	for i := 1; i < len(second); i++ {
		a, _ := e.Seat(second[i-1])
		b, _ := e.Seat(second[i])
		assert.LessOrEqual(t,
			reg.Order(behaviorFor(reg, a, ability.OtherNight), a, ability.OtherNight),
			reg.Order(behaviorFor(reg, b, ability.OtherNight), b, ability.OtherNight))
	}
}

func TestView(t *testing.T) {
	e := setupGame(t, sevenPlayers...)
	v := e.View()
	assert.Equal(t, PhaseFirstNight, v.Phase)
	assert.Equal(t, "tb", v.Script)
	require.NotNil(t, v.CurrentSeat)
	assert.NotEmpty(t, v.Hint)
	assert.True(t, v.CanStepBack)
	assert.Len(t, v.Seats, DefaultSeatCount)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"phase":"first_night"`)
}
