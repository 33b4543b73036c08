package game

import (
	"fmt"

	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
	"go.uber.org/zap"
)

// AdvanceToDay 天亮：清理夜间状态，进入白天
func (e *Engine) AdvanceToDay() error {
	op := "advance_to_day"
	if err := e.require(op, PhaseDawnReport); err != nil {
		return err
	}
	e.checkpoint()
	e.store.DawnSweep()
	e.today = ability.DayInfo{}
	e.clearNominations()
	e.queue = nil
	e.cursor = 0
	e.selection = nil
	e.stepDone = false
	if err := e.machine.Trigger(EventStartDay); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	if err := e.refreshAuras(); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	e.log(nil, fmt.Sprintf("Day %d begins.", e.nightCount))
	return nil
}

// OpenDusk 白天结束，开放提名
func (e *Engine) OpenDusk() error {
	op := "open_dusk"
	if err := e.require(op, PhaseDay); err != nil {
		return err
	}
	e.checkpoint()
	e.clearNominations()
	if err := e.machine.Trigger(EventOpenDusk); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	e.log(nil, "Nominations are open.")
	return nil
}

// UseDayAbility 白天能力：猎手、杂耍艺人、造谣者
func (e *Engine) UseDayAbility(actorID int, targets []int, guesses []grimoire.Guess) error {
	op := "use_day_ability"
	if err := e.require(op, PhaseDay, PhaseDusk); err != nil {
		return err
	}
	actor, err := e.seat(actorID)
	if err != nil {
		return e.reject(op, err)
	}
	b := behaviorFor(e.registry, actor, ability.Day)
	if b == nil {
		return e.reject(op, errors.Newf(errors.ErrMissingRole, "座位 %d 没有白天能力", actorID))
	}
	if !actor.IsAlive() {
		return e.reject(op, errors.Newf(errors.ErrActorDisabled, "座位 %d 已死亡", actorID))
	}
	if b.Once && actor.AbilityUsed {
		return e.reject(op, errors.Newf(errors.ErrActorDisabled, "座位 %d 的能力已使用", actorID))
	}
	ctx := e.context(ability.Day, actorID, targets)
	ctx.Guesses = append([]grimoire.Guess(nil), guesses...)
	if b.Condition != nil && !b.Condition(ctx) {
		return e.reject(op, errors.Newf(errors.ErrActorDisabled, "座位 %d 现在不能使用能力", actorID))
	}
	lo, hi := b.TargetBounds(actor)
	if len(targets) < lo || len(targets) > hi {
		return e.reject(op, errors.Newf(errors.ErrInvalidTarget, "需要选择 %d-%d 个目标", lo, hi))
	}
	var chosen []int
	for _, id := range targets {
		t, err := e.seat(id)
		if err != nil {
			return e.reject(op, err)
		}
		if !b.CanTarget(t, actor, ctx.Seats, chosen) {
			return e.reject(op, errors.Newf(errors.ErrInvalidTarget, "座位 %d 不能被选择", id))
		}
		chosen = append(chosen, id)
	}

	e.checkpoint()
	var res ability.Result
	if ctx.Disabled && b.Class != ability.ClassInfo {
		res = ability.Logged(fmt.Sprintf("seat %d (%s) is %s: no effect", actorID, roleLabel(actor), disabledReason(actor)))
	} else {
		res = b.Handler(ctx)
	}
	if b.Once && len(targets) > 0 {
		res.Mutations = append(res.Mutations, grimoire.SpendAbility{SeatID: actorID})
	}
	if err := e.apply(&actorID, res, grimoire.Situation{}); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

// Nominate 提名：每人每天最多提名一次、被提名一次
func (e *Engine) Nominate(nominatorID, nomineeID int) error {
	op := "nominate"
	if err := e.require(op, PhaseDusk); err != nil {
		return err
	}
	if e.judged {
		return e.reject(op, errors.New(errors.ErrNominationRejected, "今天已经处决"))
	}
	nominator, err := e.seat(nominatorID)
	if err != nil {
		return e.reject(op, err)
	}
	nominee, err := e.seat(nomineeID)
	if err != nil {
		return e.reject(op, err)
	}
	switch {
	case !nominator.InPlay() || !nominee.InPlay():
		return e.reject(op, errors.New(errors.ErrNominationRejected, "空座位"))
	case !nominator.IsAlive() || nominator.IsFeigning():
		return e.reject(op, errors.Newf(errors.ErrNominationRejected, "座位 %d 已死亡", nominatorID))
	case e.nominators[nominatorID]:
		return e.reject(op, errors.Newf(errors.ErrNominationRejected, "座位 %d 今天已提名", nominatorID))
	}
	if _, ok := e.nominations[nomineeID]; ok {
		return e.reject(op, errors.Newf(errors.ErrNominationRejected, "座位 %d 今天已被提名", nomineeID))
	}

	e.checkpoint()
	if err := e.nominate(nominatorID, nomineeID); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

func (e *Engine) nominate(nominatorID, nomineeID int) error {
	ctx := e.context(ability.Day, nominatorID, []int{nomineeID})
	hook, preempt := ability.NominationHook(ctx, nominatorID, nomineeID)

	e.nominators[nominatorID] = true
	e.nominations[nomineeID] = nominatorID
	e.today.Nominators = appendUnique(e.today.Nominators, nominatorID)
	if err := e.store.MarkNominated(nomineeID); err != nil {
		return err
	}
	e.log(&nominatorID, fmt.Sprintf("seat %d nominates seat %d", nominatorID, nomineeID))

	if !preempt {
		id := nomineeID
		e.open = &id
		return e.apply(&nominatorID, hook, grimoire.Situation{})
	}

	// 贞洁者：提名者代替被处决，跳过投票
	e.judged = true
	e.open = nil
	executed := nominatorID
	e.today.ExecutedID = &executed
	healthy := !ctx.Actor().Disabled()
	hook.Merge(ability.ExecutionHooks(ctx, nominatorID))
	return e.apply(&nominatorID, hook, grimoire.Situation{ExecutedID: &executed, ExecutedHealthy: healthy})
}

// SubmitVote 录入被提名者的票数
func (e *Engine) SubmitVote(nomineeID, count int) error {
	op := "submit_vote"
	if err := e.require(op, PhaseDusk); err != nil {
		return err
	}
	if e.judged {
		return e.reject(op, errors.New(errors.ErrNominationRejected, "今天已经处决"))
	}
	if _, ok := e.nominations[nomineeID]; !ok {
		return e.reject(op, errors.Newf(errors.ErrNominationRejected, "座位 %d 没有被提名", nomineeID))
	}
	if count < 0 || count > len(e.store.InPlay()) {
		return e.reject(op, errors.Newf(errors.ErrInvalidParam, "票数 %d 无效", count))
	}
	e.checkpoint()
	e.votes[nomineeID] = count
	if e.open != nil && *e.open == nomineeID {
		e.open = nil
	}
	e.log(nil, fmt.Sprintf("seat %d receives %d votes", nomineeID, count))
	return nil
}

// Votes 今天的票数
func (e *Engine) Votes() map[int]int {
	return copyMap(e.votes)
}

// Nominations 今天的提名（被提名者 -> 提名者）
func (e *Engine) Nominations() map[int]int {
	return copyMap(e.nominations)
}

// Threshold 处决所需票数
func Threshold(alive int) int {
	return (alive + 1) / 2
}

// Candidate 按票数决定处决对象，平票或未达门槛时没有处决
func Candidate(votes map[int]int, alive int) (int, bool) {
	need := Threshold(alive)
	best, top, ties := -1, 0, 0
	for id, n := range votes {
		if n < need {
			continue
		}
		switch {
		case n > top:
			best, top, ties = id, n, 1
		case n == top:
			ties++
		}
	}
	if ties != 1 {
		return 0, false
	}
	return best, true
}

// ExecuteJudgment 结算今天的处决
func (e *Engine) ExecuteJudgment() error {
	op := "execute_judgment"
	if err := e.require(op, PhaseDusk); err != nil {
		return err
	}
	if e.judged {
		return e.reject(op, errors.New(errors.ErrNominationRejected, "今天已经处决"))
	}
	e.checkpoint()
	if err := e.executeJudgment(); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

func (e *Engine) executeJudgment() error {
	e.judged = true
	e.open = nil
	id, ok := Candidate(e.votes, e.store.AliveCount())
	if !ok {
		e.log(nil, "Nobody is executed today.")
		return nil
	}
	ctx := e.context(ability.Day, id, nil)
	res, saved := ability.ExecutionSave(ctx, id)
	if saved {
		e.log(&id, fmt.Sprintf("seat %d is executed but does not die", id))
		return e.apply(&id, res, grimoire.Situation{})
	}
	target := ctx.Actor()
	healthy := !target.Disabled()
	res.Mutations = append(res.Mutations, grimoire.Kill{SeatID: id, Cause: grimoire.CauseExecution})
	res.Logs = append(res.Logs, fmt.Sprintf("seat %d (%s) is executed", id, roleLabel(*target)))
	res.Merge(ability.ExecutionHooks(ctx, id))

	executed := id
	e.today.ExecutedID = &executed
	e.logger.Info("处决", zap.Int("seat", id), zap.Int("votes", e.votes[id]))
	return e.apply(&id, res, grimoire.Situation{ExecutedID: &executed, ExecutedHealthy: healthy})
}
