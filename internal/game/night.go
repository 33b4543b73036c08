package game

import (
	"fmt"
	"sort"
	"time"

	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
	"go.uber.org/zap"
)

// kind 当前阶段对应的能力时段
func (e *Engine) kind() ability.Kind {
	switch e.Phase() {
	case PhaseFirstNight:
		return ability.FirstNight
	case PhaseNight:
		return ability.OtherNight
	}
	return ability.Day
}

// context 构造处理器上下文
func (e *Engine) context(k ability.Kind, actorID int, targets []int) *ability.Context {
	seats := e.store.Seats()
	ctx := &ability.Context{
		Kind:        k,
		NightCount:  e.nightCount,
		Seats:       seats,
		ActorID:     actorID,
		Targets:     copyInts(targets),
		Rand:        e.rng(e.Phase(), actorID),
		Catalog:     e.catalog,
		Script:      e.script,
		Night:       copyNight(e.night),
		Today:       copyDay(e.today),
		AliveBefore: grimoire.AliveCount(seats),
	}
	if a := ctx.Actor(); a != nil {
		ctx.Disabled = a.Disabled() || a.CharadeRole != nil
		if r := a.ActingRole(); r != nil && r.Type == role.Townsfolk {
			ctx.Falsify = vortoxActive(seats)
		}
	}
	return ctx
}

func vortoxActive(seats []grimoire.Seat) bool {
	for i := range seats {
		s := &seats[i]
		if s.InPlay() && s.IsRole(role.Vortox) && s.IsAlive() && !s.Disabled() {
			return true
		}
	}
	return false
}

// StartNight 入夜，isFirst为真时从核对阶段进入首夜
func (e *Engine) StartNight(isFirst bool) error {
	op := "start_night"
	from := PhaseDusk
	if isFirst {
		from = PhaseCheck
	}
	if err := e.require(op, from); err != nil {
		return err
	}
	e.checkpoint()
	if err := e.startNight(isFirst); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

func (e *Engine) startNight(isFirst bool) error {
	if isFirst {
		if err := e.machine.Trigger(EventStartFirstNight); err != nil {
			return err
		}
		e.startedAt = time.Now()
		e.nightCount = 1
	} else {
		// 白天结束时的规则先于黄昏清理判定
		if e.evaluate(grimoire.Situation{DayEnded: true, NoExecution: e.today.ExecutedID == nil}) {
			return nil
		}
		e.store.DuskSweep()
		if err := e.machine.Trigger(EventStartNight); err != nil {
			return err
		}
		e.nightCount++
	}
	e.clearNominations()
	e.night = ability.NightInfo{}
	e.selection = nil
	e.stepDone = false
	if err := e.refreshAuras(); err != nil {
		return err
	}
	e.queue = BuildQueue(e.registry, e.store.Seats(), isFirst)
	e.cursor = 0
	e.log(nil, fmt.Sprintf("Night %d begins.", e.nightCount))
	e.logger.Info("入夜", zap.Int("night", e.nightCount), zap.Ints("queue", e.queue))
	e.settle()
	return nil
}

// refreshAuras 重新计算持续光环
func (e *Engine) refreshAuras() error {
	ctx := e.context(e.kind(), -1, nil)
	if err := grimoire.ApplyAll(e.store, ability.NoDashiiAura(ctx)); err != nil {
		return errors.Wrap(err, errors.ErrInvariantViolation, "刷新光环失败")
	}
	return nil
}

// actionable 座位此刻是否需要唤醒
func (e *Engine) actionable(id int) (*ability.Behavior, bool) {
	s, ok := e.store.Seat(id)
	if !ok || !s.InPlay() {
		return nil, false
	}
	b := behaviorFor(e.registry, s, e.kind())
	if b == nil {
		return nil, false
	}
	if !s.IsAlive() && !b.Posthumous && !s.HasStatus(grimoire.StatusKeepsAbility) {
		return nil, false
	}
	if b.Condition != nil && !b.Condition(e.context(e.kind(), id, nil)) {
		return nil, false
	}
	return b, true
}

// settle 游标跳过无需唤醒的座位，队列耗尽时结束夜晚
func (e *Engine) settle() {
	for e.cursor < len(e.queue) {
		id := e.queue[e.cursor]
		if b, ok := e.actionable(id); ok {
			e.arrive(id, b)
			return
		}
		e.cursor++
	}
	e.endNight()
}

// arrive 到达某一步：信息类无目标能力预先生成提示
func (e *Engine) arrive(id int, b *ability.Behavior) {
	e.selection = nil
	e.stepDone = false
	s, _ := e.store.Seat(id)
	if _, hi := b.TargetBounds(s); b.Class != ability.ClassInfo || hi > 0 {
		return
	}
	key := hintKey(e.Phase(), e.nightCount, id)
	if _, ok := e.hints[key]; !ok {
		e.hints[key] = b.Handler(e.context(e.kind(), id, nil)).Hint
	}
}

// next 推进到下一步
func (e *Engine) next() {
	e.cursor++
	e.selection = nil
	e.stepDone = false
	e.settle()
}

// endNight 队列耗尽，进入天亮报告
func (e *Engine) endNight() {
	if e.Phase() == PhaseGameOver {
		return
	}
	dead := copyInts(e.night.Dead)
	sort.Ints(dead)
	msg := "Nobody died tonight."
	if len(dead) > 0 {
		msg = fmt.Sprintf("Seats %v died tonight.", dead)
	}
	if err := e.machine.Trigger(EventEndNight); err != nil {
		e.logger.Error("结束夜晚失败", zap.Error(err))
		return
	}
	e.log(nil, msg)
	e.raise(ability.Request{Kind: ability.KindDeathReport, Topic: ability.TopicNightEnd, ActorID: -1, Options: dead, Message: msg})
	e.promoteDeferred()
}

// Hint 当前提示：已生成的信息优先，否则为引导语
func (e *Engine) Hint() string {
	id, ok := e.CurrentSeat()
	if !ok {
		if e.pending != nil {
			return e.pending.Message
		}
		return ""
	}
	if h, ok := e.hints[hintKey(e.Phase(), e.nightCount, id)]; ok && h != "" {
		return h
	}
	return e.Guide()
}

// Guide 当前步骤的引导语
func (e *Engine) Guide() string {
	id, ok := e.CurrentSeat()
	if !ok {
		return ""
	}
	s, _ := e.store.Seat(id)
	if b := behaviorFor(e.registry, s, e.kind()); b != nil {
		return b.Guide
	}
	return ""
}

// currentStep 当前可操作的步骤
func (e *Engine) currentStep(op string) (grimoire.Seat, *ability.Behavior, error) {
	id, ok := e.CurrentSeat()
	if !ok || e.stepDone {
		return grimoire.Seat{}, nil, e.reject(op, errors.Newf(errors.ErrIllegalPhase, "当前没有等待行动的座位"))
	}
	s, _ := e.store.Seat(id)
	b := behaviorFor(e.registry, s, e.kind())
	if b == nil {
		return s, nil, e.reject(op, errors.Newf(errors.ErrMissingRole, "座位 %d 没有夜晚能力", id))
	}
	return s, b, nil
}

// SelectTarget 切换目标选择，不合法的选择被拒绝且不改变状态
func (e *Engine) SelectTarget(seatID int) error {
	op := "select_target"
	if err := e.require(op, PhaseFirstNight, PhaseNight); err != nil {
		return err
	}
	actor, b, err := e.currentStep(op)
	if err != nil {
		return err
	}
	if i := indexOf(e.selection, seatID); i >= 0 {
		e.selection = append(e.selection[:i:i], e.selection[i+1:]...)
		return nil
	}
	candidate, err := e.seat(seatID)
	if err != nil {
		return e.reject(op, err)
	}
	ctx := e.context(e.kind(), actor.ID, e.selection)
	if ctx.Disabled && b.Class == ability.ClassSuppressed {
		return e.reject(op, errors.Newf(errors.ErrActorDisabled, "座位 %d 能力失效", actor.ID))
	}
	_, hi := b.TargetBounds(actor)
	chosen := e.selection
	if hi == 1 && len(chosen) == 1 {
		// 单选时直接替换
		chosen = nil
	} else if len(chosen) >= hi {
		return e.reject(op, errors.Newf(errors.ErrInvalidTarget, "最多选择 %d 个目标", hi))
	}
	if !b.CanTarget(candidate, actor, ctx.Seats, chosen) {
		return e.reject(op, errors.Newf(errors.ErrInvalidTarget, "座位 %d 不能被选择", seatID))
	}
	e.selection = append(copyInts(chosen), seatID)
	return nil
}

// ConfirmAction 确认当前步骤
func (e *Engine) ConfirmAction() error {
	op := "confirm_action"
	if err := e.require(op, PhaseFirstNight, PhaseNight); err != nil {
		return err
	}
	actor, b, err := e.currentStep(op)
	if err != nil {
		return err
	}
	lo, hi := b.TargetBounds(actor)
	if n := len(e.selection); n < lo || n > hi {
		return e.reject(op, errors.Newf(errors.ErrInvalidTarget, "需要选择 %d-%d 个目标, 已选 %d", lo, hi, n))
	}
	e.checkpoint()
	if err := e.confirm(actor, b); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

func (e *Engine) confirm(actor grimoire.Seat, b *ability.Behavior) error {
	ctx := e.context(e.kind(), actor.ID, e.selection)
	id := actor.ID

	var res ability.Result
	if ctx.Disabled && b.Class != ability.ClassInfo {
		e.night.Abnormal++
		res = ability.Logged(fmt.Sprintf("seat %d (%s) is %s: no effect", id, roleLabel(actor), disabledReason(actor)))
		e.logger.Debug("能力失效", zap.Int("seat", id))
	} else {
		res = b.Handler(ctx)
		if ctx.Disabled {
			e.night.Abnormal++
		}
	}
	if b.Once && len(ctx.Targets) > 0 {
		res.Mutations = append(res.Mutations, grimoire.SpendAbility{SeatID: id})
	}

	key := hintKey(e.Phase(), e.nightCount, id)
	if cached, ok := e.hints[key]; ok && cached != "" {
		res.Hint = cached
	} else if res.Hint != "" {
		e.hints[key] = res.Hint
	}
	if res.Hint != "" {
		res.Logs = append(res.Logs, fmt.Sprintf("seat %d learns: %s", id, res.Hint))
	}

	e.night.Woken = append(e.night.Woken, id)
	e.stepDone = true
	if err := e.apply(&id, res, grimoire.Situation{}); err != nil {
		return err
	}
	if e.pending == nil && e.Phase().IsNight() {
		e.next()
	}
	return nil
}

// apply 应用处理结果：变更、日志、交互、死亡结算与胜负判定
func (e *Engine) apply(actor *int, res ability.Result, sit grimoire.Situation) error {
	if err := grimoire.ApplyAll(e.store, res.Mutations); err != nil {
		return errors.Wrap(err, errors.ErrInvariantViolation, "应用效果失败")
	}
	for _, msg := range res.Logs {
		e.log(actor, msg)
	}
	for _, req := range res.Interactions {
		e.raise(req)
	}
	if res.Verdict != nil {
		e.finish(res.Verdict)
		return nil
	}
	if err := e.processDeaths(); err != nil {
		return err
	}
	if e.verdict != nil {
		return nil
	}
	e.enqueueNewActors()
	e.promoteDeferred()
	e.evaluate(sit)
	return nil
}

// processDeaths 结算死亡：继任、死亡触发与今晚死亡名单
func (e *Engine) processDeaths() error {
	for round := 0; round < 16; round++ {
		deaths := e.store.TakeDeaths()
		if len(deaths) == 0 {
			return nil
		}
		for _, d := range deaths {
			if e.Phase().IsNight() {
				e.night.Dead = appendUnique(e.night.Dead, d.SeatID)
			} else {
				e.today.Deaths = appendUnique(e.today.Deaths, d.SeatID)
			}
			e.logger.Info("座位死亡",
				zap.Int("seat", d.SeatID),
				zap.String("cause", string(d.Cause)),
				zap.Bool("feigned", d.Feigned))

			seat, _ := e.store.Seat(d.SeatID)
			ctx := e.context(e.kind(), d.SeatID, nil)
			if !seat.IsAlive() {
				ctx.AliveBefore++
			}
			var res ability.Result
			res.Merge(ability.Succession(ctx, d))
			if !d.Feigned && seat.Role != nil {
				if entry, ok := e.registry.Entry(seat.Role.ID); ok && entry.OnDeath != nil {
					res.Merge(entry.OnDeath(ctx, d))
				}
			}
			if err := grimoire.ApplyAll(e.store, res.Mutations); err != nil {
				return errors.Wrap(err, errors.ErrInvariantViolation, "死亡结算失败")
			}
			id := d.SeatID
			for _, msg := range res.Logs {
				e.log(&id, msg)
			}
			for _, req := range res.Interactions {
				e.raise(req)
			}
			if res.Verdict != nil {
				e.finish(res.Verdict)
				return nil
			}
		}
	}
	return errors.New(errors.ErrInvariantViolation, "死亡结算未收敛")
}

// enqueueNewActors 夜里新出现的行动者按顺序插入剩余队列
func (e *Engine) enqueueNewActors() {
	if !e.Phase().IsNight() || e.cursor >= len(e.queue) {
		return
	}
	k := e.kind()
	current := e.orderOf(e.queue[e.cursor])
	for _, s := range e.store.InPlay() {
		if contains(e.queue[e.cursor+1:], s.ID) {
			continue
		}
		b := behaviorFor(e.registry, s, k)
		if b == nil {
			continue
		}
		if !s.IsAlive() && !b.Posthumous && !s.HasStatus(grimoire.StatusKeepsAbility) {
			continue
		}
		if e.registry.Order(b, s, k) <= current {
			continue
		}
		e.queue = InsertAfterCursor(e.queue, s.ID, e.cursor, e.orderOf)
		e.logger.Debug("插入唤醒队列", zap.Int("seat", s.ID), zap.Ints("queue", e.queue))
	}
}

// orderOf 座位当前的唤醒顺序
func (e *Engine) orderOf(id int) int {
	s, ok := e.store.Seat(id)
	if !ok {
		return 0
	}
	k := e.kind()
	b := behaviorFor(e.registry, s, k)
	if b == nil {
		return 0
	}
	return e.registry.Order(b, s, k)
}

// evaluate 判定胜负，返回游戏是否结束
func (e *Engine) evaluate(sit grimoire.Situation) bool {
	if e.verdict != nil {
		return true
	}
	if !e.Phase().InGame() {
		return false
	}
	sit.SuccessorPending = e.awaiting(ability.TopicSuccessor)
	v, err := grimoire.Evaluate(e.store.Seats(), sit)
	if err != nil {
		e.logger.Warn("胜负判定中止", zap.Error(err))
		return false
	}
	if v == nil {
		return false
	}
	e.finish(v)
	return true
}

// finish 记录胜负并结束游戏
func (e *Engine) finish(v *grimoire.Verdict) {
	if e.verdict != nil {
		return
	}
	verdict := *v
	e.verdict = &verdict
	e.endedAt = time.Now()
	e.pending = nil
	e.deferred = nil
	e.selection = nil
	if err := e.machine.Trigger(EventGameOver); err != nil {
		e.logger.Error("结束游戏失败", zap.Error(err))
	}
	e.log(nil, fmt.Sprintf("Game over: %s wins (%s).", verdict.Winner, verdict.Reason))
	e.logger.Info("游戏结束",
		zap.String("game_id", e.gameID),
		zap.String("winner", string(verdict.Winner)),
		zap.String("reason", verdict.Reason))
	if e.opts.OnGameOver != nil {
		e.opts.OnGameOver(e.Record())
	}
}

// Record 对局记录
func (e *Engine) Record() *Record {
	rec := &Record{
		ID:        e.gameID,
		StartedAt: e.startedAt,
		EndedAt:   e.endedAt,
		Seats:     e.store.InPlay(),
		Logs:      copyLogs(e.logs),
	}
	if e.script != nil {
		rec.ScriptName = e.script.Name
	}
	if e.verdict != nil {
		rec.WinResult = e.verdict.Winner
		rec.WinReason = e.verdict.Reason
	}
	return rec
}

func roleLabel(s grimoire.Seat) string {
	if r := s.ActingRole(); r != nil {
		return r.Name
	}
	return "empty"
}

func disabledReason(s grimoire.Seat) string {
	switch {
	case s.IsPoisoned:
		return "poisoned"
	case s.IsDrunk:
		return "drunk"
	}
	return "not who they think they are"
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func contains(ids []int, id int) bool {
	return indexOf(ids, id) >= 0
}

func appendUnique(ids []int, id int) []int {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
