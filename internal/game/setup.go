package game

import (
	"fmt"

	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
	"go.uber.org/zap"
)

// SelectScript 选择剧本，换剧本时清空座位
func (e *Engine) SelectScript(id string) error {
	op := "select_script"
	if err := e.require(op, PhaseScriptSelection, PhaseSetup); err != nil {
		return err
	}
	sc, ok := e.catalog.Script(id)
	if !ok {
		return e.reject(op, errors.Newf(errors.ErrScriptNotFound, "剧本 %s", id))
	}
	if e.script != nil && e.script.ID == sc.ID {
		return nil
	}
	if err := e.machine.Trigger(EventSelectScript); err != nil {
		return e.reject(op, err)
	}
	if e.script != nil {
		e.store.Reset()
		e.history = nil
	}
	e.script = sc
	e.log(nil, fmt.Sprintf("Script selected: %s.", sc.Name))
	return nil
}

// AssignRole 给座位分配角色
func (e *Engine) AssignRole(seatID int, roleID string) error {
	op := "assign_role"
	if err := e.require(op, PhaseSetup); err != nil {
		return err
	}
	if _, err := e.seat(seatID); err != nil {
		return e.reject(op, err)
	}
	r, ok := e.catalog.Get(roleID)
	if !ok {
		return e.reject(op, errors.Newf(errors.ErrMissingRole, "角色 %s", roleID))
	}

	e.checkpoint()
	if err := e.assignRole(seatID, r); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

func (e *Engine) assignRole(seatID int, r *role.Role) error {
	if err := e.store.ClearSeat(seatID); err != nil {
		return err
	}
	if err := e.store.SetRole(seatID, r); err != nil {
		return err
	}
	if e.script != nil && !e.script.Has(r.ID) {
		e.logger.Info("角色不在剧本中", zap.String("role", r.ID), zap.String("script", e.script.ID))
	}
	// 同一角色只能在一个座位上
	for _, s := range e.store.InPlay() {
		if s.ID != seatID && s.IsRole(r.ID) {
			return errors.Newf(errors.ErrInvalidTarget, "%s 已在座位 %d", r.Name, s.ID)
		}
	}
	if req, ok := ability.SetupRequest(e.context(ability.FirstNight, seatID, nil), seatID); ok {
		e.raise(req)
		e.promoteDeferred()
	}
	return nil
}

// ClearSeat 清空座位角色
func (e *Engine) ClearSeat(seatID int) error {
	op := "clear_seat"
	if err := e.require(op, PhaseSetup); err != nil {
		return err
	}
	if _, err := e.seat(seatID); err != nil {
		return e.reject(op, err)
	}
	e.checkpoint()
	if err := e.store.ClearSeat(seatID); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

// SetSeatName 设置玩家名字
func (e *Engine) SetSeatName(seatID int, name string) error {
	if err := e.store.SetName(seatID, name); err != nil {
		return e.reject("set_seat_name", err)
	}
	return nil
}

// BeginCheck 进入开局核对：报告人数配置提示、邪恶双子配对与占卜师的红鲱鱼
func (e *Engine) BeginCheck() error {
	op := "begin_check"
	if err := e.require(op, PhaseSetup); err != nil {
		return err
	}
	inPlay := e.store.InPlay()
	if len(inPlay) == 0 {
		return e.reject(op, errors.New(errors.ErrInvalidParam, "没有已分配角色的座位"))
	}

	e.checkpoint()
	roles := make([]*role.Role, 0, len(inPlay))
	for _, s := range inPlay {
		roles = append(roles, s.Role)
	}
	e.warnings = role.CheckSetup(roles)
	for _, w := range e.warnings {
		e.log(nil, w)
	}

	ctx := e.context(ability.FirstNight, -1, nil)
	if err := grimoire.ApplyAll(e.store, ability.RedHerring(ctx)); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	if req, ok := ability.TwinRequest(ctx); ok {
		e.raise(req)
		e.promoteDeferred()
	}
	if err := e.machine.Trigger(EventBeginCheck); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

// CancelCheck 退回分配角色阶段
func (e *Engine) CancelCheck() error {
	op := "cancel_check"
	if err := e.require(op, PhaseCheck); err != nil {
		return err
	}
	e.checkpoint()
	for _, s := range e.store.InPlay() {
		for _, eff := range s.StatusEffects {
			if eff.Kind == grimoire.StatusRedHerring && eff.SourceID != nil {
				if _, err := e.store.ClearStatus(s.ID, grimoire.StatusRedHerring, eff.SourceID); err != nil {
					e.rollback()
					return e.reject(op, err)
				}
			}
		}
	}
	e.warnings = nil
	if err := e.machine.Trigger(EventCancelCheck); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

// Reset 新开一局：任意阶段回到选择剧本，座位清空
func (e *Engine) Reset() {
	_ = e.machine.Trigger(EventReset)
	e.store.Reset()
	e.clearRound()
	e.logger.Info("重置游戏")
}
