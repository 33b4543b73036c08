package game

import (
	"fmt"

	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

// ToggleKind 说书人可直接切换的座位状态
type ToggleKind string

const (
	ToggleDead        ToggleKind = "dead"
	TogglePoisoned    ToggleKind = "poisoned"
	ToggleDrunk       ToggleKind = "drunk"
	ToggleProtected   ToggleKind = "protected"
	ToggleEvil        ToggleKind = "evil"
	ToggleGhostVote   ToggleKind = "ghost_vote"
	ToggleAbilityUsed ToggleKind = "ability_used"
	ToggleVoted       ToggleKind = "voted"
	ToggleRedHerring  ToggleKind = "red_herring"
)

var toggleStatus = map[ToggleKind]grimoire.StatusKind{
	TogglePoisoned:   grimoire.StatusPoisoned,
	ToggleDrunk:      grimoire.StatusDrunk,
	ToggleProtected:  grimoire.StatusProtected,
	ToggleVoted:      grimoire.StatusVoted,
	ToggleRedHerring: grimoire.StatusRedHerring,
}

// ToggleSeatStatus 说书人手动切换座位状态，可覆盖任何自动判定
func (e *Engine) ToggleSeatStatus(kind ToggleKind, seatID int) error {
	op := "toggle_seat_status"
	if err := e.require(op, PhaseSetup, PhaseCheck, PhaseFirstNight, PhaseNight, PhaseDay, PhaseDusk, PhaseDawnReport); err != nil {
		return err
	}
	s, err := e.seat(seatID)
	if err != nil {
		return e.reject(op, err)
	}
	if !s.InPlay() {
		return e.reject(op, errors.Newf(errors.ErrInvalidTarget, "座位 %d 是空的", seatID))
	}

	e.checkpoint()
	if err := e.toggle(kind, s); err != nil {
		e.rollback()
		return e.reject(op, err)
	}
	return nil
}

func (e *Engine) toggle(kind ToggleKind, s grimoire.Seat) error {
	id := s.ID
	switch kind {
	case ToggleDead:
		if s.IsDead && !s.IsFeigning() {
			if err := e.store.Revive(id); err != nil {
				return err
			}
			e.log(nil, fmt.Sprintf("the storyteller revives seat %d", id))
			return nil
		}
		e.log(nil, fmt.Sprintf("the storyteller kills seat %d", id))
		return e.apply(nil, ability.Result{
			Mutations: []grimoire.Mutation{grimoire.Kill{SeatID: id, Cause: grimoire.CauseStoryteller}},
		}, grimoire.Situation{})
	case ToggleEvil:
		a := role.Evil
		if s.Alignment == role.Evil {
			a = role.Good
		}
		if err := e.store.SetAlignment(id, a); err != nil {
			return err
		}
	case ToggleGhostVote:
		if err := e.store.SetGhostVote(id, !s.HasGhostVote); err != nil {
			return err
		}
	case ToggleAbilityUsed:
		if s.AbilityUsed {
			if err := e.store.RestoreAbility(id); err != nil {
				return err
			}
		} else if err := e.store.SpendAbility(id); err != nil {
			return err
		}
	default:
		st, ok := toggleStatus[kind]
		if !ok {
			return errors.Newf(errors.ErrInvalidParam, "未知状态 %s", kind)
		}
		if s.HasStatus(st) {
			if _, err := e.store.ClearStatus(id, st, nil); err != nil {
				return err
			}
		} else if err := e.store.ApplyStatus(id, grimoire.NewEffect(st, grimoire.Permanent, nil)); err != nil {
			return err
		}
	}
	e.log(nil, fmt.Sprintf("the storyteller toggles %s on seat %d", kind, id))
	e.evaluate(grimoire.Situation{})
	return nil
}
