package ability

import (
	"fmt"

	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

// saveReason 目标因保护而免于死亡的原因，空串表示会死
func saveReason(ctx *Context, target *grimoire.Seat, cause grimoire.Cause) string {
	if TeaLadyProtects(ctx.Seats, target.ID) {
		return "the Tea Lady's neighbour can't die"
	}
	if target.HasStatus(grimoire.StatusShielded) {
		return "protected by the Innkeeper"
	}
	if target.IsRole(role.Sailor) && !target.Disabled() {
		return "the Sailor can't die"
	}
	if cause == grimoire.CauseDemon {
		if target.HasStatus(grimoire.StatusProtected) {
			return "protected by the Monk"
		}
		if target.IsRole(role.Soldier) && !target.Disabled() {
			return "the Soldier is safe from the demon"
		}
	}
	return ""
}

// AttemptKill 尝试杀死目标，force为真时无视保护
func AttemptKill(ctx *Context, targetID int, cause grimoire.Cause, force bool) Result {
	var res Result
	target := ctx.Seat(targetID)
	if target == nil || !target.InPlay() {
		res.log(fmt.Sprintf("seat %d is empty, nobody dies", targetID))
		return res
	}
	if target.IsDead && !target.IsFeigning() {
		res.log(fmt.Sprintf("seat %d is already dead", targetID))
		return res
	}
	if !force {
		if reason := saveReason(ctx, target, cause); reason != "" {
			res.log(fmt.Sprintf("seat %d survives: %s", targetID, reason))
			return res
		}
		if target.IsRole(role.Fool) && !target.Disabled() && !target.AbilityUsed {
			res.mutate(grimoire.SpendAbility{SeatID: targetID})
			res.log(fmt.Sprintf("seat %d survives: the Fool's first death", targetID))
			return res
		}
		if cause == grimoire.CauseDemon && target.IsRole(role.Mayor) && !target.Disabled() && !target.IsDead {
			res.ask(Request{
				Kind:    KindRuling,
				Topic:   TopicMayorBounce,
				ActorID: targetID,
				Options: seatIDs(ctx.Filter(func(s *grimoire.Seat) bool { return s.IsAlive() })),
				Min:     1,
				Max:     1,
				Message: fmt.Sprintf("The demon attacked the Mayor (seat %d). Choose who dies: the Mayor or another player.", targetID),
			})
			return res
		}
	}
	res.mutate(grimoire.Kill{SeatID: targetID, Cause: cause})
	res.log(fmt.Sprintf("seat %d (%s) dies", targetID, roleName(target)))

	// 祖母随孙子一起死
	if cause == grimoire.CauseDemon {
		for _, gm := range ctx.Filter(func(s *grimoire.Seat) bool {
			return s.IsRole(role.Grandmother) && s.IsAlive() && !s.Disabled() && target.HasStatusFrom(grimoire.StatusGrandchild, s.ID)
		}) {
			res.mutate(grimoire.Kill{SeatID: gm.ID, Cause: grimoire.CauseAbility})
			res.log(fmt.Sprintf("seat %d (Grandmother) dies with their grandchild", gm.ID))
		}
	}
	return res
}

// TeaLadyProtects 茶艺师的邻座是否受保护
func TeaLadyProtects(seats []grimoire.Seat, id int) bool {
	ctx := &Context{Seats: seats}
	for _, tl := range ctx.Filter(func(s *grimoire.Seat) bool {
		return s.IsRole(role.TeaLady) && s.IsAlive() && !s.Disabled()
	}) {
		ns := ctx.AliveNeighbors(tl.ID)
		if len(ns) != 2 {
			continue
		}
		if ns[0].IsEvil() || ns[1].IsEvil() {
			continue
		}
		if ns[0].ID == id || ns[1].ID == id {
			return true
		}
	}
	return false
}

// Succession 恶魔死亡后的继任
func Succession(ctx *Context, death grimoire.Death) Result {
	var res Result
	dead := ctx.Seat(death.SeatID)
	if dead == nil || dead.Role == nil || dead.Role.Type != role.Demon || death.Feigned {
		return res
	}
	for _, s := range ctx.Players() {
		if s.ID != dead.ID && s.IsType(role.Demon) && s.IsAlive() {
			return res
		}
	}
	if ctx.AliveBefore >= 5 {
		for _, sw := range ctx.Filter(func(s *grimoire.Seat) bool {
			return s.IsRole(role.ScarletWoman) && s.IsAlive() && !s.Disabled()
		}) {
			res.mutate(grimoire.PromoteSuccessor{SeatID: sw.ID, Demon: dead.Role})
			res.log(fmt.Sprintf("seat %d (Scarlet Woman) becomes the %s", sw.ID, dead.Role.Name))
			return res
		}
	}
	if death.Cause != grimoire.CauseStarPass {
		return res
	}
	minions := ctx.Filter(func(s *grimoire.Seat) bool { return s.IsType(role.Minion) && s.IsAlive() })
	switch len(minions) {
	case 0:
		res.log("the demon passed the star but no minion is alive")
	case 1:
		res.mutate(grimoire.PromoteSuccessor{SeatID: minions[0].ID, Demon: dead.Role})
		res.log(fmt.Sprintf("seat %d catches the star and becomes the %s", minions[0].ID, dead.Role.Name))
	default:
		res.ask(Request{
			Kind:    KindSeatChoice,
			Topic:   TopicSuccessor,
			ActorID: dead.ID,
			Options: seatIDs(minions),
			Min:     1,
			Max:     1,
			RoleID:  dead.Role.ID,
			Message: fmt.Sprintf("The %s passed the star. Choose the minion who becomes the new demon.", dead.Role.Name),
		})
	}
	return res
}

// NominationHook 提名时的角色打断，preempt为真时跳过投票
func NominationHook(ctx *Context, nominatorID, nomineeID int) (res Result, preempt bool) {
	nominator := ctx.Seat(nominatorID)
	nominee := ctx.Seat(nomineeID)
	if nominator == nil || nominee == nil {
		return res, false
	}
	if nominee.IsRole(role.Virgin) && !nominee.HasBeenNominated && !nominee.AbilityUsed {
		res.mutate(grimoire.SpendAbility{SeatID: nomineeID})
		if !nominee.Disabled() && nominator.IsType(role.Townsfolk) && !nominator.Disabled() {
			res.mutate(grimoire.Kill{SeatID: nominatorID, Cause: grimoire.CauseVirgin})
			res.log(fmt.Sprintf("seat %d nominated the Virgin and is executed immediately", nominatorID))
			return res, true
		}
	}
	if nominator.HasStatus(grimoire.StatusCursed) && !nominator.IsDead {
		res.mutate(grimoire.Kill{SeatID: nominatorID, Cause: grimoire.CauseWitch})
		res.log(fmt.Sprintf("seat %d was cursed by the Witch and dies upon nominating", nominatorID))
	}
	return res, false
}

// ExecutionSave 处决是否被阻止
func ExecutionSave(ctx *Context, executedID int) (Result, bool) {
	var res Result
	target := ctx.Seat(executedID)
	if target == nil {
		return res, false
	}
	if TeaLadyProtects(ctx.Seats, executedID) {
		res.log(fmt.Sprintf("seat %d can't die: protected by the Tea Lady", executedID))
		return res, true
	}
	if target.HasStatus(grimoire.StatusSafeExecute) {
		res.log(fmt.Sprintf("seat %d is executed but does not die (Devil's Advocate)", executedID))
		return res, true
	}
	if target.IsRole(role.Sailor) && !target.Disabled() {
		res.log(fmt.Sprintf("seat %d is executed but the Sailor can't die", executedID))
		return res, true
	}
	if target.IsRole(role.Fool) && !target.Disabled() && !target.AbilityUsed {
		res.mutate(grimoire.SpendAbility{SeatID: executedID})
		res.log(fmt.Sprintf("seat %d is executed but the Fool survives their first death", executedID))
		return res, true
	}
	return res, false
}

// ExecutionHooks 处决后的角色触发
func ExecutionHooks(ctx *Context, executedID int) Result {
	var res Result
	target := ctx.Seat(executedID)
	if target == nil || !target.IsType(role.Minion) {
		return res
	}
	for _, m := range ctx.Filter(func(s *grimoire.Seat) bool {
		return s.IsRole(role.Minstrel) && s.IsAlive() && !s.Disabled()
	}) {
		src := grimoire.Ptr(m.ID)
		for _, s := range ctx.Players() {
			if s.ID == m.ID || s.IsType(role.Traveler) {
				continue
			}
			res.mutate(grimoire.AddStatus{SeatID: s.ID, Effect: grimoire.ForDays(grimoire.StatusDrunk, 2, src)})
		}
		res.log(fmt.Sprintf("a minion was executed: the Minstrel (seat %d) makes everyone drunk until dusk tomorrow", m.ID))
	}
	return res
}
