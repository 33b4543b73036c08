package ability

import (
	"fmt"

	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

func notExorcised(ctx *Context) bool {
	return !ctx.Actor().HasStatus(grimoire.StatusExorcised)
}

// demonKill 普通的恶魔击杀
func demonKill(guide string, after func(ctx *Context, res *Result)) *Behavior {
	return &Behavior{
		Min:       1,
		Max:       1,
		Condition: notExorcised,
		Handler: func(ctx *Context) Result {
			res := AttemptKill(ctx, ctx.Targets[0], grimoire.CauseDemon, false)
			if after != nil {
				after(ctx, &res)
			}
			return res
		},
		Guide: guide,
	}
}

func registerDemons(r *Registry) {
	r.Register(role.Imp, Entry{OtherNight: &Behavior{
		Min:       1,
		Max:       1,
		Condition: notExorcised,
		Handler: func(ctx *Context) Result {
			if ctx.Targets[0] == ctx.ActorID {
				return Result{
					Mutations: []grimoire.Mutation{grimoire.Kill{SeatID: ctx.ActorID, Cause: grimoire.CauseStarPass}},
					Logs:      []string{fmt.Sprintf("the Imp (seat %d) kills themselves to pass the star", ctx.ActorID)},
				}
			}
			return AttemptKill(ctx, ctx.Targets[0], grimoire.CauseDemon, false)
		},
		Guide: "The Imp chooses a player to kill. Choosing themselves passes the star.",
	}})

	r.Register(role.Zombuul, Entry{OtherNight: &Behavior{
		Min: 1,
		Max: 1,
		Condition: func(ctx *Context) bool {
			return notExorcised(ctx) && len(ctx.Today.Deaths) == 0
		},
		Handler: func(ctx *Context) Result {
			return AttemptKill(ctx, ctx.Targets[0], grimoire.CauseDemon, false)
		},
		Guide: "Nobody died today: the Zombuul chooses a player to kill.",
	}})

	pukka := &Behavior{Min: 1, Max: 1, Condition: notExorcised, Handler: pukka, Guide: "The Pukka chooses a player to poison."}
	r.Register(role.Pukka, Entry{FirstNight: pukka, OtherNight: pukka})

	r.Register(role.Shabaloth, Entry{OtherNight: &Behavior{
		Min:       2,
		Max:       2,
		Condition: notExorcised,
		Handler:   shabaloth,
		Guide:     "The Shabaloth chooses 2 players to kill.",
	}})

	r.Register(role.Po, Entry{OtherNight: &Behavior{
		Bounds: func(actor grimoire.Seat) (int, int) {
			if actor.Charge > 0 {
				return 0, 3
			}
			return 0, 1
		},
		Condition: notExorcised,
		Handler:   po,
		Guide:     "The Po may choose a player. If they chose nobody last time, they choose 3.",
	}})

	r.Register(role.FangGu, Entry{OtherNight: &Behavior{
		Min:       1,
		Max:       1,
		Condition: notExorcised,
		Handler:   fangGu,
		Guide:     "The Fang Gu chooses a player to kill.",
	}})

	r.Register(role.NoDashii, Entry{OtherNight: demonKill("The No Dashii chooses a player to kill.", nil)})
	r.Register(role.Vortox, Entry{OtherNight: demonKill("The Vortox chooses a player to kill.", nil)})
	r.Register(role.Vigormortis, Entry{OtherNight: demonKill("The Vigormortis chooses a player to kill.", vigormortis)})
}

func pukka(ctx *Context) Result {
	var res Result
	src := grimoire.Ptr(ctx.ActorID)
	for _, prev := range ctx.Actor().LastTargets {
		res.mutate(grimoire.RemoveStatus{SeatID: prev, Kind: grimoire.StatusPoisoned, SourceID: src})
		if prev == ctx.Targets[0] {
			continue
		}
		res.Merge(AttemptKill(ctx, prev, grimoire.CauseDemon, false))
	}
	t := ctx.Targets[0]
	res.mutate(
		grimoire.AddStatus{SeatID: t, Effect: grimoire.NewEffect(grimoire.StatusPoisoned, grimoire.Permanent, src)},
		grimoire.Remember{SeatID: ctx.ActorID, Targets: ctx.Targets},
	)
	res.log(fmt.Sprintf("the Pukka poisons seat %d", t))
	return res
}

func shabaloth(ctx *Context) Result {
	var res Result
	var eaten []int
	for _, prev := range ctx.Actor().LastTargets {
		if s := ctx.Seat(prev); s != nil && s.IsDead && !s.IsFeigning() {
			eaten = append(eaten, prev)
		}
	}
	for _, t := range ctx.Targets {
		res.Merge(AttemptKill(ctx, t, grimoire.CauseDemon, false))
	}
	res.mutate(grimoire.Remember{SeatID: ctx.ActorID, Targets: ctx.Targets})
	if len(eaten) > 0 {
		res.ask(Request{
			Kind:    KindRuling,
			Topic:   TopicRegurgitate,
			ActorID: ctx.ActorID,
			Options: eaten,
			Min:     0,
			Max:     1,
			Message: "Does the Shabaloth regurgitate one of last night's victims?",
		})
	}
	return res
}

func po(ctx *Context) Result {
	var res Result
	charged := ctx.Actor().Charge > 0
	if len(ctx.Targets) == 0 {
		res.mutate(grimoire.Charge{SeatID: ctx.ActorID, Value: 1})
		res.log("the Po chooses nobody and charges up")
		return res
	}
	res.mutate(grimoire.Charge{SeatID: ctx.ActorID, Value: 0})
	if !charged {
		res.Merge(AttemptKill(ctx, ctx.Targets[0], grimoire.CauseDemon, false))
		return res
	}
	res.log(fmt.Sprintf("the charged Po attacks seats %v", ctx.Targets))
	res.ask(Request{
		Kind:    KindRuling,
		Topic:   TopicPoKills,
		ActorID: ctx.ActorID,
		Options: append([]int(nil), ctx.Targets...),
		Min:     0,
		Max:     len(ctx.Targets),
		Message: "The charged Po attacked several players. Choose who dies.",
	})
	return res
}

func fangGu(ctx *Context) Result {
	t := ctx.Target(0)
	if t.IsType(role.Outsider) && t.IsAlive() && ctx.Actor().Charge == 0 && saveReason(ctx, t, grimoire.CauseDemon) == "" {
		fang := ctx.Actor().Role
		return Result{
			Mutations: []grimoire.Mutation{
				grimoire.ChangeRole{SeatID: t.ID, Role: fang},
				grimoire.ChangeAlignment{SeatID: t.ID, Alignment: role.Evil},
				grimoire.Charge{SeatID: t.ID, Value: 1},
				grimoire.Kill{SeatID: ctx.ActorID, Cause: grimoire.CauseAbility},
			},
			Logs: []string{fmt.Sprintf("the Fang Gu jumps into seat %d, who becomes an evil Fang Gu", t.ID)},
		}
	}
	return AttemptKill(ctx, t.ID, grimoire.CauseDemon, false)
}

func vigormortis(ctx *Context, res *Result) {
	t := ctx.Target(0)
	if !t.IsType(role.Minion) || !killed(res, t.ID) {
		return
	}
	src := grimoire.Ptr(ctx.ActorID)
	res.mutate(grimoire.AddStatus{SeatID: t.ID, Effect: grimoire.NewEffect(grimoire.StatusKeepsAbility, grimoire.Permanent, src)})
	ns := ctx.neighbors(t.ID, func(s *grimoire.Seat) bool { return s.IsType(role.Townsfolk) })
	if n := ctx.Pick(ns); n != nil {
		res.mutate(grimoire.AddStatus{SeatID: n.ID, Effect: grimoire.NewEffect(grimoire.StatusPoisoned, grimoire.Permanent, src)})
		res.log(fmt.Sprintf("the dead minion keeps their ability and poisons seat %d", n.ID))
	}
}

func killed(res *Result, id int) bool {
	for _, m := range res.Mutations {
		if k, ok := m.(grimoire.Kill); ok && k.SeatID == id {
			return true
		}
	}
	return false
}

// NoDashiiAura 重新计算诺-达希的邻座中毒
func NoDashiiAura(ctx *Context) []grimoire.Mutation {
	var out []grimoire.Mutation
	for _, nd := range ctx.Filter(func(s *grimoire.Seat) bool { return s.IsRole(role.NoDashii) }) {
		src := grimoire.Ptr(nd.ID)
		for _, s := range ctx.Players() {
			if s.HasStatusFrom(grimoire.StatusPoisoned, nd.ID) {
				out = append(out, grimoire.RemoveStatus{SeatID: s.ID, Kind: grimoire.StatusPoisoned, SourceID: src})
			}
		}
		if !nd.IsAlive() || nd.Disabled() {
			continue
		}
		for _, n := range ctx.neighbors(nd.ID, func(s *grimoire.Seat) bool { return s.IsType(role.Townsfolk) && s.IsAlive() }) {
			out = append(out, grimoire.AddStatus{SeatID: n.ID, Effect: grimoire.NewEffect(grimoire.StatusPoisoned, grimoire.Permanent, src)})
		}
	}
	return out
}
