package ability

import (
	"fmt"

	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

func registerTownsfolk(r *Registry) {
	r.Register(role.Monk, Entry{OtherNight: &Behavior{
		Min:      1,
		Max:      1,
		Eligible: NotSelf,
		Handler: func(ctx *Context) Result {
			t := ctx.Targets[0]
			return Result{
				Mutations: []grimoire.Mutation{grimoire.AddStatus{SeatID: t, Effect: grimoire.NewEffect(grimoire.StatusProtected, grimoire.ThisNight, grimoire.Ptr(ctx.ActorID))}},
				Logs:      []string{fmt.Sprintf("the Monk protects seat %d", t)},
			}
		},
		Guide: "The Monk chooses a player (not themselves) to protect from the demon.",
	}})

	r.Register(role.Innkeeper, Entry{OtherNight: &Behavior{
		Min:     2,
		Max:     2,
		Handler: innkeeper,
		Guide:   "The Innkeeper chooses 2 players: they can't die tonight, but 1 is drunk.",
	}})

	sailor := &Behavior{Min: 1, Max: 1, Eligible: AliveOther, Handler: sailor, Guide: "The Sailor chooses an alive player: either they or the Sailor is drunk."}
	r.Register(role.Sailor, Entry{FirstNight: sailor, OtherNight: sailor})

	courtier := &Behavior{
		Min:       0,
		Max:       1,
		Once:      true,
		Condition: func(ctx *Context) bool { return !ctx.Actor().AbilityUsed },
		Handler:   courtier,
		Guide:     "The Courtier may choose a character, once per game. Select the seat holding it.",
	}
	r.Register(role.Courtier, Entry{FirstNight: courtier, OtherNight: courtier})

	r.Register(role.Exorcist, Entry{OtherNight: &Behavior{
		Min:      1,
		Max:      1,
		Eligible: NotLastTarget,
		Handler:  exorcist,
		Guide:    "The Exorcist chooses a player (different to last night).",
	}})

	r.Register(role.Professor, Entry{OtherNight: &Behavior{
		Min:       0,
		Max:       1,
		Once:      true,
		Eligible:  DeadOnly,
		Condition: func(ctx *Context) bool { return !ctx.Actor().AbilityUsed },
		Handler:   professor,
		Guide:     "The Professor may choose a dead player, once per game.",
	}})

	r.Register(role.Gambler, Entry{OtherNight: &Behavior{
		Min:     1,
		Max:     1,
		Handler: gambler,
		Guide:   "The Gambler chooses a player and guesses their character. A wrong guess kills the Gambler.",
	}})

	charmer := &Behavior{Min: 1, Max: 1, Eligible: AliveOther, Handler: snakeCharmer, Guide: "The Snake Charmer chooses an alive player."}
	r.Register(role.SnakeCharmer, Entry{FirstNight: charmer, OtherNight: charmer})

	r.Register(role.Gossip, Entry{
		Day: &Behavior{
			Class: ClassInfo,
			Handler: func(ctx *Context) Result {
				return Result{
					Mutations: []grimoire.Mutation{grimoire.AddStatus{SeatID: ctx.ActorID, Effect: grimoire.NewEffect(grimoire.StatusStatement, grimoire.ThisNight, nil)}},
					Logs:      []string{fmt.Sprintf("the Gossip (seat %d) makes a public statement", ctx.ActorID)},
				}
			},
			Guide: "The Gossip makes a public statement.",
		},
		OtherNight: &Behavior{
			Condition: func(ctx *Context) bool { return ctx.Actor().HasStatus(grimoire.StatusStatement) },
			Handler:   gossip,
			Guide:     "Decide whether the Gossip's statement was true.",
		},
	})

	r.Register(role.Slayer, Entry{Day: &Behavior{
		Min:       1,
		Max:       1,
		Once:      true,
		Condition: func(ctx *Context) bool { return !ctx.Actor().AbilityUsed },
		Handler: func(ctx *Context) Result {
			t := ctx.Target(0)
			if !t.IsType(role.Demon) || !t.IsAlive() {
				return Logged(fmt.Sprintf("the Slayer shoots seat %d: nothing happens", t.ID))
			}
			res := AttemptKill(ctx, t.ID, grimoire.CauseAbility, false)
			res.Logs = append([]string{fmt.Sprintf("the Slayer shoots seat %d, the demon", t.ID)}, res.Logs...)
			return res
		},
		Guide: "The Slayer publicly chooses a player, once per game.",
	}})
}

func innkeeper(ctx *Context) Result {
	var res Result
	src := grimoire.Ptr(ctx.ActorID)
	for _, t := range ctx.Targets {
		res.mutate(grimoire.AddStatus{SeatID: t, Effect: grimoire.NewEffect(grimoire.StatusShielded, grimoire.ThisNight, src)})
	}
	res.log(fmt.Sprintf("the Innkeeper protects seats %d and %d", ctx.Targets[0], ctx.Targets[1]))
	res.ask(Request{
		Kind:    KindRuling,
		Topic:   TopicInnkeeperDrunk,
		ActorID: ctx.ActorID,
		Options: append([]int(nil), ctx.Targets...),
		Min:     1,
		Max:     1,
		Message: "Choose which of the Innkeeper's guests is drunk until dusk.",
	})
	return res
}

func sailor(ctx *Context) Result {
	var res Result
	t := ctx.Targets[0]
	res.log(fmt.Sprintf("the Sailor drinks with seat %d", t))
	res.ask(Request{
		Kind:    KindRuling,
		Topic:   TopicSailorDrunk,
		ActorID: ctx.ActorID,
		Options: []int{ctx.ActorID, t},
		Min:     1,
		Max:     1,
		Message: "Choose who is drunk until dusk: the Sailor or their drinking partner.",
	})
	return res
}

func gambler(ctx *Context) Result {
	var res Result
	t := ctx.Targets[0]
	var pool []*role.Role
	if ctx.Script != nil {
		pool = ctx.Catalog.ScriptRoles(ctx.Script)
	} else {
		pool = ctx.Catalog.Roles()
	}
	ids := make([]string, 0, len(pool))
	for _, r := range pool {
		ids = append(ids, r.ID)
	}
	res.log(fmt.Sprintf("the Gambler (seat %d) bets on seat %d", ctx.ActorID, t))
	res.ask(Request{
		Kind:    KindRoleChoice,
		Topic:   TopicGambler,
		ActorID: ctx.ActorID,
		Roles:   ids,
		Data:    []int{t},
		Message: fmt.Sprintf("Which character does the Gambler guess for seat %d?", t),
	})
	return res
}

func courtier(ctx *Context) Result {
	if len(ctx.Targets) == 0 {
		return Logged("the Courtier keeps their ability")
	}
	t := ctx.Target(0)
	return Result{
		Mutations: []grimoire.Mutation{grimoire.AddStatus{SeatID: t.ID, Effect: grimoire.ForDays(grimoire.StatusDrunk, 3, grimoire.Ptr(ctx.ActorID))}},
		Logs:      []string{fmt.Sprintf("the Courtier makes the %s (seat %d) drunk for 3 days", roleName(t), t.ID)},
	}
}

func exorcist(ctx *Context) Result {
	var res Result
	t := ctx.Target(0)
	res.mutate(grimoire.Remember{SeatID: ctx.ActorID, Targets: ctx.Targets})
	if t.IsType(role.Demon) {
		res.mutate(grimoire.AddStatus{SeatID: t.ID, Effect: grimoire.NewEffect(grimoire.StatusExorcised, grimoire.ThisNight, grimoire.Ptr(ctx.ActorID))})
		res.log(fmt.Sprintf("the Exorcist catches the demon (seat %d): it does not wake tonight", t.ID))
		res.Hint = fmt.Sprintf("Wake the demon and show them the Exorcist is seat %d.", ctx.ActorID)
		return res
	}
	res.log(fmt.Sprintf("the Exorcist chooses seat %d", t.ID))
	return res
}

func professor(ctx *Context) Result {
	if len(ctx.Targets) == 0 {
		return Logged("the Professor keeps their ability")
	}
	t := ctx.Target(0)
	if !t.IsType(role.Townsfolk) {
		return Logged(fmt.Sprintf("the Professor chooses seat %d, who is not a Townsfolk", t.ID))
	}
	return Result{
		Mutations: []grimoire.Mutation{grimoire.Resurrect{SeatID: t.ID}},
		Logs:      []string{fmt.Sprintf("the Professor resurrects seat %d", t.ID)},
	}
}

func snakeCharmer(ctx *Context) Result {
	t := ctx.Target(0)
	if !t.IsType(role.Demon) {
		return Logged(fmt.Sprintf("the Snake Charmer chooses seat %d", t.ID))
	}
	return Result{
		Mutations: []grimoire.Mutation{
			grimoire.SwapRoles{A: ctx.ActorID, B: t.ID, SwapAligned: true},
			grimoire.AddStatus{SeatID: t.ID, Effect: grimoire.NewEffect(grimoire.StatusPoisoned, grimoire.Permanent, grimoire.Ptr(ctx.ActorID))},
		},
		Logs: []string{fmt.Sprintf("the Snake Charmer (seat %d) charms the demon (seat %d): they swap characters", ctx.ActorID, t.ID)},
		Hint: "You are now the demon.",
	}
}

func gossip(ctx *Context) Result {
	var res Result
	res.mutate(grimoire.RemoveStatus{SeatID: ctx.ActorID, Kind: grimoire.StatusStatement})
	res.ask(Request{
		Kind:    KindRuling,
		Topic:   TopicGossip,
		ActorID: ctx.ActorID,
		Options: seatIDs(ctx.Filter(func(s *grimoire.Seat) bool { return s.IsAlive() })),
		Min:     0,
		Max:     1,
		Message: "Was the Gossip's statement true? If so, confirm and choose who dies.",
	})
	return res
}
