package ability

import (
	"fmt"

	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

func registerMinions(r *Registry) {
	poisoner := &Behavior{
		Min: 1,
		Max: 1,
		Handler: func(ctx *Context) Result {
			t := ctx.Targets[0]
			return Result{
				Mutations: []grimoire.Mutation{grimoire.AddStatus{SeatID: t, Effect: grimoire.NewEffect(grimoire.StatusPoisoned, grimoire.UntilNextDusk, grimoire.Ptr(ctx.ActorID))}},
				Logs:      []string{fmt.Sprintf("the Poisoner poisons seat %d", t)},
			}
		},
		Guide: "The Poisoner chooses a player to poison.",
	}
	r.Register(role.Poisoner, Entry{FirstNight: poisoner, OtherNight: poisoner})

	advocate := &Behavior{
		Min:      1,
		Max:      1,
		Eligible: All(AliveOnly, NotLastTarget),
		Handler: func(ctx *Context) Result {
			t := ctx.Targets[0]
			return Result{
				Mutations: []grimoire.Mutation{
					grimoire.AddStatus{SeatID: t, Effect: grimoire.NewEffect(grimoire.StatusSafeExecute, grimoire.UntilNextDusk, grimoire.Ptr(ctx.ActorID))},
					grimoire.Remember{SeatID: ctx.ActorID, Targets: ctx.Targets},
				},
				Logs: []string{fmt.Sprintf("the Devil's Advocate protects seat %d from execution", t)},
			}
		},
		Guide: "The Devil's Advocate chooses a living player (different to last night).",
	}
	r.Register(role.DevilsAdvocate, Entry{FirstNight: advocate, OtherNight: advocate})

	witch := &Behavior{
		Min:       1,
		Max:       1,
		Condition: func(ctx *Context) bool { return ctx.AliveCount() > 3 },
		Handler: func(ctx *Context) Result {
			t := ctx.Targets[0]
			return Result{
				Mutations: []grimoire.Mutation{grimoire.AddStatus{SeatID: t, Effect: grimoire.NewEffect(grimoire.StatusCursed, grimoire.UntilNextDusk, grimoire.Ptr(ctx.ActorID))}},
				Logs:      []string{fmt.Sprintf("the Witch curses seat %d", t)},
			}
		},
		Guide: "The Witch chooses a player to curse.",
	}
	r.Register(role.Witch, Entry{FirstNight: witch, OtherNight: witch})

	cerenovus := &Behavior{
		Min:   1,
		Max:   1,
		Class: ClassSuppressed,
		Handler: func(ctx *Context) Result {
			t := ctx.Targets[0]
			return Result{
				Mutations: []grimoire.Mutation{grimoire.AddStatus{SeatID: t, Effect: grimoire.NewEffect(grimoire.StatusMad, grimoire.UntilNextDusk, grimoire.Ptr(ctx.ActorID))}},
				Logs:      []string{fmt.Sprintf("the Cerenovus makes seat %d mad", t)},
			}
		},
		Guide: "The Cerenovus chooses a player and a good character.",
	}
	r.Register(role.Cerenovus, Entry{FirstNight: cerenovus, OtherNight: cerenovus})

	r.Register(role.PitHag, Entry{OtherNight: &Behavior{
		Min:     1,
		Max:     1,
		Handler: pitHag,
		Guide:   "The Pit-Hag chooses a player and a character.",
	}})

	r.Register(role.Assassin, Entry{OtherNight: &Behavior{
		Min:       0,
		Max:       1,
		Once:      true,
		Condition: func(ctx *Context) bool { return !ctx.Actor().AbilityUsed },
		Handler: func(ctx *Context) Result {
			if len(ctx.Targets) == 0 {
				return Logged("the Assassin waits")
			}
			res := AttemptKill(ctx, ctx.Targets[0], grimoire.CauseMinion, true)
			res.Logs = append([]string{fmt.Sprintf("the Assassin strikes seat %d", ctx.Targets[0])}, res.Logs...)
			return res
		},
		Guide: "The Assassin may choose a player, once per game.",
	}})

	r.Register(role.Godfather, Entry{OtherNight: &Behavior{
		Min: 1,
		Max: 1,
		Condition: func(ctx *Context) bool {
			for _, id := range ctx.Today.Deaths {
				if s := ctx.Seat(id); s != nil && s.IsType(role.Outsider) {
					return true
				}
			}
			return false
		},
		Handler: func(ctx *Context) Result {
			return AttemptKill(ctx, ctx.Targets[0], grimoire.CauseMinion, false)
		},
		Guide: "An Outsider died today: the Godfather chooses a player to kill.",
	}})
}

func pitHag(ctx *Context) Result {
	var res Result
	t := ctx.Target(0)
	inPlay := make([]string, 0, len(ctx.Seats))
	for _, p := range ctx.Players() {
		inPlay = append(inPlay, p.Role.ID)
	}
	var options []string
	for _, r := range rolesOf(ctx, role.Townsfolk) {
		options = appendIfAbsent(options, inPlay, r.ID)
	}
	for _, tt := range []role.Type{role.Outsider, role.Minion, role.Demon} {
		for _, r := range rolesOf(ctx, tt) {
			options = appendIfAbsent(options, inPlay, r.ID)
		}
	}
	if len(options) == 0 {
		res.log("the Pit-Hag finds no character out of play")
		return res
	}
	res.ask(Request{
		Kind:    KindRoleChoice,
		Topic:   TopicPitHagRole,
		ActorID: ctx.ActorID,
		Roles:   options,
		Min:     1,
		Max:     1,
		Data:    []int{t.ID},
		Message: fmt.Sprintf("Which character does the Pit-Hag give seat %d?", t.ID),
	})
	return res
}

func appendIfAbsent(options, inPlay []string, id string) []string {
	if containsStr(inPlay, id) || containsStr(options, id) {
		return options
	}
	return append(options, id)
}

// TwinRequest 邪恶双子的配对请求
func TwinRequest(ctx *Context) (Request, bool) {
	for _, twin := range ctx.Filter(func(s *grimoire.Seat) bool { return s.IsRole(role.EvilTwin) && s.TwinID == nil }) {
		good := ctx.Filter(func(s *grimoire.Seat) bool { return !s.IsEvil() && !s.IsType(role.Traveler) })
		if len(good) == 0 {
			return Request{}, false
		}
		return Request{
			Kind:    KindSeatChoice,
			Topic:   TopicEvilTwin,
			ActorID: twin.ID,
			Options: seatIDs(good),
			Min:     1,
			Max:     1,
			Message: fmt.Sprintf("Choose the good twin for the Evil Twin (seat %d).", twin.ID),
		}, true
	}
	return Request{}, false
}

// RedHerring 为占卜师选择一名善良玩家作为红鲱鱼
func RedHerring(ctx *Context) []grimoire.Mutation {
	var out []grimoire.Mutation
	for _, ft := range ctx.Filter(func(s *grimoire.Seat) bool { return s.IsRole(role.FortuneTeller) }) {
		if len(ctx.Filter(func(s *grimoire.Seat) bool { return s.HasStatusFrom(grimoire.StatusRedHerring, ft.ID) })) > 0 {
			continue
		}
		good := ctx.Filter(func(s *grimoire.Seat) bool { return !s.IsEvil() && !s.IsType(role.Traveler) })
		if h := ctx.Pick(good); h != nil {
			out = append(out, grimoire.AddStatus{SeatID: h.ID, Effect: grimoire.NewEffect(grimoire.StatusRedHerring, grimoire.Permanent, grimoire.Ptr(ft.ID))})
		}
	}
	return out
}
