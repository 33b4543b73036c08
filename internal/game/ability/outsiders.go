package ability

import (
	"fmt"

	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

func registerOutsiders(r *Registry) {
	butler := &Behavior{
		Min:      1,
		Max:      1,
		Eligible: NotSelf,
		Handler: func(ctx *Context) Result {
			t := ctx.Targets[0]
			return Result{
				Mutations: []grimoire.Mutation{grimoire.AssignMaster{SeatID: ctx.ActorID, MasterID: t}},
				Logs:      []string{fmt.Sprintf("the Butler chooses seat %d as their master", t)},
			}
		},
		Guide: "The Butler chooses a master (not themselves).",
	}
	r.Register(role.Butler, Entry{FirstNight: butler, OtherNight: butler})

	r.Register(role.Moonchild, Entry{OnDeath: func(ctx *Context, d grimoire.Death) Result {
		return ask(Request{
			Kind:    KindSeatChoice,
			Topic:   TopicMoonchild,
			ActorID: d.SeatID,
			Options: seatIDs(ctx.Filter(func(s *grimoire.Seat) bool { return s.IsAlive() && s.ID != d.SeatID })),
			Min:     0,
			Max:     1,
			Message: "The Moonchild died: which alive player do they choose?",
		})
	}})

	r.Register(role.Sweetheart, Entry{OnDeath: func(ctx *Context, d grimoire.Death) Result {
		return ask(Request{
			Kind:    KindSeatChoice,
			Topic:   TopicSweetheart,
			ActorID: d.SeatID,
			Options: seatIDs(ctx.Others(d.SeatID)),
			Min:     1,
			Max:     1,
			Message: "The Sweetheart died: choose the player who is drunk from now on.",
		})
	}})

	r.Register(role.Klutz, Entry{OnDeath: func(ctx *Context, d grimoire.Death) Result {
		return ask(Request{
			Kind:    KindSeatChoice,
			Topic:   TopicKlutz,
			ActorID: d.SeatID,
			Options: seatIDs(ctx.Filter(func(s *grimoire.Seat) bool { return s.IsAlive() && s.ID != d.SeatID })),
			Min:     1,
			Max:     1,
			Message: "The Klutz died: which alive player do they choose?",
		})
	}})

	r.Register(role.Barber, Entry{OnDeath: func(ctx *Context, d grimoire.Death) Result {
		return ask(Request{
			Kind:    KindSeatChoice,
			Topic:   TopicBarber,
			ActorID: d.SeatID,
			Options: seatIDs(ctx.Filter(func(s *grimoire.Seat) bool { return !s.IsType(role.Demon) })),
			Min:     0,
			Max:     2,
			Message: "The Barber died: the demon may choose 2 players to swap characters.",
		})
	}})
}

func ask(req Request) Result {
	return Result{Interactions: []Request{req}}
}

// SetupRequest 分配角色时需要说书人补充的信息（酒鬼、疯子的伪装角色）
func SetupRequest(ctx *Context, seatID int) (Request, bool) {
	s := ctx.Seat(seatID)
	if s == nil || s.Role == nil {
		return Request{}, false
	}
	inPlay := make([]string, 0, len(ctx.Seats))
	for _, p := range ctx.Players() {
		inPlay = append(inPlay, p.Role.ID)
	}
	var options []string
	var topic Topic
	var msg string
	switch s.Role.ID {
	case role.Drunk:
		topic = TopicDrunkCharade
		msg = fmt.Sprintf("Seat %d is the Drunk: choose the Townsfolk they believe they are.", seatID)
		for _, r := range rolesOf(ctx, role.Townsfolk) {
			if !containsStr(inPlay, r.ID) {
				options = append(options, r.ID)
			}
		}
	case role.Lunatic:
		topic = TopicLunaticCharade
		msg = fmt.Sprintf("Seat %d is the Lunatic: choose the demon they believe they are.", seatID)
		for _, r := range rolesOf(ctx, role.Demon) {
			options = append(options, r.ID)
		}
	default:
		return Request{}, false
	}
	if len(options) == 0 {
		return Request{}, false
	}
	return Request{
		Kind:    KindRoleChoice,
		Topic:   topic,
		ActorID: seatID,
		Roles:   options,
		Min:     1,
		Max:     1,
		Message: msg,
	}, true
}

func rolesOf(ctx *Context, t role.Type) []*role.Role {
	if ctx.Script != nil {
		if rs := ctx.Catalog.ScriptRoles(ctx.Script, t); len(rs) > 0 {
			return rs
		}
	}
	var out []*role.Role
	for _, r := range ctx.Catalog.Roles() {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}
