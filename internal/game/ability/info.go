package ability

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

func registerInformation(r *Registry) {
	r.Register(role.Washerwoman, Entry{FirstNight: pairInfo(role.Townsfolk)})
	r.Register(role.Librarian, Entry{FirstNight: pairInfo(role.Outsider)})
	r.Register(role.Investigator, Entry{FirstNight: pairInfo(role.Minion)})
	r.Register(role.Chef, Entry{FirstNight: &Behavior{Class: ClassInfo, Handler: chef, Guide: "Show the Chef how many pairs of evil players sit together."}})

	empath := &Behavior{Class: ClassInfo, Handler: empath, Guide: "Show the Empath how many of their alive neighbours are evil."}
	r.Register(role.Empath, Entry{FirstNight: empath, OtherNight: empath})

	ft := &Behavior{Min: 2, Max: 2, Class: ClassInfo, Handler: fortuneTeller, Guide: "The Fortune Teller chooses 2 players."}
	r.Register(role.FortuneTeller, Entry{FirstNight: ft, OtherNight: ft})

	r.Register(role.Undertaker, Entry{OtherNight: &Behavior{
		Class:     ClassInfo,
		Condition: func(ctx *Context) bool { return ctx.Today.ExecutedID != nil },
		Handler:   undertaker,
		Guide:     "Show the Undertaker the character executed today.",
	}})
	r.Register(role.Ravenkeeper, Entry{OtherNight: &Behavior{
		Min:        1,
		Max:        1,
		Class:      ClassInfo,
		Posthumous: true,
		Condition:  func(ctx *Context) bool { return contains(ctx.Night.Dead, ctx.ActorID) },
		Handler:    ravenkeeper,
		Guide:      "The Ravenkeeper died tonight and chooses a player.",
	}})
	r.Register(role.Grandmother, Entry{
		FirstNight: &Behavior{Class: ClassInfo, Handler: grandmother, Guide: "Show the Grandmother their grandchild and its character."},
	})
	r.Register(role.Clockmaker, Entry{FirstNight: &Behavior{Class: ClassInfo, Handler: clockmaker, Guide: "Show the Clockmaker the distance from the demon to its nearest minion."}})

	dreamer := &Behavior{
		Min:   1,
		Max:   1,
		Class: ClassInfo,
		Eligible: func(candidate, actor grimoire.Seat, _ []grimoire.Seat, _ []int) bool {
			return candidate.ID != actor.ID && !candidate.IsType(role.Traveler)
		},
		Handler: dreamer,
		Guide:   "The Dreamer chooses a player (not themselves or a Traveller).",
	}
	r.Register(role.Dreamer, Entry{FirstNight: dreamer, OtherNight: dreamer})

	r.Register(role.Oracle, Entry{OtherNight: &Behavior{Class: ClassInfo, Handler: oracle, Guide: "Show the Oracle how many dead players are evil."}})

	seamstress := &Behavior{
		Min:       0,
		Max:       2,
		Class:     ClassInfo,
		Once:      true,
		Eligible:  NotSelf,
		Condition: func(ctx *Context) bool { return !ctx.Actor().AbilityUsed },
		Handler:   seamstress,
		Guide:     "The Seamstress may choose 2 players, once per game.",
	}
	r.Register(role.Seamstress, Entry{FirstNight: seamstress, OtherNight: seamstress})

	r.Register(role.TownCrier, Entry{OtherNight: &Behavior{Class: ClassInfo, Handler: townCrier, Guide: "Show the Town Crier whether a minion nominated today."}})
	r.Register(role.Flowergirl, Entry{OtherNight: &Behavior{Class: ClassInfo, Handler: flowergirl, Guide: "Show the Flowergirl whether a demon voted today."}})

	math := &Behavior{Class: ClassInfo, Handler: mathematician, Guide: "Show the Mathematician how many abilities malfunctioned since dawn."}
	r.Register(role.Mathematician, Entry{FirstNight: math, OtherNight: math})

	chambermaid := &Behavior{Min: 2, Max: 2, Class: ClassInfo, Eligible: AliveOther, Handler: chambermaid, Guide: "The Chambermaid chooses 2 alive players."}
	r.Register(role.Chambermaid, Entry{FirstNight: chambermaid, OtherNight: chambermaid})

	r.Register(role.Juggler, Entry{
		Day: &Behavior{
			Min:       1,
			Max:       5,
			Class:     ClassInfo,
			Condition: func(ctx *Context) bool { return ctx.NightCount == 1 && len(ctx.Actor().Guesses) == 0 },
			Handler:   jugglerGuess,
			Guide:     "On their first day the Juggler guesses up to 5 players' characters.",
		},
		OtherNight: &Behavior{
			Class:     ClassInfo,
			Condition: func(ctx *Context) bool { return len(ctx.Actor().Guesses) > 0 },
			Handler:   jugglerCount,
			Guide:     "Show the Juggler how many guesses were correct.",
		},
	})

	spy := &Behavior{Class: ClassInfo, Handler: spy, Guide: "Show the Spy the Grimoire."}
	r.Register(role.Spy, Entry{FirstNight: spy, OtherNight: spy})
}

// pairInfo 洗衣妇、图书管理员、调查员：两人之一是某角色
func pairInfo(t role.Type) *Behavior {
	return &Behavior{
		Class: ClassInfo,
		Guide: fmt.Sprintf("Show 2 players, one of whom is a particular %s.", t),
		Handler: func(ctx *Context) Result {
			var res Result
			others := ctx.Others(ctx.ActorID)
			if ctx.Lies() {
				r := ctx.PickRole(nil, t)
				a := ctx.Pick(others)
				if r == nil || a == nil {
					res.Hint = fmt.Sprintf("There are no %ss in play.", t)
					return res
				}
				b := ctx.Pick(ctx.Others(ctx.ActorID, a.ID))
				res.Hint = pairHint(a, b, r.Name)
				return res
			}
			matches := ctx.Filter(func(s *grimoire.Seat) bool { return s.ID != ctx.ActorID && s.IsType(t) })
			target := ctx.Pick(matches)
			if target == nil {
				res.Hint = fmt.Sprintf("There are no %ss in play.", t)
				return res
			}
			decoy := ctx.Pick(ctx.Others(ctx.ActorID, target.ID))
			res.Hint = pairHint(target, decoy, target.Role.Name)
			return res
		},
	}
}

func pairHint(a, b *grimoire.Seat, name string) string {
	if b == nil {
		return fmt.Sprintf("Seat %d is the %s.", a.ID, name)
	}
	x, y := a.ID, b.ID
	if x > y {
		x, y = y, x
	}
	return fmt.Sprintf("One of seat %d or seat %d is the %s.", x, y, name)
}

func chef(ctx *Context) Result {
	ring := ctx.Ring()
	pairs := 0
	if len(ring) > 1 {
		for i := range ring {
			next := ring[(i+1)%len(ring)]
			if len(ring) == 2 && i == 1 {
				break
			}
			if ring[i].IsEvil() && next.IsEvil() {
				pairs++
			}
		}
	}
	if ctx.Lies() {
		pairs = ctx.WrongNumber(pairs, 2)
	}
	return Result{Hint: fmt.Sprintf("There are %d pairs of evil players.", pairs)}
}

func empath(ctx *Context) Result {
	n := 0
	for _, s := range ctx.AliveNeighbors(ctx.ActorID) {
		if s.IsEvil() {
			n++
		}
	}
	if ctx.Lies() {
		n = ctx.WrongNumber(n, 2)
	}
	return Result{Hint: fmt.Sprintf("%d of your alive neighbours are evil.", n)}
}

func fortuneTeller(ctx *Context) Result {
	yes := false
	for i := range ctx.Targets {
		t := ctx.Target(i)
		if t.IsType(role.Demon) || t.HasStatus(grimoire.StatusRedHerring) {
			yes = true
		}
	}
	if ctx.Lies() {
		yes = !yes
	}
	if yes {
		return Result{Hint: "Yes, one of them is the demon."}
	}
	return Result{Hint: "No, neither of them is the demon."}
}

func undertaker(ctx *Context) Result {
	executed := ctx.Seat(*ctx.Today.ExecutedID)
	if executed == nil || executed.Role == nil {
		return Result{Hint: "Nobody was executed today."}
	}
	name := executed.Role.Name
	if ctx.Lies() {
		if r := ctx.PickRole([]string{executed.Role.ID}, role.Townsfolk, role.Outsider, role.Minion, role.Demon); r != nil {
			name = r.Name
		}
	}
	return Result{Hint: fmt.Sprintf("The executed player was the %s.", name)}
}

func ravenkeeper(ctx *Context) Result {
	t := ctx.Target(0)
	name := roleName(t)
	if ctx.Lies() && t.Role != nil {
		if r := ctx.PickRole([]string{t.Role.ID}, role.Townsfolk, role.Outsider, role.Minion, role.Demon); r != nil {
			name = r.Name
		}
	}
	return Result{Hint: fmt.Sprintf("Seat %d is the %s.", t.ID, name)}
}

func grandmother(ctx *Context) Result {
	var res Result
	good := ctx.Filter(func(s *grimoire.Seat) bool { return s.ID != ctx.ActorID && !s.IsEvil() })
	child := ctx.Pick(good)
	if child == nil {
		res.Hint = "You have no grandchild."
		return res
	}
	name := child.Role.Name
	if ctx.Lies() {
		if r := ctx.PickRole([]string{child.Role.ID}, role.Townsfolk, role.Outsider); r != nil {
			name = r.Name
		}
	} else {
		res.mutate(grimoire.AddStatus{SeatID: child.ID, Effect: grimoire.NewEffect(grimoire.StatusGrandchild, grimoire.Permanent, grimoire.Ptr(ctx.ActorID))})
	}
	res.Hint = fmt.Sprintf("Your grandchild is seat %d, the %s.", child.ID, name)
	return res
}

func clockmaker(ctx *Context) Result {
	ring := ctx.Ring()
	best := 0
	for i, d := range ring {
		if !d.IsType(role.Demon) {
			continue
		}
		for j, m := range ring {
			if !m.IsType(role.Minion) {
				continue
			}
			dist := i - j
			if dist < 0 {
				dist = -dist
			}
			if alt := len(ring) - dist; alt < dist {
				dist = alt
			}
			if best == 0 || dist < best {
				best = dist
			}
		}
	}
	if ctx.Lies() {
		best = ctx.WrongNumber(best, len(ring)/2)
		if best == 0 {
			best = 1
		}
	}
	return Result{Hint: fmt.Sprintf("The demon is %d steps from its nearest minion.", best)}
}

func dreamer(ctx *Context) Result {
	t := ctx.Target(0)
	if t.Role == nil {
		return Result{Hint: "That seat is empty."}
	}
	var a, b *role.Role
	if ctx.Lies() {
		a = ctx.PickRole([]string{t.Role.ID}, role.Townsfolk, role.Outsider)
		b = ctx.PickRole([]string{t.Role.ID}, role.Minion, role.Demon)
	} else if t.IsEvil() {
		a = t.Role
		b = ctx.PickRole([]string{t.Role.ID}, role.Townsfolk, role.Outsider)
	} else {
		a = t.Role
		b = ctx.PickRole([]string{t.Role.ID}, role.Minion, role.Demon)
	}
	names := []string{}
	for _, r := range []*role.Role{a, b} {
		if r != nil {
			names = append(names, r.Name)
		}
	}
	sort.Strings(names)
	return Result{Hint: fmt.Sprintf("Seat %d is one of: %s.", t.ID, strings.Join(names, ", "))}
}

func oracle(ctx *Context) Result {
	n := len(ctx.Filter(func(s *grimoire.Seat) bool { return !s.RegistersAlive() && s.IsEvil() }))
	if ctx.Lies() {
		n = ctx.WrongNumber(n, len(ctx.Filter(func(s *grimoire.Seat) bool { return !s.RegistersAlive() })))
	}
	return Result{Hint: fmt.Sprintf("%d dead players are evil.", n)}
}

func seamstress(ctx *Context) Result {
	if len(ctx.Targets) < 2 {
		return Result{Logs: []string{"the Seamstress keeps their ability"}, Hint: "You chose not to use your ability."}
	}
	same := ctx.Target(0).IsEvil() == ctx.Target(1).IsEvil()
	if ctx.Lies() {
		same = !same
	}
	if same {
		return Result{Hint: "Yes, they are the same alignment."}
	}
	return Result{Hint: "No, they are different alignments."}
}

func townCrier(ctx *Context) Result {
	yes := false
	for _, id := range ctx.Today.Nominators {
		if s := ctx.Seat(id); s != nil && s.IsType(role.Minion) {
			yes = true
		}
	}
	if ctx.Lies() {
		yes = !yes
	}
	if yes {
		return Result{Hint: "Yes, a minion nominated today."}
	}
	return Result{Hint: "No minion nominated today."}
}

func flowergirl(ctx *Context) Result {
	yes := len(ctx.Filter(func(s *grimoire.Seat) bool {
		return s.IsType(role.Demon) && s.HasStatus(grimoire.StatusVoted)
	})) > 0
	if ctx.Lies() {
		yes = !yes
	}
	if yes {
		return Result{Hint: "Yes, a demon voted today."}
	}
	return Result{Hint: "No demon voted today."}
}

func mathematician(ctx *Context) Result {
	n := ctx.Night.Abnormal
	if ctx.Lies() {
		n = ctx.WrongNumber(n, len(ctx.Players()))
	}
	return Result{Hint: fmt.Sprintf("%d abilities worked abnormally.", n)}
}

func chambermaid(ctx *Context) Result {
	n := 0
	for _, id := range ctx.Targets {
		if contains(ctx.Night.Woken, id) {
			n++
		}
	}
	if ctx.Lies() {
		n = ctx.WrongNumber(n, 2)
	}
	return Result{Hint: fmt.Sprintf("%d of them woke tonight.", n)}
}

func jugglerGuess(ctx *Context) Result {
	var res Result
	guesses := make([]grimoire.Guess, 0, len(ctx.Guesses))
	for _, g := range ctx.Guesses {
		if contains(ctx.Targets, g.SeatID) {
			guesses = append(guesses, g)
		}
	}
	res.mutate(grimoire.RecordGuesses{SeatID: ctx.ActorID, Guesses: guesses})
	res.log(fmt.Sprintf("the Juggler makes %d guesses", len(guesses)))
	return res
}

func jugglerCount(ctx *Context) Result {
	var res Result
	n := 0
	for _, g := range ctx.Actor().Guesses {
		if s := ctx.Seat(g.SeatID); s != nil && s.Role != nil && s.Role.ID == g.RoleID {
			n++
		}
	}
	if ctx.Lies() {
		n = ctx.WrongNumber(n, len(ctx.Actor().Guesses))
	}
	res.mutate(grimoire.RecordGuesses{SeatID: ctx.ActorID})
	res.Hint = fmt.Sprintf("You guessed %d correctly.", n)
	return res
}

func spy(ctx *Context) Result {
	var b strings.Builder
	for _, s := range ctx.Players() {
		state := "alive"
		if s.IsDead {
			state = "dead"
		}
		fmt.Fprintf(&b, "Seat %d: %s (%s)", s.ID, s.Role.Name, state)
		if len(s.StatusDetails) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(s.StatusDetails, "; "))
		}
		b.WriteString(". ")
	}
	return Result{Hint: strings.TrimSpace(b.String())}
}
