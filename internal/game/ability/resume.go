package ability

import (
	"fmt"

	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

// Resume 交互解决后按恢复令牌继续
func (r *Registry) Resume(ctx *Context, req Request, p Payload) (Result, error) {
	if err := req.Validate(p); err != nil {
		return Result{}, err
	}
	var res Result
	first := -1
	if len(p.SeatIDs) > 0 {
		first = p.SeatIDs[0]
	}

	switch req.Topic {
	case TopicSuccessor:
		demon, ok := r.catalog.Get(req.RoleID)
		if !ok {
			return res, errors.Newf(errors.ErrMissingRole, "role %s", req.RoleID)
		}
		res.mutate(grimoire.PromoteSuccessor{SeatID: first, Demon: demon})
		res.log(fmt.Sprintf("seat %d becomes the %s", first, demon.Name))

	case TopicSailorDrunk, TopicInnkeeperDrunk:
		res.mutate(grimoire.AddStatus{SeatID: first, Effect: grimoire.NewEffect(grimoire.StatusDrunk, grimoire.UntilNextDusk, grimoire.Ptr(req.ActorID))})
		res.log(fmt.Sprintf("seat %d is drunk until dusk", first))

	case TopicMayorBounce:
		res.mutate(grimoire.Kill{SeatID: first, Cause: grimoire.CauseDemon})
		if first == req.ActorID {
			res.log(fmt.Sprintf("the Mayor (seat %d) dies", first))
		} else {
			res.log(fmt.Sprintf("seat %d dies instead of the Mayor", first))
		}

	case TopicRegurgitate:
		for _, id := range p.SeatIDs {
			res.mutate(grimoire.Resurrect{SeatID: id})
			res.log(fmt.Sprintf("the Shabaloth regurgitates seat %d", id))
		}
		if len(p.SeatIDs) == 0 {
			res.log("nobody is regurgitated")
		}

	case TopicPoKills:
		for _, id := range p.SeatIDs {
			res.Merge(AttemptKill(ctx, id, grimoire.CauseDemon, false))
		}
		if len(p.SeatIDs) == 0 {
			res.log("the storyteller rules that the Po's charged attack kills nobody")
		}

	case TopicGossip:
		if !p.Confirm || first < 0 {
			res.log("the Gossip's statement was false, nobody dies")
			break
		}
		res.Merge(AttemptKill(ctx, first, grimoire.CauseAbility, false))

	case TopicGambler:
		target := ctx.Seat(req.Data[0])
		if target != nil && target.IsRole(p.RoleID) {
			res.log(fmt.Sprintf("the Gambler guessed seat %d correctly", req.Data[0]))
			break
		}
		res.log(fmt.Sprintf("the Gambler guessed %s for seat %d and was wrong", p.RoleID, req.Data[0]))
		res.Merge(AttemptKill(ctx, req.ActorID, grimoire.CauseAbility, false))

	case TopicPitHagRole:
		nr, ok := r.catalog.Get(p.RoleID)
		if !ok {
			return res, errors.Newf(errors.ErrMissingRole, "role %s", p.RoleID)
		}
		target := req.Data[0]
		res.mutate(grimoire.ChangeRole{SeatID: target, Role: nr})
		res.log(fmt.Sprintf("the Pit-Hag turns seat %d into the %s", target, nr.Name))
		if nr.Type == role.Demon {
			res.log("a demon was made: deaths tonight are arbitrary")
		}

	case TopicDrunkCharade, TopicLunaticCharade:
		nr, ok := r.catalog.Get(p.RoleID)
		if !ok {
			return res, errors.Newf(errors.ErrMissingRole, "role %s", p.RoleID)
		}
		res.mutate(grimoire.ChangeCharade{SeatID: req.ActorID, Role: nr})
		res.log(fmt.Sprintf("seat %d believes they are the %s", req.ActorID, nr.Name))

	case TopicMoonchild:
		if first < 0 {
			res.log("the Moonchild chose nobody")
			break
		}
		target := ctx.Seat(first)
		if target != nil && !target.IsEvil() {
			res.Merge(AttemptKill(ctx, first, grimoire.CauseAbility, false))
		} else {
			res.log(fmt.Sprintf("the Moonchild chose seat %d, who is evil: nobody dies", first))
		}

	case TopicSweetheart:
		res.mutate(grimoire.AddStatus{SeatID: first, Effect: grimoire.NewEffect(grimoire.StatusDrunk, grimoire.Permanent, grimoire.Ptr(req.ActorID))})
		res.log(fmt.Sprintf("the Sweetheart's death leaves seat %d drunk for the rest of the game", first))

	case TopicKlutz:
		target := ctx.Seat(first)
		if target != nil && target.IsEvil() {
			res.Verdict = &grimoire.Verdict{Winner: role.Evil, Reason: grimoire.ReasonKlutzChoseEvil}
			res.log(fmt.Sprintf("the Klutz chose seat %d, who is evil", first))
		} else {
			res.log(fmt.Sprintf("the Klutz chose seat %d, who is good", first))
		}

	case TopicBarber:
		switch len(p.SeatIDs) {
		case 0:
			res.log("the demon declines the Barber's haircut")
		case 2:
			res.mutate(grimoire.SwapRoles{A: p.SeatIDs[0], B: p.SeatIDs[1]})
			res.log(fmt.Sprintf("the Barber's death swaps the characters of seats %d and %d", p.SeatIDs[0], p.SeatIDs[1]))
		default:
			return Result{}, errors.New(errors.ErrInvalidTarget, "choose exactly two players or none")
		}

	case TopicEvilTwin:
		res.mutate(grimoire.LinkTwins{EvilID: req.ActorID, GoodID: first})
		res.log(fmt.Sprintf("the Evil Twin (seat %d) is paired with seat %d", req.ActorID, first))

	default:
		return res, errors.Newf(errors.ErrInteractionMismatch, "topic %s cannot be resumed here", req.Topic)
	}
	return res, nil
}
