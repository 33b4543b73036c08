package grimoire

import (
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/role"
)

// 胜负原因
const (
	ReasonTwoAlive         = "only two players remain alive with the demon"
	ReasonAllEvil          = "every living player is evil"
	ReasonTwinExecuted     = "the good twin was executed"
	ReasonSaintExecuted    = "the saint was executed"
	ReasonDemonDead        = "the demon is dead"
	ReasonMayorSurvives    = "three players remain with the mayor and no execution"
	ReasonVortoxNoExecute  = "no execution while the vortox lives"
	ReasonKlutzChoseEvil   = "the klutz chose an evil player"
	ReasonStorytellerCalls = "the storyteller ended the game"
)

// Verdict 胜负结果，设置后不可变
type Verdict struct {
	Winner role.Alignment `json:"winner"`
	Reason string         `json:"reason"`
}

// Situation 判定时的当日上下文
type Situation struct {
	ExecutedID      *int // 今日被处决者
	ExecutedHealthy bool // 处决时是否健康
	DayEnded        bool // 白天结束时的判定
	NoExecution     bool // 今日无人被处决
	// 说书人尚未指定星传继任者
	SuccessorPending bool
}

// Evaluate 按优先级判定胜负，无结果时返回nil
func Evaluate(seats []Seat, sit Situation) (*Verdict, error) {
	var players []*Seat
	for i := range seats {
		if seats[i].InPlay() {
			players = append(players, &seats[i])
		}
	}
	if len(players) == 0 {
		return nil, errors.New(errors.ErrInvariantViolation, "no seats in play")
	}

	alive := 0
	demonAlive := false
	allEvil := true
	for _, s := range players {
		if !s.IsAlive() {
			continue
		}
		alive++
		if s.IsType(role.Demon) {
			demonAlive = true
		}
		if !s.IsEvil() {
			allEvil = false
		}
	}

	// 仅剩两人且恶魔存活
	if alive <= 2 && demonAlive {
		return &Verdict{Winner: role.Evil, Reason: ReasonTwoAlive}, nil
	}
	// 存活者全部邪恶
	if alive > 0 && allEvil {
		return &Verdict{Winner: role.Evil, Reason: ReasonAllEvil}, nil
	}

	var executed *Seat
	if sit.ExecutedID != nil {
		for _, s := range players {
			if s.ID == *sit.ExecutedID {
				executed = s
			}
		}
	}
	// 善良双子被处决
	if executed != nil && executed.TwinID != nil && !executed.IsEvil() && executed.IsDead {
		if twin := findSeat(players, *executed.TwinID); twin != nil && twin.IsRole(role.EvilTwin) {
			return &Verdict{Winner: role.Evil, Reason: ReasonTwinExecuted}, nil
		}
	}
	// 圣徒健康时被处决
	if executed != nil && executed.IsRole(role.Saint) && sit.ExecutedHealthy && executed.IsDead {
		return &Verdict{Winner: role.Evil, Reason: ReasonSaintExecuted}, nil
	}

	twinsBlockGood := twinsAlive(players)

	// 恶魔死亡且无合格继任者
	if !demonAlive && !twinsBlockGood && !sit.SuccessorPending && !successorAvailable(players, alive) {
		return &Verdict{Winner: role.Good, Reason: ReasonDemonDead}, nil
	}
	if sit.DayEnded && sit.NoExecution {
		// 市长存活三人且今日无处决
		if alive == 3 && !twinsBlockGood {
			for _, s := range players {
				if s.IsRole(role.Mayor) && s.IsAlive() && !s.Disabled() {
					return &Verdict{Winner: role.Good, Reason: ReasonMayorSurvives}, nil
				}
			}
		}
		// 涡流存活且今日无处决
		for _, s := range players {
			if s.IsRole(role.Vortox) && s.IsAlive() && !s.Disabled() {
				return &Verdict{Winner: role.Evil, Reason: ReasonVortoxNoExecute}, nil
			}
		}
	}
	return nil, nil
}

// successorAvailable 是否有可接任的红唇女郎
func successorAvailable(players []*Seat, alive int) bool {
	if alive < 5 {
		return false
	}
	for _, s := range players {
		if s.IsRole(role.ScarletWoman) && s.IsAlive() && !s.Disabled() && !s.IsDemonSuccessor {
			return true
		}
	}
	return false
}

// twinsAlive 双子均存活时善良方无法获胜
func twinsAlive(players []*Seat) bool {
	for _, s := range players {
		if !s.IsRole(role.EvilTwin) || !s.IsAlive() || s.TwinID == nil {
			continue
		}
		if twin := findSeat(players, *s.TwinID); twin != nil && twin.IsAlive() {
			return true
		}
	}
	return false
}

func findSeat(players []*Seat, id int) *Seat {
	for _, s := range players {
		if s.ID == id {
			return s
		}
	}
	return nil
}
