package game

import (
	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
)

// View 推送给说书人界面的只读状态
type View struct {
	GameID      string            `json:"game_id"`
	Phase       Phase             `json:"phase"`
	Script      string            `json:"script,omitempty"`
	NightCount  int               `json:"night_count"`
	Queue       []int             `json:"queue,omitempty"`
	Cursor      int               `json:"cursor"`
	CurrentSeat *int              `json:"current_seat,omitempty"`
	Selection   []int             `json:"selection,omitempty"`
	Hint        string            `json:"hint,omitempty"`
	Guide       string            `json:"guide,omitempty"`
	Pending     *ability.Request  `json:"pending,omitempty"`
	Seats       []grimoire.Seat   `json:"seats"`
	Nominations map[int]int       `json:"nominations,omitempty"`
	Votes       map[int]int       `json:"votes,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
	Logs        []LogEntry        `json:"logs,omitempty"`
	Verdict     *grimoire.Verdict `json:"verdict,omitempty"`
	ValidEvents []string          `json:"valid_events"`
	CanStepBack bool              `json:"can_step_back"`
}

// View 当前状态视图
func (e *Engine) View() View {
	v := View{
		GameID:      e.gameID,
		Phase:       e.Phase(),
		NightCount:  e.nightCount,
		Queue:       copyInts(e.queue),
		Cursor:      e.cursor,
		Selection:   e.Selection(),
		Hint:        e.Hint(),
		Guide:       e.Guide(),
		Pending:     e.Pending(),
		Seats:       e.store.Seats(),
		Nominations: e.Nominations(),
		Votes:       e.Votes(),
		Warnings:    e.Warnings(),
		Logs:        e.Logs(),
		Verdict:     e.Verdict(),
		ValidEvents: e.machine.ValidEvents(),
		CanStepBack: len(e.history) > 0,
	}
	if e.script != nil {
		v.Script = e.script.ID
	}
	if id, ok := e.CurrentSeat(); ok {
		v.CurrentSeat = &id
	}
	return v
}
