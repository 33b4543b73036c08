package game

import (
	"sort"
	"time"

	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
	"go.uber.org/zap"
)

// Snapshot 引擎的不可变快照，用于回退与持久化
type Snapshot struct {
	GameID      string            `json:"game_id"`
	Phase       Phase             `json:"phase"`
	ScriptID    string            `json:"script_id,omitempty"`
	NightCount  int               `json:"night_count"`
	Seats       []grimoire.Seat   `json:"seats"`
	Queue       []int             `json:"queue,omitempty"`
	Cursor      int               `json:"cursor"`
	StepDone    bool              `json:"step_done"`
	Selection   []int             `json:"selection,omitempty"`
	Pending     *ability.Request  `json:"pending,omitempty"`
	Deferred    []ability.Request `json:"deferred,omitempty"`
	Night       ability.NightInfo `json:"night"`
	Today       ability.DayInfo   `json:"today"`
	Nominations map[int]int       `json:"nominations"`
	Nominators  []int             `json:"nominators,omitempty"`
	Votes       map[int]int       `json:"votes"`
	Open        *int              `json:"open,omitempty"`
	Judged      bool              `json:"judged"`
	Logs        []LogEntry        `json:"logs,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
	Verdict     *grimoire.Verdict `json:"verdict,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	EndedAt     time.Time         `json:"ended_at"`
}

// Snapshot 当前状态的深拷贝
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		GameID:      e.gameID,
		Phase:       e.Phase(),
		NightCount:  e.nightCount,
		Seats:       e.store.Seats(),
		Queue:       copyInts(e.queue),
		Cursor:      e.cursor,
		StepDone:    e.stepDone,
		Selection:   copyInts(e.selection),
		Night:       copyNight(e.night),
		Today:       copyDay(e.today),
		Nominations: copyMap(e.nominations),
		Votes:       copyMap(e.votes),
		Open:        copyPtr(e.open),
		Judged:      e.judged,
		Logs:        copyLogs(e.logs),
		Warnings:    append([]string(nil), e.warnings...),
		StartedAt:   e.startedAt,
		EndedAt:     e.endedAt,
	}
	if e.script != nil {
		s.ScriptID = e.script.ID
	}
	if e.pending != nil {
		p := copyRequest(*e.pending)
		s.Pending = &p
	}
	for _, d := range e.deferred {
		s.Deferred = append(s.Deferred, copyRequest(d))
	}
	for id := range e.nominators {
		s.Nominators = append(s.Nominators, id)
	}
	sort.Ints(s.Nominators)
	if e.verdict != nil {
		v := *e.verdict
		s.Verdict = &v
	}
	return s
}

// Restore 从快照恢复，角色引用重新指向目录
func (e *Engine) Restore(s Snapshot) error {
	seats := grimoire.CloneSeats(s.Seats)
	for i := range seats {
		var err error
		if seats[i].Role, err = e.relink(seats[i].Role); err != nil {
			return err
		}
		if seats[i].CharadeRole, err = e.relink(seats[i].CharadeRole); err != nil {
			return err
		}
		if seats[i].DisplayRole, err = e.relink(seats[i].DisplayRole); err != nil {
			return err
		}
	}
	if len(seats) != e.store.Len() {
		return errors.Newf(errors.ErrInvariantViolation, "快照有 %d 个座位, 引擎有 %d 个", len(seats), e.store.Len())
	}
	var script *role.Script
	if s.ScriptID != "" {
		sc, ok := e.catalog.Script(s.ScriptID)
		if !ok {
			return errors.Newf(errors.ErrScriptNotFound, "剧本 %s", s.ScriptID)
		}
		script = sc
	}
	e.restore(s, seats)
	e.script = script
	e.history = nil
	e.hints = make(map[string]string)
	return nil
}

func (e *Engine) relink(r *role.Role) (*role.Role, error) {
	if r == nil {
		return nil, nil
	}
	got, ok := e.catalog.Get(r.ID)
	if !ok {
		return nil, errors.Newf(errors.ErrMissingRole, "角色 %s", r.ID)
	}
	return got, nil
}

// restore 应用快照，不校验
func (e *Engine) restore(s Snapshot, seats []grimoire.Seat) {
	e.store.Restore(seats)
	e.machine.restore(s.Phase)
	e.gameID = s.GameID
	e.nightCount = s.NightCount
	e.queue = copyInts(s.Queue)
	e.cursor = s.Cursor
	e.stepDone = s.StepDone
	e.selection = copyInts(s.Selection)
	e.pending = nil
	if s.Pending != nil {
		p := copyRequest(*s.Pending)
		e.pending = &p
	}
	e.deferred = nil
	for _, d := range s.Deferred {
		e.deferred = append(e.deferred, copyRequest(d))
	}
	e.night = copyNight(s.Night)
	e.today = copyDay(s.Today)
	e.nominations = copyMap(s.Nominations)
	e.votes = copyMap(s.Votes)
	e.nominators = make(map[int]bool, len(s.Nominators))
	for _, id := range s.Nominators {
		e.nominators[id] = true
	}
	e.open = copyPtr(s.Open)
	e.judged = s.Judged
	e.logs = copyLogs(s.Logs)
	e.warnings = append([]string(nil), s.Warnings...)
	e.verdict = nil
	if s.Verdict != nil {
		v := *s.Verdict
		e.verdict = &v
	}
	e.startedAt = s.StartedAt
	e.endedAt = s.EndedAt
}

// checkpoint 操作前压入快照
func (e *Engine) checkpoint() {
	e.history = append(e.history, e.Snapshot())
	if over := len(e.history) - e.opts.HistoryLimit; over > 0 {
		e.history = append([]Snapshot(nil), e.history[over:]...)
	}
}

// rollback 操作失败时撤销最近的快照
func (e *Engine) rollback() {
	if len(e.history) == 0 {
		return
	}
	last := e.history[len(e.history)-1]
	e.history = e.history[:len(e.history)-1]
	e.restore(last, grimoire.CloneSeats(last.Seats))
	e.restoreScript(last.ScriptID)
}

func (e *Engine) restoreScript(id string) {
	if id == "" {
		e.script = nil
		return
	}
	if sc, ok := e.catalog.Script(id); ok {
		e.script = sc
	}
}

// HistoryLen 可回退的步数
func (e *Engine) HistoryLen() int {
	return len(e.history)
}

// StepBack 回退到上一个快照，并清除缓存的提示以便重新生成
func (e *Engine) StepBack() error {
	if len(e.history) == 0 {
		return e.reject("step_back", errors.New(errors.ErrHistoryEmpty))
	}
	e.rollback()
	e.hints = make(map[string]string)
	e.logger.Debug("回退一步", zap.String("phase", string(e.Phase())), zap.Int("history", len(e.history)))
	return nil
}

func copyInts(s []int) []int {
	if s == nil {
		return nil
	}
	return append([]int(nil), s...)
}

func copyPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyMap(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyLogs(logs []LogEntry) []LogEntry {
	if logs == nil {
		return nil
	}
	out := make([]LogEntry, len(logs))
	for i, l := range logs {
		out[i] = l
		out[i].ActorID = copyPtr(l.ActorID)
	}
	return out
}

func copyNight(n ability.NightInfo) ability.NightInfo {
	return ability.NightInfo{Dead: copyInts(n.Dead), Woken: copyInts(n.Woken), Abnormal: n.Abnormal}
}

func copyDay(d ability.DayInfo) ability.DayInfo {
	return ability.DayInfo{ExecutedID: copyPtr(d.ExecutedID), Deaths: copyInts(d.Deaths), Nominators: copyInts(d.Nominators)}
}

func copyRequest(r ability.Request) ability.Request {
	r.Options = copyInts(r.Options)
	r.Data = copyInts(r.Data)
	if r.Roles != nil {
		r.Roles = append([]string(nil), r.Roles...)
	}
	return r
}
