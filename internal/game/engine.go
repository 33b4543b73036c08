package game

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game/ability"
	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
	"go.uber.org/zap"
)

// 默认参数
const (
	DefaultSeatCount    = 15
	DefaultHistoryLimit = 200
)

// Options 引擎配置
type Options struct {
	SeatCount    int
	Seed         int64
	HistoryLimit int
	Logger       *zap.Logger
	Catalog      *role.Catalog
	// OnGameOver 游戏结束时提供对局记录，存储由调用方负责
	OnGameOver func(rec *Record)
}

// LogEntry 游戏日志
type LogEntry struct {
	Day     int    `json:"day"`
	Phase   Phase  `json:"phase"`
	ActorID *int   `json:"actor_id,omitempty"`
	Message string `json:"message"`
}

// Record 对局记录
type Record struct {
	ID         string          `json:"id"`
	ScriptName string          `json:"script_name"`
	StartedAt  time.Time       `json:"started_at"`
	EndedAt    time.Time       `json:"ended_at"`
	WinResult  role.Alignment  `json:"win_result"`
	WinReason  string          `json:"win_reason"`
	Seats      []grimoire.Seat `json:"seats"`
	Logs       []LogEntry      `json:"logs"`
}

// Engine 说书人规则引擎，非并发安全，由调用方串行驱动
type Engine struct {
	opts     Options
	logger   *zap.Logger
	catalog  *role.Catalog
	registry *ability.Registry
	store    *grimoire.Store
	machine  *PhaseMachine

	gameID     string
	script     *role.Script
	nightCount int
	queue      []int
	cursor     int
	stepDone   bool
	selection  []int

	pending  *ability.Request
	deferred []ability.Request

	night       ability.NightInfo
	today       ability.DayInfo
	nominations map[int]int // 被提名者 -> 提名者
	nominators  map[int]bool
	votes       map[int]int
	open        *int // 正在计票的被提名者
	judged      bool

	logs     []LogEntry
	history  []Snapshot
	hints    map[string]string
	warnings []string
	verdict  *grimoire.Verdict

	startedAt time.Time
	endedAt   time.Time
}

// New 创建引擎
func New(opts Options) (*Engine, error) {
	if opts.SeatCount <= 0 {
		opts.SeatCount = DefaultSeatCount
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Catalog == nil {
		cat, err := role.Default()
		if err != nil {
			return nil, err
		}
		opts.Catalog = cat
	}

	e := &Engine{
		opts:     opts,
		logger:   opts.Logger,
		catalog:  opts.Catalog,
		registry: ability.NewRegistry(opts.Catalog),
		store:    grimoire.NewStore(opts.SeatCount),
		machine:  NewPhaseMachine(opts.Logger),
	}
	e.clearRound()
	return e, nil
}

// clearRound 清空一局的全部状态
func (e *Engine) clearRound() {
	e.gameID = uuid.New().String()
	e.script = nil
	e.nightCount = 0
	e.queue = nil
	e.cursor = 0
	e.stepDone = false
	e.selection = nil
	e.pending = nil
	e.deferred = nil
	e.night = ability.NightInfo{}
	e.today = ability.DayInfo{}
	e.clearNominations()
	e.logs = nil
	e.history = nil
	e.hints = make(map[string]string)
	e.warnings = nil
	e.verdict = nil
	e.startedAt = time.Time{}
	e.endedAt = time.Time{}
}

func (e *Engine) clearNominations() {
	e.nominations = make(map[int]int)
	e.nominators = make(map[int]bool)
	e.votes = make(map[int]int)
	e.open = nil
	e.judged = false
}

// Phase 当前阶段
func (e *Engine) Phase() Phase {
	return e.machine.Current()
}

// NightCount 当前夜数
func (e *Engine) NightCount() int {
	return e.nightCount
}

// Seats 座位快照
func (e *Engine) Seats() []grimoire.Seat {
	return e.store.Seats()
}

// Seat 单个座位快照
func (e *Engine) Seat(id int) (grimoire.Seat, bool) {
	return e.store.Seat(id)
}

// Queue 今晚的唤醒队列与游标
func (e *Engine) Queue() ([]int, int) {
	return append([]int(nil), e.queue...), e.cursor
}

// CurrentSeat 当前行动的座位
func (e *Engine) CurrentSeat() (int, bool) {
	if !e.Phase().IsNight() || e.cursor >= len(e.queue) {
		return 0, false
	}
	return e.queue[e.cursor], true
}

// Selection 当前已选目标
func (e *Engine) Selection() []int {
	return append([]int(nil), e.selection...)
}

// Pending 待处理的交互
func (e *Engine) Pending() *ability.Request {
	if e.pending == nil {
		return nil
	}
	req := *e.pending
	return &req
}

// Logs 游戏日志
func (e *Engine) Logs() []LogEntry {
	return append([]LogEntry(nil), e.logs...)
}

// Verdict 胜负结果
func (e *Engine) Verdict() *grimoire.Verdict {
	if e.verdict == nil {
		return nil
	}
	v := *e.verdict
	return &v
}

// Script 当前剧本
func (e *Engine) Script() *role.Script {
	return e.script
}

// Warnings 核对阶段的提示
func (e *Engine) Warnings() []string {
	return append([]string(nil), e.warnings...)
}

// Registry 能力登记表
func (e *Engine) Registry() *ability.Registry {
	return e.registry
}

// log 追加游戏日志，同一阶段同一行动者的相同消息只记一次
func (e *Engine) log(actor *int, msg string) {
	day := e.nightCount
	phase := e.Phase()
	for _, l := range e.logs {
		if l.Day == day && l.Phase == phase && l.Message == msg && sameActor(l.ActorID, actor) {
			return
		}
	}
	e.logs = append(e.logs, LogEntry{Day: day, Phase: phase, ActorID: actor, Message: msg})
}

func sameActor(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// reject 记录被拒绝的操作
func (e *Engine) reject(op string, err error) error {
	e.logger.Debug("操作被拒绝", zap.String("op", op), zap.String("phase", string(e.Phase())), zap.Error(err))
	return err
}

// require 检查阶段与交互状态
func (e *Engine) require(op string, phases ...Phase) error {
	cur := e.Phase()
	if cur == PhaseGameOver {
		return e.reject(op, errors.New(errors.ErrGameOver))
	}
	ok := len(phases) == 0
	for _, p := range phases {
		if p == cur {
			ok = true
		}
	}
	if !ok {
		return e.reject(op, errors.Newf(errors.ErrIllegalPhase, "%s 不能在 %s 阶段执行", op, cur))
	}
	if e.pending != nil {
		return e.reject(op, errors.Newf(errors.ErrInteractionPending, "等待处理: %s", e.pending.Topic))
	}
	return nil
}

// seat 取座位，不存在时返回错误
func (e *Engine) seat(id int) (grimoire.Seat, error) {
	s, ok := e.store.Seat(id)
	if !ok {
		return s, errors.Newf(errors.ErrSeatNotFound, "座位 %d", id)
	}
	return s, nil
}

// rng 按阶段、夜数与座位确定的随机源，回退后重算的假信息保持一致
func (e *Engine) rng(phase Phase, seatID int) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(phase))
	seed := e.opts.Seed ^ int64(h.Sum64()) ^ int64(e.nightCount)<<16 ^ int64(seatID+1)<<32
	return rand.New(rand.NewSource(seed))
}

func hintKey(phase Phase, night, seatID int) string {
	return fmt.Sprintf("%s:%d:%d", phase, night, seatID)
}
