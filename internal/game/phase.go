package game

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wfunc/grimoire/internal/errors"
	"go.uber.org/zap"
)

// Phase 游戏阶段
type Phase string

const (
	PhaseScriptSelection Phase = "script_selection" // 选择剧本
	PhaseSetup           Phase = "setup"            // 分配角色
	PhaseCheck           Phase = "check"            // 开局核对
	PhaseFirstNight      Phase = "first_night"      // 首夜
	PhaseNight           Phase = "night"            // 其他夜晚
	PhaseDay             Phase = "day"              // 白天
	PhaseDusk            Phase = "dusk"             // 黄昏（提名与处决）
	PhaseDawnReport      Phase = "dawn_report"      // 天亮死亡报告
	PhaseGameOver        Phase = "game_over"        // 游戏结束
)

// IsNight 是否夜晚
func (p Phase) IsNight() bool {
	return p == PhaseFirstNight || p == PhaseNight
}

// InGame 是否已开局
func (p Phase) InGame() bool {
	switch p {
	case PhaseFirstNight, PhaseNight, PhaseDay, PhaseDusk, PhaseDawnReport:
		return true
	}
	return false
}

// 阶段事件
const (
	EventSelectScript    = "select_script"
	EventBeginCheck      = "begin_check"
	EventCancelCheck     = "cancel_check"
	EventStartFirstNight = "start_first_night"
	EventEndNight        = "end_night"
	EventStartDay        = "start_day"
	EventOpenDusk        = "open_dusk"
	EventStartNight      = "start_night"
	EventGameOver        = "game_over"
	EventReset           = "reset"
)

// Transition 阶段转换定义
type Transition struct {
	From  Phase
	Event string
	To    Phase
}

// PhaseMachine 阶段状态机
type PhaseMachine struct {
	current     Phase
	transitions map[string][]Transition
	logger      *zap.Logger
	lastUpdate  time.Time

	onStateChange func(from, to Phase, event string)
}

// NewPhaseMachine 创建阶段状态机
func NewPhaseMachine(logger *zap.Logger) *PhaseMachine {
	if logger == nil {
		logger = zap.NewNop()
	}
	pm := &PhaseMachine{
		current:     PhaseScriptSelection,
		transitions: make(map[string][]Transition),
		logger:      logger,
		lastUpdate:  time.Now(),
	}
	pm.initTransitions()
	return pm
}

// initTransitions 初始化阶段转换规则
func (pm *PhaseMachine) initTransitions() {
	pm.addTransition(Transition{From: PhaseScriptSelection, Event: EventSelectScript, To: PhaseSetup})
	// 换剧本
	pm.addTransition(Transition{From: PhaseSetup, Event: EventSelectScript, To: PhaseSetup})
	pm.addTransition(Transition{From: PhaseSetup, Event: EventBeginCheck, To: PhaseCheck})
	pm.addTransition(Transition{From: PhaseCheck, Event: EventCancelCheck, To: PhaseSetup})
	pm.addTransition(Transition{From: PhaseCheck, Event: EventStartFirstNight, To: PhaseFirstNight})

	pm.addTransition(Transition{From: PhaseFirstNight, Event: EventEndNight, To: PhaseDawnReport})
	pm.addTransition(Transition{From: PhaseNight, Event: EventEndNight, To: PhaseDawnReport})
	pm.addTransition(Transition{From: PhaseDawnReport, Event: EventStartDay, To: PhaseDay})
	pm.addTransition(Transition{From: PhaseDay, Event: EventOpenDusk, To: PhaseDusk})
	pm.addTransition(Transition{From: PhaseDusk, Event: EventStartNight, To: PhaseNight})

	for _, p := range []Phase{PhaseFirstNight, PhaseNight, PhaseDay, PhaseDusk, PhaseDawnReport} {
		pm.addTransition(Transition{From: p, Event: EventGameOver, To: PhaseGameOver})
	}

	// 任何阶段都可以重开
	for _, p := range []Phase{PhaseScriptSelection, PhaseSetup, PhaseCheck, PhaseFirstNight, PhaseNight, PhaseDay, PhaseDusk, PhaseDawnReport, PhaseGameOver} {
		pm.addTransition(Transition{From: p, Event: EventReset, To: PhaseScriptSelection})
	}
}

// addTransition 添加阶段转换
func (pm *PhaseMachine) addTransition(t Transition) {
	key := transitionKey(t.From, t.Event)
	pm.transitions[key] = append(pm.transitions[key], t)
}

// transitionKey 生成转换键
func transitionKey(p Phase, event string) string {
	return fmt.Sprintf("%s:%s", p, event)
}

// Trigger 触发事件
func (pm *PhaseMachine) Trigger(event string) error {
	key := transitionKey(pm.current, event)
	transitions, exists := pm.transitions[key]
	if !exists || len(transitions) == 0 {
		return errors.Newf(errors.ErrIllegalPhase, "阶段=%s, 事件=%s", pm.current, event)
	}

	from := pm.current
	pm.current = transitions[0].To
	pm.lastUpdate = time.Now()

	if pm.onStateChange != nil {
		pm.onStateChange(from, pm.current, event)
	}

	pm.logger.Info("阶段转换",
		zap.String("from", string(from)),
		zap.String("to", string(pm.current)),
		zap.String("event", event))
	return nil
}

// Current 当前阶段
func (pm *PhaseMachine) Current() Phase {
	return pm.current
}

// OnStateChange 设置阶段变更回调
func (pm *PhaseMachine) OnStateChange(fn func(from, to Phase, event string)) {
	pm.onStateChange = fn
}

// CanTransition 检查是否可以转换
func (pm *PhaseMachine) CanTransition(event string) bool {
	transitions, exists := pm.transitions[transitionKey(pm.current, event)]
	return exists && len(transitions) > 0
}

// ValidEvents 当前阶段下的有效事件
func (pm *PhaseMachine) ValidEvents() []string {
	var events []string
	prefix := string(pm.current) + ":"
	for key := range pm.transitions {
		if strings.HasPrefix(key, prefix) {
			events = append(events, key[len(prefix):])
		}
	}
	sort.Strings(events)
	return events
}

// restore 从快照恢复阶段，不触发回调
func (pm *PhaseMachine) restore(p Phase) {
	pm.current = p
	pm.lastUpdate = time.Now()
}
