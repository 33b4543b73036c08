// Package ability 角色能力登记表：唤醒顺序、目标约束与结算处理器
package ability

import (
	"math/rand"

	"github.com/wfunc/grimoire/internal/game/grimoire"
	"github.com/wfunc/grimoire/internal/game/role"
)

// Kind 能力时段
type Kind string

const (
	FirstNight Kind = "first_night"
	OtherNight Kind = "other_night"
	Day        Kind = "day"
)

// IsNight 是否夜晚
func (k Kind) IsNight() bool {
	return k == FirstNight || k == OtherNight
}

// Class 能力失效时的处理方式
type Class int

const (
	// ClassEffect 失效时记为无效果
	ClassEffect Class = iota
	// ClassInfo 失效时处理器照常运行并给出假信息
	ClassInfo
	// ClassSuppressed 失效时不允许选择目标
	ClassSuppressed
)

// Eligibility 目标合法性判断
type Eligibility func(candidate, actor grimoire.Seat, seats []grimoire.Seat, chosen []int) bool

// Handler 纯函数处理器
type Handler func(ctx *Context) Result

// Behavior 某一时段的能力描述
type Behavior struct {
	Order      int
	OrderFunc  func(seat grimoire.Seat) int
	Min, Max   int
	Bounds     func(actor grimoire.Seat) (int, int)
	Eligible   Eligibility
	Class      Class
	Once       bool // 每局一次，选择了目标即消耗
	Posthumous bool // 死亡后仍会被唤醒
	Condition  func(ctx *Context) bool
	Handler    Handler
	Guide      string
}

// TargetBounds 目标数量范围
func (b *Behavior) TargetBounds(actor grimoire.Seat) (int, int) {
	if b.Bounds != nil {
		return b.Bounds(actor)
	}
	return b.Min, b.Max
}

// Entry 角色在各时段的能力
type Entry struct {
	FirstNight *Behavior
	OtherNight *Behavior
	Day        *Behavior
	// OnDeath 死亡触发
	OnDeath func(ctx *Context, death grimoire.Death) Result
}

// Behavior 按时段取能力
func (e *Entry) Behavior(k Kind) *Behavior {
	switch k {
	case FirstNight:
		return e.FirstNight
	case OtherNight:
		return e.OtherNight
	case Day:
		return e.Day
	}
	return nil
}

// NightInfo 今晚已发生的事
type NightInfo struct {
	Dead     []int // 今晚死亡
	Woken    []int // 今晚因能力被唤醒
	Abnormal int   // 今晚失效的能力次数
}

// DayInfo 最近一个白天发生的事
type DayInfo struct {
	ExecutedID *int
	Deaths     []int
	Nominators []int
}

// Context 处理器的只读输入
type Context struct {
	Kind        Kind
	NightCount  int
	Seats       []grimoire.Seat
	ActorID     int
	Targets     []int
	Disabled    bool
	Falsify     bool
	Rand        *rand.Rand
	Catalog     *role.Catalog
	Script      *role.Script
	Night       NightInfo
	Today       DayInfo
	AliveBefore int
	Guesses     []grimoire.Guess
}

// Result 处理结果
type Result struct {
	Mutations    []grimoire.Mutation
	Logs         []string
	Hint         string
	Interactions []Request
	Verdict      *grimoire.Verdict
}

// Merge 合并结果
func (r *Result) Merge(o Result) {
	r.Mutations = append(r.Mutations, o.Mutations...)
	r.Logs = append(r.Logs, o.Logs...)
	r.Interactions = append(r.Interactions, o.Interactions...)
	if o.Hint != "" {
		if r.Hint != "" {
			r.Hint += " "
		}
		r.Hint += o.Hint
	}
	if r.Verdict == nil {
		r.Verdict = o.Verdict
	}
}

func (r *Result) mutate(ms ...grimoire.Mutation) {
	r.Mutations = append(r.Mutations, ms...)
}

func (r *Result) log(msg string) {
	r.Logs = append(r.Logs, msg)
}

func (r *Result) ask(req Request) {
	r.Interactions = append(r.Interactions, req)
}

// Logged 只含日志的结果
func Logged(msg string) Result {
	return Result{Logs: []string{msg}}
}
