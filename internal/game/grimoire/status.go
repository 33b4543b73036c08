package grimoire

import "fmt"

// StatusKind 状态种类
type StatusKind string

const (
	StatusPoisoned     StatusKind = "poisoned"
	StatusDrunk        StatusKind = "drunk"
	StatusProtected    StatusKind = "protected" // 免疫恶魔
	StatusShielded     StatusKind = "shielded"  // 今晚不会死亡
	StatusExorcised    StatusKind = "exorcised"
	StatusCursed       StatusKind = "cursed"
	StatusSafeExecute  StatusKind = "safe_from_execution"
	StatusMad          StatusKind = "mad"
	StatusRedHerring   StatusKind = "red_herring"
	StatusGrandchild   StatusKind = "grandchild"
	StatusKeepsAbility StatusKind = "keeps_ability"
	StatusVoted        StatusKind = "voted"
	StatusStatement    StatusKind = "statement"
)

// Duration 清除时机标签
type Duration string

const (
	ThisNight     Duration = "this_night"
	UntilNextDusk Duration = "until_next_dusk"
	Permanent     Duration = "permanent"
	Days          Duration = "days"
)

// StatusEffect 带时效的状态标记
type StatusEffect struct {
	Kind          StatusKind `json:"kind"`
	Duration      Duration   `json:"duration"`
	RemainingDays int        `json:"remaining_days,omitempty"`
	SourceID      *int       `json:"source_id,omitempty"`
}

// NewEffect 创建状态标记
func NewEffect(kind StatusKind, d Duration, source *int) StatusEffect {
	return StatusEffect{Kind: kind, Duration: d, SourceID: source}
}

// ForDays 创建持续N天的状态标记
func ForDays(kind StatusKind, n int, source *int) StatusEffect {
	return StatusEffect{Kind: kind, Duration: Days, RemainingDays: n, SourceID: source}
}

// SameSource 来源是否一致
func (e StatusEffect) SameSource(source *int) bool {
	if e.SourceID == nil || source == nil {
		return e.SourceID == nil && source == nil
	}
	return *e.SourceID == *source
}

// String 可读描述
func (e StatusEffect) String() string {
	var when string
	switch e.Duration {
	case ThisNight:
		when = "tonight"
	case UntilNextDusk:
		when = "until dusk"
	case Permanent:
		when = "permanent"
	case Days:
		when = fmt.Sprintf("%d days left", e.RemainingDays)
	}
	if e.SourceID != nil {
		return fmt.Sprintf("%s (%s, by seat %d)", e.Kind, when, *e.SourceID)
	}
	return fmt.Sprintf("%s (%s)", e.Kind, when)
}

// Ptr 返回座位ID指针
func Ptr(id int) *int {
	return &id
}
