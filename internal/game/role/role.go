package role

// Type 角色类型
type Type string

const (
	Townsfolk Type = "townsfolk"
	Outsider  Type = "outsider"
	Minion    Type = "minion"
	Demon     Type = "demon"
	Traveler  Type = "traveler"
)

// Alignment 阵营
type Alignment string

const (
	Good Alignment = "good"
	Evil Alignment = "evil"
)

// Alignment 角色类型的默认阵营
func (t Type) Alignment() Alignment {
	if t == Minion || t == Demon {
		return Evil
	}
	return Good
}

// 角色ID
const (
	Washerwoman   = "washerwoman"
	Librarian     = "librarian"
	Investigator  = "investigator"
	Chef          = "chef"
	Empath        = "empath"
	FortuneTeller = "fortune_teller"
	Undertaker    = "undertaker"
	Monk          = "monk"
	Ravenkeeper   = "ravenkeeper"
	Virgin        = "virgin"
	Slayer        = "slayer"
	Soldier       = "soldier"
	Mayor         = "mayor"
	Butler        = "butler"
	Drunk         = "drunk"
	Recluse       = "recluse"
	Saint         = "saint"
	Poisoner      = "poisoner"
	Spy           = "spy"
	ScarletWoman  = "scarlet_woman"
	Baron         = "baron"
	Imp           = "imp"

	Grandmother    = "grandmother"
	Sailor         = "sailor"
	Chambermaid    = "chambermaid"
	Exorcist       = "exorcist"
	Innkeeper      = "innkeeper"
	Gambler        = "gambler"
	Gossip         = "gossip"
	Courtier       = "courtier"
	Professor      = "professor"
	Minstrel       = "minstrel"
	TeaLady        = "tea_lady"
	Fool           = "fool"
	Tinker         = "tinker"
	Moonchild      = "moonchild"
	Goon           = "goon"
	Lunatic        = "lunatic"
	Godfather      = "godfather"
	DevilsAdvocate = "devils_advocate"
	Assassin       = "assassin"
	Zombuul        = "zombuul"
	Pukka          = "pukka"
	Shabaloth      = "shabaloth"
	Po             = "po"

	Clockmaker    = "clockmaker"
	Dreamer       = "dreamer"
	SnakeCharmer  = "snake_charmer"
	Mathematician = "mathematician"
	Flowergirl    = "flowergirl"
	TownCrier     = "town_crier"
	Oracle        = "oracle"
	Seamstress    = "seamstress"
	Juggler       = "juggler"
	Mutant        = "mutant"
	Sweetheart    = "sweetheart"
	Barber        = "barber"
	Klutz         = "klutz"
	EvilTwin      = "evil_twin"
	Witch         = "witch"
	Cerenovus     = "cerenovus"
	PitHag        = "pit_hag"
	FangGu        = "fang_gu"
	Vigormortis   = "vigormortis"
	NoDashii      = "no_dashii"
	Vortox        = "vortox"

	Scapegoat = "scapegoat"
	Beggar    = "beggar"
)

// Role 角色目录条目，加载后不可变
type Role struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	Type            Type   `yaml:"type" json:"type"`
	Edition         string `yaml:"edition" json:"edition"`
	FirstNightOrder int    `yaml:"first_night" json:"first_night_order"`
	OtherNightOrder int    `yaml:"other_night" json:"other_night_order"`
	NightActionType string `yaml:"action" json:"night_action_type"`
	Setup           string `yaml:"setup" json:"setup,omitempty"`
	Day             string `yaml:"day" json:"day,omitempty"`
	Trigger         string `yaml:"trigger" json:"trigger,omitempty"`
	Ability         string `yaml:"ability" json:"ability"`
}

// Alignment 默认阵营
func (r *Role) Alignment() Alignment {
	return r.Type.Alignment()
}

// NightOrder 指定夜晚的唤醒顺序
func (r *Role) NightOrder(firstNight bool) int {
	if firstNight {
		return r.FirstNightOrder
	}
	return r.OtherNightOrder
}

// Script 剧本
type Script struct {
	ID    string   `yaml:"id" json:"id"`
	Name  string   `yaml:"name" json:"name"`
	Roles []string `yaml:"roles" json:"roles"`
}

// Has 剧本是否包含角色
func (s *Script) Has(roleID string) bool {
	for _, id := range s.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}
