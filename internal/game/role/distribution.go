package role

import "fmt"

// Distribution 各类型角色数量
type Distribution struct {
	Townsfolk int `json:"townsfolk"`
	Outsider  int `json:"outsider"`
	Minion    int `json:"minion"`
	Demon     int `json:"demon"`
}

// 5到15名玩家的标准配置
var distributions = map[int]Distribution{
	5:  {3, 0, 1, 1},
	6:  {3, 1, 1, 1},
	7:  {5, 0, 1, 1},
	8:  {5, 1, 1, 1},
	9:  {5, 2, 1, 1},
	10: {7, 0, 2, 1},
	11: {7, 1, 2, 1},
	12: {7, 2, 2, 1},
	13: {9, 0, 3, 1},
	14: {9, 1, 3, 1},
	15: {9, 2, 3, 1},
}

// ForPlayers 按玩家数（不含旅行者）返回标准配置
func ForPlayers(n int) (Distribution, bool) {
	d, ok := distributions[n]
	return d, ok
}

// Count 统计一组角色的类型分布，旅行者不计入
func Count(roles []*Role) Distribution {
	var d Distribution
	for _, r := range roles {
		switch r.Type {
		case Townsfolk:
			d.Townsfolk++
		case Outsider:
			d.Outsider++
		case Minion:
			d.Minion++
		case Demon:
			d.Demon++
		}
	}
	return d
}

// outsiderShift 角色对外来者数量的修正，返回允许的修正值
func outsiderShift(r *Role) []int {
	switch r.Setup {
	case "outsiders+2":
		return []int{2}
	case "outsiders+1":
		return []int{1}
	case "outsiders-1":
		return []int{-1}
	case "outsiders+-1":
		return []int{-1, 1}
	}
	return nil
}

// CheckSetup 校验配置，返回警告列表（说书人可以忽略）
func CheckSetup(roles []*Role) []string {
	var warnings []string
	players := 0
	for _, r := range roles {
		if r.Type != Traveler {
			players++
		}
	}
	base, ok := ForPlayers(players)
	if !ok {
		return []string{fmt.Sprintf("unsupported player count %d (expected 5-15)", players)}
	}

	got := Count(roles)
	// 可能的外来者数量
	allowed := map[int]bool{base.Outsider: true}
	for _, r := range roles {
		shifts := outsiderShift(r)
		if len(shifts) == 0 {
			continue
		}
		next := make(map[int]bool)
		for o := range allowed {
			for _, s := range shifts {
				next[o+s] = true
			}
		}
		allowed = next
	}

	if got.Demon != base.Demon {
		warnings = append(warnings, fmt.Sprintf("expected %d demon, got %d", base.Demon, got.Demon))
	}
	if got.Minion != base.Minion {
		warnings = append(warnings, fmt.Sprintf("expected %d minions, got %d", base.Minion, got.Minion))
	}
	if !allowed[got.Outsider] {
		warnings = append(warnings, fmt.Sprintf("outsider count %d does not match setup modifiers", got.Outsider))
	}
	return warnings
}
