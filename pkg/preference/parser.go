// Package preference 把员工备注中的自由文本解析为结构化偏好
//
// 识别的模式集中定义在 Rules 表中, 未命中任何模式时返回空偏好.
package preference

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/paiban/allocator/pkg/model"
)

// Preferences 结构化偏好
type Preferences struct {
	NoWeekend      bool   `json:"no_weekend,omitempty"`
	OnlyWeekend    bool   `json:"only_weekend,omitempty"`
	PreferType     string `json:"prefer_type,omitempty"`     // frueh/spaet
	EarliestMinute *int   `json:"earliest_minute,omitempty"` // 不早于
	LatestMinute   *int   `json:"latest_minute,omitempty"`   // 不晚于
	// MaxShiftsPerWeek 仅作参考, 不参与约束
	MaxShiftsPerWeek *int `json:"max_shifts_per_week,omitempty"`
}

// IsZero 没有任何偏好
func (p Preferences) IsZero() bool {
	return !p.NoWeekend && !p.OnlyWeekend && p.PreferType == "" &&
		p.EarliestMinute == nil && p.LatestMinute == nil && p.MaxShiftsPerWeek == nil
}

// Rule 一条识别规则, Apply 接收正则的子匹配
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Apply   func(p *Preferences, match []string)
}

// Rules 按顺序应用, 后面的规则可以覆盖前面的结果
var Rules = []Rule{
	{
		Name:    "no_weekend",
		Pattern: regexp.MustCompile(`(?:kein|nicht)\s+wochenende`),
		Apply:   func(p *Preferences, _ []string) { p.NoWeekend = true },
	},
	{
		Name:    "only_weekend",
		Pattern: regexp.MustCompile(`nur\s+wochenende`),
		Apply:   func(p *Preferences, _ []string) { p.OnlyWeekend = true },
	},
	{
		Name:    "prefer_frueh",
		Pattern: regexp.MustCompile(`(?:lieber|bevorzugt)\s+fr(?:u|ue)h`),
		Apply:   func(p *Preferences, _ []string) { p.PreferType = model.ShiftFrueh },
	},
	{
		Name:    "prefer_spaet",
		Pattern: regexp.MustCompile(`(?:lieber|bevorzugt)\s+sp(?:a|ae)t`),
		Apply:   func(p *Preferences, _ []string) { p.PreferType = model.ShiftSpaet },
	},
	{
		Name:    "max_shifts_per_week",
		Pattern: regexp.MustCompile(`max\s+(\d+)\s+schicht`),
		Apply: func(p *Preferences, m []string) {
			if n, err := strconv.Atoi(m[1]); err == nil {
				p.MaxShiftsPerWeek = &n
			}
		},
	},
	{
		Name:    "earliest",
		Pattern: regexp.MustCompile(`ab\s+(\d{1,2})\s*uhr`),
		Apply: func(p *Preferences, m []string) {
			if v, ok := hourToMinute(m[1]); ok {
				p.EarliestMinute = &v
			}
		},
	},
	{
		Name:    "latest",
		Pattern: regexp.MustCompile(`bis\s+(\d{1,2})\s*uhr`),
		Apply: func(p *Preferences, m []string) {
			if v, ok := hourToMinute(m[1]); ok {
				p.LatestMinute = &v
			}
		},
	},
}

var (
	fruehLabel = regexp.MustCompile(`fr(?:u|ue)h`)
	spaetLabel = regexp.MustCompile(`sp(?:a|ae)t`)
)

// hourToMinute 只接受 0-24 点, 超出范围视为无法解析
func hourToMinute(s string) (int, bool) {
	h, err := strconv.Atoi(s)
	if err != nil || h > 24 {
		return 0, false
	}
	return h * 60, true
}

// Parse 解析备注, 纯函数
func Parse(note string) Preferences {
	var prefs Preferences
	text := model.NormalizeText(note)
	if text == "" {
		return prefs
	}
	for _, rule := range Rules {
		if m := rule.Pattern.FindStringSubmatch(text); m != nil {
			rule.Apply(&prefs, m)
		}
	}
	return prefs
}

// Matched 返回命中的规则名, 用于解释和调试
func Matched(note string) []string {
	text := model.NormalizeText(note)
	var names []string
	for _, rule := range Rules {
		if rule.Pattern.MatchString(text) {
			names = append(names, rule.Name)
		}
	}
	return names
}

// ShiftLabels 把班次归入 frueh/spaet 粗分类, 一个班次可以同时属于两类
func ShiftLabels(shiftType string, startMinute, endMinute int) []string {
	set := map[string]bool{}
	typ := model.NormalizeText(shiftType)
	if fruehLabel.MatchString(typ) {
		set[model.ShiftFrueh] = true
	}
	if spaetLabel.MatchString(typ) {
		set[model.ShiftSpaet] = true
	}
	if startMinute < 11*60 {
		set[model.ShiftFrueh] = true
	}
	if startMinute >= 16*60 || endMinute >= 21*60 {
		set[model.ShiftSpaet] = true
	}

	labels := make([]string, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// PrefersSlot 明确偏好的类型是否落在班次分类中
func (p Preferences) PrefersSlot(labels []string) bool {
	if p.PreferType == "" {
		return false
	}
	for _, l := range labels {
		if l == p.PreferType {
			return true
		}
	}
	return false
}
