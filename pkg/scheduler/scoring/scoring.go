// Package scoring 计算未被阻断的候选人对某班次的八项评分
package scoring

import (
	"sort"
	"strings"

	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/preference"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

// Weights 评分权重
type Weights struct {
	Applicant         float64 `json:"applicant" yaml:"applicant"`
	RestMax           float64 `json:"rest_max" yaml:"rest_max"`
	FairnessMax       float64 `json:"fairness_max" yaml:"fairness_max"`
	FairnessDecay     float64 `json:"fairness_decay" yaml:"fairness_decay"`
	RoleExact         float64 `json:"role_exact" yaml:"role_exact"`
	RolePartial       float64 `json:"role_partial" yaml:"role_partial"`
	Skill             float64 `json:"skill" yaml:"skill"`
	Fixed             float64 `json:"fixed" yaml:"fixed"`
	Preference        float64 `json:"preference" yaml:"preference"`
	ProfilePreference float64 `json:"profile_preference" yaml:"profile_preference"`
	SalaryPenalty     float64 `json:"salary_penalty" yaml:"salary_penalty"`
}

// DefaultWeights 默认权重
func DefaultWeights() Weights {
	return Weights{
		Applicant:         80,
		RestMax:           40,
		FairnessMax:       30,
		FairnessDecay:     6,
		RoleExact:         20,
		RolePartial:       10,
		Skill:             12,
		Fixed:             12,
		Preference:        15,
		ProfilePreference: 7.5,
		SalaryPenalty:     -12,
	}
}

// MaxScore 可能的最高分
func (w Weights) MaxScore() float64 {
	return w.Applicant + w.RestMax + w.FairnessMax + max(w.RoleExact, w.RolePartial) +
		w.Skill + w.Fixed + max(w.Preference, w.ProfilePreference)
}

// MinScore 未阻断候选人的最低分
func (w Weights) MinScore() float64 {
	return min(w.RoleExact, w.RolePartial) + min(w.SalaryPenalty, 0)
}

// RoleAffinity 角色 → 适合的班次类型
var RoleAffinity = map[string][]string{
	"service": {"frueh", "normal", "spaet", "doppel", "service", "theke"},
	"kellner": {"frueh", "normal", "spaet", "service", "theke"},
	"bar":     {"spaet", "normal", "bar", "theke"},
	"koch":    {"frueh", "normal", "spaet", "kueche"},
	"kueche":  {"frueh", "normal", "spaet", "kueche"},
}

// 评分理由标签
const (
	ReasonApplied       = "applied_for_shift"
	ReasonRemaining     = "remaining_target_hours"
	ReasonFair          = "fair_distribution"
	ReasonRoleMatch     = "role_shift_match"
	ReasonSkillMatch    = "skill_working_area_match"
	ReasonFixedPattern  = "historical_fixed_pattern"
	ReasonPreference    = "matches_employee_preferences"
	ReasonNearSalaryCap = "near_salary_limit"
)

const (
	maxReasons = 3
	// 没有目标工时时取 RestMax 的一半
	restDefaultShare = 0.5
)

// Result 一次评分的完整结果
type Result struct {
	Breakdown          model.ScoreBreakdown
	Total              float64
	Reasons            []string
	IsApplicant        bool
	WeekShifts         int
	ExistingMonthHours float64
	RunMonthHours      float64
	TargetHours        *float64
	ProjectedSalary    *float64
}

// Scorer 评分器, 无状态, 可并发使用
type Scorer struct {
	weights Weights
}

// NewScorer 创建评分器
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// NewDefaultScorer 使用默认权重
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultWeights())
}

// Weights 当前权重
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score 计算八项评分, 不修改 state
func (s *Scorer) Score(ctx *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) Result {
	w := s.weights
	empID := cand.Employee.ID
	month := model.MonthKey(slot.Date)

	res := Result{
		IsApplicant:        slot.HasApplicant(empID),
		WeekShifts:         st.WeekShiftCount(empID, model.WeekKey(slot.Date)),
		ExistingMonthHours: model.Round2(st.ExistingMonthHours(empID, month)),
		RunMonthHours:      model.Round2(st.RunMonthHours(empID, month)),
	}

	var b model.ScoreBreakdown
	if res.IsApplicant {
		b.Applicant = w.Applicant
	}

	b.Rest = w.RestMax * restDefaultShare
	if target := cand.Limits.Target; target != nil {
		res.TargetHours = model.Float64Ptr(model.Round2(*target))
		if *target > 0 {
			remaining := max(*target-st.MonthHours(empID, month), 0)
			b.Rest = min(w.RestMax, w.RestMax*remaining/(*target))
		}
	}

	b.Fairness = max(0, w.FairnessMax-w.FairnessDecay*float64(res.WeekShifts))
	b.Role = RoleScore(w, cand.Employee.Role, slot.TypeKey())
	b.Skill = skillScore(w, cand, slot)
	if ctx.IsFixedPattern(empID, slot) {
		b.Fixed = w.Fixed
	}
	b.Preference = preferenceScore(w, cand, slot)

	if projected, ok := constraint.ProjectedSalary(cand, st.MonthHours(empID, month)+slot.Hours()); ok {
		res.ProjectedSalary = model.Float64Ptr(projected.Round(2).InexactFloat64())
		if constraint.NearSalaryCap(cand, projected) {
			b.Salary = w.SalaryPenalty
		}
	}

	res.Breakdown = roundBreakdown(b)
	res.Total = res.Breakdown.Total()
	res.Reasons = Reasons(res.Breakdown)
	return res
}

// RoleScore 角色与班次类型匹配: 互相包含或命中亲和表得满分, 否则部分分
func RoleScore(w Weights, role, shiftType string) float64 {
	r := model.CanonicalName(role)
	t := model.CanonicalName(shiftType)
	if r == "" || t == "" {
		return w.RolePartial
	}
	if strings.Contains(t, r) || strings.Contains(r, t) {
		return w.RoleExact
	}
	if contains(RoleAffinity[r], t) {
		return w.RoleExact
	}

	// 角色名包含亲和表中的键, 例如 "servicekraft"
	keys := make([]string, 0, len(RoleAffinity))
	for k := range RoleAffinity {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(r, k) && contains(RoleAffinity[k], t) {
			return w.RoleExact
		}
	}
	return w.RolePartial
}

func skillScore(w Weights, cand *constraint.Candidate, slot *model.Slot) float64 {
	tags := map[string]bool{}
	for _, tag := range []string{slot.TypeKey(), model.CanonicalName(slot.ShiftType), model.CanonicalName(slot.WorkingArea)} {
		if tag != "" {
			tags[tag] = true
		}
	}
	for _, s := range cand.Employee.Skills {
		if tags[model.CanonicalName(s)] {
			return w.Skill
		}
	}
	for _, a := range cand.Rule.PreferredWorkingAreas {
		if tags[model.CanonicalName(a)] {
			return w.Skill
		}
	}
	return 0
}

// preferenceScore 备注中的明确偏好优先, 否则看配置中的 preferred_shift_types
func preferenceScore(w Weights, cand *constraint.Candidate, slot *model.Slot) float64 {
	labels := preference.ShiftLabels(slot.TypeKey(), slot.StartMinute(), slot.EndMinute())
	if cand.Prefs.PrefersSlot(labels) {
		return w.Preference
	}
	typ := slot.TypeKey()
	for _, p := range cand.Rule.PreferredShiftTypes {
		if model.CanonicalName(p) == typ {
			return w.ProfilePreference
		}
	}
	return 0
}

// Reasons 按绝对值从大到小取前三个有意义的分项作为理由
func Reasons(b model.ScoreBreakdown) []string {
	components := b.Components()
	sort.SliceStable(components, func(i, j int) bool {
		return abs(components[i].Value) > abs(components[j].Value)
	})

	reasons := make([]string, 0, maxReasons)
	for _, c := range components {
		label := reasonLabel(c)
		if label == "" {
			continue
		}
		reasons = append(reasons, label)
		if len(reasons) >= maxReasons {
			break
		}
	}
	return reasons
}

func reasonLabel(c model.ScoreComponent) string {
	if c.Name == "salary" {
		if c.Value < 0 {
			return ReasonNearSalaryCap
		}
		return ""
	}
	if c.Value <= 0 {
		return ""
	}
	switch c.Name {
	case "applicant":
		return ReasonApplied
	case "rest":
		return ReasonRemaining
	case "fairness":
		return ReasonFair
	case "role":
		return ReasonRoleMatch
	case "skill":
		return ReasonSkillMatch
	case "fixed":
		return ReasonFixedPattern
	case "preference":
		return ReasonPreference
	}
	return ""
}

func roundBreakdown(b model.ScoreBreakdown) model.ScoreBreakdown {
	return model.ScoreBreakdown{
		Applicant:  model.Round2(b.Applicant),
		Rest:       model.Round2(b.Rest),
		Fairness:   model.Round2(b.Fairness),
		Role:       model.Round2(b.Role),
		Skill:      model.Round2(b.Skill),
		Fixed:      model.Round2(b.Fixed),
		Preference: model.Round2(b.Preference),
		Salary:     model.Round2(b.Salary),
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
