package model

import (
	"fmt"
	"sort"

	"github.com/paiban/allocator/pkg/errors"
)

// DefaultMaxConsecutiveDays 连续工作天数默认上限
const DefaultMaxConsecutiveDays = 5

// Policy 全局策略开关
type Policy struct {
	PreferApplicants      bool `json:"prefer_applicants" yaml:"prefer_applicants"`
	MaxConsecutiveDays    int  `json:"max_consecutive_days" yaml:"max_consecutive_days"`
	DistributeAcrossMonth bool `json:"distribute_across_month" yaml:"distribute_across_month"`
	PreferTypeVariation   bool `json:"prefer_type_variation" yaml:"prefer_type_variation"`
	// TargetsAreCaps 目标工时是否同时作为月度硬上限
	TargetsAreCaps bool `json:"targets_are_caps" yaml:"targets_are_caps"`
}

// DefaultPolicy 默认策略
func DefaultPolicy() Policy {
	return Policy{
		PreferApplicants:   true,
		MaxConsecutiveDays: DefaultMaxConsecutiveDays,
		TargetsAreCaps:     true,
	}
}

// ConsecutiveDayLimit 连续工作天数上限, 未设置时取默认值
func (p Policy) ConsecutiveDayLimit() int {
	if p.MaxConsecutiveDays <= 0 {
		return DefaultMaxConsecutiveDays
	}
	return p.MaxConsecutiveDays
}

// EmployeeRule 员工个人规则, 在配置中按规范化姓名索引
type EmployeeRule struct {
	TargetWeeklyHours         *float64 `json:"target_weekly_hours,omitempty" yaml:"target_weekly_hours,omitempty"`
	TargetMonthlyHours        *float64 `json:"target_monthly_hours,omitempty" yaml:"target_monthly_hours,omitempty"`
	MaxWeeklyHours            *float64 `json:"max_weekly_hours,omitempty" yaml:"max_weekly_hours,omitempty"`
	MaxMonthlyHours           *float64 `json:"max_monthly_hours,omitempty" yaml:"max_monthly_hours,omitempty"`
	MaxAdditionalMonthlyHours *float64 `json:"max_additional_monthly_hours,omitempty" yaml:"max_additional_monthly_hours,omitempty"`
	NoAdditionalShifts        bool     `json:"no_additional_shifts,omitempty" yaml:"no_additional_shifts,omitempty"`
	DisableMaxHours           bool     `json:"disable_max_hours,omitempty" yaml:"disable_max_hours,omitempty"`
	PreferredWorkingAreas     []string `json:"preferred_working_areas,omitempty" yaml:"preferred_working_areas,omitempty"`
	PreferredShiftTypes       []string `json:"preferred_shift_types,omitempty" yaml:"preferred_shift_types,omitempty"`
	Notes                     string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

func (r *EmployeeRule) hourFields() map[string]*float64 {
	return map[string]*float64{
		"target_weekly_hours":          r.TargetWeeklyHours,
		"target_monthly_hours":         r.TargetMonthlyHours,
		"max_weekly_hours":             r.MaxWeeklyHours,
		"max_monthly_hours":            r.MaxMonthlyHours,
		"max_additional_monthly_hours": r.MaxAdditionalMonthlyHours,
	}
}

// Profile 命名配置: 全局策略 + 员工规则
type Profile struct {
	Name          string                  `json:"name" yaml:"-"`
	Description   string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Policy        Policy                  `json:"policy" yaml:"policy"`
	EmployeeRules map[string]EmployeeRule `json:"employee_rules,omitempty" yaml:"employee_rules,omitempty"`
	// UnknownPolicyKeys 宽松模式下被忽略的策略键
	UnknownPolicyKeys []string `json:"unknown_policy_keys,omitempty" yaml:"-"`
}

// NewProfile 创建使用默认策略的空配置
func NewProfile(name string) *Profile {
	return &Profile{
		Name:          name,
		Policy:        DefaultPolicy(),
		EmployeeRules: map[string]EmployeeRule{},
	}
}

// RuleKeys 排序后的规则键
func (p *Profile) RuleKeys() []string {
	keys := make([]string, 0, len(p.EmployeeRules))
	for k := range p.EmployeeRules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate 验证配置结构
func (p *Profile) Validate() error {
	var ve errors.ValidationErrors
	if p.Policy.MaxConsecutiveDays < 0 {
		ve.Add("policy.max_consecutive_days", "不能为负数")
	}
	for _, key := range p.RuleKeys() {
		rule := p.EmployeeRules[key]
		if CanonicalName(key) == "" {
			ve.Addf("employee_rules", "规则键 %q 规范化后为空", key)
		}
		fields := rule.hourFields()
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if v := fields[name]; v != nil && *v < 0 {
				ve.Add(fmt.Sprintf("employee_rules.%s.%s", key, name), "不能为负数")
			}
		}
	}
	if ve.HasErrors() {
		return ve.ToAppErrorWithCode(errors.CodeInvalidProfile, fmt.Sprintf("配置 '%s' 无效", p.Name))
	}
	return nil
}
