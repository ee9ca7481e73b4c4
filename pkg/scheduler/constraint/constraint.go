// Package constraint 定义阻断约束接口、运行状态和约束评估器
package constraint

import (
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/preference"
	"github.com/paiban/allocator/pkg/scheduler/caps"
)

// Code 阻断约束编码
type Code string

const (
	// 合同与个人规则
	CodeNoAdditionalShifts        Code = "no_additional_shifts"
	CodeAbsence                   Code = "absence"
	CodeMonthlyHoursLimit         Code = "monthly_hours_limit"
	CodeMaxAdditionalMonthlyHours Code = "max_additional_monthly_hours"
	CodeMaxWeeklyHours            Code = "max_weekly_hours"
	CodeMaxSalaryLimit            Code = "max_salary_limit"

	// 劳动法 (ArbZG)
	CodeSameDay          Code = "already_has_shift_same_day"
	CodeOverlapSameDay   Code = "overlap_same_day"
	CodeDailyHours       Code = "daily_hours_gt_10"
	CodeWeeklyHoursLimit Code = "weekly_hours_limit"
	CodeRest             Code = "rest_lt_11h"
	CodeConsecutiveDays  Code = "consecutive_days_limit"

	// 员工备注偏好
	CodeNoWeekend      Code = "no_weekend"
	CodeOnlyWeekend    Code = "only_weekend"
	CodeStartsTooEarly Code = "starts_too_early"
	CodeEndsTooLate    Code = "ends_too_late"
)

// Category 约束类别
type Category string

const (
	CategoryObligatory Category = "obligatory" // 法律和合同, 任何情况下不能违反
	CategorySoft       Category = "soft"       // 配置和偏好
)

// Candidate 一次计算中某员工不随班次变化的信息
type Candidate struct {
	Employee *model.Employee
	// Rule 永不为 nil, 没有匹配规则时为空规则
	Rule      *model.EmployeeRule
	RuleKey   string
	MatchTier MatchTier
	Prefs     preference.Preferences
	Limits    caps.Limits
	NameKey   string
}

// DisplayName 展示用姓名
func (c *Candidate) DisplayName() string {
	if c.Employee.FullName != "" {
		return c.Employee.FullName
	}
	return c.Employee.ID
}

// Blocker 阻断约束
type Blocker interface {
	// Code 返回约束编码
	Code() Code

	// Name 返回约束名称
	Name() string

	// Category 返回约束类别
	Category() Category

	// Blocks 检查候选人是否因本约束不能接该班次, 不能修改 state
	Blocks(ctx *Context, state *RunningState, cand *Candidate, slot *model.Slot) bool
}
