package builtin

import (
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

// NoAdditionalShiftsBlocker 员工规则禁止再加班次
type NoAdditionalShiftsBlocker struct {
	*BaseBlocker
}

// NewNoAdditionalShiftsBlocker 创建不再加班约束
func NewNoAdditionalShiftsBlocker() *NoAdditionalShiftsBlocker {
	return &NoAdditionalShiftsBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeNoAdditionalShifts)}
}

// Blocks 规则中设置了 no_additional_shifts
func (b *NoAdditionalShiftsBlocker) Blocks(_ *constraint.Context, _ *constraint.RunningState, cand *constraint.Candidate, _ *model.Slot) bool {
	return cand.Rule.NoAdditionalShifts
}

// AbsenceBlocker 缺勤期间不能排班
type AbsenceBlocker struct {
	*BaseBlocker
}

// NewAbsenceBlocker 创建缺勤约束
func NewAbsenceBlocker() *AbsenceBlocker {
	return &AbsenceBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeAbsence)}
}

// Blocks 班次日期在任一缺勤区间内（含两端）
func (b *AbsenceBlocker) Blocks(ctx *constraint.Context, _ *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	for _, a := range ctx.Absences(cand.Employee.ID) {
		if a.Covers(slot.Date) {
			return true
		}
	}
	return false
}

// MonthlyHoursBlocker 月工时上限
type MonthlyHoursBlocker struct {
	*BaseBlocker
}

// NewMonthlyHoursBlocker 创建月工时约束
func NewMonthlyHoursBlocker() *MonthlyHoursBlocker {
	return &MonthlyHoursBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeMonthlyHoursLimit)}
}

// Blocks 已有 + 本次 + 该班次超过月上限; 上限为 nil 时不限制
func (b *MonthlyHoursBlocker) Blocks(_ *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	if cand.Limits.Monthly == nil {
		return false
	}
	month := st.MonthHours(cand.Employee.ID, model.MonthKey(slot.Date))
	return month+slot.Hours() > *cand.Limits.Monthly
}

// AdditionalMonthlyHoursBlocker 本次计算新增月工时上限
type AdditionalMonthlyHoursBlocker struct {
	*BaseBlocker
}

// NewAdditionalMonthlyHoursBlocker 创建新增月工时约束
func NewAdditionalMonthlyHoursBlocker() *AdditionalMonthlyHoursBlocker {
	return &AdditionalMonthlyHoursBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeMaxAdditionalMonthlyHours)}
}

// Blocks 只统计本次计算分配的工时
func (b *AdditionalMonthlyHoursBlocker) Blocks(_ *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	limit := cand.Rule.MaxAdditionalMonthlyHours
	if limit == nil {
		return false
	}
	return st.RunMonthHours(cand.Employee.ID, model.MonthKey(slot.Date))+slot.Hours() > *limit
}

// RuleWeeklyHoursBlocker 规则中的 max_weekly_hours, 只统计本次计算分配的工时
type RuleWeeklyHoursBlocker struct {
	*BaseBlocker
}

// NewRuleWeeklyHoursBlocker 创建规则周工时约束
func NewRuleWeeklyHoursBlocker() *RuleWeeklyHoursBlocker {
	return &RuleWeeklyHoursBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeMaxWeeklyHours)}
}

// Blocks 本次新增周工时 + 该班次超过规则上限
func (b *RuleWeeklyHoursBlocker) Blocks(_ *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	limit := cand.Rule.MaxWeeklyHours
	if limit == nil {
		return false
	}
	return st.RunWeekHours(cand.Employee.ID, model.WeekKey(slot.Date))+slot.Hours() > *limit
}

// SalaryBlocker 预计月工资不能超过工资上限
type SalaryBlocker struct {
	*BaseBlocker
}

// NewSalaryBlocker 创建工资上限约束
func NewSalaryBlocker() *SalaryBlocker {
	return &SalaryBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeMaxSalaryLimit)}
}

// Blocks (月工时 + 该班次) × 时薪 > 工资上限; 缺少时薪或上限时不检查
func (b *SalaryBlocker) Blocks(_ *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	hours := st.MonthHours(cand.Employee.ID, model.MonthKey(slot.Date)) + slot.Hours()
	projected, ok := constraint.ProjectedSalary(cand, hours)
	if !ok {
		return false
	}
	return projected.GreaterThan(constraint.SalaryCap(cand))
}
