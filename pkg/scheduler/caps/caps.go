// Package caps 按固定优先级计算员工的月度/周度工时上限和评分目标
package caps

import (
	"github.com/paiban/allocator/pkg/model"
)

const (
	// WeeksPerMonth 周工时换算月工时的系数
	WeeksPerMonth = 4.33
	// MiniJobMonthlyHours Minijob 月工时上限
	MiniJobMonthlyHours = 43.0
	// StudentWeeklyHours Werkstudent 周工时上限
	StudentWeeklyHours = 20.0
	// StatutoryWeeklyHours 法定周工时上限
	StatutoryWeeklyHours = 48.0
	// FallbackMonthlyHours 无法推断时的月工时上限
	FallbackMonthlyHours = 160.0
)

// Limits 一个员工在本次计算中的工时限制
type Limits struct {
	// Monthly 为 nil 表示不限制
	Monthly *float64 `json:"monthly_cap"`
	Weekly  float64  `json:"weekly_cap"`
	// Target 评分使用的目标工时, nil 时评分取固定中值
	Target *float64 `json:"target_hours"`
}

// Resolve 计算员工的全部限制, rule 可以为 nil
func Resolve(emp *model.Employee, rule *model.EmployeeRule, policy model.Policy) Limits {
	if rule == nil {
		rule = &model.EmployeeRule{}
	}
	return Limits{
		Monthly: MonthlyCap(emp, rule, policy.TargetsAreCaps),
		Weekly:  WeeklyCap(emp, rule),
		Target:  ScoringTarget(emp, rule),
	}
}

// MonthlyCap 月度上限:
// disable_max_hours → 不限; max_monthly_hours; target_monthly_hours; target_weekly_hours×4.33;
// 最后按用工类别取默认值. targetsAreCaps 为 false 时跳过两个目标工时.
func MonthlyCap(emp *model.Employee, rule *model.EmployeeRule, targetsAreCaps bool) *float64 {
	if rule.DisableMaxHours {
		return nil
	}
	if rule.MaxMonthlyHours != nil {
		return model.Float64Ptr(*rule.MaxMonthlyHours)
	}
	if targetsAreCaps {
		if rule.TargetMonthlyHours != nil {
			return model.Float64Ptr(*rule.TargetMonthlyHours)
		}
		if rule.TargetWeeklyHours != nil {
			return model.Float64Ptr(*rule.TargetWeeklyHours * WeeksPerMonth)
		}
	}
	return model.Float64Ptr(categoryMonthlyCap(emp))
}

func categoryMonthlyCap(emp *model.Employee) float64 {
	switch emp.Category() {
	case model.EmploymentMini:
		if emp.HasSalaryCap() {
			return min(MiniJobMonthlyHours, emp.MaxSalary/emp.HourlyWage)
		}
		return MiniJobMonthlyHours
	case model.EmploymentStudent:
		return StudentWeeklyHours * WeeksPerMonth
	}
	if emp.HasSalaryCap() {
		return emp.MaxSalary / emp.HourlyWage
	}
	return FallbackMonthlyHours
}

// WeeklyCap 周度上限: max_weekly_hours; Werkstudent 20h; 其他 48h
func WeeklyCap(emp *model.Employee, rule *model.EmployeeRule) float64 {
	if rule.MaxWeeklyHours != nil {
		return *rule.MaxWeeklyHours
	}
	if emp.Category() == model.EmploymentStudent {
		return StudentWeeklyHours
	}
	return StatutoryWeeklyHours
}

// ScoringTarget 评分目标: 明确的目标工时优先, 否则退回到月度上限,
// 因此员工的"未达目标"程度永远不会超过自己的硬上限.
func ScoringTarget(emp *model.Employee, rule *model.EmployeeRule) *float64 {
	switch {
	case rule.TargetMonthlyHours != nil:
		return model.Float64Ptr(*rule.TargetMonthlyHours)
	case rule.TargetWeeklyHours != nil:
		return model.Float64Ptr(*rule.TargetWeeklyHours * WeeksPerMonth)
	case rule.MaxMonthlyHours != nil:
		return model.Float64Ptr(*rule.MaxMonthlyHours)
	}
	return MonthlyCap(emp, rule, true)
}
