// Package constraints 阻断约束目录, 附带每个约束的参数来源
package constraints

import (
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

// 参数来源
const (
	SourceFixed        = "fixed"         // 固定阈值
	SourcePolicy       = "policy"        // 配置策略
	SourceEmployeeRule = "employee_rule" // 员工规则
	SourceSnapshot     = "snapshot"      // 快照中的员工数据
	SourceNotes        = "notes"         // 员工规则备注
)

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, bool, time, range
	Source      string `json:"source"`
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Code        constraint.Code     `json:"code"`
	Name        string              `json:"name"`
	Category    constraint.Category `json:"category"`
	Description string              `json:"description"`
	Params      []ConstraintParam   `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Total      int                    `json:"total"`
	Obligatory int                    `json:"obligatory"`
	Soft       int                    `json:"soft"`
	Library    []ConstraintDefinition `json:"library"`
}

var params = map[constraint.Code][]ConstraintParam{
	constraint.CodeNoAdditionalShifts: {
		{Name: "no_additional_shifts", Type: "bool", Source: SourceEmployeeRule, Description: "不再分配班次", Default: "false"},
	},
	constraint.CodeAbsence: {
		{Name: "absences", Type: "range", Source: SourceSnapshot, Description: "缺勤区间, 包含首尾日期"},
	},
	constraint.CodeDailyHours: {
		{Name: "max_daily_hours", Type: "float", Source: SourceFixed, Description: "每日最大工时(小时)", Default: "10"},
	},
	constraint.CodeWeeklyHoursLimit: {
		{Name: "max_weekly_hours", Type: "float", Source: SourceEmployeeRule, Description: "周工时上限, 未设置时按合同周工时推算"},
		{Name: "disable_max_hours", Type: "bool", Source: SourceEmployeeRule, Description: "关闭工时上限", Default: "false"},
	},
	constraint.CodeRest: {
		{Name: "min_rest_hours", Type: "float", Source: SourceFixed, Description: "班次间最小休息时间(小时)", Default: "11"},
	},
	constraint.CodeConsecutiveDays: {
		{Name: "max_consecutive_days", Type: "int", Source: SourcePolicy, Description: "最多连续工作天数", Default: "5"},
	},
	constraint.CodeMaxSalaryLimit: {
		{Name: "max_salary", Type: "float", Source: SourceSnapshot, Description: "月工资上限"},
		{Name: "hourly_wage", Type: "float", Source: SourceSnapshot, Description: "时薪"},
	},
	constraint.CodeMonthlyHoursLimit: {
		{Name: "max_monthly_hours", Type: "float", Source: SourceEmployeeRule, Description: "月工时上限"},
		{Name: "targets_are_caps", Type: "bool", Source: SourcePolicy, Description: "目标工时同时作为月上限", Default: "false"},
	},
	constraint.CodeMaxAdditionalMonthlyHours: {
		{Name: "max_additional_monthly_hours", Type: "float", Source: SourceEmployeeRule, Description: "本次新增月工时上限"},
	},
	constraint.CodeMaxWeeklyHours: {
		{Name: "max_weekly_hours", Type: "float", Source: SourceEmployeeRule, Description: "本次新增周工时上限"},
	},
	constraint.CodeNoWeekend: {
		{Name: "notes", Type: "bool", Source: SourceNotes, Description: "备注中的 kein wochenende"},
	},
	constraint.CodeOnlyWeekend: {
		{Name: "notes", Type: "bool", Source: SourceNotes, Description: "备注中的 nur wochenende"},
	},
	constraint.CodeStartsTooEarly: {
		{Name: "notes", Type: "time", Source: SourceNotes, Description: "备注中的最早开始时间, 如 ab 10 Uhr"},
	},
	constraint.CodeEndsTooLate: {
		{Name: "notes", Type: "time", Source: SourceNotes, Description: "备注中的最晚结束时间, 如 bis 18 Uhr"},
	},
}

// GetLibrary 获取完整的约束库, 顺序与评估顺序一致
func GetLibrary() []ConstraintDefinition {
	defs := constraint.Library()
	out := make([]ConstraintDefinition, 0, len(defs))
	for _, d := range defs {
		ps := make([]ConstraintParam, len(params[d.Code]))
		copy(ps, params[d.Code])
		out = append(out, ConstraintDefinition{
			Code:        d.Code,
			Name:        d.Name,
			Category:    d.Category,
			Description: d.Description,
			Params:      ps,
		})
	}
	return out
}

// GetByCategory 按类别过滤, 空类别返回全部
func GetByCategory(category constraint.Category) []ConstraintDefinition {
	all := GetLibrary()
	if category == "" {
		return all
	}
	out := make([]ConstraintDefinition, 0, len(all))
	for _, d := range all {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// NewLibraryResponse 组装约束库响应
func NewLibraryResponse(defs []ConstraintDefinition) LibraryResponse {
	resp := LibraryResponse{Total: len(defs), Library: defs}
	for _, d := range defs {
		switch d.Category {
		case constraint.CategoryObligatory:
			resp.Obligatory++
		case constraint.CategorySoft:
			resp.Soft++
		}
	}
	return resp
}
