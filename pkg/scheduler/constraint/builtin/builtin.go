package builtin

import (
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

// Options 可调整的劳动法参数
type Options struct {
	MaxDailyHours  float64
	MinRestMinutes int
}

// DefaultOptions 德国劳动法默认值
func DefaultOptions() Options {
	return Options{
		MaxDailyHours:  DefaultMaxDailyHours,
		MinRestMinutes: DefaultMinRestMinutes,
	}
}

// RegisterDefaultBlockers 注册全部十六个阻断约束
func RegisterDefaultBlockers(ev *constraint.Evaluator, opts Options) {
	if opts.MaxDailyHours <= 0 {
		opts.MaxDailyHours = DefaultMaxDailyHours
	}
	if opts.MinRestMinutes <= 0 {
		opts.MinRestMinutes = DefaultMinRestMinutes
	}

	// 合同与个人规则
	ev.Register(NewNoAdditionalShiftsBlocker())
	ev.Register(NewAbsenceBlocker())
	ev.Register(NewMonthlyHoursBlocker())
	ev.Register(NewAdditionalMonthlyHoursBlocker())
	ev.Register(NewRuleWeeklyHoursBlocker())
	ev.Register(NewSalaryBlocker())

	// 劳动法
	ev.Register(NewSameDayBlocker())
	ev.Register(NewOverlapBlocker())
	ev.Register(NewDailyHoursBlocker(opts.MaxDailyHours))
	ev.Register(NewWeeklyHoursBlocker())
	ev.Register(NewRestBlocker(opts.MinRestMinutes))
	ev.Register(NewConsecutiveDaysBlocker())

	// 备注偏好
	ev.Register(NewNoWeekendBlocker())
	ev.Register(NewOnlyWeekendBlocker())
	ev.Register(NewEarliestStartBlocker())
	ev.Register(NewLatestEndBlocker())
}

// NewDefaultEvaluator 创建注册了默认约束的评估器
func NewDefaultEvaluator() *constraint.Evaluator {
	ev := constraint.NewEvaluator()
	RegisterDefaultBlockers(ev, DefaultOptions())
	return ev
}
