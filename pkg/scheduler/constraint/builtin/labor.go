package builtin

import (
	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
)

const (
	// DefaultMaxDailyHours 日工时上限
	DefaultMaxDailyHours = 10.0
	// DefaultMinRestMinutes 相邻两天班次之间的最短休息
	DefaultMinRestMinutes = 11 * 60
)

// SameDayBlocker 同一天只排一个班
type SameDayBlocker struct {
	*BaseBlocker
}

// NewSameDayBlocker 创建同日约束
func NewSameDayBlocker() *SameDayBlocker {
	return &SameDayBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeSameDay)}
}

// Blocks 当天已有班次
func (b *SameDayBlocker) Blocks(_ *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	return st.Worked(cand.Employee.ID, slot.Date)
}

// OverlapBlocker 同一天时段重叠
type OverlapBlocker struct {
	*BaseBlocker
}

// NewOverlapBlocker 创建时段重叠约束
func NewOverlapBlocker() *OverlapBlocker {
	return &OverlapBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeOverlapSameDay)}
}

// Blocks 与当天任一班次重叠
func (b *OverlapBlocker) Blocks(_ *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	for _, s := range st.ShiftsOn(cand.Employee.ID, slot.Date) {
		if model.ClockOverlap(slot.Start, slot.End, s.Start, s.End) {
			return true
		}
	}
	return false
}

// DailyHoursBlocker 日工时上限
type DailyHoursBlocker struct {
	*BaseBlocker
	maxHours float64
}

// NewDailyHoursBlocker 创建日工时约束
func NewDailyHoursBlocker(maxHours float64) *DailyHoursBlocker {
	return &DailyHoursBlocker{
		BaseBlocker: NewBaseBlocker(constraint.CodeDailyHours),
		maxHours:    maxHours,
	}
}

// Blocks 当天工时加上该班次超过上限
func (b *DailyHoursBlocker) Blocks(_ *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	total := slot.Hours()
	for _, s := range st.ShiftsOn(cand.Employee.ID, slot.Date) {
		total += s.Hours
	}
	return total > b.maxHours
}

// WeeklyHoursBlocker ISO 周工时不能超过解析出的周上限
type WeeklyHoursBlocker struct {
	*BaseBlocker
}

// NewWeeklyHoursBlocker 创建周工时约束
func NewWeeklyHoursBlocker() *WeeklyHoursBlocker {
	return &WeeklyHoursBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeWeeklyHoursLimit)}
}

// Blocks 周工时（已有 + 本次 + 该班次）超过周上限
func (b *WeeklyHoursBlocker) Blocks(_ *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	week := st.WeekHours(cand.Employee.ID, model.WeekKey(slot.Date))
	return week+slot.Hours() > cand.Limits.Weekly
}

// RestBlocker 与前一天和后一天班次之间至少休息 11 小时
type RestBlocker struct {
	*BaseBlocker
	minRestMinutes int
}

// NewRestBlocker 创建休息时间约束
func NewRestBlocker(minRestMinutes int) *RestBlocker {
	return &RestBlocker{
		BaseBlocker:    NewBaseBlocker(constraint.CodeRest),
		minRestMinutes: minRestMinutes,
	}
}

// Blocks 休息时间不足
func (b *RestBlocker) Blocks(_ *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	empID := cand.Employee.ID
	slotStart, slotEnd := model.ClockSpan(slot.Start, slot.End)

	// 前一天的班次可能跨夜, 结束时间以当天零点为基准换算
	for _, prev := range st.ShiftsOn(empID, model.AddDays(slot.Date, -1)) {
		_, prevEnd := prev.Span()
		if slotStart-(prevEnd-model.MinutesPerDay) < b.minRestMinutes {
			return true
		}
	}
	for _, next := range st.ShiftsOn(empID, model.AddDays(slot.Date, 1)) {
		nextStart, _ := next.Span()
		if (model.MinutesPerDay+nextStart)-slotEnd < b.minRestMinutes {
			return true
		}
	}
	return false
}

// ConsecutiveDaysBlocker 连续工作天数上限
type ConsecutiveDaysBlocker struct {
	*BaseBlocker
}

// NewConsecutiveDaysBlocker 创建连续工作天数约束, 上限取自策略
func NewConsecutiveDaysBlocker() *ConsecutiveDaysBlocker {
	return &ConsecutiveDaysBlocker{BaseBlocker: NewBaseBlocker(constraint.CodeConsecutiveDays)}
}

// Blocks 把该班次日期算进去后, 向前向后连续工作的天数超过上限
func (b *ConsecutiveDaysBlocker) Blocks(ctx *constraint.Context, st *constraint.RunningState, cand *constraint.Candidate, slot *model.Slot) bool {
	return Streak(st, cand.Employee.ID, slot.Date) > ctx.Policy.ConsecutiveDayLimit()
}

// Streak 假设员工在 date 工作时的连续工作天数
func Streak(st *constraint.RunningState, employeeID, date string) int {
	streak := 1
	for d := model.AddDays(date, -1); st.Worked(employeeID, d); d = model.AddDays(d, -1) {
		streak++
	}
	for d := model.AddDays(date, 1); st.Worked(employeeID, d); d = model.AddDays(d, 1) {
		streak++
	}
	return streak
}
