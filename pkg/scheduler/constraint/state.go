package constraint

import (
	"sort"

	"github.com/paiban/allocator/pkg/model"
)

type ledger struct {
	monthHours map[string]float64
	weekHours  map[string]float64
	weekShifts map[string]int
	days       map[string]map[string][]ShiftRef // 员工 → 日期 → 班次
}

func newLedger() ledger {
	return ledger{
		monthHours: make(map[string]float64),
		weekHours:  make(map[string]float64),
		weekShifts: make(map[string]int),
		days:       make(map[string]map[string][]ShiftRef),
	}
}

func periodKey(employeeID, period string) string {
	return employeeID + "|" + period
}

func (l *ledger) add(employeeID string, ref ShiftRef) {
	l.monthHours[periodKey(employeeID, model.MonthKey(ref.Date))] += ref.Hours
	week := periodKey(employeeID, model.WeekKey(ref.Date))
	l.weekHours[week] += ref.Hours
	l.weekShifts[week]++

	byDate, ok := l.days[employeeID]
	if !ok {
		byDate = make(map[string][]ShiftRef)
		l.days[employeeID] = byDate
	}
	byDate[ref.Date] = append(byDate[ref.Date], ref)
}

func (l *ledger) clone() ledger {
	out := newLedger()
	for k, v := range l.monthHours {
		out.monthHours[k] = v
	}
	for k, v := range l.weekHours {
		out.weekHours[k] = v
	}
	for k, v := range l.weekShifts {
		out.weekShifts[k] = v
	}
	for emp, byDate := range l.days {
		copied := make(map[string][]ShiftRef, len(byDate))
		for d, refs := range byDate {
			copied[d] = append([]ShiftRef(nil), refs...)
		}
		out.days[emp] = copied
	}
	return out
}

// RunningState 一次计算的累加器: 快照中已有的排班作为基线, 本次分配逐条累加.
// 只属于一次计算, 不能在多个计算之间共享.
type RunningState struct {
	base     ledger
	run      ledger
	assigned int
}

// NewRunningState 以快照中已有的排班初始化
func NewRunningState(ctx *Context) *RunningState {
	s := &RunningState{base: newLedger(), run: newLedger()}
	for _, emp := range ctx.Employees() {
		for _, ref := range ctx.ExistingShifts(emp.ID) {
			s.base.add(emp.ID, ref)
		}
	}
	return s
}

// Record 记录一次分配, 对之后的所有评估可见
func (s *RunningState) Record(employeeID string, slot *model.Slot) {
	s.run.add(employeeID, ShiftRef{
		Date:  slot.Date,
		Start: slot.Start,
		End:   slot.End,
		Hours: slot.Hours(),
	})
	s.assigned++
}

// Clone 深拷贝, 用于观察中间状态
func (s *RunningState) Clone() *RunningState {
	return &RunningState{
		base:     s.base.clone(),
		run:      s.run.clone(),
		assigned: s.assigned,
	}
}

// AssignedCount 本次已分配的班次数
func (s *RunningState) AssignedCount() int {
	return s.assigned
}

// ShiftsOn 员工某天的全部班次（已有 + 本次）
func (s *RunningState) ShiftsOn(employeeID, date string) []ShiftRef {
	base := s.base.days[employeeID][date]
	run := s.run.days[employeeID][date]
	if len(run) == 0 {
		return base
	}
	out := make([]ShiftRef, 0, len(base)+len(run))
	out = append(out, base...)
	return append(out, run...)
}

// RunShiftsOn 员工某天在本次计算中分到的班次
func (s *RunningState) RunShiftsOn(employeeID, date string) []ShiftRef {
	return s.run.days[employeeID][date]
}

// Worked 员工当天是否工作
func (s *RunningState) Worked(employeeID, date string) bool {
	return len(s.base.days[employeeID][date]) > 0 || len(s.run.days[employeeID][date]) > 0
}

// WorkedDays 员工所有工作日, 升序
func (s *RunningState) WorkedDays(employeeID string) []string {
	set := map[string]bool{}
	for d := range s.base.days[employeeID] {
		set[d] = true
	}
	for d := range s.run.days[employeeID] {
		set[d] = true
	}
	days := make([]string, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// ExistingMonthHours 快照中已有的月工时
func (s *RunningState) ExistingMonthHours(employeeID, month string) float64 {
	return s.base.monthHours[periodKey(employeeID, month)]
}

// RunMonthHours 本次新增的月工时
func (s *RunningState) RunMonthHours(employeeID, month string) float64 {
	return s.run.monthHours[periodKey(employeeID, month)]
}

// MonthHours 月工时合计
func (s *RunningState) MonthHours(employeeID, month string) float64 {
	return s.ExistingMonthHours(employeeID, month) + s.RunMonthHours(employeeID, month)
}

// RunWeekHours 本次新增的周工时, week 为周一日期
func (s *RunningState) RunWeekHours(employeeID, week string) float64 {
	return s.run.weekHours[periodKey(employeeID, week)]
}

// WeekHours 周工时合计
func (s *RunningState) WeekHours(employeeID, week string) float64 {
	key := periodKey(employeeID, week)
	return s.base.weekHours[key] + s.run.weekHours[key]
}

// WeekShiftCount 周班次数合计
func (s *RunningState) WeekShiftCount(employeeID, week string) int {
	key := periodKey(employeeID, week)
	return s.base.weekShifts[key] + s.run.weekShifts[key]
}
