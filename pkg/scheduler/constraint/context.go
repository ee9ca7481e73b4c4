package constraint

import (
	"sort"
	"time"

	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/preference"
	"github.com/paiban/allocator/pkg/scheduler/caps"
)

// FixedPatternMinOccurrences 同一 (星期, 开始, 结束) 出现多少次算固定班
const FixedPatternMinOccurrences = 3

// ShiftRef 员工的一段工作时间
type ShiftRef struct {
	Date  string  `json:"date"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Hours float64 `json:"hours"`
}

// Span 当天起止分钟数, 跨夜时结束大于 1440
func (r ShiftRef) Span() (int, int) {
	return model.ClockSpan(r.Start, r.End)
}

type fixedKey struct {
	employeeID string
	weekday    time.Weekday
	start, end string
}

// Context 一次计算的只读索引, 创建后不再修改, 可被多个 goroutine 共享读取
type Context struct {
	Policy      model.Policy
	ProfileName string

	employees  []*model.Employee
	candidates map[string]*Candidate
	existing   map[string][]ShiftRef
	absences   map[string][]model.Absence
	fixed      map[fixedKey]int
	rules      *RuleIndex
}

// NewContext 从快照和配置构建上下文; 快照和配置都不会被修改
func NewContext(snap *model.Snapshot, profile *model.Profile) *Context {
	ctx := &Context{
		Policy:      profile.Policy,
		ProfileName: profile.Name,
		candidates:  make(map[string]*Candidate, len(snap.Employees)),
		existing:    make(map[string][]ShiftRef),
		absences:    make(map[string][]model.Absence),
		fixed:       make(map[fixedKey]int),
		rules:       NewRuleIndex(profile.EmployeeRules),
	}

	for i := range snap.Employees {
		emp := snap.Employees[i]
		ctx.employees = append(ctx.employees, &emp)

		rule, key, tier := ctx.rules.Lookup(&emp)
		if rule == nil {
			rule = &model.EmployeeRule{}
		}
		ctx.candidates[emp.ID] = &Candidate{
			Employee:  &emp,
			Rule:      rule,
			RuleKey:   key,
			MatchTier: tier,
			Prefs:     preference.Parse(rule.Notes),
			Limits:    caps.Resolve(&emp, rule, profile.Policy),
			NameKey:   emp.NameKey(),
		}
	}
	sort.Slice(ctx.employees, func(i, j int) bool {
		return ctx.employees[i].ID < ctx.employees[j].ID
	})

	for _, s := range snap.AssignedShifts {
		ctx.existing[s.EmployeeID] = append(ctx.existing[s.EmployeeID], ShiftRef{
			Date:  s.Date,
			Start: s.Start,
			End:   s.End,
			Hours: s.Hours(),
		})
		ctx.fixed[fixedKey{s.EmployeeID, model.Weekday(s.Date), s.Start, s.End}]++
	}

	for _, a := range snap.Absences {
		ctx.absences[a.EmployeeID] = append(ctx.absences[a.EmployeeID], a)
	}

	return ctx
}

// Employees 按 ID 排序的员工列表
func (c *Context) Employees() []*model.Employee {
	return c.employees
}

// Candidate 员工的候选信息, 不存在时返回 nil
func (c *Context) Candidate(employeeID string) *Candidate {
	return c.candidates[employeeID]
}

// Rules 规则索引
func (c *Context) Rules() *RuleIndex {
	return c.rules
}

// ExistingShifts 快照中该员工已有的排班
func (c *Context) ExistingShifts(employeeID string) []ShiftRef {
	return c.existing[employeeID]
}

// Absences 员工的缺勤
func (c *Context) Absences(employeeID string) []model.Absence {
	return c.absences[employeeID]
}

// FixedPatternCount 历史排班中同一 (星期, 开始, 结束) 出现的次数
func (c *Context) FixedPatternCount(employeeID string, weekday time.Weekday, start, end string) int {
	return c.fixed[fixedKey{employeeID, weekday, start, end}]
}

// IsFixedPattern 该班次是否是员工的固定班
func (c *Context) IsFixedPattern(employeeID string, slot *model.Slot) bool {
	return c.FixedPatternCount(employeeID, model.Weekday(slot.Date), slot.Start, slot.End) >= FixedPatternMinOccurrences
}
