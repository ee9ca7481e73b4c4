package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/paiban/allocator/pkg/model"
)

// 对比结果中保留的条目数
const (
	topDivergentSlots   = 10
	topEmployeeDeltas   = 15
	unassignedDiffLabel = "(unassigned)"
)

// PlanSummary 对比用的方案汇总
type PlanSummary struct {
	PlanID        string                       `json:"plan_id"`
	Profile       string                       `json:"profile"`
	TotalSlots    int                          `json:"total_slots"`
	Assigned      int                          `json:"assigned"`
	Unassigned    int                          `json:"unassigned"`
	FillRate      float64                      `json:"fill_rate"`
	MeanScore     float64                      `json:"mean_score"`
	Gini          float64                      `json:"gini"`
	EmployeesUsed int                          `json:"employees_used"`
	Kinds         map[model.AssignmentKind]int `json:"assignment_kinds"`
}

// PlanDeltas A 减 B
type PlanDeltas struct {
	FillRate  float64 `json:"fill_rate"`
	MeanScore float64 `json:"mean_score"`
	Gini      float64 `json:"gini"`
	Assigned  int     `json:"assigned"`
}

// DivergentSlot 两个方案分配给不同员工的班次
type DivergentSlot struct {
	SlotID     string  `json:"slot_id"`
	Date       string  `json:"date"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	ShiftType  string  `json:"shift_type"`
	EmployeeA  string  `json:"plan_a_employee"`
	ScoreA     float64 `json:"plan_a_score"`
	EmployeeB  string  `json:"plan_b_employee"`
	ScoreB     float64 `json:"plan_b_score"`
	ScoreDelta float64 `json:"score_delta"`
}

// SlotDivergence 班次级别的一致性
type SlotDivergence struct {
	TotalSlots        int             `json:"total_slots"`
	SameEmployee      int             `json:"same_employee"`
	DifferentEmployee int             `json:"different_employee"`
	AOnlyAssigned     int             `json:"a_only_assigned"`
	BOnlyAssigned     int             `json:"b_only_assigned"`
	BothUnassigned    int             `json:"both_unassigned"`
	AgreementRate     float64         `json:"agreement_rate"`
	TopDivergentSlots []DivergentSlot `json:"top_divergent_slots"`
}

// EmployeeDelta 员工在两个方案中的工时
type EmployeeDelta struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	HoursA       float64 `json:"plan_a_hours"`
	HoursB       float64 `json:"plan_b_hours"`
	Delta        float64 `json:"delta"`
}

// Comparison 两个方案的对比
type Comparison struct {
	PlanA     PlanSummary     `json:"plan_a"`
	PlanB     PlanSummary     `json:"plan_b"`
	Deltas    PlanDeltas      `json:"deltas"`
	Slots     SlotDivergence  `json:"slot_divergence"`
	Employees []EmployeeDelta `json:"employee_comparison"`
}

// ComparePlans 对比两个方案的汇总指标和班次分配
func ComparePlans(a, b *model.Plan) *Comparison {
	if a == nil {
		a = &model.Plan{}
	}
	if b == nil {
		b = &model.Plan{}
	}
	summaryA := summarize(a)
	summaryB := summarize(b)

	return &Comparison{
		PlanA: summaryA,
		PlanB: summaryB,
		Deltas: PlanDeltas{
			FillRate:  model.Round1(summaryA.FillRate - summaryB.FillRate),
			MeanScore: model.Round2(summaryA.MeanScore - summaryB.MeanScore),
			Gini:      round4(summaryA.Gini - summaryB.Gini),
			Assigned:  summaryA.Assigned - summaryB.Assigned,
		},
		Slots:     slotDivergence(a, b),
		Employees: employeeDeltas(a, b),
	}
}

func summarize(plan *model.Plan) PlanSummary {
	scores := make([]float64, len(plan.Assignments))
	for i, a := range plan.Assignments {
		scores[i] = a.Score
	}
	hours := employeeHours(plan)
	values := make([]float64, 0, len(hours))
	for _, h := range hours {
		values = append(values, h.hours)
	}
	total := len(plan.Assignments) + len(plan.Unassigned)

	return PlanSummary{
		PlanID:        plan.PlanID,
		Profile:       plan.Profile,
		TotalSlots:    total,
		Assigned:      len(plan.Assignments),
		Unassigned:    len(plan.Unassigned),
		FillRate:      percent(len(plan.Assignments), total),
		MeanScore:     model.Round2(Mean(scores)),
		Gini:          round4(Gini(values)),
		EmployeesUsed: len(hours),
		Kinds:         kindCounts(plan.Assignments),
	}
}

type hourEntry struct {
	name  string
	hours float64
}

func employeeHours(plan *model.Plan) map[string]*hourEntry {
	out := make(map[string]*hourEntry)
	for _, a := range plan.Assignments {
		entry, ok := out[a.EmployeeID]
		if !ok {
			entry = &hourEntry{name: a.EmployeeName}
			out[a.EmployeeID] = entry
		}
		entry.hours += a.Hours
	}
	return out
}

func slotDivergence(a, b *model.Plan) SlotDivergence {
	aBySlot := assignmentsBySlot(a)
	bBySlot := assignmentsBySlot(b)

	all := make(map[string]bool)
	for id := range aBySlot {
		all[id] = true
	}
	for id := range bBySlot {
		all[id] = true
	}
	for _, u := range a.Unassigned {
		all[u.SlotID] = true
	}
	for _, u := range b.Unassigned {
		all[u.SlotID] = true
	}

	d := SlotDivergence{TotalSlots: len(all), TopDivergentSlots: []DivergentSlot{}}
	for _, id := range sortedKeys(all) {
		asgA, okA := aBySlot[id]
		asgB, okB := bBySlot[id]
		switch {
		case okA && okB:
			if asgA.EmployeeID == asgB.EmployeeID {
				d.SameEmployee++
				continue
			}
			d.DifferentEmployee++
			d.TopDivergentSlots = append(d.TopDivergentSlots, DivergentSlot{
				SlotID:     id,
				Date:       asgA.Date,
				Start:      asgA.Start,
				End:        asgA.End,
				ShiftType:  asgA.ShiftType,
				EmployeeA:  asgA.EmployeeName,
				ScoreA:     asgA.Score,
				EmployeeB:  asgB.EmployeeName,
				ScoreB:     asgB.Score,
				ScoreDelta: model.Round2(asgA.Score - asgB.Score),
			})
		case okA:
			d.AOnlyAssigned++
		case okB:
			d.BOnlyAssigned++
		default:
			d.BothUnassigned++
		}
	}

	// 稳定排序, |分差| 相同时保持班次ID顺序
	sort.SliceStable(d.TopDivergentSlots, func(i, j int) bool {
		return math.Abs(d.TopDivergentSlots[i].ScoreDelta) > math.Abs(d.TopDivergentSlots[j].ScoreDelta)
	})
	if len(d.TopDivergentSlots) > topDivergentSlots {
		d.TopDivergentSlots = d.TopDivergentSlots[:topDivergentSlots]
	}

	if compared := d.SameEmployee + d.DifferentEmployee; compared > 0 {
		d.AgreementRate = percent(d.SameEmployee, compared)
	}
	return d
}

func employeeDeltas(a, b *model.Plan) []EmployeeDelta {
	hoursA := employeeHours(a)
	hoursB := employeeHours(b)

	ids := make(map[string]bool)
	for id := range hoursA {
		ids[id] = true
	}
	for id := range hoursB {
		ids[id] = true
	}

	out := make([]EmployeeDelta, 0, len(ids))
	for _, id := range sortedKeys(ids) {
		row := EmployeeDelta{EmployeeID: id}
		if e, ok := hoursA[id]; ok {
			row.EmployeeName = e.name
			row.HoursA = model.Round2(e.hours)
		}
		if e, ok := hoursB[id]; ok {
			if row.EmployeeName == "" {
				row.EmployeeName = e.name
			}
			row.HoursB = model.Round2(e.hours)
		}
		row.Delta = model.Round2(row.HoursA - row.HoursB)
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Delta) > math.Abs(out[j].Delta)
	})
	if len(out) > topEmployeeDeltas {
		out = out[:topEmployeeDeltas]
	}
	return out
}

// DiffPlans 以 "班次 -> 员工" 行输出两个方案的统一差异格式
func DiffPlans(a, b *model.Plan) (string, error) {
	if a == nil {
		a = &model.Plan{}
	}
	if b == nil {
		b = &model.Plan{}
	}
	diff := difflib.UnifiedDiff{
		A:        planLines(a),
		B:        planLines(b),
		FromFile: diffLabel(a),
		ToFile:   diffLabel(b),
		Context:  2,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// planLines 每个班次一行, 按日期、开始时间和班次ID排序
func planLines(plan *model.Plan) []string {
	type line struct {
		date, start, slotID, text string
	}
	lines := make([]line, 0, len(plan.Assignments)+len(plan.Unassigned))
	for _, a := range plan.Assignments {
		lines = append(lines, line{a.Date, a.Start, a.SlotID,
			fmt.Sprintf("%s %s-%s %s -> %s (%s)\n", a.Date, a.Start, a.End, a.SlotID, a.EmployeeName, a.EmployeeID)})
	}
	for _, u := range plan.Unassigned {
		lines = append(lines, line{u.Date, u.Start, u.SlotID,
			fmt.Sprintf("%s %s-%s %s -> %s %s\n", u.Date, u.Start, u.End, u.SlotID, unassignedDiffLabel, u.Reason)})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].date != lines[j].date {
			return lines[i].date < lines[j].date
		}
		if lines[i].start != lines[j].start {
			return lines[i].start < lines[j].start
		}
		return lines[i].slotID < lines[j].slotID
	})

	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}

func diffLabel(plan *model.Plan) string {
	if plan.Profile == "" {
		return plan.PlanID
	}
	return fmt.Sprintf("%s (%s)", plan.PlanID, plan.Profile)
}

func assignmentsBySlot(plan *model.Plan) map[string]model.Assignment {
	out := make(map[string]model.Assignment, len(plan.Assignments))
	for _, a := range plan.Assignments {
		if a.SlotID != "" {
			out[a.SlotID] = a
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
