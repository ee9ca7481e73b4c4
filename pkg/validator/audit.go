// Package validator 提供方案的事后审计
//
// 方案可能在生成后被人工修改, 审计把每个分配放回快照中,
// 以同一方案的其他分配作为运行状态重新检查阻断约束.
package validator

import (
	"fmt"
	"sort"

	"github.com/paiban/allocator/pkg/model"
	"github.com/paiban/allocator/pkg/scheduler/constraint"
	"github.com/paiban/allocator/pkg/scheduler/constraint/builtin"
)

// Severity 严重程度
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// 约束目录之外的审计编码
const (
	CodeUnknownEmployee = "unknown_employee"
	CodeDuplicateSlot   = "duplicate_slot"
)

// Finding 一条审计结果
type Finding struct {
	AssignmentID string   `json:"assignment_id"`
	SlotID       string   `json:"slot_id"`
	EmployeeID   string   `json:"employee_id"`
	Date         string   `json:"date"`
	Code         string   `json:"code"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
}

// Report 审计报告
type Report struct {
	PlanID   string         `json:"plan_id"`
	Checked  int            `json:"checked"`
	Valid    bool           `json:"valid"`
	Findings []Finding      `json:"findings"`
	ByCode   map[string]int `json:"by_code"`
}

// Options 审计选项
type Options struct {
	// IncludeSoft 同时检查 soft 约束, 结果为 warning
	IncludeSoft bool
}

// PlanAuditor 方案审计器
type PlanAuditor struct {
	evaluator *constraint.Evaluator
	opts      Options
}

// NewPlanAuditor 创建审计器
func NewPlanAuditor(ev *constraint.Evaluator, opts Options) *PlanAuditor {
	if ev == nil {
		ev = builtin.NewDefaultEvaluator()
	}
	return &PlanAuditor{evaluator: ev, opts: opts}
}

// Audit 审计方案. obligatory 约束的违反为 error, 报告中有 error 时 Valid 为 false.
func (a *PlanAuditor) Audit(snap *model.Snapshot, profile *model.Profile, plan *model.Plan) (*Report, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if profile == nil {
		profile = model.NewProfile(plan.Profile)
		profile.Policy = plan.Policy
	}

	ctx := constraint.NewContext(snap, profile)
	report := &Report{
		PlanID:   plan.PlanID,
		Checked:  len(plan.Assignments),
		Findings: make([]Finding, 0),
		ByCode:   make(map[string]int),
	}

	seenSlots := make(map[string]bool, len(plan.Assignments))
	for i := range plan.Assignments {
		asg := &plan.Assignments[i]

		if seenSlots[asg.SlotID] {
			report.add(asg, CodeDuplicateSlot, SeverityError, fmt.Sprintf("班次 %s 被分配了多次", asg.SlotID))
		}
		seenSlots[asg.SlotID] = true

		cand := ctx.Candidate(asg.EmployeeID)
		if cand == nil {
			report.add(asg, CodeUnknownEmployee, SeverityError, fmt.Sprintf("员工 %s 不在快照中", asg.EmployeeID))
			continue
		}

		st := a.stateWithout(ctx, plan, i)
		slot := slotOf(asg)
		for _, code := range a.evaluator.EvaluateCategory(constraint.CategoryObligatory, ctx, st, cand, &slot) {
			report.add(asg, code, SeverityError, describe(code))
		}
		if a.opts.IncludeSoft {
			for _, code := range a.evaluator.EvaluateCategory(constraint.CategorySoft, ctx, st, cand, &slot) {
				report.add(asg, code, SeverityWarning, describe(code))
			}
		}
	}

	report.Valid = true
	for _, f := range report.Findings {
		if f.Severity == SeverityError {
			report.Valid = false
			break
		}
	}
	sort.SliceStable(report.Findings, func(i, j int) bool {
		fi, fj := report.Findings[i], report.Findings[j]
		if fi.Date != fj.Date {
			return fi.Date < fj.Date
		}
		if fi.SlotID != fj.SlotID {
			return fi.SlotID < fj.SlotID
		}
		return fi.Code < fj.Code
	})
	return report, nil
}

// stateWithout 快照中的已有排班加上方案中除第 skip 个以外的分配
func (a *PlanAuditor) stateWithout(ctx *constraint.Context, plan *model.Plan, skip int) *constraint.RunningState {
	st := constraint.NewRunningState(ctx)
	for j := range plan.Assignments {
		if j == skip || ctx.Candidate(plan.Assignments[j].EmployeeID) == nil {
			continue
		}
		other := slotOf(&plan.Assignments[j])
		st.Record(plan.Assignments[j].EmployeeID, &other)
	}
	return st
}

func slotOf(a *model.Assignment) model.Slot {
	return model.Slot{
		SlotID:      a.SlotID,
		ShiftID:     a.ShiftID,
		Date:        a.Date,
		Start:       a.Start,
		End:         a.End,
		ShiftType:   a.ShiftType,
		WorkingArea: a.WorkingArea,
	}
}

func describe(code string) string {
	if d, ok := constraint.Describe(constraint.Code(code)); ok {
		return d.Name + ": " + d.Description
	}
	return code
}

func (r *Report) add(a *model.Assignment, code string, severity Severity, message string) {
	r.Findings = append(r.Findings, Finding{
		AssignmentID: a.AssignmentID,
		SlotID:       a.SlotID,
		EmployeeID:   a.EmployeeID,
		Date:         a.Date,
		Code:         code,
		Severity:     severity,
		Message:      message,
	})
	r.ByCode[code]++
}
