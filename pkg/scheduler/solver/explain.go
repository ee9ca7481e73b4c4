package solver

import (
	"fmt"

	"github.com/paiban/allocator/pkg/errors"
	"github.com/paiban/allocator/pkg/model"
)

// ExplainAlternativeLimit 解释中展示的备选人数
const ExplainAlternativeLimit = 5

// SlotInfo 班次概要
type SlotInfo struct {
	SlotID      string `json:"slot_id"`
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
	ShiftType   string `json:"shift_type"`
	WorkingArea string `json:"working_area,omitempty"`
}

// Explanation 一次分配的解释
type Explanation struct {
	AssignmentID string                      `json:"assignment_id"`
	EmployeeID   string                      `json:"employee_id"`
	EmployeeName string                      `json:"employee"`
	Kind         model.AssignmentKind        `json:"assignment_kind"`
	Slot         SlotInfo                    `json:"slot"`
	Score        float64                     `json:"score"`
	Reasons      []string                    `json:"reasons"`
	Breakdown    model.ScoreBreakdown        `json:"score_detail"`
	Alternatives []model.CandidateEvaluation `json:"alternatives"`
}

// Explain 解释方案中的某次分配
func Explain(plan *model.Plan, assignmentID string) (*Explanation, error) {
	a, ok := plan.FindAssignment(assignmentID)
	if !ok {
		return nil, errors.New(errors.CodeAssignmentNotFound,
			fmt.Sprintf("方案 '%s' 中不存在分配 '%s'", plan.PlanID, assignmentID))
	}

	alts := a.Alternatives
	if len(alts) > ExplainAlternativeLimit {
		alts = alts[:ExplainAlternativeLimit]
	}
	return &Explanation{
		AssignmentID: a.AssignmentID,
		EmployeeID:   a.EmployeeID,
		EmployeeName: a.EmployeeName,
		Kind:         a.Kind,
		Slot: SlotInfo{
			SlotID:      a.SlotID,
			Date:        a.Date,
			Start:       a.Start,
			End:         a.End,
			ShiftType:   a.ShiftType,
			WorkingArea: a.WorkingArea,
		},
		Score:        a.Score,
		Reasons:      a.Reasons,
		Breakdown:    a.Breakdown,
		Alternatives: alts,
	}, nil
}
